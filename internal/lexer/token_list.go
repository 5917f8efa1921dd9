package lexer

import "sort"

const (
	// initialGapLength is the raw distance between tokens before and after
	// the offset gap right after (re)normalization.
	initialGapLength = 1 << 30
	// minGapLength triggers renormalization once insertions have eaten the gap.
	minGapLength = 1 << 20
)

// entry is the per-position bookkeeping of a token
type entry struct {
	token     *Token
	lookahead int
	lookback  int
	state     State
}

// TokenList is an ordered token sequence covering a text, followed by an
// optional incomplete tail the lexer could not turn into a token.
//
// Offsets are stored raw around an offset gap: tokens before gapIndex store
// their absolute offset, tokens from gapIndex on store absolute + gapLength.
// An edit only moves the gap and adjusts gapLength.
type TokenList struct {
	text    Text
	lang    Language
	entries []entry

	gapIndex  int
	gapStart  int
	gapLength int

	tail int
}

func newTokenList(text Text, lang Language) *TokenList {
	return &TokenList{text: text, lang: lang, gapLength: initialGapLength}
}

// Len returns the number of tokens
func (l *TokenList) Len() int {
	return len(l.entries)
}

// Language returns the language the tokens were lexed with
func (l *TokenList) Language() Language {
	return l.lang
}

// Token returns the token at index i
func (l *TokenList) Token(i int) *Token {
	return l.entries[i].token
}

// Offset returns the absolute offset of token i
func (l *TokenList) Offset(i int) int {
	return l.entries[i].token.Offset()
}

// Lookahead returns the lookahead recorded for token i
func (l *TokenList) Lookahead(i int) int {
	return l.entries[i].lookahead
}

// Lookback returns the lookback of token i
func (l *TokenList) Lookback(i int) int {
	return l.entries[i].lookback
}

// State returns the lexer state after token i
func (l *TokenList) State(i int) State {
	return l.entries[i].state
}

// Tail returns the length of the incomplete tail after the last token
func (l *TokenList) Tail() int {
	return l.tail
}

// TokensEnd returns the absolute offset where the last token ends
func (l *TokenList) TokensEnd() int {
	n := len(l.entries)
	if n == 0 {
		return 0
	}
	return l.Offset(n-1) + l.entries[n-1].token.length
}

// Length returns the length of the text the list covers, tail included
func (l *TokenList) Length() int {
	return l.TokensEnd() + l.tail
}

// Relocate returns the shift to subtract from raw to get an absolute offset
func (l *TokenList) Relocate(raw int) int {
	if raw < l.gapStart {
		return 0
	}
	return l.gapLength
}

// reach returns the offset just past the last character token i read
func (l *TokenList) reach(i int) int {
	e := l.entries[i]
	return e.token.Offset() + e.token.length + e.lookahead
}

// IndexAt returns the index of the token containing offset, or Len() when
// offset lies at or past the end of the tokens.
func (l *TokenList) IndexAt(offset int) int {
	n := len(l.entries)
	i := sort.Search(n, func(i int) bool {
		return l.Offset(i) > offset
	})
	if i == 0 {
		return 0
	}
	if offset >= l.TokensEnd() {
		return n
	}
	return i - 1
}

// moveGap makes k the first index stored behind the gap
func (l *TokenList) moveGap(k int) {
	switch {
	case k < l.gapIndex:
		for i := k; i < l.gapIndex; i++ {
			l.entries[i].token.updateRawOffset(l.gapLength)
		}
	case k > l.gapIndex:
		for i := l.gapIndex; i < k; i++ {
			l.entries[i].token.updateRawOffset(-l.gapLength)
		}
	}
	l.gapIndex = k
	l.resetGapStart()
}

// resetGapStart recomputes gapStart from the token at gapIndex. Tokens at
// and after the gap must already store absolute + gapLength.
func (l *TokenList) resetGapStart() {
	if l.gapIndex < len(l.entries) {
		l.gapStart = l.entries[l.gapIndex].token.rawOffset - l.gapLength
		return
	}
	if l.gapIndex == 0 {
		l.gapStart = 0
		return
	}
	last := l.entries[l.gapIndex-1].token
	l.gapStart = last.rawOffset + last.length
}

// renormalize restores a full-size gap
func (l *TokenList) renormalize() {
	for i := l.gapIndex; i < len(l.entries); i++ {
		t := l.entries[i].token
		t.setRawOffset(t.rawOffset - l.gapLength + initialGapLength)
	}
	l.gapLength = initialGapLength
	l.resetGapStart()
}

// firstAffected returns the index of the first token whose read extent
// reaches past offset. An insertion or removal at offset invalidates it and
// every token after it up to the relex resynchronization point.
func (l *TokenList) firstAffected(offset int) int {
	n := len(l.entries)
	c := l.IndexAt(offset)
	hi := c
	if c == n {
		hi = n - 1
	}
	if hi < 0 {
		return 0
	}
	for i := hi - l.entries[hi].lookback; i < c; i++ {
		if l.reach(i) > offset {
			return i
		}
	}
	return c
}

// lookbackWindow returns the smallest index whose reach may pass the start
// of token r. Valid for any r in [0, Len()].
func (l *TokenList) lookbackWindow(r int) int {
	switch {
	case r == 0:
		return 0
	case r < len(l.entries):
		return r - l.entries[r].lookback
	default:
		return r - 1 - l.entries[r-1].lookback
	}
}

// updateLookbacks recomputes lookbacks starting at index from. window is the
// first index that could reach into token from, as returned by lookbackWindow
// before the tokens at from were replaced. Old tokens from stable on keep
// their stored lookback unless something before stable still reaches them.
// Returns the number of lookbacks recomputed.
func (l *TokenList) updateLookbacks(from, window, stable int) int {
	if from >= len(l.entries) {
		return 0
	}
	start := l.Offset(from)
	active := make([]int, 0, 8)
	for i := window; i < from; i++ {
		if l.reach(i) > start {
			active = append(active, i)
		}
	}

	updated := 0
	for j := from; j < len(l.entries); j++ {
		start = l.Offset(j)
		kept := active[:0]
		for _, i := range active {
			if l.reach(i) > start {
				kept = append(kept, i)
			}
		}
		active = kept

		lowest := j
		if len(active) > 0 {
			lowest = active[0]
		}

		if j >= stable && lowest >= stable && l.entries[j].lookback <= j-stable {
			break
		}
		l.entries[j].lookback = j - lowest
		updated++
		active = append(active, j)
	}
	return updated
}

// Iterator returns a forward iterator over the tokens
func (l *TokenList) Iterator() *Iterator {
	return &Iterator{list: l, index: -1}
}

// Iterator walks a TokenList. The introspection methods describe the token
// most recently returned by Next.
type Iterator struct {
	list  *TokenList
	index int
}

// HasNext reports whether Next will return a token
func (it *Iterator) HasNext() bool {
	return it.index+1 < len(it.list.entries)
}

// Next advances to and returns the next token
func (it *Iterator) Next() *Token {
	it.index++
	return it.list.entries[it.index].token
}

// Index returns the index of the current token
func (it *Iterator) Index() int {
	return it.index
}

// Offset returns the absolute offset of the current token
func (it *Iterator) Offset() int {
	return it.list.Offset(it.index)
}

// Lookahead returns the lookahead of the current token
func (it *Iterator) Lookahead() int {
	return it.list.entries[it.index].lookahead
}

// Lookback returns the lookback of the current token
func (it *Iterator) Lookback() int {
	return it.list.entries[it.index].lookback
}

// State returns the lexer state after the current token
func (it *Iterator) State() State {
	return it.list.entries[it.index].state
}
