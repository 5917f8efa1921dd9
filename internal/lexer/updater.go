package lexer

import (
	"fmt"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/standardbeagle/relex/internal/debug"
	"github.com/standardbeagle/relex/internal/errors"
)

// Phase is the step of an edit the updater is in
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseInvalidating
	PhaseRelexing
	PhaseSplicing
	PhaseRelocating
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInvalidating:
		return "invalidating"
	case PhaseRelexing:
		return "relexing"
	case PhaseSplicing:
		return "splicing"
	case PhaseRelocating:
		return "relocating"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// EditResult describes how much of the token list an edit touched
type EditResult struct {
	// RelexStart is the index of the first relexed token
	RelexStart int `json:"relexStart"`
	// RelexOffset is the absolute offset relexing resumed at
	RelexOffset int `json:"relexOffset"`
	// Removed and Added count the old tokens replaced and the tokens produced
	Removed int `json:"removed"`
	Added   int `json:"added"`
	// RelexedChars counts the characters turned into new tokens
	RelexedChars int `json:"relexedChars"`
	// EarlyStop is set when relexing resynchronized with an old token
	EarlyStop       bool `json:"earlyStop"`
	LookbackUpdates int  `json:"lookbackUpdates"`
	Tail            int  `json:"tail"`
}

// Updater keeps a TokenList in sync with a mutable Text. The owner of the
// text calls ApplyEdit after every change, before the next one.
type Updater struct {
	mu      sync.Mutex
	text    Text
	lang    Language
	lexer   Lexer
	samples *SampleCache
	list    *TokenList
	phase   atomic.Int32
	broken  error
	edits   int
}

// NewUpdater lexes text and returns an updater tracking it
func NewUpdater(text Text, lang Language) (*Updater, error) {
	u := &Updater{
		text:    text,
		lang:    lang,
		lexer:   lang.NewLexer(),
		samples: NewSampleCache(),
	}
	list := newTokenList(text, lang)
	if err := list.lexAll(u.lexer, u.samples); err != nil {
		return nil, err
	}
	u.list = list
	return u, nil
}

// Tokens returns the current token list. It must not be read while an edit
// is being applied.
func (u *Updater) Tokens() *TokenList {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.list
}

// Samples returns the updater's sample cache
func (u *Updater) Samples() *SampleCache {
	return u.samples
}

// Phase returns the step the current edit is in. It does not take the
// updater lock, so it may be polled from any goroutine while an edit runs.
func (u *Updater) Phase() Phase {
	return Phase(u.phase.Load())
}

// Broken returns the error that left the token list indeterminate, if any
func (u *Updater) Broken() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.broken
}

// Edits returns the number of edits applied successfully
func (u *Updater) Edits() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.edits
}

// Dump renders the current token list
func (u *Updater) Dump() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.list.Dump()
}

// Views returns a serializable snapshot of the current tokens
func (u *Updater) Views() []TokenView {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.list.Views()
}

// Rebuild re-lexes the whole text. It is the only way back from an error.
func (u *Updater) Rebuild() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	list := newTokenList(u.text, u.lang)
	if err := list.lexAll(u.lang.NewLexer(), u.samples); err != nil {
		u.broken = err
		debug.Broken(debug.Update, "rebuild failed: %v\n", err)
		return err
	}
	u.list = list
	u.broken = nil
	debug.LogUpdate("rebuilt %d tokens, tail %d\n", list.Len(), list.tail)
	return nil
}

func (u *Updater) setPhase(p Phase) {
	u.phase.Store(int32(p))
	debug.LogUpdate("phase %s\n", p)
}

// ApplyEdit updates the tokens after the text changed at offset. A positive
// delta is an insertion of delta characters, a negative one a removal of
// -delta characters. The text must already hold the new content.
func (u *Updater) ApplyEdit(offset, delta int) (*EditResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.broken != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrNeedsRebuild, u.broken)
	}

	res, err := u.applyEdit(offset, delta)
	u.phase.Store(int32(PhaseIdle))
	if err != nil {
		u.broken = err
		debug.Broken(debug.Update, "edit at %d (%+d) failed, rebuild required: %v\n", offset, delta, err)
		return nil, err
	}
	u.edits++
	debug.LogUpdate("edit at %d (%+d): relex from %d, -%d +%d tokens, %d chars, early stop %v\n",
		offset, delta, res.RelexStart, res.Removed, res.Added, res.RelexedChars, res.EarlyStop)
	return res, nil
}

func (u *Updater) applyEdit(offset, delta int) (*EditResult, error) {
	l := u.list
	newLength := u.text.Length()
	oldLength := l.Length()

	if newLength-delta != oldLength {
		return nil, errors.NewContractError("Updater.ApplyEdit",
			fmt.Errorf("text length %d minus delta %d does not match tracked length %d", newLength, delta, oldLength))
	}
	if offset < 0 || offset > oldLength {
		return nil, errors.NewContractError("Updater.ApplyEdit",
			fmt.Errorf("offset outside 0..%d", oldLength)).WithOffset(offset)
	}
	if delta < 0 && offset-delta > oldLength {
		return nil, errors.NewContractError("Updater.ApplyEdit",
			fmt.Errorf("removal of %d characters runs past length %d", -delta, oldLength)).WithOffset(offset)
	}
	if delta == 0 {
		return &EditResult{RelexStart: -1, RelexOffset: -1, Tail: l.tail}, nil
	}

	removed := max(0, -delta)
	inserted := max(0, delta)
	n := l.Len()

	u.setPhase(PhaseInvalidating)
	r := l.firstAffected(offset)
	window := l.lookbackWindow(r)
	relexOffset := l.TokensEnd()
	if r < n {
		relexOffset = l.Offset(r)
	}
	var state State
	if r > 0 {
		state = l.State(r - 1)
	}
	// first old token starting after the edited span
	m := sort.Search(n, func(i int) bool {
		return l.Offset(i) >= offset+removed
	})

	u.setPhase(PhaseRelexing)
	in := NewInput(u.text, relexOffset, u.samples)
	u.lexer.Restart(in, state)
	var produced []entry
	matched := -1
	for {
		tok, err := nextToken(u.lexer, in)
		if err != nil {
			return nil, err
		}
		if tok == nil {
			break
		}
		e := entry{token: tok, lookahead: in.LastLookahead(), state: u.lexer.State()}
		produced = append(produced, e)

		if tok.rawOffset < offset+inserted {
			continue
		}
		oldStart := tok.rawOffset - delta
		for m < n && l.Offset(m) < oldStart {
			m++
		}
		if m < n && l.Offset(m) == oldStart && sameToken(e, l.entries[m]) {
			matched = m
			break
		}
	}

	end := n
	tail := l.tail
	if matched >= 0 {
		end = matched + 1
	} else {
		tail = newLength - in.TokenStart()
	}

	u.setPhase(PhaseSplicing)
	l.moveGap(end)
	for _, e := range produced {
		e.token.list = l
	}
	l.entries = slices.Replace(l.entries, r, end, produced...)

	u.setPhase(PhaseRelocating)
	added := len(produced)
	l.gapIndex = r + added
	l.gapLength -= delta
	l.tail = tail
	l.resetGapStart()
	if l.gapLength < minGapLength {
		l.renormalize()
	}
	updates := l.updateLookbacks(r, window, r+added)

	return &EditResult{
		RelexStart:      r,
		RelexOffset:     relexOffset,
		Removed:         end - r,
		Added:           added,
		RelexedChars:    in.TokenStart() - relexOffset,
		EarlyStop:       matched >= 0,
		LookbackUpdates: updates,
		Tail:            tail,
	}, nil
}

// sameToken reports whether a produced token can stand in for an old one at
// the same position after the edit. Kind, text, lookahead and state must all
// match; otherwise the old continuation is not what the lexer would produce.
func sameToken(produced, old entry) bool {
	a, b := produced.token, old.token
	if a.id != b.id || a.length != b.length || a.variant != b.variant {
		return false
	}
	// both sit at the same offset of the new text, so buffer backed
	// characters are equal once lengths are
	if a.variant == Sample && a.sample.text != b.sample.text {
		return false
	}
	return produced.lookahead == old.lookahead && StatesEqual(produced.state, old.state)
}
