package lexer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

var stateConfig = spew.ConfigState{
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// FormatState renders an opaque lexer state for dumps and mismatch reports
func FormatState(s State) string {
	if s == nil {
		return "nil"
	}
	return stateConfig.Sprintf("%+v", s)
}

// Escape quotes text so control characters are visible
func Escape(text string) string {
	return strconv.Quote(text)
}

// TokenView is a serializable snapshot of one token and its bookkeeping
type TokenView struct {
	Index     int    `json:"index"`
	Kind      string `json:"kind"`
	Text      string `json:"text"`
	Offset    int    `json:"offset"`
	Length    int    `json:"length"`
	Lookahead int    `json:"lookahead"`
	Lookback  int    `json:"lookback"`
	State     string `json:"state"`
	Sample    bool   `json:"sample,omitempty"`
}

// Views returns a snapshot of every token
func (l *TokenList) Views() []TokenView {
	views := make([]TokenView, 0, len(l.entries))
	it := l.Iterator()
	for it.HasNext() {
		tok := it.Next()
		views = append(views, TokenView{
			Index:     it.Index(),
			Kind:      tok.ID().Name,
			Text:      tok.Text(),
			Offset:    it.Offset(),
			Length:    tok.Length(),
			Lookahead: it.Lookahead(),
			Lookback:  it.Lookback(),
			State:     FormatState(it.State()),
			Sample:    tok.Variant() == Sample,
		})
	}
	return views
}

// WriteDump writes one line per token: index, escaped text, kind, absolute
// offset, lookahead, lookback and state. An incomplete tail is listed last.
func (l *TokenList) WriteDump(w io.Writer) error {
	it := l.Iterator()
	for it.HasNext() {
		tok := it.Next()
		_, err := fmt.Fprintf(w, "%4d: %-16s %-12s offset=%d la=%d lb=%d state=%s\n",
			it.Index(), Escape(tok.Text()), tok.ID().Name, it.Offset(), it.Lookahead(), it.Lookback(),
			FormatState(it.State()))
		if err != nil {
			return err
		}
	}
	if l.tail > 0 {
		end := l.TokensEnd()
		if _, err := fmt.Fprintf(w, "tail: %s offset=%d\n", Escape(Substring(l.text, end, end+l.tail)), end); err != nil {
			return err
		}
	}
	return nil
}

// Dump returns the WriteDump rendering as a string
func (l *TokenList) Dump() string {
	var sb strings.Builder
	_ = l.WriteDump(&sb)
	return sb.String()
}
