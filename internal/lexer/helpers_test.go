package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/relex/internal/lexer"
)

// buffer is a minimal mutable text that notifies an updater after each change
type buffer struct {
	runes []rune
}

func newBuffer(s string) *buffer {
	return &buffer{runes: []rune(s)}
}

func (b *buffer) Length() int {
	return len(b.runes)
}

func (b *buffer) CharAt(i int) rune {
	return b.runes[i]
}

func (b *buffer) String() string {
	return string(b.runes)
}

func (b *buffer) insert(u *lexer.Updater, offset int, s string) (*lexer.EditResult, error) {
	ins := []rune(s)
	b.runes = append(b.runes[:offset], append(ins, b.runes[offset:]...)...)
	return u.ApplyEdit(offset, len(ins))
}

func (b *buffer) remove(u *lexer.Updater, offset, n int) (*lexer.EditResult, error) {
	b.runes = append(b.runes[:offset], b.runes[offset+n:]...)
	return u.ApplyEdit(offset, -n)
}

// requireMatchesBatch checks the incrementally maintained tokens against a
// fresh lex of the same text
func requireMatchesBatch(t *testing.T, u *lexer.Updater, b *buffer, lang lexer.Language) {
	t.Helper()
	batch, err := lexer.Lex(lexer.NewRuneText(b.String()), lang, nil)
	require.NoError(t, err)

	tokens := u.Tokens()
	require.Equal(t, batch.Dump(), tokens.Dump(), "text %q", b.String())
	require.Equal(t, batch.Tail(), tokens.Tail())
	require.Equal(t, b.Length(), tokens.Length())
}

// texts returns the token texts in order
func texts(l *lexer.TokenList) []string {
	var out []string
	it := l.Iterator()
	for it.HasNext() {
		out = append(out, it.Next().Text())
	}
	return out
}

// toggleID tokens are single characters; '!' flips the lexer state
var (
	toggleCharID = &lexer.TokenID{Name: "CHAR"}
	toggleBangID = &lexer.TokenID{Name: "BANG"}
)

type toggleLanguage struct{}

func (toggleLanguage) Name() string { return "toggle" }

func (toggleLanguage) TokenIDs() []*lexer.TokenID {
	return []*lexer.TokenID{toggleCharID, toggleBangID}
}

func (toggleLanguage) NewLexer() lexer.Lexer { return &toggleLexer{} }

type toggleLexer struct {
	in *lexer.Input
	on bool
}

func (l *toggleLexer) Restart(in *lexer.Input, state lexer.State) {
	l.in = in
	l.on = state != nil
}

func (l *toggleLexer) State() lexer.State {
	if l.on {
		return "on"
	}
	return nil
}

func (l *toggleLexer) NextToken() *lexer.Token {
	switch l.in.Read() {
	case lexer.EOF:
		l.in.Backup(1)
		return nil
	case '!':
		l.on = !l.on
		return l.in.CreateToken(toggleBangID)
	default:
		return l.in.CreateToken(toggleCharID)
	}
}
