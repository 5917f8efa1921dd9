package languages

import "github.com/standardbeagle/relex/internal/lexer"

// Words ids
var (
	WordID   = &lexer.TokenID{Name: "WORD", Ordinal: 0}
	SpaceID  = &lexer.TokenID{Name: "SPACE", Ordinal: 1}
	SymbolID = &lexer.TokenID{Name: "SYMBOL", Ordinal: 2}
)

// Words returns a language splitting text into words, whitespace runs and
// single symbols
func Words() lexer.Language {
	return &definition{
		name:     "words",
		ids:      []*lexer.TokenID{WordID, SpaceID, SymbolID},
		newLexer: func() lexer.Lexer { return &wordsLexer{} },
	}
}

type wordsLexer struct {
	in *lexer.Input
}

func (l *wordsLexer) Restart(in *lexer.Input, _ lexer.State) {
	l.in = in
}

func (l *wordsLexer) State() lexer.State {
	return nil
}

func (l *wordsLexer) NextToken() *lexer.Token {
	c := l.in.Read()
	switch {
	case c == lexer.EOF:
		l.in.Backup(1)
		return nil
	case isLetterOrDigit(c):
		readWhile(l.in, isLetterOrDigit)
		return l.in.CreateToken(WordID)
	case isWhitespace(c):
		readWhile(l.in, isWhitespace)
		return l.in.CreateToken(SpaceID)
	default:
		return l.in.CreateToken(SymbolID)
	}
}
