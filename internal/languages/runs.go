package languages

import "github.com/standardbeagle/relex/internal/lexer"

// Runs ids
var (
	RunID = &lexer.TokenID{Name: "RUN"}
)

// Runs returns a language producing one token per run of identical characters
func Runs() lexer.Language {
	return &definition{
		name:     "runs",
		ids:      []*lexer.TokenID{RunID},
		newLexer: func() lexer.Lexer { return &runsLexer{} },
	}
}

type runsLexer struct {
	in *lexer.Input
}

func (l *runsLexer) Restart(in *lexer.Input, _ lexer.State) {
	l.in = in
}

func (l *runsLexer) State() lexer.State {
	return nil
}

func (l *runsLexer) NextToken() *lexer.Token {
	first := l.in.Read()
	if first == lexer.EOF {
		l.in.Backup(1)
		return nil
	}
	readWhile(l.in, func(c rune) bool { return c == first })
	return l.in.CreateToken(RunID)
}
