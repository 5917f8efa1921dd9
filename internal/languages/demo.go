package languages

import (
	"github.com/standardbeagle/relex/internal/lexer"
)

// Demo ids
var (
	WhitespaceID  = &lexer.TokenID{Name: "WHITESPACE", Ordinal: 0}
	IdentifierID  = &lexer.TokenID{Name: "IDENTIFIER", Ordinal: 1, Intern: true}
	IfID          = &lexer.TokenID{Name: "IF", Ordinal: 2, Sample: "if"}
	ElseID        = &lexer.TokenID{Name: "ELSE", Ordinal: 3, Sample: "else"}
	WhileID       = &lexer.TokenID{Name: "WHILE", Ordinal: 4, Sample: "while"}
	NumberID      = &lexer.TokenID{Name: "NUMBER", Ordinal: 5}
	PlusID        = &lexer.TokenID{Name: "PLUS", Ordinal: 6, Sample: "+"}
	MinusID       = &lexer.TokenID{Name: "MINUS", Ordinal: 7, Sample: "-"}
	PlusMinusPlus = &lexer.TokenID{Name: "PLUS_MINUS_PLUS", Ordinal: 8, Sample: "+-+"}
	LtID          = &lexer.TokenID{Name: "LT", Ordinal: 9, Sample: "<"}
	LtEqID        = &lexer.TokenID{Name: "LTEQ", Ordinal: 10, Sample: "<="}
	ShiftID       = &lexer.TokenID{Name: "LTLT", Ordinal: 11, Sample: "<<"}
	ShiftEqID     = &lexer.TokenID{Name: "LTLTEQ", Ordinal: 12, Sample: "<<="}
	SlashID       = &lexer.TokenID{Name: "SLASH", Ordinal: 13, Sample: "/"}
	CommentID     = &lexer.TokenID{Name: "COMMENT", Ordinal: 14}
	StringID      = &lexer.TokenID{Name: "STRING", Ordinal: 15}
	ErrorID       = &lexer.TokenID{Name: "ERROR", Ordinal: 16}
)

var keywords = map[string]*lexer.TokenID{
	"if":    IfID,
	"else":  ElseID,
	"while": WhileID,
}

// DemoState is the state of the demo lexer between tokens. The zero state is
// reported as nil.
type DemoState struct {
	InComment bool
}

// Demo returns a small C-like language: identifiers, keywords, numbers,
// operators needing up to two characters of lookahead, block comments lexed
// one line per token, and double quoted strings. An unterminated string
// leaves the rest of the text as an incomplete tail.
func Demo() lexer.Language {
	return &definition{
		name: "demo",
		ids: []*lexer.TokenID{
			WhitespaceID, IdentifierID, IfID, ElseID, WhileID, NumberID,
			PlusID, MinusID, PlusMinusPlus, LtID, LtEqID, ShiftID, ShiftEqID,
			SlashID, CommentID, StringID, ErrorID,
		},
		newLexer: func() lexer.Lexer { return &demoLexer{} },
	}
}

type demoLexer struct {
	in        *lexer.Input
	inComment bool
	word      []rune
}

func (l *demoLexer) Restart(in *lexer.Input, state lexer.State) {
	l.in = in
	s, _ := state.(DemoState)
	l.inComment = s.InComment
}

func (l *demoLexer) State() lexer.State {
	if l.inComment {
		return DemoState{InComment: true}
	}
	return nil
}

func (l *demoLexer) NextToken() *lexer.Token {
	if l.inComment {
		return l.comment()
	}

	c := l.in.Read()
	switch {
	case c == lexer.EOF:
		l.in.Backup(1)
		return nil
	case isWhitespace(c):
		readWhile(l.in, isWhitespace)
		return l.in.CreateToken(WhitespaceID)
	case isLetter(c):
		return l.identifier(c)
	case isDigit(c):
		readWhile(l.in, isDigit)
		return l.in.CreateToken(NumberID)
	}

	switch c {
	case '+':
		return l.plus()
	case '-':
		return l.in.CreateToken(MinusID)
	case '<':
		return l.less()
	case '/':
		if l.in.Read() == '*' {
			l.inComment = true
			return l.comment()
		}
		l.in.Backup(1)
		return l.in.CreateToken(SlashID)
	case '"':
		return l.str()
	}
	return l.in.CreateToken(ErrorID)
}

func (l *demoLexer) identifier(first rune) *lexer.Token {
	l.word = append(l.word[:0], first)
	for {
		c := l.in.Read()
		if c == lexer.EOF || !isLetterOrDigit(c) {
			l.in.Backup(1)
			break
		}
		l.word = append(l.word, c)
	}
	if id, ok := keywords[string(l.word)]; ok {
		return l.in.CreateToken(id)
	}
	return l.in.CreateToken(IdentifierID)
}

// plus lexes "+" or "+-+"; "+-" followed by anything else is "+" with two
// characters of lookahead
func (l *demoLexer) plus() *lexer.Token {
	if l.in.Read() != '-' {
		l.in.Backup(1)
		return l.in.CreateToken(PlusID)
	}
	if l.in.Read() != '+' {
		l.in.Backup(2)
		return l.in.CreateToken(PlusID)
	}
	return l.in.CreateToken(PlusMinusPlus)
}

func (l *demoLexer) less() *lexer.Token {
	switch l.in.Read() {
	case '=':
		return l.in.CreateToken(LtEqID)
	case '<':
		if l.in.Read() == '=' {
			return l.in.CreateToken(ShiftEqID)
		}
		l.in.Backup(1)
		return l.in.CreateToken(ShiftID)
	}
	l.in.Backup(1)
	return l.in.CreateToken(LtID)
}

// comment lexes up to the closing "*/" or through the end of the current
// line, whichever comes first. The comment state survives across lines.
func (l *demoLexer) comment() *lexer.Token {
	for {
		c := l.in.Read()
		switch c {
		case lexer.EOF:
			l.in.Backup(1)
			if l.in.ReadLength() == 0 {
				return nil
			}
			return l.in.CreateToken(CommentID)
		case '\n':
			return l.in.CreateToken(CommentID)
		case '*':
			if l.in.Read() == '/' {
				l.inComment = false
				return l.in.CreateToken(CommentID)
			}
			l.in.Backup(1)
		}
	}
}

// str lexes a double quoted string with backslash escapes. Without a closing
// quote no token is produced.
func (l *demoLexer) str() *lexer.Token {
	for {
		switch l.in.Read() {
		case lexer.EOF:
			return nil
		case '\\':
			if l.in.Read() == lexer.EOF {
				return nil
			}
		case '"':
			return l.in.CreateToken(StringID)
		}
	}
}
