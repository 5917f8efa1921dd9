// Package languages holds the token grammars relex ships with and a
// registry to look them up by name.
package languages

import "github.com/standardbeagle/relex/internal/lexer"

// definition is a Language built from a fixed id table and a lexer factory
type definition struct {
	name     string
	ids      []*lexer.TokenID
	newLexer func() lexer.Lexer
}

func (d *definition) Name() string {
	return d.name
}

func (d *definition) TokenIDs() []*lexer.TokenID {
	return d.ids
}

func (d *definition) NewLexer() lexer.Lexer {
	return d.newLexer()
}

func isLetter(c rune) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '_'
}

func isDigit(c rune) bool {
	return c >= '0' && c <= '9'
}

func isWhitespace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isLetterOrDigit(c rune) bool {
	return isLetter(c) || isDigit(c)
}

// readWhile consumes characters matching accept, leaving the first
// non-matching one unread
func readWhile(in *lexer.Input, accept func(rune) bool) {
	for {
		c := in.Read()
		if c == lexer.EOF || !accept(c) {
			in.Backup(1)
			return
		}
	}
}
