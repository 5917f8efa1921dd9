package lexer

import (
	"fmt"

	"github.com/standardbeagle/relex/internal/errors"
)

// Lex tokenizes the whole text with a fresh lexer. samples may be nil.
func Lex(text Text, lang Language, samples *SampleCache) (*TokenList, error) {
	l := newTokenList(text, lang)
	if err := l.lexAll(lang.NewLexer(), samples); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *TokenList) lexAll(lx Lexer, samples *SampleCache) error {
	in := NewInput(l.text, 0, samples)
	lx.Restart(in, nil)

	var entries []entry
	for {
		tok, err := nextToken(lx, in)
		if err != nil {
			return err
		}
		if tok == nil {
			break
		}
		entries = append(entries, entry{token: tok, lookahead: in.LastLookahead(), state: lx.State()})
	}

	for _, e := range entries {
		e.token.list = l
	}
	l.entries = entries
	l.tail = l.text.Length() - in.TokenStart()
	l.gapIndex = len(entries)
	l.gapLength = initialGapLength
	l.resetGapStart()
	l.updateLookbacks(0, 0, len(entries)+1)
	return nil
}

// nextToken pulls one token and checks the lexer kept the input contract
func nextToken(lx Lexer, in *Input) (*Token, error) {
	before := in.created
	start := in.tokenStart

	tok := lx.NextToken()
	if err := in.Err(); err != nil {
		return nil, err
	}
	if tok == nil {
		if in.created != before {
			return nil, errors.NewContractError("Lexer.NextToken",
				fmt.Errorf("created %d tokens but returned none", in.created-before)).WithOffset(start)
		}
		return nil, nil
	}
	if in.created != before+1 || tok != in.last {
		return nil, errors.NewContractError("Lexer.NextToken",
			fmt.Errorf("must return the single token it created, created %d", in.created-before)).WithOffset(start)
	}
	return tok, nil
}
