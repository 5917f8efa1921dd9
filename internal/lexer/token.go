package lexer

import (
	"fmt"

	"github.com/standardbeagle/relex/internal/errors"
)

// TokenID is the kind tag a language attaches to its tokens. Ids are compared
// by pointer, so a language hands out one *TokenID per kind.
type TokenID struct {
	Name    string
	Ordinal int
	// Sample is the fixed text of every token of this kind (keywords,
	// operators). Such tokens share a canonical copy instead of reading the buffer.
	Sample string
	// Intern makes tokens of this kind share canonical copies of their text
	// even though the text varies (identifiers).
	Intern bool
}

func (id *TokenID) String() string {
	if id == nil {
		return "<nil>"
	}
	return id.Name
}

// TokenVariant says where a token's characters come from
type TokenVariant int

const (
	// BufferBacked tokens read their characters from the text they were lexed from
	BufferBacked TokenVariant = iota
	// Sample tokens carry a canonical shared copy of their text
	Sample
)

func (v TokenVariant) String() string {
	switch v {
	case BufferBacked:
		return "buffer"
	case Sample:
		return "sample"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// Token is one lexical unit. Kind and text never change after creation; the
// raw offset is rewritten by the owning TokenList when the offset gap moves.
type Token struct {
	id        *TokenID
	variant   TokenVariant
	length    int
	rawOffset int
	sample    *sampleText
	src       Text
	list      *TokenList
}

// ID returns the token kind
func (t *Token) ID() *TokenID {
	return t.id
}

// Variant returns whether the token is buffer backed or a sample
func (t *Token) Variant() TokenVariant {
	return t.variant
}

// Length returns the number of characters in the token
func (t *Token) Length() int {
	return t.length
}

// RawOffset returns the offset as stored, relative to the list's offset gap
func (t *Token) RawOffset() int {
	return t.rawOffset
}

func (t *Token) setRawOffset(raw int) {
	t.rawOffset = raw
}

func (t *Token) updateRawOffset(diff int) {
	t.rawOffset += diff
}

// Offset returns the absolute offset of the token in the current text
func (t *Token) Offset() int {
	if t.list == nil {
		return t.rawOffset
	}
	return t.rawOffset - t.list.Relocate(t.rawOffset)
}

// CharAt returns the i-th character of the token
func (t *Token) CharAt(i int) (rune, error) {
	if i < 0 || i >= t.length {
		return 0, errors.NewContractError("Token.CharAt",
			fmt.Errorf("index %d out of range for token of length %d", i, t.length))
	}
	if t.variant == Sample {
		return t.sample.runes[i], nil
	}
	return t.src.CharAt(t.Offset() + i), nil
}

// Text returns the characters of the token
func (t *Token) Text() string {
	if t.variant == Sample {
		return t.sample.text
	}
	start := t.Offset()
	return Substring(t.src, start, start+t.length)
}

func (t *Token) String() string {
	return t.Text()
}
