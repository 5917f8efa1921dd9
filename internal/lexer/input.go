package lexer

import (
	"fmt"

	"github.com/standardbeagle/relex/internal/errors"
)

// EOF is returned by Input.Read once the text is exhausted
const EOF rune = -1

// Input feeds characters of a Text to a Lexer and turns the characters read
// since the last token boundary into tokens.
//
// Reads past the end of the text keep advancing a virtual cursor so that a
// Backup undoes them. Reading EOF counts as one character of lookahead.
type Input struct {
	text       Text
	textLength int
	samples    *SampleCache

	tokenStart     int
	readIndex      int
	lookaheadIndex int

	last          *Token
	lastLookahead int
	created       int

	err error
}

// NewInput creates an input positioned at start. samples may be nil when the
// language has no sample or interned token kinds.
func NewInput(text Text, start int, samples *SampleCache) *Input {
	if samples == nil {
		samples = NewSampleCache()
	}
	return &Input{
		text:           text,
		textLength:     text.Length(),
		samples:        samples,
		tokenStart:     start,
		readIndex:      start,
		lookaheadIndex: start,
	}
}

// Read returns the next character, or EOF past the end of the text
func (in *Input) Read() rune {
	c := EOF
	if in.readIndex < in.textLength {
		c = in.text.CharAt(in.readIndex)
	}
	in.readIndex++
	if in.readIndex > in.lookaheadIndex {
		in.lookaheadIndex = in.readIndex
	}
	return c
}

// ReadLength returns the number of real characters read since the token start
func (in *Input) ReadLength() int {
	return min(in.readIndex, in.textLength) - in.tokenStart
}

// ReadLookahead returns how far past the token start the input has been read,
// counting a read of EOF as one character.
func (in *Input) ReadLookahead() int {
	return min(in.lookaheadIndex, in.textLength+1) - in.tokenStart
}

// Backup un-reads count characters
func (in *Input) Backup(count int) {
	if count < 0 {
		in.fail("Input.Backup", fmt.Errorf("negative backup count %d", count))
		return
	}
	if in.readIndex-count < in.tokenStart {
		in.fail("Input.Backup", fmt.Errorf("backup of %d rewinds before the token start (read %d)",
			count, in.readIndex-in.tokenStart))
		return
	}
	in.readIndex -= count
}

// CreateToken finalizes all characters read so far as a token of kind id
func (in *Input) CreateToken(id *TokenID) *Token {
	return in.CreateTokenLength(id, in.ReadLength())
}

// CreateTokenLength finalizes the first length characters read as a token.
// The read cursor moves to the end of the new token.
func (in *Input) CreateTokenLength(id *TokenID, length int) *Token {
	if in.err != nil {
		return nil
	}
	if id == nil {
		in.fail("Input.CreateToken", fmt.Errorf("nil token id"))
		return nil
	}
	if length <= 0 || length > in.ReadLength() {
		in.fail("Input.CreateToken", fmt.Errorf("token length %d outside 1..%d", length, in.ReadLength()))
		return nil
	}

	tok, err := in.newToken(id, length)
	if err != nil {
		in.fail("Input.CreateToken", err)
		return nil
	}

	in.lastLookahead = in.ReadLookahead() - length
	in.tokenStart += length
	in.readIndex = in.tokenStart
	in.lookaheadIndex = in.tokenStart
	in.last = tok
	in.created++
	return tok
}

func (in *Input) newToken(id *TokenID, length int) (*Token, error) {
	tok := &Token{id: id, length: length, rawOffset: in.tokenStart, src: in.text}
	switch {
	case id.Sample != "":
		sample := in.samples.get(id.Sample)
		if len(sample.runes) != length {
			return nil, fmt.Errorf("%s token of length %d does not match sample %q", id.Name, length, id.Sample)
		}
		for i, r := range sample.runes {
			if in.text.CharAt(in.tokenStart+i) != r {
				return nil, fmt.Errorf("%s token text differs from sample %q", id.Name, id.Sample)
			}
		}
		tok.variant = Sample
		tok.sample = sample
	case id.Intern:
		tok.variant = Sample
		tok.sample = in.samples.get(Substring(in.text, in.tokenStart, in.tokenStart+length))
	}
	return tok, nil
}

func (in *Input) fail(op string, err error) {
	if in.err == nil {
		in.err = errors.NewContractError(op, err).WithOffset(in.tokenStart)
	}
}

// Err returns the first contract violation, if any
func (in *Input) Err() error {
	return in.err
}

// TokenStart returns the offset where the next token begins
func (in *Input) TokenStart() int {
	return in.tokenStart
}

// LastLookahead returns the lookahead recorded for the most recent token
func (in *Input) LastLookahead() int {
	return in.lastLookahead
}
