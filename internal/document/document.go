// Package document provides a mutable text buffer whose tokens are kept up
// to date by an incremental updater on every change.
package document

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/relex/internal/errors"
	"github.com/standardbeagle/relex/internal/lexer"
)

// Document owns a rune buffer and the updater tracking it. Mutations apply
// the edit to the buffer and notify the updater before returning.
type Document struct {
	mu      sync.Mutex
	runes   []rune
	lang    lexer.Language
	updater *lexer.Updater
}

// runeView exposes the document buffer to the updater without locking; the
// updater is only invoked while the document lock is held.
type runeView struct {
	doc *Document
}

func (v runeView) Length() int {
	return len(v.doc.runes)
}

func (v runeView) CharAt(i int) rune {
	return v.doc.runes[i]
}

// New creates a document holding text, lexed with lang
func New(text string, lang lexer.Language) (*Document, error) {
	d := &Document{runes: []rune(text), lang: lang}
	u, err := lexer.NewUpdater(runeView{d}, lang)
	if err != nil {
		return nil, err
	}
	d.updater = u
	return d, nil
}

// Language returns the document language
func (d *Document) Language() lexer.Language {
	return d.lang
}

// Stats is a consistent view of the document size taken between edits
type Stats struct {
	Tokens int `json:"tokens"`
	Length int `json:"length"`
	Tail   int `json:"tail"`
	Edits  int `json:"edits"`
}

// Stats returns the token count, text length and tail under the document lock
func (d *Document) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	tokens := d.updater.Tokens()
	return Stats{
		Tokens: tokens.Len(),
		Length: len(d.runes),
		Tail:   tokens.Tail(),
		Edits:  d.updater.Edits(),
	}
}

// Inspect calls fn with the live token list and text while holding the
// document lock. Neither may be retained after fn returns.
func (d *Document) Inspect(fn func(tokens *lexer.TokenList, text lexer.Text) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fn(d.updater.Tokens(), runeView{d})
}

// Length returns the number of characters
func (d *Document) Length() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.runes)
}

// CharAt returns the character at index i
func (d *Document) CharAt(i int) (rune, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= len(d.runes) {
		return 0, errors.NewContractError("Document.CharAt",
			fmt.Errorf("index outside 0..%d", len(d.runes)-1)).WithOffset(i)
	}
	return d.runes[i], nil
}

// String returns the document text
func (d *Document) String() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return string(d.runes)
}

// Snapshot returns an immutable copy of the text
func (d *Document) Snapshot() lexer.RuneText {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append(lexer.RuneText(nil), d.runes...)
}

// Fingerprint hashes the document text
func (d *Document) Fingerprint() uint64 {
	return xxhash.Sum64String(d.String())
}

// Insert inserts text at offset
func (d *Document) Insert(offset int, text string) (*lexer.EditResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if offset < 0 || offset > len(d.runes) {
		return nil, errors.NewContractError("Document.Insert",
			fmt.Errorf("offset outside 0..%d", len(d.runes))).WithOffset(offset)
	}
	ins := []rune(text)
	if len(ins) == 0 {
		return d.updater.ApplyEdit(offset, 0)
	}
	d.runes = append(d.runes[:offset], append(ins, d.runes[offset:]...)...)
	return d.updater.ApplyEdit(offset, len(ins))
}

// Remove deletes length characters starting at offset
func (d *Document) Remove(offset, length int) (*lexer.EditResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if offset < 0 || length < 0 || offset+length > len(d.runes) {
		return nil, errors.NewContractError("Document.Remove",
			fmt.Errorf("range [%d,%d) outside 0..%d", offset, offset+length, len(d.runes))).WithOffset(offset)
	}
	if length == 0 {
		return d.updater.ApplyEdit(offset, 0)
	}
	d.runes = append(d.runes[:offset], d.runes[offset+length:]...)
	return d.updater.ApplyEdit(offset, -length)
}

// Replace swaps the whole text for text. The common prefix and suffix are
// kept, so the change reaches the updater as at most one removal and one
// insertion at the same offset.
func (d *Document) Replace(text string) ([]*lexer.EditResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	next := []rune(text)
	prefix := 0
	for prefix < len(d.runes) && prefix < len(next) && d.runes[prefix] == next[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(d.runes)-prefix && suffix < len(next)-prefix &&
		d.runes[len(d.runes)-1-suffix] == next[len(next)-1-suffix] {
		suffix++
	}

	removed := len(d.runes) - prefix - suffix
	inserted := next[prefix : len(next)-suffix]

	var results []*lexer.EditResult
	if removed > 0 {
		d.runes = append(d.runes[:prefix], d.runes[prefix+removed:]...)
		res, err := d.updater.ApplyEdit(prefix, -removed)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	if len(inserted) > 0 {
		d.runes = append(d.runes[:prefix], append(append([]rune(nil), inserted...), d.runes[prefix:]...)...)
		res, err := d.updater.ApplyEdit(prefix, len(inserted))
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Broken returns the error that left the tokens indeterminate, if any.
// Edits fail until Rebuild succeeds.
func (d *Document) Broken() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updater.Broken()
}

// Rebuild re-lexes the document after a failed edit
func (d *Document) Rebuild() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updater.Rebuild()
}

// Dump renders the current tokens
func (d *Document) Dump() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updater.Dump()
}

// Views returns a serializable snapshot of the current tokens
func (d *Document) Views() []lexer.TokenView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.updater.Views()
}
