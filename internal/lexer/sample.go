package lexer

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// sampleText is the canonical text shared by every sample token with the
// same characters.
type sampleText struct {
	text  string
	runes []rune
}

// SampleCache canonicalizes the text of sample tokens so that equal keywords,
// operators and interned identifiers share a single copy.
type SampleCache struct {
	mu      sync.Mutex
	entries map[uint64][]*sampleText
	hits    int
	misses  int
}

// NewSampleCache creates an empty cache
func NewSampleCache() *SampleCache {
	return &SampleCache{entries: make(map[uint64][]*sampleText)}
}

// get returns the canonical entry for text, creating it on first use
func (c *SampleCache) get(text string) *sampleText {
	key := xxhash.Sum64String(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range c.entries[key] {
		if e.text == text {
			c.hits++
			return e
		}
	}
	e := &sampleText{text: text, runes: []rune(text)}
	c.entries[key] = append(c.entries[key], e)
	c.misses++
	return e
}

// Canonical returns the shared copy of text
func (c *SampleCache) Canonical(text string) string {
	return c.get(text).text
}

// Len returns the number of distinct texts held
func (c *SampleCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, bucket := range c.entries {
		n += len(bucket)
	}
	return n
}

// Stats returns how many lookups found an existing entry and how many created one
func (c *SampleCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
