// Package randomtest drives random edits through a document and checks the
// incrementally maintained tokens against a batch lex after every edit.
package randomtest

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/standardbeagle/relex/internal/debug"
	"github.com/standardbeagle/relex/internal/document"
	"github.com/standardbeagle/relex/internal/errors"
	"github.com/standardbeagle/relex/internal/lexer"
)

// Stats aggregates relexing cost over a run
type Stats struct {
	Seed         int64 `json:"seed"`
	Rounds       int   `json:"rounds"`
	Ops          int   `json:"ops"`
	Inserts      int   `json:"inserts"`
	Removes      int   `json:"removes"`
	TokensAdded  int   `json:"tokensAdded"`
	RelexedChars int   `json:"relexedChars"`
	// DocumentChars sums the document length at every edit
	DocumentChars int `json:"documentChars"`
	EarlyStops    int `json:"earlyStops"`
	MaxLength     int `json:"maxLength"`
}

// Locality is the share of the document relexed per edit on average
func (s Stats) Locality() float64 {
	if s.DocumentChars == 0 {
		return 0
	}
	return float64(s.RelexedChars) / float64(s.DocumentChars)
}

func (s *Stats) add(res *lexer.EditResult, length int) {
	s.Ops++
	s.TokensAdded += res.Added
	s.RelexedChars += res.RelexedChars
	s.DocumentChars += length
	if res.EarlyStop {
		s.EarlyStops++
	}
	s.MaxLength = max(s.MaxLength, length)
}

// Harness applies random edits to one document
type Harness struct {
	cfg  Config
	lang lexer.Language
	doc  *document.Document
	rng  *rand.Rand

	// literal being typed one character per operation
	pending       []rune
	pendingOffset int

	stats Stats
}

// NewHarness creates a harness over an empty document
func NewHarness(lang lexer.Language, cfg Config) (*Harness, error) {
	if cfg.totalRatio() <= 0 {
		return nil, errors.NewConfigError("random", "", fmt.Errorf("no positive operation ratio"))
	}
	doc, err := document.New("", lang)
	if err != nil {
		return nil, err
	}
	return &Harness{
		cfg:   cfg,
		lang:  lang,
		doc:   doc,
		rng:   rand.New(rand.NewSource(cfg.Seed)),
		stats: Stats{Seed: cfg.Seed},
	}, nil
}

// Document returns the document under test
func (h *Harness) Document() *document.Document {
	return h.doc
}

// Stats returns the accumulated statistics
func (h *Harness) Stats() Stats {
	return h.stats
}

// Pending returns how many characters of the current literal remain
func (h *Harness) Pending() int {
	return len(h.pending)
}

// Run plays cfg.Rounds rounds, stopping at the first mismatch or when ctx
// is done
func (h *Harness) Run(ctx context.Context) error {
	for i := 0; i < h.cfg.Rounds; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.Round(); err != nil {
			return err
		}
	}
	return nil
}

// Round plays cfg.OpsPerRound random operations. An unfinished literal
// carries over into the next round.
func (h *Harness) Round() error {
	for i := 0; i < h.cfg.OpsPerRound; i++ {
		if err := h.step(); err != nil {
			return err
		}
	}
	h.stats.Rounds++
	debug.LogFuzz("seed %d round %d: length %d, %d tokens\n",
		h.cfg.Seed, h.stats.Rounds, h.doc.Length(), h.doc.Stats().Tokens)
	return nil
}

// Insert inserts text and checks the result
func (h *Harness) Insert(offset int, text string) error {
	res, err := h.doc.Insert(offset, text)
	if err != nil {
		return err
	}
	h.stats.Inserts++
	h.stats.add(res, h.doc.Length())
	return h.check(fmt.Sprintf("insert %s at %d", lexer.Escape(text), offset))
}

// Remove deletes length characters and checks the result
func (h *Harness) Remove(offset, length int) error {
	res, err := h.doc.Remove(offset, length)
	if err != nil {
		return err
	}
	h.stats.Removes++
	h.stats.add(res, h.doc.Length())
	return h.check(fmt.Sprintf("remove %d at %d", length, offset))
}

// Check compares the document tokens with a batch lex
func (h *Harness) Check() error {
	return h.check("")
}

func (h *Harness) check(op string) error {
	err := Verify(h.doc)
	if ce, ok := err.(*errors.ConsistencyError); ok && op != "" {
		return ce.WithOperation(op)
	}
	return err
}

func (h *Harness) step() error {
	length := h.doc.Length()

	if len(h.pending) > 0 {
		return h.typeLiteral()
	}
	if length >= h.cfg.MaxLength {
		return h.removeText(length)
	}

	r := h.rng.Float64() * h.cfg.totalRatio()
	switch {
	case r < h.cfg.InsertCharRatio:
		return h.Insert(h.rng.Intn(length+1), string(h.randomRune()))
	case r < h.cfg.InsertCharRatio+h.cfg.InsertTextRatio:
		n := 1 + h.rng.Intn(max(1, h.cfg.MaxInsertLength))
		var sb strings.Builder
		for i := 0; i < n; i++ {
			sb.WriteRune(h.randomRune())
		}
		return h.Insert(h.rng.Intn(length+1), sb.String())
	case r < h.cfg.InsertCharRatio+h.cfg.InsertTextRatio+h.cfg.InsertLiteralRatio && len(h.cfg.Literals) > 0:
		h.pending = []rune(h.cfg.Literals[h.rng.Intn(len(h.cfg.Literals))])
		h.pendingOffset = h.rng.Intn(length + 1)
		return h.typeLiteral()
	case r < h.cfg.InsertCharRatio+h.cfg.InsertTextRatio+h.cfg.InsertLiteralRatio, length == 0:
		return h.Insert(h.rng.Intn(length+1), string(h.randomRune()))
	case r < h.cfg.totalRatio()-h.cfg.RemoveTextRatio:
		return h.Remove(h.rng.Intn(length), 1)
	default:
		return h.removeText(length)
	}
}

func (h *Harness) removeText(length int) error {
	offset := h.rng.Intn(length)
	n := 1 + h.rng.Intn(max(1, min(h.cfg.MaxRemoveLength, length-offset)))
	return h.Remove(offset, n)
}

func (h *Harness) typeLiteral() error {
	c := h.pending[0]
	h.pending = h.pending[1:]
	offset := h.pendingOffset
	h.pendingOffset++
	return h.Insert(offset, string(c))
}

func (h *Harness) randomRune() rune {
	if len(h.cfg.Alphabet) == 0 {
		return 'a'
	}
	return h.cfg.Alphabet[h.rng.Intn(len(h.cfg.Alphabet))]
}
