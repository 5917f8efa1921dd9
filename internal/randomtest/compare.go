package randomtest

import (
	"strconv"

	"github.com/standardbeagle/relex/internal/document"
	"github.com/standardbeagle/relex/internal/errors"
	"github.com/standardbeagle/relex/internal/lexer"
)

// Compare lexes text from scratch and checks the incrementally maintained
// tokens against the result: kind, text, offset, lookahead, lookback and
// state of every token, the token count and the incomplete tail.
func Compare(incremental *lexer.TokenList, text lexer.Text, lang lexer.Language) error {
	batch, err := lexer.Lex(text, lang, nil)
	if err != nil {
		return err
	}
	if err := compareLists(incremental, batch); err != nil {
		return err.WithDumps(lexer.Escape(lexer.Substring(text, 0, text.Length())), incremental.Dump(), batch.Dump())
	}
	return nil
}

// Verify runs Compare on doc while holding its lock, so no edit can change
// the tokens mid-comparison.
func Verify(doc *document.Document) error {
	return doc.Inspect(func(tokens *lexer.TokenList, text lexer.Text) error {
		return Compare(tokens, text, doc.Language())
	})
}

func compareLists(incremental, batch *lexer.TokenList) *errors.ConsistencyError {
	n := min(incremental.Len(), batch.Len())
	for i := 0; i < n; i++ {
		a, b := incremental.Token(i), batch.Token(i)
		checks := []struct {
			field         string
			expected, got string
		}{
			{"kind", b.ID().Name, a.ID().Name},
			{"text", lexer.Escape(b.Text()), lexer.Escape(a.Text())},
			{"offset", strconv.Itoa(batch.Offset(i)), strconv.Itoa(incremental.Offset(i))},
			{"lookahead", strconv.Itoa(batch.Lookahead(i)), strconv.Itoa(incremental.Lookahead(i))},
			{"lookback", strconv.Itoa(batch.Lookback(i)), strconv.Itoa(incremental.Lookback(i))},
			{"state", lexer.FormatState(batch.State(i)), lexer.FormatState(incremental.State(i))},
		}
		for _, c := range checks {
			if c.expected != c.got {
				return errors.NewConsistencyError(i, c.field, c.expected, c.got)
			}
		}
		if a.ID() != b.ID() {
			return errors.NewConsistencyError(i, "kind", "id "+strconv.Itoa(b.ID().Ordinal), "id "+strconv.Itoa(a.ID().Ordinal))
		}
	}
	if incremental.Len() != batch.Len() {
		return errors.NewConsistencyError(n, "count", strconv.Itoa(batch.Len()), strconv.Itoa(incremental.Len()))
	}
	if incremental.Tail() != batch.Tail() {
		return errors.NewConsistencyError(n, "tail", strconv.Itoa(batch.Tail()), strconv.Itoa(incremental.Tail()))
	}
	return nil
}
