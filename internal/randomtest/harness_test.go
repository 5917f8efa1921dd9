package randomtest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	relexerrors "github.com/standardbeagle/relex/internal/errors"
	"github.com/standardbeagle/relex/internal/languages"
	"github.com/standardbeagle/relex/internal/lexer"
)

func literalOnly(literal string) Config {
	return Config{
		Seed:               7,
		Rounds:             6,
		OpsPerRound:        3,
		MaxLength:          100,
		InsertLiteralRatio: 1,
		MaxInsertLength:    1,
		MaxRemoveLength:    1,
		Literals:           []string{literal},
	}
}

func TestCompareDetectsTextMismatch(t *testing.T) {
	lang := languages.Runs()
	incremental, err := lexer.Lex(lexer.NewRuneText("ab"), lang, nil)
	require.NoError(t, err)

	err = Compare(incremental, lexer.NewRuneText("aa"), lang)
	require.Error(t, err)

	var ce *relexerrors.ConsistencyError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 0, ce.Index)
	assert.Equal(t, "text", ce.Field)
	assert.Equal(t, `"aa"`, ce.Expected)
	assert.Equal(t, `"a"`, ce.Actual)
	assert.Equal(t, `"aa"`, ce.Text)
	assert.Contains(t, ce.IncrementalDump, `"b"`)
	assert.NotEmpty(t, ce.BatchDump)
}

func TestCompareAcceptsIdenticalLists(t *testing.T) {
	lang := languages.Demo()
	text := lexer.NewRuneText("while x <<= 10 /* c */ \"s")
	list, err := lexer.Lex(text, lang, nil)
	require.NoError(t, err)
	assert.NoError(t, Compare(list, text, lang))
}

func TestCompareDetectsTailMismatch(t *testing.T) {
	lang := languages.Demo()
	list, err := lexer.Lex(lexer.NewRuneText(`x "`), lang, nil)
	require.NoError(t, err)
	require.Equal(t, 1, list.Tail())

	err = Compare(list, lexer.NewRuneText(`x "ab`), lang)
	var ce *relexerrors.ConsistencyError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "tail", ce.Field)
	assert.Equal(t, "3", ce.Expected)
	assert.Equal(t, "1", ce.Actual)
}

func TestNewHarnessRejectsZeroRatios(t *testing.T) {
	_, err := NewHarness(languages.Demo(), Config{Rounds: 1, OpsPerRound: 1})
	var cfgErr *relexerrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
}

func TestLiteralContinuesAcrossRounds(t *testing.T) {
	const literal = "/* long literal */"
	require.Len(t, []rune(literal), 18)

	h, err := NewHarness(languages.Demo(), literalOnly(literal))
	require.NoError(t, err)

	require.NoError(t, h.Round())
	assert.Equal(t, 15, h.Pending())
	assert.Equal(t, "/* ", h.Document().String())

	for i := 1; i < 6; i++ {
		require.NoError(t, h.Round())
	}
	assert.Equal(t, 0, h.Pending())
	assert.Equal(t, literal, h.Document().String())

	stats := h.Stats()
	assert.Equal(t, 6, stats.Rounds)
	assert.Equal(t, 18, stats.Ops)
	assert.Equal(t, 18, stats.Inserts)
	assert.Equal(t, 0, stats.Removes)
	assert.Equal(t, 18, stats.MaxLength)
}

func TestRemovalForcedAtMaxLength(t *testing.T) {
	cfg := Config{
		Seed:            3,
		Rounds:          10,
		OpsPerRound:     20,
		MaxLength:       12,
		InsertTextRatio: 1,
		MaxInsertLength: 4,
		MaxRemoveLength: 3,
		Alphabet:        []rune("ab <="),
	}
	h, err := NewHarness(languages.Demo(), cfg)
	require.NoError(t, err)
	require.NoError(t, h.Run(context.Background()))

	stats := h.Stats()
	assert.Positive(t, stats.Removes)
	assert.LessOrEqual(t, stats.MaxLength, cfg.MaxLength+cfg.MaxInsertLength-1)
}

func TestEmptyDocumentRemovalBecomesInsert(t *testing.T) {
	cfg := Config{
		Seed:            1,
		Rounds:          1,
		OpsPerRound:     1,
		MaxLength:       10,
		RemoveCharRatio: 1,
		MaxRemoveLength: 1,
		Alphabet:        []rune("z"),
	}
	h, err := NewHarness(languages.Runs(), cfg)
	require.NoError(t, err)
	require.NoError(t, h.Round())
	assert.Equal(t, "z", h.Document().String())
	assert.Equal(t, 1, h.Stats().Inserts)
}

func TestHarnessRunsCleanForEveryLanguage(t *testing.T) {
	registry := languages.Default()
	for _, name := range registry.Names() {
		t.Run(name, func(t *testing.T) {
			lang, err := registry.Lookup(name)
			require.NoError(t, err)

			cfg := DefaultConfig()
			cfg.Seed = 42
			cfg.Rounds = 10
			h, err := NewHarness(lang, cfg)
			require.NoError(t, err)
			require.NoError(t, h.Run(context.Background()))
			require.NoError(t, h.Check())

			stats := h.Stats()
			assert.Equal(t, cfg.Rounds*cfg.OpsPerRound, stats.Ops)
			assert.Equal(t, stats.Ops, stats.Inserts+stats.Removes)
			assert.LessOrEqual(t, stats.Locality(), 1.0)
		})
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	h, err := NewHarness(languages.Demo(), DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, h.Run(ctx), context.Canceled)
	assert.Zero(t, h.Stats().Ops)
}

func TestRunSeeds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rounds = 4
	seeds := Seeds(100, 6)
	require.Equal(t, []int64{100, 101, 102, 103, 104, 105}, seeds)

	stats, err := RunSeeds(context.Background(), languages.Demo(), cfg, seeds, 3)
	require.NoError(t, err)
	require.Len(t, stats, len(seeds))
	for i, s := range stats {
		assert.Equal(t, seeds[i], s.Seed)
		assert.Equal(t, cfg.Rounds, s.Rounds)
	}
}

func TestRunSeedsReportsConfigErrors(t *testing.T) {
	_, err := RunSeeds(context.Background(), languages.Demo(), Config{Rounds: 1}, Seeds(1, 2), 0)
	require.Error(t, err)
}
