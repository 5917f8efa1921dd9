package randomtest

import (
	"github.com/standardbeagle/relex/internal/config"
)

// Config controls one harness run. Ratios are relative weights.
type Config struct {
	Seed        int64
	Rounds      int
	OpsPerRound int
	MaxLength   int

	InsertCharRatio    float64
	InsertTextRatio    float64
	InsertLiteralRatio float64
	RemoveCharRatio    float64
	RemoveTextRatio    float64

	MaxInsertLength int
	MaxRemoveLength int
	Alphabet        []rune
	Literals        []string
}

// DefaultConfig returns the harness settings of the default configuration
func DefaultConfig() Config {
	return FromConfig(config.Default().Random)
}

// FromConfig converts the file configuration
func FromConfig(rc config.RandomConfig) Config {
	return Config{
		Seed:               rc.Seed,
		Rounds:             rc.Rounds,
		OpsPerRound:        rc.OpsPerRound,
		MaxLength:          rc.MaxLength,
		InsertCharRatio:    rc.InsertChar,
		InsertTextRatio:    rc.InsertText,
		InsertLiteralRatio: rc.InsertLiteral,
		RemoveCharRatio:    rc.RemoveChar,
		RemoveTextRatio:    rc.RemoveText,
		MaxInsertLength:    rc.MaxInsertLength,
		MaxRemoveLength:    rc.MaxRemoveLength,
		Alphabet:           []rune(rc.Alphabet),
		Literals:           append([]string(nil), rc.Literals...),
	}
}

func (c Config) totalRatio() float64 {
	return c.InsertCharRatio + c.InsertTextRatio + c.InsertLiteralRatio + c.RemoveCharRatio + c.RemoveTextRatio
}
