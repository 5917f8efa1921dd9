package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/bmatcuk/doublestar/v4"

	relexerrors "github.com/standardbeagle/relex/internal/errors"
)

// Validator validates configuration and sets smart defaults
type Validator struct{}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults
// Returns an error if validation fails
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateRandomConfig(&cfg.Random); err != nil {
		return relexerrors.NewConfigError("random", "", err)
	}

	if err := v.validateWatchConfig(&cfg.Watch); err != nil {
		return relexerrors.NewConfigError("watch", "", err)
	}

	v.setSmartDefaults(cfg)
	return nil
}

// validateRandomConfig validates harness configuration
func (v *Validator) validateRandomConfig(r *RandomConfig) error {
	ratios := map[string]float64{
		"insert_char":    r.InsertChar,
		"insert_text":    r.InsertText,
		"insert_literal": r.InsertLiteral,
		"remove_char":    r.RemoveChar,
		"remove_text":    r.RemoveText,
	}
	total := 0.0
	for name, ratio := range ratios {
		if ratio < 0 {
			return fmt.Errorf("%s ratio cannot be negative, got %v", name, ratio)
		}
		total += ratio
	}
	if total == 0 {
		return errors.New("at least one operation ratio must be positive")
	}
	if r.InsertChar+r.InsertText+r.InsertLiteral == 0 {
		return errors.New("at least one insert ratio must be positive")
	}

	if r.Rounds < 0 {
		return fmt.Errorf("rounds cannot be negative, got %d", r.Rounds)
	}
	if r.OpsPerRound <= 0 {
		return fmt.Errorf("ops_per_round must be positive, got %d", r.OpsPerRound)
	}
	if r.MaxLength <= 0 {
		return fmt.Errorf("max_length must be positive, got %d", r.MaxLength)
	}
	if r.MaxInsertLength <= 0 || r.MaxRemoveLength <= 0 {
		return fmt.Errorf("max insert/remove lengths must be positive, got %d/%d", r.MaxInsertLength, r.MaxRemoveLength)
	}
	if r.InsertChar+r.InsertText > 0 && r.Alphabet == "" {
		return errors.New("alphabet cannot be empty when characters are inserted")
	}
	if r.InsertLiteral > 0 && len(r.Literals) == 0 {
		return errors.New("literals cannot be empty when insert_literal is positive")
	}
	for _, lit := range r.Literals {
		if lit == "" {
			return errors.New("literals cannot contain an empty string")
		}
	}

	// Seeds and Workers: 0 means auto (set by smart defaults)
	if r.Seeds < 0 {
		return fmt.Errorf("seeds cannot be negative, got %d", r.Seeds)
	}
	if r.Workers < 0 {
		return fmt.Errorf("workers cannot be negative, got %d", r.Workers)
	}

	return nil
}

// validateWatchConfig validates watcher configuration
func (v *Validator) validateWatchConfig(w *Watch) error {
	if w.DebounceMs < 0 {
		return fmt.Errorf("debounce_ms cannot be negative, got %d", w.DebounceMs)
	}
	if w.MaxFileKB <= 0 {
		return fmt.Errorf("max_file_kb must be positive, got %d", w.MaxFileKB)
	}

	for _, pattern := range append(append([]string(nil), w.Include...), w.Exclude...) {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid glob pattern %q", pattern)
		}
	}

	return nil
}

// setSmartDefaults applies smart defaults based on system capabilities
func (v *Validator) setSmartDefaults(cfg *Config) {
	setRandomDefaults(&cfg.Random)

	if cfg.Language == "" {
		cfg.Language = "demo"
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = Default().Server.Addr
	}

	if len(cfg.Watch.Include) == 0 {
		cfg.Watch.Include = []string{"**/*"}
	}
}

func setRandomDefaults(r *RandomConfig) {
	// Use cores-1 to leave headroom for the system, minimum of 1
	if r.Workers == 0 {
		r.Workers = max(1, runtime.NumCPU()-1)
	}
	if r.Seeds == 0 {
		r.Seeds = 1
	}
}

// ValidateRandom checks harness settings on their own, for callers that
// override a validated config (command-line flags) before running.
func ValidateRandom(r *RandomConfig) error {
	if err := NewValidator().validateRandomConfig(r); err != nil {
		return relexerrors.NewConfigError("random", "", err)
	}
	setRandomDefaults(r)
	return nil
}

// ValidateConfig is a convenience function for quick validation
func ValidateConfig(cfg *Config) error {
	validator := NewValidator()
	return validator.ValidateAndSetDefaults(cfg)
}
