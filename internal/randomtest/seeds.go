package randomtest

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/relex/internal/debug"
	"github.com/standardbeagle/relex/internal/lexer"
)

// RunSeeds runs an independent harness per seed, at most workers at a time.
// The first failure cancels the remaining runs and is returned with its seed.
func RunSeeds(ctx context.Context, lang lexer.Language, cfg Config, seeds []int64, workers int) ([]Stats, error) {
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	stats := make([]Stats, len(seeds))
	for i, seed := range seeds {
		g.Go(func() error {
			run := cfg
			run.Seed = seed
			h, err := NewHarness(lang, run)
			if err != nil {
				return err
			}
			if err := h.Run(ctx); err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			stats[i] = h.Stats()
			debug.LogFuzz("seed %d done: %d ops, locality %.4f\n", seed, stats[i].Ops, stats[i].Locality())
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}

// Seeds returns count consecutive seeds starting at first
func Seeds(first int64, count int) []int64 {
	seeds := make([]int64, count)
	for i := range seeds {
		seeds[i] = first + int64(i)
	}
	return seeds
}
