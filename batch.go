package sft

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// RunBatch processes every request on its own fresh engine, at most
// workers at a time (unlimited when workers <= 0). Results keep the
// input order. Context cancellation aborts requests that have not
// started; running requests finish.
func RunBatch(ctx context.Context, config *Config, reqs []Request, workers int) ([]Result, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	results := make([]Result, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			eng, err := New(config)
			if err != nil {
				return err
			}
			results[i] = eng.Process(req)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
