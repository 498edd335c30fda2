package postlabel

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchWorkers is the concurrency used by ModerateBatch when workers <= 0.
const DefaultBatchWorkers = 4

// Result is the outcome of moderating one post URL.
type Result struct {
	URL    string   `json:"url"`
	Labels []string `json:"labels"`
}

// ModerateBatch moderates independent posts concurrently, with at most
// workers calls in flight. Results are in the order of urls.
func (cfg *Config) ModerateBatch(ctx context.Context, urls []string, workers int) []Result {
	cfg = cfg.withDefaults()

	if workers <= 0 {
		workers = DefaultBatchWorkers
	}

	results := make([]Result, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, u := range urls {
		g.Go(func() error {
			results[i] = Result{URL: u, Labels: cfg.Moderate(gctx, u)}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	return results
}
