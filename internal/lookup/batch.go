package lookup

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// LookupBatch resolves several callsigns with a fixed concurrency bound,
// respecting per-source rate limits. Results come back as a mapping, so
// completion order is irrelevant. The fatal missing-database error aborts
// the whole batch.
func (e *Engine) LookupBatch(ctx context.Context, raws []string, opts Options) (map[string]Result, error) {
	results := make(map[string]Result, len(raws))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.batchWorkers)

	for _, raw := range raws {
		raw := raw
		g.Go(func() error {
			res, err := e.Lookup(gctx, raw, opts)
			if err != nil {
				return err
			}
			mu.Lock()
			results[res.Callsign] = res
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
