package workerpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ForEach runs fn for every item with at most concurrency calls in flight.
// fn owns its own error handling so one item never cancels the others; the
// returned error is only the parent context's.
func ForEach[T any](ctx context.Context, items []T, concurrency int, fn func(ctx context.Context, i int, item T)) error {
	if concurrency < 1 {
		concurrency = 1
	}

	g := new(errgroup.Group)
	g.SetLimit(concurrency)

	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			fn(ctx, i, item)
			return nil
		})
	}

	_ = g.Wait()
	return ctx.Err()
}
