package utils

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// RateLimitedAll runs fn over items in chunks of chunkSize. Items inside a chunk
// run concurrently; the next chunk starts delay after the previous one
// finished. Results keep the input order. The first error stops further chunks.
func RateLimitedAll[T, R any](ctx context.Context, items []T, chunkSize int, delay time.Duration, fn func(context.Context, T) (R, error)) ([]R, error) {
	if chunkSize <= 0 {
		chunkSize = len(items)
	}
	results := make([]R, len(items))

	for start := 0; start < len(items); start += chunkSize {
		if start > 0 && delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return results, ctx.Err()
			case <-timer.C:
			}
		}

		end := start + chunkSize
		if end > len(items) {
			end = len(items)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				r, err := fn(gctx, items[i])
				if err != nil {
					return err
				}
				results[i] = r
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return results, err
		}
	}

	return results, nil
}
