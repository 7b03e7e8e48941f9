// Package pool runs independent units of work with a fixed concurrency bound.
// Every phase of the engine (directory listing, hashing, moving, deleting,
// stat collection) goes through ForEach.
package pool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the pool width used when none is configured
const DefaultWorkers = 4

// Width normalizes a configured worker count
func Width(workers int) int {
	if workers < 1 {
		return DefaultWorkers
	}
	return workers
}

// ForEach calls fn for every item with at most workers calls in flight and
// blocks until all dispatched calls return. Units handle their own failures;
// once ctx is cancelled no further items are dispatched and ctx.Err() is
// returned.
func ForEach[T any](ctx context.Context, workers int, items []T, fn func(ctx context.Context, item T)) error {
	var g errgroup.Group
	g.SetLimit(Width(workers))

	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			fn(ctx, item)
			return nil
		})
	}

	_ = g.Wait()
	return ctx.Err()
}

// Batches splits items into at most n contiguous slices of near-equal length
func Batches[T any](items []T, n int) [][]T {
	n = Width(n)
	if len(items) == 0 {
		return nil
	}
	if n > len(items) {
		n = len(items)
	}

	out := make([][]T, 0, n)
	size := len(items) / n
	extra := len(items) % n
	start := 0
	for i := 0; i < n; i++ {
		end := start + size
		if i < extra {
			end++
		}
		out = append(out, items[start:end])
		start = end
	}
	return out
}
