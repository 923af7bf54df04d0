// Package pipeline provides a bounded-concurrency fan-out over a slice of
// items, generalizing the worker-pool-over-channel shape the teacher uses
// in its download and upload paths (internal/sync, internal/upload) into
// a single reusable runtime.
package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultWidth is the default admission-control weight: at most this
// many items are in flight at once.
const DefaultWidth = 10

// Run fans work out across at most width concurrent goroutines, one per
// item, and waits for every item to finish before returning. g is a
// zero-value errgroup.Group, deliberately not errgroup.WithContext: that
// variant cancels every peer's context on the first error, which would
// abort in-flight transfers for files that have nothing to do with the
// one that failed. The zero value only joins goroutines and remembers
// the first non-nil error, so every item's work func always runs to
// completion regardless of its siblings' outcomes.
func Run[T any](ctx context.Context, items []T, width int, work func(context.Context, T) error) error {
	if width <= 0 {
		width = DefaultWidth
	}
	sem := semaphore.NewWeighted(int64(width))

	var g errgroup.Group
	for _, item := range items {
		item := item
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		g.Go(func() error {
			defer sem.Release(1)
			return work(ctx, item)
		})
	}
	return g.Wait()
}
