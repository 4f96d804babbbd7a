package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ForEach runs action for every element of items with at most limit
// goroutines in flight. A limit below one means no limit. The first error
// cancels ctx for the remaining actions and is returned.
func ForEach[T any](ctx context.Context, items []T, limit int, action func(ctx context.Context, idx int, value T) error) error {
	group, groupCtx := errgroup.WithContext(ctx)
	if limit > 0 {
		group.SetLimit(limit)
	}

	for idx, value := range items {
		if groupCtx.Err() != nil {
			break
		}
		group.Go(func() error {
			return action(groupCtx, idx, value)
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Map applies mapFn to each element in parallel, preserving order. The
// limit parameter bounds the number of goroutines.
func Map[T any, R any](ctx context.Context, items []T, limit int, mapFn func(ctx context.Context, value T) (R, error)) ([]R, error) {
	out := make([]R, len(items))
	err := ForEach(ctx, items, limit, func(ctx context.Context, idx int, value T) error {
		r, err := mapFn(ctx, value)
		if err != nil {
			return err
		}
		out[idx] = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Batch processes items in chunks of batchSize, each chunk in its own
// goroutine. action receives the offset of the chunk's first element.
// Inputs no larger than one chunk run on the calling goroutine.
func Batch[T any](items []T, batchSize int, action func(offset int, chunk []T) error) error {
	if batchSize <= 0 || len(items) <= batchSize {
		return action(0, items)
	}

	group := errgroup.Group{}
	for idx := 0; idx < len(items); idx += batchSize {
		end := min(idx+batchSize, len(items))
		group.Go(func() error {
			return action(idx, items[idx:end])
		})
	}
	return group.Wait()
}
