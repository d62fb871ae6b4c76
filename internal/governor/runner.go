package governor

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrorPolicy decides what a runner does when a task fails.
type ErrorPolicy int

const (
	// AbortOnError stops at the first failure and returns it.
	AbortOnError ErrorPolicy = iota
	// CollectErrors runs every task and joins the failures.
	CollectErrors
)

// Task is one unit of work.
type Task[T any] func(ctx context.Context) (T, error)

// RunSequentially executes tasks one at a time in order.
// Results of successful tasks are returned in task order.
func RunSequentially[T any](ctx context.Context, tasks []Task[T], policy ErrorPolicy) ([]T, error) {
	results := make([]T, 0, len(tasks))
	var errs []error

	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return results, errors.Join(append(errs, err)...)
		}

		v, err := task(ctx)
		if err != nil {
			if policy == AbortOnError {
				return results, err
			}
			errs = append(errs, err)
			continue
		}
		results = append(results, v)
	}

	return results, errors.Join(errs...)
}

// RunBounded executes tasks with at most limit in flight.
// Results of successful tasks are returned in task order.
// With AbortOnError the remaining tasks see a cancelled context after the
// first failure and the first error is returned.
func RunBounded[T any](ctx context.Context, limit int, tasks []Task[T], policy ErrorPolicy) ([]T, error) {
	if limit <= 1 {
		return RunSequentially(ctx, tasks, policy)
	}

	values := make([]T, len(tasks))
	done := make([]bool, len(tasks))

	if policy == AbortOnError {
		eg, gctx := errgroup.WithContext(ctx)
		eg.SetLimit(limit)
		for i, task := range tasks {
			eg.Go(func() error {
				v, err := task(gctx)
				if err != nil {
					return err
				}
				values[i], done[i] = v, true
				return nil
			})
		}
		err := eg.Wait()
		return compact(values, done), err
	}

	var (
		mu   sync.Mutex
		errs []error
		eg   errgroup.Group
	)
	eg.SetLimit(limit)
	for i, task := range tasks {
		eg.Go(func() error {
			err := ctx.Err()
			if err == nil {
				var v T
				if v, err = task(ctx); err == nil {
					values[i], done[i] = v, true
					return nil
				}
			}
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			return nil
		})
	}
	_ = eg.Wait()

	return compact(values, done), errors.Join(errs...)
}

func compact[T any](values []T, done []bool) []T {
	out := make([]T, 0, len(values))
	for i, v := range values {
		if done[i] {
			out = append(out, v)
		}
	}
	return out
}
