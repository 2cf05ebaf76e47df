// Package gather runs a set of tasks concurrently and reports a
// result-or-error per task instead of failing the whole join on the first
// error. Slot i of the output always belongs to task i, regardless of
// completion order.
package gather

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Result holds the outcome of one branch.
type Result[T any] struct {
	Value T
	Err   error
}

// Task produces one branch value.
type Task[T any] func(ctx context.Context) (T, error)

// All runs every task with at most limit in flight (limit <= 0 means
// unbounded). A panicking task is converted into a branch error. The only
// way All itself fails a branch early is context cancellation: once ctx is
// done, unstarted tasks report ctx.Err().
func All[T any](ctx context.Context, limit int, tasks ...Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))
	if len(tasks) == 0 {
		return results
	}

	g := &errgroup.Group{}
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i := range tasks {
		i := i
		task := tasks[i]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			defer func() {
				if r := recover(); r != nil {
					results[i].Err = fmt.Errorf("task %d panicked: %v", i, r)
				}
			}()
			v, err := task(ctx)
			results[i] = Result[T]{Value: v, Err: err}
			return nil
		})
	}

	// Branch errors are captured in results, never returned through the group.
	_ = g.Wait()
	return results
}
