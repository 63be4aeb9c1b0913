// Package worker provides bounded fan-out over indexed work items.
// It encapsulates concurrency limits, per-task panic isolation, progress hooks
// and timeout helpers used by the batch scoring engine.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	logFieldWorker = "worker"
	logFieldTask   = "task"
)

// ErrInvalidLimit indicates a pool was configured with fewer than one worker.
var ErrInvalidLimit = errors.New("worker limit must be at least 1")

// PanicError is reported for a task that panicked.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}

// TaskFunc processes the item at index i.
type TaskFunc func(ctx context.Context, i int) error

// PoolConfig configures RunIndexed.
type PoolConfig struct {
	// Name identifies the pool for logging.
	Name string

	// Limit caps the number of concurrently running tasks.
	Limit int

	// OnFailure is called with the task index when a task returns an error or panics.
	OnFailure func(i int, err error)

	// OnDone is called after every task, successful or not.
	OnDone func(i int)

	// Logger for the pool.
	Logger *zerolog.Logger
}

// RunIndexed runs task for every index in [0,n) with at most cfg.Limit tasks in flight.
// A failing task never stops its siblings. The call blocks until every task has finished.
// It returns an error only when the pool cannot be set up.
func RunIndexed(ctx context.Context, cfg PoolConfig, n int, task TaskFunc) error {
	if cfg.Limit < 1 {
		return fmt.Errorf("pool %s: %w", cfg.Name, ErrInvalidLimit)
	}

	logger := cfg.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	logger.Debug().Str(logFieldWorker, cfg.Name).Int("limit", cfg.Limit).Int("tasks", n).Msg("starting worker pool")

	var g errgroup.Group

	g.SetLimit(cfg.Limit)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			err := runTask(ctx, i, task)
			if err != nil {
				logger.Warn().Err(err).Str(logFieldWorker, cfg.Name).Int(logFieldTask, i).Msg("task failed")

				if cfg.OnFailure != nil {
					cfg.OnFailure(i, err)
				}
			}

			if cfg.OnDone != nil {
				cfg.OnDone(i)
			}

			return nil
		})
	}

	//nolint:errcheck // tasks never return errors to the group
	_ = g.Wait()

	return nil
}

func runTask(ctx context.Context, i int, task TaskFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()

	return task(ctx, i)
}

// RunWithTimeout runs fn with a timeout derived from the parent context.
// The function receives a context that will be canceled after timeout.
func RunWithTimeout(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return fn(timeoutCtx)
}

// RecoverPanic recovers from panics and logs them.
// Use as: defer worker.RecoverPanic(logger, "operation name")
func RecoverPanic(logger *zerolog.Logger, operation string) {
	if r := recover(); r != nil {
		logger.Error().
			Interface("panic", r).
			Str("operation", operation).
			Msg("recovered from panic")
	}
}
