package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/haimeda/statement-scorer/internal/core/domain"
	scorerrors "github.com/haimeda/statement-scorer/internal/core/errors"
	"github.com/haimeda/statement-scorer/internal/platform/worker"
)

const (
	defaultProgressEvery     = 5
	defaultSequentialLogEach = 10
	defaultReclaimEvery      = 20
)

// pairFunc scores the pair at index i.
type pairFunc func(ctx context.Context, i int) (domain.ComparisonResult, error)

// progress logs completions at the first one, every `every` and the last one.
type progress struct {
	total   int
	every   int
	started time.Time
	done    atomic.Int64
	logger  *zerolog.Logger
}

func newProgress(total, every int, logger *zerolog.Logger) *progress {
	if every <= 0 {
		every = defaultProgressEvery
	}

	return &progress{total: total, every: every, started: time.Now(), logger: logger}
}

func (p *progress) complete() {
	n := int(p.done.Add(1))
	if n != 1 && n%p.every != 0 && n != p.total {
		return
	}

	elapsed := time.Since(p.started).Seconds()

	rate := 0.0
	if elapsed > 0 {
		rate = float64(n) / elapsed
	}

	p.logger.Info().
		Int(logKeyCompleted, n).
		Int(logKeyTotal, p.total).
		Float64(logKeyRate, rate).
		Msg("batch progress")
}

// placeholderFor classifies a task failure.
func placeholderFor(pair domain.Pair, err error) domain.ComparisonResult {
	kind := scorerrors.KindOf(err)

	var pe *worker.PanicError
	if errors.As(err, &pe) {
		kind = scorerrors.KindPanic
	}

	return domain.Placeholder(pair, string(kind), err)
}

// runParallel scores every pair on a bounded pool. Results land in the slot of
// their input index. It fails only when the pool cannot be set up.
func runParallel(ctx context.Context, pairs []domain.Pair, workers, progressEvery int, score pairFunc, results []domain.ComparisonResult, logger *zerolog.Logger) error {
	prog := newProgress(len(pairs), progressEvery, logger)

	cfg := worker.PoolConfig{
		Name:  "pairs",
		Limit: workers,
		OnFailure: func(i int, err error) {
			results[i] = placeholderFor(pairs[i], err)
		},
		OnDone: func(int) { prog.complete() },
		Logger: logger,
	}

	err := worker.RunIndexed(ctx, cfg, len(pairs), func(ctx context.Context, i int) error {
		r, err := score(ctx, i)
		if err != nil {
			return err
		}

		results[i] = r

		return nil
	})
	if err != nil {
		return fmt.Errorf("parallel dispatch: %w", err)
	}

	return nil
}

// runSequential scores pairs one at a time, calling reclaim every reclaimEvery pairs.
func runSequential(ctx context.Context, pairs []domain.Pair, reclaimEvery, logEach int, score pairFunc, reclaim func(), results []domain.ComparisonResult, logger *zerolog.Logger) {
	if reclaimEvery <= 0 {
		reclaimEvery = defaultReclaimEvery
	}

	if logEach <= 0 {
		logEach = defaultSequentialLogEach
	}

	started := time.Now()

	for i := range pairs {
		r, err := scoreSafely(ctx, i, score)
		if err != nil {
			logger.Warn().Err(err).Int(logKeyPair, i).Msg("pair failed")

			r = placeholderFor(pairs[i], err)
		}

		results[i] = r
		n := i + 1

		if n%logEach == 0 || n == len(pairs) {
			logger.Info().
				Int(logKeyCompleted, n).
				Int(logKeyTotal, len(pairs)).
				Dur(logKeyElapsed, time.Since(started)).
				Msg("sequential progress")
		}

		if n%reclaimEvery == 0 && reclaim != nil {
			reclaim()
		}
	}
}

func scoreSafely(ctx context.Context, i int, score pairFunc) (r domain.ComparisonResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &worker.PanicError{Value: rec, Stack: debug.Stack()}
		}
	}()

	return score(ctx, i)
}
