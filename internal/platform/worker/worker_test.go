package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPoolName = "test-pool"

func TestRunIndexed_InvalidLimit(t *testing.T) {
	err := RunIndexed(context.Background(), PoolConfig{Name: testPoolName}, 3, func(context.Context, int) error {
		return nil
	})

	require.ErrorIs(t, err, ErrInvalidLimit)
}

func TestRunIndexed_RunsEveryIndex(t *testing.T) {
	logger := zerolog.Nop()
	results := make([]int, 50)

	err := RunIndexed(context.Background(), PoolConfig{Name: testPoolName, Limit: 4, Logger: &logger}, len(results),
		func(_ context.Context, i int) error {
			results[i] = i * i
			return nil
		})
	require.NoError(t, err)

	for i, v := range results {
		assert.Equal(t, i*i, v)
	}
}

func TestRunIndexed_RespectsLimit(t *testing.T) {
	var inFlight, peak atomic.Int32

	err := RunIndexed(context.Background(), PoolConfig{Name: testPoolName, Limit: 2}, 10,
		func(context.Context, int) error {
			cur := inFlight.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}

			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)

			return nil
		})
	require.NoError(t, err)

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRunIndexed_IsolatesFailuresAndPanics(t *testing.T) {
	var (
		mu       sync.Mutex
		failures = map[int]error{}
		done     atomic.Int32
	)

	cfg := PoolConfig{
		Name:  testPoolName,
		Limit: 3,
		OnFailure: func(i int, err error) {
			mu.Lock()
			failures[i] = err
			mu.Unlock()
		},
		OnDone: func(int) { done.Add(1) },
	}

	err := RunIndexed(context.Background(), cfg, 6, func(_ context.Context, i int) error {
		switch i {
		case 1:
			return errors.New("bad pair")
		case 4:
			panic("boom")
		}

		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, int32(6), done.Load())
	require.Len(t, failures, 2)
	assert.EqualError(t, failures[1], "bad pair")

	var pe *PanicError
	require.ErrorAs(t, failures[4], &pe)
	assert.Equal(t, "boom", pe.Value)
	assert.NotEmpty(t, pe.Stack)
}

func TestRunWithTimeout(t *testing.T) {
	err := RunWithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
