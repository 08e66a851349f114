package retry

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	r := New(WithMaxAttempts(3), WithInitialDelay(time.Millisecond))

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	r := New(WithMaxAttempts(5), WithInitialDelay(time.Millisecond))

	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	r := New(WithMaxAttempts(3), WithInitialDelay(time.Millisecond))

	failure := errors.New("still broken")
	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return failure
	})
	assert.ErrorIs(t, err, failure)
	assert.Equal(t, 3, calls)
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	r := New(WithMaxAttempts(5), WithInitialDelay(time.Millisecond))

	blocked := errors.New("recipient blocked the bot")
	calls := 0
	err := r.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return Permanent(blocked)
	})
	assert.Equal(t, blocked, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancellation(t *testing.T) {
	r := New(WithMaxAttempts(10), WithInitialDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- r.Do(ctx, func(ctx context.Context) error {
			calls++
			close(started)
			return errors.New("transient")
		})
	}()

	// Cancel only after the first attempt has run, so Do is blocked in the
	// hour-long backoff wait when cancellation arrives.
	<-started
	cancel()
	select {
	case err := <-done:
		assert.Error(t, err)
		assert.Equal(t, 1, calls)
	case <-time.After(time.Second):
		t.Fatal("Do did not return after cancellation")
	}
}

func TestDo_OnRetryCallback(t *testing.T) {
	var attempts []int
	r := New(
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			attempts = append(attempts, attempt)
		}),
	)

	_ = r.Do(context.Background(), func(ctx context.Context) error {
		return errors.New("transient")
	})

	// Two retries follow three attempts.
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestDo_SharedRetrierAcrossGoroutines(t *testing.T) {
	// The notifier drives one Retrier from a goroutine per recipient, so
	// concurrent Do calls with jittered delays must be safe.
	r := New(WithMaxAttempts(3), WithInitialDelay(time.Millisecond))

	failure := errors.New("still broken")
	var wg sync.WaitGroup
	var calls atomic.Int64
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.Do(context.Background(), func(ctx context.Context) error {
				calls.Add(1)
				return failure
			})
			assert.ErrorIs(t, err, failure)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(24), calls.Load())
}

func TestIsPermanent(t *testing.T) {
	assert.False(t, IsPermanent(errors.New("plain")))
	assert.True(t, IsPermanent(Permanent(errors.New("fatal"))))
	assert.Nil(t, Permanent(nil))
}

func TestDelayFor_BackoffGrowsAndCaps(t *testing.T) {
	r := New(
		WithInitialDelay(100*time.Millisecond),
		WithMultiplier(2.0),
		WithMaxDelay(time.Second),
	)
	r.config.JitterFactor = 0

	assert.Equal(t, 100*time.Millisecond, r.delayFor(1))
	assert.Equal(t, 200*time.Millisecond, r.delayFor(2))
	assert.Equal(t, 400*time.Millisecond, r.delayFor(3))
	assert.Equal(t, time.Second, r.delayFor(10), "delay must cap at MaxDelay")
}
