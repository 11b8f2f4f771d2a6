package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, Policy{
		Name:     "test_succeeds",
		Attempts: 5,
		Backoff:  ExpoJitter{Base: time.Millisecond},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_Exhausts(t *testing.T) {
	wantErr := errors.New("always")
	var exhausted error
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return wantErr
	}, Policy{
		Name:      "test_exhausts",
		Attempts:  3,
		Backoff:   ExpoJitter{Base: time.Millisecond},
		OnExhaust: func(e error) { exhausted = e },
	})
	require.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3, calls)
	assert.Equal(t, wantErr, exhausted)
}

func TestDo_NonRetryableStopsImmediately(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	err := Do(context.Background(), func() error {
		calls++
		return fatal
	}, Policy{
		Name:      "test_nonretryable",
		Attempts:  5,
		Backoff:   ExpoJitter{Base: time.Millisecond},
		Retryable: func(err error) bool { return !errors.Is(err, fatal) },
	})
	require.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := Do(ctx, func() error { return errors.New("transient") }, Policy{
		Name:     "test_cancel",
		Attempts: 10,
		Backoff:  ExpoJitter{Base: time.Second},
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestExpoJitter_Bounds(t *testing.T) {
	b := ExpoJitter{Base: 100 * time.Millisecond, Max: time.Second}
	assert.Equal(t, 100*time.Millisecond, b.Next(0))
	assert.Equal(t, 400*time.Millisecond, b.Next(2))
	assert.Equal(t, time.Second, b.Next(10), "capped at Max")
	assert.Equal(t, 100*time.Millisecond, b.Next(-1), "negative attempt clamps to zero")
}
