package retry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusErr struct {
	retry bool
	delay time.Duration
}

func (e statusErr) Error() string             { return "status error" }
func (e statusErr) Retryable() bool           { return e.retry }
func (e statusErr) RetryDelay() time.Duration { return e.delay }

func fastOptions(retries int) Options {
	return Options{MaxRetries: retries, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastOptions(3), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesRetryableErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastOptions(3), func() error {
		calls++
		if calls < 3 {
			return statusErr{retry: true}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastOptions(3), func() error {
		calls++
		return statusErr{retry: false}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_BudgetExhausted(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastOptions(2), func() error {
		calls++
		return statusErr{retry: true}
	})
	var se statusErr
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 3, calls)
}

func TestDo_WrappedRetryableError(t *testing.T) {
	calls := 0
	_ = Do(context.Background(), fastOptions(1), func() error {
		calls++
		return fmt.Errorf("request failed: %w", statusErr{retry: true})
	})
	assert.Equal(t, 2, calls)
}

func TestDo_ContextCanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, Options{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}, func() error {
			calls++
			return statusErr{retry: true, delay: time.Hour}
		})
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		var se statusErr
		assert.ErrorAs(t, err, &se, "the last attempt's error is returned")
		assert.Equal(t, 1, calls)
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not return after cancel")
	}
}

func TestDo_AlreadyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := Do(ctx, fastOptions(3), func() error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, ParseRetryAfter("3"))
	assert.Equal(t, time.Duration(0), ParseRetryAfter(""))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("soon"))
	future := time.Now().Add(time.Hour).UTC().Format(time.RFC1123)
	assert.Greater(t, ParseRetryAfter(future), 50*time.Minute)
}

func TestFullJitterSleep_Bounds(t *testing.T) {
	for attempt := 0; attempt < 10; attempt++ {
		d := FullJitterSleep(attempt, 10*time.Millisecond, 100*time.Millisecond)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 100*time.Millisecond)
	}
	assert.Equal(t, time.Duration(0), FullJitterSleep(3, 0, time.Second))
}
