package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryPolicyDo(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond}
	flaky := errors.New("flaky")

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		out := p.Do(context.Background(), func(context.Context) error {
			calls++
			if calls < 3 {
				return flaky
			}
			return nil
		})
		assert.True(t, out.OK())
		assert.Equal(t, 3, out.Attempts)
	})

	t.Run("gives up after the budget", func(t *testing.T) {
		out := p.Do(context.Background(), func(context.Context) error { return flaky })
		assert.False(t, out.OK())
		assert.ErrorIs(t, out.Err, flaky)
		assert.Equal(t, 3, out.Attempts)
	})

	t.Run("permanent errors stop early", func(t *testing.T) {
		out := p.Do(context.Background(), func(context.Context) error { return Permanent(ErrNoElement) })
		assert.ErrorIs(t, out.Err, ErrNoElement)
		assert.Equal(t, 1, out.Attempts)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		out := p.Do(ctx, func(context.Context) error { return nil })
		assert.ErrorIs(t, out.Err, context.Canceled)
		assert.Zero(t, out.Attempts)
	})

	t.Run("zero policy tries once", func(t *testing.T) {
		out := RetryPolicy{}.Do(context.Background(), func(context.Context) error { return flaky })
		assert.Equal(t, 1, out.Attempts)
	})
}

func TestNavigateResultOK(t *testing.T) {
	assert.True(t, NavigateResult{}.OK())
	assert.True(t, NavigateResult{Status: 301}.OK())
	assert.False(t, NavigateResult{Status: 404}.OK())
	assert.False(t, NavigateResult{Status: 500}.OK())
}

func TestSleep(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), 0))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}
