package browser

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy is applied uniformly to every browser action
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetry is used when a component is given a zero policy
var DefaultRetry = RetryPolicy{MaxAttempts: 3, Backoff: 500 * time.Millisecond}

// Outcome reports how an action under a RetryPolicy ended
type Outcome struct {
	Attempts int
	Err      error
}

// OK reports success
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op until it succeeds, returns a Permanent error, the attempt
// budget is spent, or ctx is done.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) Outcome {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	var b backoff.BackOff = backoff.NewConstantBackOff(p.Backoff)
	b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))

	attempts := 0
	err := backoff.Retry(func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		attempts++
		return op(ctx)
	}, backoff.WithContext(b, ctx))
	return Outcome{Attempts: attempts, Err: err}
}
