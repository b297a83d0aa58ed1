package core

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds the backoff applied to external capability calls.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries including the first call.
	MaxAttempts int
	// InitialInterval seeds the exponential backoff between tries.
	InitialInterval time.Duration
	// CallTimeout caps the duration of each individual attempt. Zero disables
	// the per-attempt timeout.
	CallTimeout time.Duration
}

// DefaultRetryPolicy retries twice more after the first failure with a short
// initial interval, enough to ride out transient provider hiccups without
// stalling the turn.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts:     3,
	InitialInterval: 200 * time.Millisecond,
	CallTimeout:     30 * time.Second,
}

// CallWithRetry runs fn under the policy's bounded exponential backoff.
// Non-retryable failures (input rejections, malformed responses) stop the
// loop immediately; context cancellation always wins.
func CallWithRetry(ctx context.Context, policy RetryPolicy, op string, fn func(ctx context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	eb := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		eb.InitialInterval = policy.InitialInterval
	}

	call := func() error {
		callCtx := ctx
		var cancel context.CancelFunc
		if policy.CallTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, policy.CallTimeout)
			defer cancel()
		}
		if err := fn(callCtx); err != nil {
			if !IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		return nil
	}

	err := backoff.Retry(call, backoff.WithContext(backoff.WithMaxRetries(eb, uint64(attempts-1)), ctx))
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !IsRetryable(err) {
		return err
	}
	return Unavailable(op, err)
}
