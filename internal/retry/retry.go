// File: internal/retry/retry.go
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy runs an operation up to MaxAttempts times.
type Policy struct {
	MaxAttempts int
	// Backoff supplies the pause between attempts. Nil means no pause.
	Backoff backoff.BackOff
	// Retryable decides whether err is worth another attempt. Nil retries everything.
	Retryable func(err error) bool
	// OnRetry is called before each pause with the 1-based attempt that just failed.
	OnRetry func(attempt int, err error)
}

// Fixed returns a backoff that always waits d.
func Fixed(d time.Duration) backoff.BackOff {
	return backoff.NewConstantBackOff(d)
}

// None returns a backoff with no pause.
func None() backoff.BackOff { return &backoff.ZeroBackOff{} }

// Do calls op until it succeeds, returns a non-retryable error, exhausts the
// attempts or ctx ends. The last error from op is returned unchanged; ctx's
// error is returned only when op never ran.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	b := p.Backoff
	if b == nil {
		b = None()
	}
	b = backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)

	var (
		attempt int
		last    error
	)
	operation := func() error {
		if cerr := ctx.Err(); cerr != nil {
			if last != nil {
				return backoff.Permanent(last)
			}
			return backoff.Permanent(cerr)
		}
		attempt++
		last = op(ctx, attempt)
		if last != nil && p.Retryable != nil && !p.Retryable(last) {
			return backoff.Permanent(last)
		}
		return last
	}
	notify := func(err error, _ time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
	}

	err := backoff.RetryNotify(operation, b, notify)
	if err != nil && last != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) && !errors.Is(last, err) {
		// Cancelled during a pause; report what the operation last said.
		return last
	}
	return err
}
