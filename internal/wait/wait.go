// Package wait implements the bounded polling primitive every element
// accessor and page navigation is built on, together with the reusable
// conditions it evaluates.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/xkilldash9x/uibdd/internal/browser"
)

// DefaultInterval is the fixed delay between two evaluations of a condition.
const DefaultInterval = 500 * time.Millisecond

// ErrTimeoutExceeded is matched (via errors.Is) by every *TimeoutError.
var ErrTimeoutExceeded = errors.New("timeout exceeded")

// TimeoutError reports a condition that never held within its timeout.
type TimeoutError struct {
	Condition string
	Timeout   time.Duration
	// LastErr is the last ignored error returned by the condition, if any.
	LastErr error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %s waiting for %s", e.Timeout, e.Condition)
	if e.LastErr != nil {
		msg += ": " + e.LastErr.Error()
	}
	return msg
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeoutExceeded }

func (e *TimeoutError) Unwrap() error { return e.LastErr }

// Condition is a predicate evaluated repeatedly by Until. Check returns the
// value to hand back to the caller and whether the condition holds.
type Condition[T any] struct {
	Desc  string
	Check func(ctx context.Context, d browser.Driver) (T, bool, error)
}

type options struct {
	interval time.Duration
	ignored  []error
}

type intervalKey struct{}

// ContextWithInterval returns a copy of ctx that makes every Until call
// below it poll at interval d unless WithInterval says otherwise.
func ContextWithInterval(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, intervalKey{}, d)
}

// IntervalFromContext returns the interval stored by ContextWithInterval, or
// DefaultInterval.
func IntervalFromContext(ctx context.Context) time.Duration {
	if d, ok := ctx.Value(intervalKey{}).(time.Duration); ok && d > 0 {
		return d
	}
	return DefaultInterval
}

// Option tunes a single call to Until.
type Option func(*options)

// WithInterval overrides the polling interval.
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

// Ignoring adds errors that count as "condition not met yet" instead of
// aborting the wait.
func Ignoring(errs ...error) Option {
	return func(o *options) { o.ignored = append(o.ignored, errs...) }
}

// Until evaluates cond against d until it holds or timeout elapses.
//
// The condition is checked once immediately and then every interval. Errors
// wrapping browser.ErrNoSuchElement or browser.ErrStaleElement (plus any
// passed with Ignoring) are treated as "not yet"; any other error stops the
// wait and is returned as is. When the timeout elapses a *TimeoutError is
// returned; when ctx itself is cancelled its error is returned.
func Until[T any](ctx context.Context, d browser.Driver, timeout time.Duration, cond Condition[T], opts ...Option) (T, error) {
	o := options{
		interval: IntervalFromContext(ctx),
		ignored:  []error{browser.ErrNoSuchElement, browser.ErrStaleElement},
	}
	for _, opt := range opts {
		opt(&o)
	}

	var zero T
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(o.interval), 1)
	// The first check spends the initial token.
	limiter.Reserve()

	var lastErr error
	for {
		v, ok, err := cond.Check(waitCtx, d)
		switch {
		case err == nil && ok:
			return v, nil
		case err == nil:
			// not yet
		case ctx.Err() != nil:
			return zero, ctx.Err()
		case isIgnored(err, o.ignored):
			lastErr = err
		case waitCtx.Err() != nil && ctx.Err() == nil:
			// The check was cut short by our own deadline.
			return zero, &TimeoutError{Condition: cond.Desc, Timeout: timeout, LastErr: err}
		default:
			return zero, err
		}

		if err := pause(waitCtx, limiter); err != nil {
			if ctx.Err() != nil {
				return zero, ctx.Err()
			}
			return zero, &TimeoutError{Condition: cond.Desc, Timeout: timeout, LastErr: lastErr}
		}
	}
}

// pause blocks until the limiter grants the next evaluation or ctx ends.
func pause(ctx context.Context, limiter *rate.Limiter) error {
	r := limiter.Reserve()
	timer := time.NewTimer(r.Delay())
	defer timer.Stop()
	select {
	case <-ctx.Done():
		r.Cancel()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isIgnored(err error, ignored []error) bool {
	for _, target := range ignored {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
