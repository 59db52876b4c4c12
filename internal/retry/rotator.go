// Package retry implements the credential-rotation engine shared by every
// stage that calls a quota-limited remote service.
package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/slideforge/slideforge/internal/domain"
	"github.com/slideforge/slideforge/internal/observability"
)

// quotaError marks an error as a quota/rate-limit failure, which triggers
// rotation instead of an immediate abort.
type quotaError struct {
	err error
}

func (e *quotaError) Error() string { return e.err.Error() }
func (e *quotaError) Unwrap() error { return e.err }

// MarkQuota wraps an error so the rotator treats it as a quota failure.
func MarkQuota(err error) error {
	if err == nil {
		return nil
	}
	return &quotaError{err: err}
}

// IsQuota reports whether err is a quota/rate-limit failure, either marked
// explicitly or recognizable from the remote service's message.
func IsQuota(err error) bool {
	var qe *quotaError
	if errors.As(err, &qe) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, term := range []string{"rate", "quota", "limit", "resource_exhausted"} {
		if strings.Contains(msg, term) {
			return true
		}
	}
	return false
}

// Call is one remote invocation issued with a single credential. Results are
// captured by the closure; the rotator only observes success or failure.
type Call func(ctx context.Context, credential string) error

// Rotator drives a Call through an ordered credential list. On a quota
// failure it advances to the next credential immediately; after a full
// rotation it waits one backoff interval and starts over, up to a bounded
// number of cycles. Any non-quota failure aborts without rotating.
//
// A Rotator is stateless across invocations: every Invoke starts from the
// first credential, and concurrent Invokes retry independently.
type Rotator struct {
	credentials []string
	cycles      int
	backoff     time.Duration
	logger      *observability.Logger

	// sleep is injectable so tests do not wait out real backoff intervals.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Rotator.
type Option func(*Rotator)

// WithCycles bounds the number of full rotations before giving up.
func WithCycles(n int) Option {
	return func(r *Rotator) { r.cycles = n }
}

// WithBackoff sets the wait between full rotations.
func WithBackoff(d time.Duration) Option {
	return func(r *Rotator) { r.backoff = d }
}

// WithLogger sets the rotator's logger.
func WithLogger(l *observability.Logger) Option {
	return func(r *Rotator) { r.logger = l }
}

// WithSleep overrides the backoff wait. Tests use this to observe waits
// without blocking.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Rotator) { r.sleep = fn }
}

// NewRotator creates a rotation engine over an explicit ordered credential
// list. Each call site supplies its own list; there is no shared default.
func NewRotator(credentials []string, opts ...Option) (*Rotator, error) {
	if len(credentials) == 0 {
		return nil, domain.ConfigError("rotator needs at least one credential", nil)
	}
	r := &Rotator{
		credentials: credentials,
		cycles:      3,
		backoff:     time.Minute,
		logger:      observability.Nop(),
		sleep:       sleepCtx,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Credentials returns the number of credentials in the rotation.
func (r *Rotator) Credentials() int {
	return len(r.credentials)
}

// Invoke runs the call until it succeeds, fails with a non-quota error, or
// every credential stays quota-limited for the configured number of cycles.
// Exactly len(credentials) x cycles attempts occur in the exhaustion case.
func (r *Rotator) Invoke(ctx context.Context, call Call) error {
	var lastErr error

	for cycle := 0; cycle < r.cycles; cycle++ {
		for i, credential := range r.credentials {
			if err := ctx.Err(); err != nil {
				return err
			}

			err := call(ctx, credential)
			if err == nil {
				return nil
			}
			if !IsQuota(err) {
				return domain.RemoteCallError("remote call failed", err)
			}

			lastErr = err
			r.logger.Warn().
				Int("credential", i+1).
				Int("cycle", cycle+1).
				Err(err).
				Msg("credential quota-limited, rotating")
		}

		// Full rotation exhausted; wait before starting over, except
		// after the final cycle.
		if cycle < r.cycles-1 {
			r.logger.Warn().
				Dur("backoff", r.backoff).
				Msg("all credentials quota-limited, backing off")
			if err := r.sleep(ctx, r.backoff); err != nil {
				return err
			}
		}
	}

	return domain.ExhaustedCredentialsError(
		fmt.Sprintf("%d credentials exhausted after %d cycles", len(r.credentials), r.cycles),
		lastErr)
}

// sleepCtx waits for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
