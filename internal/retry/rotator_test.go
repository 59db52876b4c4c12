package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slideforge/slideforge/internal/domain"
)

func noSleep(recorded *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*recorded = append(*recorded, d)
		return nil
	}
}

func TestNewRotator_RequiresCredentials(t *testing.T) {
	_, err := NewRotator(nil)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
}

func TestRotator_SuccessOnFirstCredential(t *testing.T) {
	r, err := NewRotator([]string{"k1", "k2"})
	require.NoError(t, err)

	var used []string
	err = r.Invoke(context.Background(), func(ctx context.Context, credential string) error {
		used = append(used, credential)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"k1"}, used)
}

func TestRotator_AdvancesOnQuotaError(t *testing.T) {
	r, err := NewRotator([]string{"k1", "k2", "k3"})
	require.NoError(t, err)

	var used []string
	err = r.Invoke(context.Background(), func(ctx context.Context, credential string) error {
		used = append(used, credential)
		if credential != "k3" {
			return MarkQuota(errors.New("quota exceeded"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"k1", "k2", "k3"}, used)
}

func TestRotator_NonQuotaErrorAbortsImmediately(t *testing.T) {
	r, err := NewRotator([]string{"k1", "k2"})
	require.NoError(t, err)

	calls := 0
	err = r.Invoke(context.Background(), func(ctx context.Context, credential string) error {
		calls++
		return errors.New("malformed request")
	})

	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeRemoteCall))
	assert.Equal(t, 1, calls, "a non-quota failure must not rotate")
}

func TestRotator_ExhaustionAttemptCount(t *testing.T) {
	const credentials = 3
	const cycles = 3

	var sleeps []time.Duration
	r, err := NewRotator([]string{"k1", "k2", "k3"},
		WithCycles(cycles),
		WithBackoff(time.Minute),
		WithSleep(noSleep(&sleeps)))
	require.NoError(t, err)

	calls := 0
	err = r.Invoke(context.Background(), func(ctx context.Context, credential string) error {
		calls++
		return MarkQuota(fmt.Errorf("rate limited"))
	})

	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeExhaustedCredentials))
	assert.Equal(t, credentials*cycles, calls, "exactly credentials x cycles attempts")
	// One backoff between cycles, none after the last.
	require.Len(t, sleeps, cycles-1)
	for _, d := range sleeps {
		assert.Equal(t, time.Minute, d)
	}
}

func TestRotator_StatelessAcrossInvokes(t *testing.T) {
	r, err := NewRotator([]string{"k1", "k2"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		var first string
		err := r.Invoke(context.Background(), func(ctx context.Context, credential string) error {
			if first == "" {
				first = credential
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "k1", first, "every Invoke starts from the first credential")
	}
}

func TestRotator_ContextCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r, err := NewRotator([]string{"k1"},
		WithCycles(3),
		WithSleep(func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		}))
	require.NoError(t, err)

	err = r.Invoke(ctx, func(ctx context.Context, credential string) error {
		return MarkQuota(errors.New("quota"))
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsQuota(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"marked quota", MarkQuota(errors.New("boom")), true},
		{"wrapped marked quota", fmt.Errorf("call: %w", MarkQuota(errors.New("boom"))), true},
		{"rate limit message", errors.New("429 rate limit hit"), true},
		{"resource exhausted status", errors.New("RESOURCE_EXHAUSTED"), true},
		{"quota message", errors.New("Quota exceeded for project"), true},
		{"plain failure", errors.New("connection refused"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsQuota(tt.err))
		})
	}
}
