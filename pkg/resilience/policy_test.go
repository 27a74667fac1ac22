package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(tries uint, timeout time.Duration) *Policy {
	return NewPolicy(Config{
		Timeout:         timeout,
		MaxTries:        tries,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	})
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	var retries []string
	p := fastPolicy(3, time.Second).OnRetry(func(op string, err error, next time.Duration) {
		retries = append(retries, op)
	})

	got, err := Do(context.Background(), p, "embed", func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("temporary")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []string{"embed", "embed"}, retries)
}

func TestDoGivesUpAfterMaxTries(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(2, time.Second), "classify", func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("down")
	})
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoStopsOnPermanentError(t *testing.T) {
	calls := 0
	sentinel := errors.New("bad request")
	_, err := Do(context.Background(), fastPolicy(5, time.Second), "fetch", func(ctx context.Context) (int, error) {
		calls++
		return 0, Permanent(sentinel)
	})
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, calls)
}

func TestDoAppliesPerAttemptTimeout(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(2, 10*time.Millisecond), "analyze", func(ctx context.Context) (int, error) {
		calls++
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 2, calls)
}

func TestDoWithNilPolicyRunsOnce(t *testing.T) {
	got, err := Do(context.Background(), nil, "noop", func(ctx context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}
