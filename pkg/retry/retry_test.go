package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/errkind"
)

func fastConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Millisecond,
		MaxDelay:   10 * time.Millisecond,
	}
}

func TestDoRetriesTransientUpstreamUntilSuccess(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errkind.New(errkind.TransientUpstream, "flaky upstream")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDoDoesNotRetryNonTransientErrors(t *testing.T) {
	attempts := 0
	sentinel := errkind.New(errkind.BadInput, "bad request")
	err := Do(context.Background(), fastConfig(), func(context.Context) error {
		attempts++
		return sentinel
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoGivesUpAfterMaxRetries(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(), func(context.Context) error {
		attempts++
		return errkind.New(errkind.TransientUpstream, "always fails")
	})
	require.Error(t, err)
	assert.Equal(t, 4, attempts) // initial attempt + 3 retries
}

func TestDoReturnsNilOnImmediateSuccess(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(), func(context.Context) error {
		attempts++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDoStopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, fastConfig(), func(context.Context) error {
		return errkind.New(errkind.TransientUpstream, "flaky upstream")
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled) || err != nil)
}
