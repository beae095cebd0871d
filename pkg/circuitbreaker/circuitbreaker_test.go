package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Name:             "test",
		FailureThreshold: 2,
		SuccessThreshold: 2,
		Timeout:          20 * time.Millisecond,
		HalfOpenMaxCalls: 2,
	}
}

func TestBreakerOpensAfterFailureThreshold(t *testing.T) {
	b := New(testConfig())
	fail := errors.New("boom")

	for i := 0; i < 2; i++ {
		err := b.Call(context.Background(), func(context.Context) error { return fail })
		require.ErrorIs(t, err, fail)
	}

	assert.Equal(t, Open, b.State())

	err := b.Call(context.Background(), func(context.Context) error { return nil })
	var openErr *ErrOpen
	require.ErrorAs(t, err, &openErr)
}

func TestBreakerHalfOpenThenClosesOnSuccesses(t *testing.T) {
	b := New(testConfig())
	fail := errors.New("boom")
	for i := 0; i < 2; i++ {
		_ = b.Call(context.Background(), func(context.Context) error { return fail })
	}
	require.Equal(t, Open, b.State())

	time.Sleep(25 * time.Millisecond) // exceed cool-down timeout

	err := b.Call(context.Background(), func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, HalfOpen, b.State())

	err = b.Call(context.Background(), func(context.Context) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, Closed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := New(testConfig())
	fail := errors.New("boom")
	for i := 0; i < 2; i++ {
		_ = b.Call(context.Background(), func(context.Context) error { return fail })
	}
	time.Sleep(25 * time.Millisecond)

	err := b.Call(context.Background(), func(context.Context) error { return fail })
	require.ErrorIs(t, err, fail)
	assert.Equal(t, Open, b.State())
}

func TestGetReturnsSameBreakerForSameName(t *testing.T) {
	a := Get("shared-test", testConfig())
	b := Get("shared-test", testConfig())
	assert.Same(t, a, b)
}
