package errkind

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewHasNoCause(t *testing.T) {
	err := New(BadInput, "missing field")
	assert.Equal(t, BadInput, err.Kind)
	assert.Nil(t, err.Unwrap())
	assert.Equal(t, "BAD_INPUT: missing field", err.Error())
}

func TestWrapIncludesCauseInMessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(TransientUpstream, "carrier request failed", cause)

	assert.Equal(t, cause, err.Unwrap())
	assert.Contains(t, err.Error(), "TRANSIENT_UPSTREAM")
	assert.Contains(t, err.Error(), "carrier request failed")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIsMatchesSameKindOnly(t *testing.T) {
	err := New(Timeout, "llm deadline exceeded")
	assert.True(t, Is(err, Timeout))
	assert.False(t, Is(err, Internal))
}

func TestIsFalseForPlainError(t *testing.T) {
	assert.False(t, Is(errors.New("plain"), Internal))
}

func TestIsFalseForNilError(t *testing.T) {
	assert.False(t, Is(nil, Internal))
}

func TestErrorsAsRecoversTypedError(t *testing.T) {
	var target *Error
	err := Wrap(StateViolation, "unknown call id", nil)
	ok := errors.As(err, &target)
	assert.True(t, ok)
	assert.Equal(t, StateViolation, target.Kind)
}
