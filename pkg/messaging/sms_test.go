package messaging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendBookingConfirmationCallsSendWithExpectedArgs(t *testing.T) {
	f := NewFollowUpSender("+15005550006")

	var gotFrom, gotTo, gotBody string
	send := func(ctx context.Context, from, to, body string) error {
		gotFrom, gotTo, gotBody = from, to, body
		return nil
	}

	f.SendBookingConfirmation(context.Background(), send, "Jane", "+14155551234")

	assert.Equal(t, "+15005550006", gotFrom)
	assert.Equal(t, "+14155551234", gotTo)
	assert.Contains(t, gotBody, "Jane")
	assert.Contains(t, gotBody, "STOP")
}

func TestSendBookingConfirmationSkipsWhenPhoneBlank(t *testing.T) {
	f := NewFollowUpSender("+15005550006")

	called := false
	send := func(ctx context.Context, from, to, body string) error {
		called = true
		return nil
	}

	f.SendBookingConfirmation(context.Background(), send, "Jane", "")
	assert.False(t, called)
}

func TestSendBookingConfirmationSwallowsSendError(t *testing.T) {
	f := NewFollowUpSender("+15005550006")
	send := func(ctx context.Context, from, to, body string) error {
		return assert.AnError
	}
	require.NotPanics(t, func() {
		f.SendBookingConfirmation(context.Background(), send, "Jane", "+14155551234")
	})
}
