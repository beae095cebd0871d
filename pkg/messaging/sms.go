// Package messaging sends the booking-confirmation text a hot or warm
// lead gets when a call closes with a scheduled next step. Adapted
// from the teacher's MessageService (pkg/messaging/sms.go original):
// the broadcast-to-many and template-substitution shape is dropped
// since this spec only ever sends one lead one confirmation, but the
// interface-over-the-carrier-client seam is kept so sending can be
// faked in tests without a live carrier account.
package messaging

import (
	"context"
	"fmt"

	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/obslog"
)

// FollowUpSender texts a booking confirmation after a call closes with
// a scheduled next step, a supplemented feature (spec.md's distillation
// drops the original's SMS broadcast surface entirely; this keeps the
// one slice of it relevant to a closed SPIN call).
type FollowUpSender struct {
	from string
}

// NewFollowUpSender constructs a sender that texts from the given
// caller ID.
func NewFollowUpSender(from string) *FollowUpSender {
	return &FollowUpSender{from: from}
}

// SendBookingConfirmation texts leadPhone a short confirmation line
// naming the lead, best-effort: failures are logged, never returned to
// the caller, since a TurnHandler calling this does so from a
// fire-and-forget goroutine after the call has already ended.
func (f *FollowUpSender) SendBookingConfirmation(ctx context.Context, send func(ctx context.Context, from, to, body string) error, leadName, leadPhone string) {
	if leadPhone == "" {
		return
	}
	body := fmt.Sprintf("Hi %s, thanks for your time today — looking forward to our follow up. Reply STOP to opt out.", leadName)
	if err := send(ctx, f.from, leadPhone, body); err != nil {
		obslog.Warn("messaging").Err(err).Str("to", leadPhone).Msg("booking confirmation sms failed")
	}
}
