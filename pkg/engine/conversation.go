package engine

import "time"

// ChannelTone tags how the call was originated (spec.md §3).
type ChannelTone string

const (
	ToneColdCall     ChannelTone = "cold_call"
	ToneWarmReferral ChannelTone = "warm_referral"
	ToneInbound      ChannelTone = "inbound"
)

// SpinType classifies a Discovery-phase question per the SPIN
// methodology (SPEC_FULL.md §12.3 supplemented feature, grounded on
// sales_control_plane.py's per-state SPIN counters).
// ConversationState.LastSpinType holds one, but no code in this module
// sets or reads it, so nothing stops the same sub-type from being asked
// twice in a row.
type SpinType string

const (
	SpinSituation    SpinType = "situation"
	SpinProblem      SpinType = "problem"
	SpinImplication  SpinType = "implication"
	SpinNeedPayoff   SpinType = "need_payoff"
)

// ConversationState is the in-memory per-call state held by the engine
// for the duration of the call (spec.md §3).
type ConversationState struct {
	State          SalesState
	StateEnteredAt time.Time

	BANT BANT

	IntentHistory []Intents

	ObjectionCount int
	TechIssueCount int // hard cap 2, invariant: never exceeds 2

	EndCall bool
	Tone    ChannelTone

	LastSpinType   SpinType
	PainPointCount int

	// PreviousPresentationState remembers which presentation state (S6 or S7)
	// to return to once an objection raised there (routing rule 6) is
	// resolved.
	PreviousPresentationState SalesState
}

// NewConversationState creates a fresh state at S0.
func NewConversationState(tone ChannelTone) *ConversationState {
	return &ConversationState{
		State:          S0,
		StateEnteredAt: time.Now(),
		Tone:           tone,
	}
}

// RecordIntents appends intents to history. The tech-issue counter is
// maintained by ApplyRouting, not here.
func (c *ConversationState) RecordIntents(i Intents) {
	c.IntentHistory = append(c.IntentHistory, i)
}

// transitionTo moves the machine to next, updating the entry timestamp.
// S12 is absorbing: once reached, this is a no-op (spec.md §3, §8).
func (c *ConversationState) transitionTo(next SalesState) {
	if c.State.IsTerminal() {
		return
	}
	c.State = next
	c.StateEnteredAt = time.Now()
	if next == S12 {
		c.EndCall = true
	}
}
