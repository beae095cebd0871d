// Package engine implements the per-turn conversational engine: the
// 13-state SPIN sales machine (spec.md §4.1), intent detection (§4.2),
// and BANT scoring (§3, §4.1). Re-architected per spec.md §9 as tagged
// variants: SalesState is a closed enumeration and routing is a total
// function (state, intents, bant) -> state, rather than the original
// Python's branchy object methods.
package engine

// SalesState is one of the thirteen closed sales-conversation states.
type SalesState int

const (
	S0 SalesState = iota
	S1
	S2
	S3
	S4
	S5
	S6
	S7
	S8
	S9
	S10
	S11
	S12
)

// String renders the state as its canonical name.
func (s SalesState) String() string {
	names := [...]string{
		"S0", "S1", "S2", "S3", "S4", "S5", "S6",
		"S7", "S8", "S9", "S10", "S11", "S12",
	}
	if int(s) < 0 || int(s) >= len(names) {
		return "S?"
	}
	return names[s]
}

// Phase groups states per spec.md §4.1's table.
type Phase string

const (
	PhaseOpening      Phase = "opening"
	PhaseDiscovery    Phase = "discovery"
	PhasePresentation Phase = "presentation"
	PhaseObjection    Phase = "objection"
	PhaseClosing      Phase = "closing"
)

var statePhase = map[SalesState]Phase{
	S0: PhaseOpening, S1: PhaseOpening,
	S2: PhaseDiscovery, S3: PhaseDiscovery, S4: PhaseDiscovery,
	S5: PhasePresentation, S6: PhasePresentation, S7: PhasePresentation,
	S8: PhaseObjection,
	S9: PhaseClosing, S10: PhaseClosing, S11: PhaseClosing, S12: PhaseClosing,
}

// Phase returns the SPIN phase a state belongs to.
func (s SalesState) Phase() Phase { return statePhase[s] }

// IsTerminal reports whether s is S12, the absorbing exit state
// (spec.md §3 invariant: "S12 is terminal ... no further transitions
// permitted").
func (s SalesState) IsTerminal() bool { return s == S12 }

// TimeoutTier classifies a state's LLM timeout bucket per spec.md §4.4.
type TimeoutTier int

const (
	TierSimple TimeoutTier = iota
	TierModerate
	TierComplex
)

var simpleStates = map[SalesState]bool{S0: true, S1: true, S4: true, S12: true}
var moderateStates = map[SalesState]bool{S2: true, S3: true, S5: true, S9: true, S10: true, S11: true}
var complexStates = map[SalesState]bool{S6: true, S7: true, S8: true}

// Tier returns the timeout bucket for s, per spec.md §4.4's exact
// grouping (S4 is Simple, resolving the source's ambiguity per
// spec.md §9 / SPEC_FULL.md §14).
func (s SalesState) Tier() TimeoutTier {
	switch {
	case simpleStates[s]:
		return TierSimple
	case moderateStates[s]:
		return TierModerate
	case complexStates[s]:
		return TierComplex
	default:
		return TierModerate
	}
}

// Timeout returns the LLM streaming deadline for s per spec.md §4.4.
func (s SalesState) Timeout() (seconds float64) {
	switch s.Tier() {
	case TierSimple:
		return 4.0
	case TierComplex:
		return 6.0
	default:
		return 5.0
	}
}
