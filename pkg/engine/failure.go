package engine

import (
	"fmt"
)

// FailureMode enumerates the conversational failure patterns this
// engine recognizes beyond simple intent routing. Supplemented from
// original_source/.../sales_control_plane.py's FailureMode enum
// (SPEC_FULL.md §12.1): not part of spec.md's explicit routing rules,
// but fair game since no Non-goal excludes it.
type FailureMode string

const (
	FailureNone             FailureMode = ""
	FailureRepeatedQuestion FailureMode = "repeated_question"
	FailureStalledDiscovery FailureMode = "stalled_discovery"
	FailureRepetitionLoop   FailureMode = "repetition_loop"
)

// FailureTracker detects failure modes from a call's running state and
// reply history. It does not alter state-machine routing; it only
// selects a repair phrasing, keeping the routing function in routing.go
// the sole authority over state transitions (spec.md §9: "re-architect
// as a total function").
type FailureTracker struct {
	recentReplies   []string
	discoveryTurns  int
	questionsAsked  map[string]int
}

// NewFailureTracker constructs an empty tracker.
func NewFailureTracker() *FailureTracker {
	return &FailureTracker{questionsAsked: map[string]int{}}
}

// Observe records one turn's reply and current state, returning any
// failure mode detected.
func (f *FailureTracker) Observe(state SalesState, reply string) FailureMode {
	f.recentReplies = append(f.recentReplies, reply)
	if len(f.recentReplies) > 5 {
		f.recentReplies = f.recentReplies[len(f.recentReplies)-5:]
	}

	if state.Phase() == PhaseDiscovery {
		f.discoveryTurns++
	} else {
		f.discoveryTurns = 0
	}

	key := Normalize(reply)
	f.questionsAsked[key]++

	if f.questionsAsked[key] >= 2 {
		return FailureRepeatedQuestion
	}
	if f.discoveryTurns >= 4 {
		return FailureStalledDiscovery
	}
	if f.isRepetitionLoop() {
		return FailureRepetitionLoop
	}
	return FailureNone
}

func (f *FailureTracker) isRepetitionLoop() bool {
	if len(f.recentReplies) < 3 {
		return false
	}
	last := f.recentReplies[len(f.recentReplies)-1]
	prev := f.recentReplies[len(f.recentReplies)-2]
	return Normalize(last) == Normalize(prev)
}

// repairRotation rotates among 2-3 phrasings per failure mode so the
// same repair line is not repeated back-to-back (SPEC_FULL.md §12.2,
// grounded on sales_control_plane.py's QUESTION_VARIATIONS/
// TRANSITION_PHRASES rotation).
var repairRotation = map[FailureMode][]string{
	FailureRepeatedQuestion: {
		"Sorry if I already asked that — let's come at it from another angle.",
		"I may be repeating myself here, let me rephrase.",
	},
	FailureStalledDiscovery: {
		"Let me ask this a different way — what's the biggest friction point for your team right now?",
		"Stepping back a bit: where does most of the manual effort go today?",
	},
	FailureRepetitionLoop: {
		"Let's try a different angle on this.",
		"I want to make sure I'm being useful here — let me ask something else.",
	},
}

// RepairPhrase returns a rotating repair phrase for mode, using seed to
// pick among the 2-3 variations (so consecutive calls to RepairPhrase
// with an incrementing seed do not repeat the same wording).
func RepairPhrase(mode FailureMode, seed int) (string, error) {
	phrases, ok := repairRotation[mode]
	if !ok || len(phrases) == 0 {
		return "", fmt.Errorf("no repair phrase registered for failure mode %q", mode)
	}
	idx := seed % len(phrases)
	if idx < 0 {
		idx += len(phrases)
	}
	return phrases[idx], nil
}
