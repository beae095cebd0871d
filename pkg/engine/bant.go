package engine

import "strings"

// BANT holds the four qualification sub-scores, each in [0,100] and
// monotone non-decreasing within a call (spec.md §3 invariant).
type BANT struct {
	Budget    float64
	Authority float64
	Need      float64
	Timeline  float64
}

// Tier is the derived lead-quality bucket. Names follow spec.md §3
// exactly ("lukewarm", not the source's "cool_lead" — see
// SPEC_FULL.md §14).
type Tier string

const (
	TierHot      Tier = "hot_lead"
	TierWarm     Tier = "warm_lead"
	TierLukewarm Tier = "lukewarm"
	TierCold     Tier = "cold_lead"
)

// Mean returns the arithmetic mean of the four sub-scores.
func (b BANT) Mean() float64 {
	return (b.Budget + b.Authority + b.Need + b.Timeline) / 4.0
}

// Tier buckets the mean per spec.md §3's thresholds.
func (b BANT) Tier() Tier {
	m := b.Mean()
	switch {
	case m >= 75:
		return TierHot
	case m >= 50:
		return TierWarm
	case m >= 30:
		return TierLukewarm
	default:
		return TierCold
	}
}

var (
	currencyWords  = []string{"$", "budget", "dollars", "cost", "price", "invest"}
	authorityWords = []string{"vp", "chief", "director", "ceo", "cto", "coo", "i approve", "i can approve", "decision maker"}
	painVerbs      = []string{"struggle", "struggling", "frustrated", "bottleneck", "manual", "wasting time", "error-prone", "slow", "painful"}
	timelineWords  = []string{"this quarter", "next month", "asap", "urgently", "by end of", "this week", "soon"}
)

// UpdateFromText scans normalized utterance text and merges any newly
// detected keyword/regex-style signal into b, never lowering an
// existing sub-score (monotone non-decreasing per spec.md §3).
// Grounded on sales_control_plane.py's keyword-threshold BANT updates
// (budget=80, authority=85, need scaled by pain-point count, timeline=85).
func (b BANT) UpdateFromText(normalized string, painPointCount int) BANT {
	next := b

	if containsAny(normalized, currencyWords) {
		next.Budget = max(next.Budget, 80)
	}
	if containsAny(normalized, authorityWords) {
		next.Authority = max(next.Authority, 85)
	}
	switch {
	case painPointCount >= 3:
		next.Need = max(next.Need, 88)
	case painPointCount == 2:
		next.Need = max(next.Need, 70)
	case painPointCount == 1:
		next.Need = max(next.Need, 50)
	}
	if containsAny(normalized, painVerbs) {
		next.Need = max(next.Need, 50)
	}
	if containsAny(normalized, timelineWords) {
		next.Timeline = max(next.Timeline, 85)
	}

	return next
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
