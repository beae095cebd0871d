package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBANTTierThresholds(t *testing.T) {
	cases := []struct {
		mean float64
		tier Tier
	}{
		{80, TierHot},
		{75, TierHot},
		{60, TierWarm},
		{50, TierWarm},
		{40, TierLukewarm},
		{30, TierLukewarm},
		{10, TierCold},
	}
	for _, c := range cases {
		b := BANT{Budget: c.mean, Authority: c.mean, Need: c.mean, Timeline: c.mean}
		assert.Equal(t, c.tier, b.Tier())
	}
}

func TestBANTUpdateFromTextIsMonotoneNonDecreasing(t *testing.T) {
	b := BANT{Budget: 90, Authority: 10, Need: 10, Timeline: 10}

	next := b.UpdateFromText("no budget signal here", 0)
	assert.Equal(t, b.Budget, next.Budget, "a higher existing score must never be lowered")
}

func TestBANTUpdateFromTextDetectsSignals(t *testing.T) {
	b := BANT{}

	next := b.UpdateFromText("our budget for this is flexible", 0)
	assert.Equal(t, 80.0, next.Budget)

	next = next.UpdateFromText("i'm the vp of engineering here", 0)
	assert.Equal(t, 85.0, next.Authority)

	next = next.UpdateFromText("we need this asap", 0)
	assert.Equal(t, 85.0, next.Timeline)
}

func TestBANTUpdateFromTextNeedScalesWithPainPointCount(t *testing.T) {
	b := BANT{}
	assert.Equal(t, 50.0, b.UpdateFromText("", 1).Need)
	assert.Equal(t, 70.0, b.UpdateFromText("", 2).Need)
	assert.Equal(t, 88.0, b.UpdateFromText("", 3).Need)
}
