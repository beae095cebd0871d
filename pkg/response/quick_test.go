package response

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/engine"
)

func TestEligibleTrueForTemplatedStateNotYetUsed(t *testing.T) {
	q := NewQuickResponder()
	assert.True(t, q.Eligible(engine.S0, false))
}

func TestEligibleFalseWhenAlreadyUsed(t *testing.T) {
	q := NewQuickResponder()
	assert.False(t, q.Eligible(engine.S0, true))
}

func TestEligibleFalseForStateWithNoTemplate(t *testing.T) {
	q := NewQuickResponder()
	assert.False(t, q.Eligible(engine.S5, false))
}

func TestRenderSubstitutesLeadName(t *testing.T) {
	q := NewQuickResponder()
	out, ok := q.Render(engine.S0, engine.ToneColdCall, "Jane", 0)
	assert.True(t, ok)
	assert.Equal(t, "Hi Jane, can you hear me alright?", out)
}

func TestRenderFallsBackToThereWhenNameBlank(t *testing.T) {
	q := NewQuickResponder()
	out, ok := q.Render(engine.S1, engine.ToneColdCall, "   ", 0)
	assert.True(t, ok)
	assert.Contains(t, out, "Thanks there,")
}

func TestRenderFalseForUntemplatedState(t *testing.T) {
	q := NewQuickResponder()
	_, ok := q.Render(engine.S7, engine.ToneColdCall, "Jane", 0)
	assert.False(t, ok)
}

func TestRenderVariesByChannelTone(t *testing.T) {
	q := NewQuickResponder()
	coldCall, _ := q.Render(engine.S0, engine.ToneColdCall, "Jane", 0)
	warmReferral, _ := q.Render(engine.S0, engine.ToneWarmReferral, "Jane", 0)
	assert.NotEqual(t, coldCall, warmReferral, "distinct channel tones should not share phrasing")
}

func TestRenderFallsBackToColdCallForUnregisteredTone(t *testing.T) {
	q := NewQuickResponder()
	out, ok := q.Render(engine.S0, engine.ChannelTone("unregistered"), "Jane", 0)
	assert.True(t, ok)
	assert.Equal(t, "Hi Jane, can you hear me alright?", out)
}

func TestRenderRotatesAmongVariationsBySeed(t *testing.T) {
	q := NewQuickResponder()
	first, _ := q.Render(engine.S0, engine.ToneColdCall, "Jane", 0)
	second, _ := q.Render(engine.S0, engine.ToneColdCall, "Jane", 1)
	assert.NotEqual(t, first, second, "consecutive seeds should not repeat the same wording")

	wrapped, _ := q.Render(engine.S0, engine.ToneColdCall, "Jane", 2)
	assert.Equal(t, first, wrapped, "rotation wraps back to the first variation")
}

func TestRenderNegativeSeedStillIndexesInBounds(t *testing.T) {
	q := NewQuickResponder()
	out, ok := q.Render(engine.S0, engine.ToneColdCall, "Jane", -1)
	assert.True(t, ok)
	assert.NotEmpty(t, out)
}

func TestMinQualityReturnsConfiguredFloorOrZero(t *testing.T) {
	q := NewQuickResponder()
	assert.Equal(t, 70.0, q.MinQuality(engine.S12))
	assert.Equal(t, 0.0, q.MinQuality(engine.S9))
}
