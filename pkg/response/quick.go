// Package response implements the three-tier response pipeline of
// spec.md §4.4: deterministic quick templates, the TTL response cache,
// and streaming LLM completion with overlapped TTS.
package response

import (
	"strings"

	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/engine"
)

// quickTemplate is grounded on utils/quick_responses.py's
// QuickResponseHandler, which hardcodes per-state text for states 0, 1,
// and 12. Unlike the source, {{name}} is actually substituted here —
// the source accepts lead_name but never interpolates it.
type quickTemplate struct {
	text string
}

// quickKey indexes the template table on (state, channel_tone) per
// spec.md §4.9.
type quickKey struct {
	state engine.SalesState
	tone  engine.ChannelTone
}

// minQualityByState is the per-state quality floor (spec.md §4.9's
// "must always satisfy a minimal quality-score threshold of 70");
// tone/rotation only change wording, never the floor.
var minQualityByState = map[engine.SalesState]float64{
	engine.S0:  70,
	engine.S1:  70,
	engine.S12: 70,
}

// quickTemplates rotates 1-3 phrasings per (state, channel_tone),
// grounded on sales_control_plane.py's QUESTION_VARIATIONS/
// TRANSITION_PHRASES rotation pattern (SPEC_FULL.md §12.2), applied
// here to the quick-response tier rather than only failure repairs.
var quickTemplates = map[quickKey][]quickTemplate{
	{engine.S0, engine.ToneColdCall}: {
		{text: "Hi {{name}}, can you hear me alright?"},
		{text: "Hey {{name}}, is this an okay time for me to say a quick word?"},
	},
	{engine.S0, engine.ToneWarmReferral}: {
		{text: "Hi {{name}}, thanks for taking my call — can you hear me okay?"},
		{text: "Hey {{name}}, glad we connected — you hearing me alright?"},
	},
	{engine.S0, engine.ToneInbound}: {
		{text: "Hi {{name}}, thanks for reaching out — can you hear me alright?"},
		{text: "Hey {{name}}, appreciate you calling in — can you hear me okay?"},
	},
	{engine.S1, engine.ToneColdCall}: {
		{text: "Thanks {{name}}, I'll keep this brief, do you have a couple of minutes?"},
		{text: "I know I'm calling out of the blue {{name}}, got two minutes?"},
	},
	{engine.S1, engine.ToneWarmReferral}: {
		{text: "Thanks {{name}}, I won't take much of your time, do you have a couple of minutes?"},
		{text: "Appreciate you making time {{name}} — got a couple of minutes?"},
	},
	{engine.S1, engine.ToneInbound}: {
		{text: "Thanks {{name}}, since you reached out, do you have a couple of minutes now?"},
		{text: "Glad to help {{name}} — got a couple of minutes to walk through it?"},
	},
	{engine.S12, engine.ToneColdCall}: {
		{text: "Thanks for your time today, {{name}}. Have a great day."},
		{text: "Appreciate you hearing me out, {{name}}. Take care."},
	},
	{engine.S12, engine.ToneWarmReferral}: {
		{text: "Thanks again for the time, {{name}}. Have a great day."},
		{text: "Really appreciate the chat, {{name}}. Take care."},
	},
	{engine.S12, engine.ToneInbound}: {
		{text: "Thanks for calling in, {{name}}. Have a great day."},
		{text: "Glad we could talk, {{name}}. Take care."},
	},
}

// QuickResponder serves deterministic replies for the small set of
// states where a templated opener/closer is indistinguishable from an
// LLM-generated one, bypassing the LLM entirely (spec.md §4.4 tier 1).
type QuickResponder struct{}

// NewQuickResponder constructs a QuickResponder.
func NewQuickResponder() *QuickResponder {
	return &QuickResponder{}
}

// Eligible reports whether state has a quick template and the call has
// not already used it for this state in this call (so a repeated turn
// in S0 falls through to the LLM instead of repeating itself verbatim).
func (q *QuickResponder) Eligible(state engine.SalesState, alreadyUsed bool) bool {
	_, ok := minQualityByState[state]
	return ok && !alreadyUsed
}

// Render interpolates the lead name into a template for (state, tone),
// rotating among that key's 1-3 variations by seed so consecutive calls
// with an incrementing seed do not repeat the same wording. Falls back
// to the cold-call phrasing when no template is registered for tone.
func (q *QuickResponder) Render(state engine.SalesState, tone engine.ChannelTone, leadName string, seed int) (string, bool) {
	if _, ok := minQualityByState[state]; !ok {
		return "", false
	}
	tmpls, ok := quickTemplates[quickKey{state, tone}]
	if !ok {
		tmpls, ok = quickTemplates[quickKey{state, engine.ToneColdCall}]
		if !ok {
			return "", false
		}
	}

	idx := seed % len(tmpls)
	if idx < 0 {
		idx += len(tmpls)
	}

	name := strings.TrimSpace(leadName)
	if name == "" {
		name = "there"
	}
	return strings.ReplaceAll(tmpls[idx].text, "{{name}}", name), true
}

// MinQuality returns the quality floor recorded for state's quick
// replies. Only tests read it; no reply is checked against it.
func (q *QuickResponder) MinQuality(state engine.SalesState) float64 {
	return minQualityByState[state]
}
