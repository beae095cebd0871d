// Package prompt assembles the state-keyed LLM prompt from spec.md §4.3,
// grounded on the original voice_agent.py's _transcript_tail and
// per-state prompt templates. Token-budget accounting for the 150-token
// max_tokens ceiling uses github.com/tiktoken-go/tokenizer rather than
// a character-count proxy, following the tokenizer usage visible in
// the go-go-golems/pinocchio example.
package prompt

import (
	"fmt"
	"strings"

	"github.com/tiktoken-go/tokenizer"

	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/engine"
)

// DefaultTranscriptTailChars is the hard cap on bounded transcript tail
// length (spec.md §4.3).
const DefaultTranscriptTailChars = 800

// MaxOutputTokens is the LLM output budget (spec.md §4.3).
const MaxOutputTokens = 150

// Lead holds the subset of lead fields the prompt may reference
// (spec.md §4.3 contract 2: no PII beyond lead fields).
type Lead struct {
	Name     string
	Company  string
	Title    string
	Industry string
	Context  string
}

// Builder assembles prompts per state.
type Builder struct {
	tailChars int
	codec     tokenizer.Codec
}

// New constructs a Builder with the default transcript tail cap. Falls
// back to a nil codec (character-budget only) if the tokenizer model
// fails to load, since token accounting is an accuracy refinement, not
// a correctness requirement of PromptBuilder's character cap contract.
func New() *Builder {
	codec, _ := tokenizer.Get(tokenizer.Cl100kBase)
	return &Builder{tailChars: DefaultTranscriptTailChars, codec: codec}
}

// TranscriptTail returns the last n characters of fullTranscript,
// implementing the hard cap contract of spec.md §4.3.
func (b *Builder) TranscriptTail(fullTranscript string) string {
	if len(fullTranscript) <= b.tailChars {
		return fullTranscript
	}
	return fullTranscript[len(fullTranscript)-b.tailChars:]
}

// stateTemplates holds one state-specific instruction template per
// state (spec.md §4.3 contract 3), grounded on voice_agent.py's
// per-state system-prompt branches.
var stateTemplates = map[engine.SalesState]string{
	engine.S0:  "Confirm the prospect can hear you clearly and set a brief, low-pressure tone.",
	engine.S1:  "Ask permission for a couple of minutes of their time; keep it to one short question.",
	engine.S2:  "Ask one open discovery question about how they currently handle the relevant process.",
	engine.S3:  "Probe gently on what they just said; if they are guarded, reassure and ask a narrower question.",
	engine.S4:  "Confirm the pain point they described in your own words and ask if that's accurate.",
	engine.S5:  "Transition from their stated pain point to the value you can offer, in one sentence.",
	engine.S6:  "Present the core value proposition concretely, tied to what they told you.",
	engine.S7:  "Deepen engagement with a proof point or concrete example relevant to their situation.",
	engine.S8:  "Acknowledge their objection respectfully without disparaging any competitor, then address it.",
	engine.S9:  "Ask whether other stakeholders need to be involved in a decision.",
	engine.S10: "Ask if a brief follow-up would be welcome.",
	engine.S11: "Confirm interest in scheduling and ask for a concrete day/time or email.",
	engine.S12: "Close the call warmly and briefly; do not ask another question.",
}

var toneGuidance = map[engine.ChannelTone]string{
	engine.ToneColdCall:     "This is a cold outbound call; be brief and respectful of their time.",
	engine.ToneWarmReferral: "This call was referred by a mutual contact; you may reference that warmly.",
	engine.ToneInbound:      "This prospect reached out first; you can be slightly more direct.",
}

// Build assembles the full prompt string for one turn.
func (b *Builder) Build(state engine.SalesState, lead Lead, tone engine.ChannelTone, fullTranscript, userText string) string {
	tmpl, ok := stateTemplates[state]
	if !ok {
		tmpl = stateTemplates[engine.S12]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a sales development rep on a live phone call.\n")
	fmt.Fprintf(&sb, "%s\n", toneGuidance[tone])
	fmt.Fprintf(&sb, "Prospect: %s", orDefault(lead.Name, "the prospect"))
	if lead.Company != "" {
		fmt.Fprintf(&sb, " at %s", lead.Company)
	}
	if lead.Title != "" {
		fmt.Fprintf(&sb, " (%s)", lead.Title)
	}
	sb.WriteString(".\n")
	if lead.Industry != "" {
		fmt.Fprintf(&sb, "Industry: %s.\n", lead.Industry)
	}
	if lead.Context != "" {
		fmt.Fprintf(&sb, "Context: %s\n", lead.Context)
	}
	fmt.Fprintf(&sb, "Instruction for this turn: %s\n", tmpl)
	fmt.Fprintf(&sb, "Recent conversation:\n%s\n", b.TranscriptTail(fullTranscript))
	fmt.Fprintf(&sb, "Prospect just said: %q\n", userText)
	sb.WriteString("Reply in at most two short sentences, speaking naturally as on a phone call. Do not include speaker labels.")

	return sb.String()
}

// CountTokens returns an approximate token count for budget checks
// against MaxOutputTokens, falling back to a character/4 heuristic if
// the tokenizer codec failed to initialize.
func (b *Builder) CountTokens(text string) int {
	if b.codec == nil {
		return len(text) / 4
	}
	ids, _, err := b.codec.Encode(text)
	if err != nil {
		return len(text) / 4
	}
	return len(ids)
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
