package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harshalgo279-tech/mark-AADOS-v1/pkg/engine"
)

func TestTranscriptTailReturnsFullStringUnderCap(t *testing.T) {
	b := New()
	short := "hello there"
	assert.Equal(t, short, b.TranscriptTail(short))
}

func TestTranscriptTailTruncatesToLastNChars(t *testing.T) {
	b := &Builder{tailChars: 10}
	full := "0123456789abcdefghij"
	assert.Equal(t, "abcdefghij", b.TranscriptTail(full))
}

func TestBuildIncludesLeadFieldsWhenPresent(t *testing.T) {
	b := New()
	lead := Lead{Name: "Jane Roe", Company: "Acme Corp", Title: "VP Ops", Industry: "Logistics", Context: "referred by Bob"}
	out := b.Build(engine.S2, lead, engine.ToneColdCall, "prior turn", "we do it by hand")

	assert.Contains(t, out, "Jane Roe")
	assert.Contains(t, out, "Acme Corp")
	assert.Contains(t, out, "VP Ops")
	assert.Contains(t, out, "Logistics")
	assert.Contains(t, out, "referred by Bob")
	assert.Contains(t, out, "we do it by hand")
	assert.Contains(t, out, stateTemplates[engine.S2])
}

func TestBuildFallsBackToDefaultNameWhenBlank(t *testing.T) {
	b := New()
	out := b.Build(engine.S0, Lead{}, engine.ToneInbound, "", "hello")
	assert.Contains(t, out, "the prospect")
}

func TestBuildUsesFallbackTemplateForUnknownState(t *testing.T) {
	b := New()
	out := b.Build(engine.SalesState(99), Lead{Name: "X"}, engine.ToneColdCall, "", "hi")
	assert.Contains(t, out, stateTemplates[engine.S12])
}

func TestBuildOmitsBlankOptionalFields(t *testing.T) {
	b := New()
	out := b.Build(engine.S1, Lead{Name: "Jane"}, engine.ToneColdCall, "", "sure")
	assert.False(t, strings.Contains(out, "Industry:"))
	assert.False(t, strings.Contains(out, "Context:"))
}

func TestCountTokensFallsBackToCharHeuristicWithNilCodec(t *testing.T) {
	b := &Builder{tailChars: DefaultTranscriptTailChars, codec: nil}
	assert.Equal(t, len("twelve chars")/4, b.CountTokens("twelve chars"))
}

func TestCountTokensUsesCodecWhenAvailable(t *testing.T) {
	b := New()
	require.NotPanics(t, func() {
		n := b.CountTokens("hello there, how are you today?")
		assert.Greater(t, n, 0)
	})
}
