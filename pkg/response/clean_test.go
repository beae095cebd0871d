package response

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanReplyStripsLeadingSpeakerLabel(t *testing.T) {
	out := cleanReply("Agent: Sure, I can help with that.")
	assert.Equal(t, "Sure, I can help with that.", out)
}

func TestCleanReplyStripsRepeatedLeadingLabels(t *testing.T) {
	out := cleanReply("AI Agent: Assistant: Sure, happy to help.")
	assert.Equal(t, "Sure, happy to help.", out)
}

func TestCleanReplyStripsMidlineSpeakerLabel(t *testing.T) {
	out := cleanReply("Sure, let's dig in.\nLead: What's your timeline?\nAgent: Great question.")
	assert.NotContains(t, out, "Lead:")
	assert.NotContains(t, out, "Agent:")
}

func TestCleanReplyCollapsesWhitespace(t *testing.T) {
	out := cleanReply("Sure,   I can   help\n\nwith that.")
	assert.Equal(t, "Sure, I can help with that.", out)
}

func TestCleanReplyAtSoftLimitIsPreservedUnchanged(t *testing.T) {
	words := make([]string, softWordLimit)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, " ") + "."

	out := cleanReply(text)
	assert.Equal(t, text, out, "a reply exactly at the soft word limit must not be truncated")
	assert.Len(t, strings.Fields(out), softWordLimit)
}

func TestCleanReplyBeyondSoftLimitTruncatesOnSentenceBoundary(t *testing.T) {
	firstSentenceWords := make([]string, softWordLimit-2)
	for i := range firstSentenceWords {
		firstSentenceWords[i] = "word"
	}
	firstSentence := strings.Join(firstSentenceWords, " ") + "."
	text := firstSentence + " This trailing sentence pushes the reply well past the limit and must be dropped."

	out := cleanReply(text)
	assert.Equal(t, firstSentence, out)
}

func TestCleanReplyBeyondSoftLimitWithoutSentenceBoundaryHardCutsAtWordLimit(t *testing.T) {
	words := make([]string, softWordLimit+10)
	for i := range words {
		words[i] = "word"
	}
	text := strings.Join(words, " ")

	out := cleanReply(text)
	assert.Len(t, strings.Fields(out), softWordLimit)
	assert.NotContains(t, out, ".")
}

func TestCleanReplyUnderSoftLimitUnaffected(t *testing.T) {
	out := cleanReply("Sure, happy to help with that.")
	assert.Equal(t, "Sure, happy to help with that.", out)
}
