package response

import (
	"regexp"
	"strings"
)

// softWordLimit is spec.md §4.4(a)'s ~12s-of-speech soft cap.
const softWordLimit = 55

// speakerLabelLine strips a leading run of "Agent:"/"AI Agent:"/
// "Assistant:"/"Lead:"/"User:" prefixes, grounded on voice_agent.py's
// _strip_speaker_labels.
var speakerLabelLine = regexp.MustCompile(`(?im)^(?:\s*(?:agent|ai agent|assistant|lead|user)\s*:\s*)+`)

// speakerLabelMidline strips the same labels reappearing after a
// newline, matching _strip_speaker_labels's second pass.
var speakerLabelMidline = regexp.MustCompile(`(?im)\n\s*(?:agent|ai agent|assistant|lead|user)\s*:\s*`)

var whitespaceRun = regexp.MustCompile(`\s+`)

var sentenceEnd = regexp.MustCompile(`[.!?]`)

// cleanReply implements spec.md §4.4(a) and §4.12 step 5: strip speaker
// labels, collapse whitespace, and enforce the ~55-word soft cap,
// truncating on a sentence boundary when the reply runs over it.
func cleanReply(text string) string {
	t := speakerLabelLine.ReplaceAllString(text, "")
	t = speakerLabelMidline.ReplaceAllString(t, "\n")
	t = strings.TrimSpace(whitespaceRun.ReplaceAllString(t, " "))

	words := strings.Fields(t)
	if len(words) <= softWordLimit {
		return t
	}
	return truncateOnSentenceBoundary(t, words)
}

// truncateOnSentenceBoundary cuts text at the last sentence terminator
// occurring at or before the soft word limit, falling back to a hard
// word cut if the reply has no sentence boundary within it (spec.md §8:
// "beyond [the soft limit], it truncates on sentence boundary").
func truncateOnSentenceBoundary(text string, words []string) string {
	limit := strings.Join(words[:softWordLimit], " ")
	cutoff := len(limit)

	lastEnd := -1
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		if loc[0] > cutoff {
			break
		}
		lastEnd = loc[1]
	}
	if lastEnd > 0 {
		return strings.TrimSpace(text[:lastEnd])
	}
	return strings.Join(words[:softWordLimit], " ")
}
