package carrier

import (
	"encoding/xml"
	"fmt"
)

// Markup types follow spec.md §6.1's carrier flow — <Play> the
// synthesized audio URL, then <Gather> the next utterance with a
// state-complexity-matched timeout — rather than the teacher's
// continuous bidirectional <Start><Stream> media-streaming verbs in
// pkg/telephony/call-handlers.go. The XML struct-tag marshaling
// approach is kept from the teacher; the verb set is generalized to
// the play/gather polling model spec.md calls for. Stream/Start remain
// available as an alternate transport (StreamResponse) but are not
// produced by TurnHandler's markup responses.

// Response is the root markup document returned from a webhook.
type Response struct {
	XMLName xml.Name `xml:"Response"`
	Play    *Play    `xml:"Play,omitempty"`
	Say     *Say     `xml:"Say,omitempty"`
	Gather  *Gather  `xml:"Gather,omitempty"`
	Hangup  *Hangup  `xml:"Hangup,omitempty"`
	Start   *Start   `xml:"Start,omitempty"`
}

// Play instructs the carrier to play an audio URL.
type Play struct {
	XMLName xml.Name `xml:"Play"`
	URL     string   `xml:",chardata"`
}

// Gather collects the next spoken utterance and posts it to action.
type Gather struct {
	XMLName        xml.Name `xml:"Gather"`
	Input          string   `xml:"input,attr"`
	Action         string   `xml:"action,attr"`
	Method         string   `xml:"method,attr"`
	TimeoutSeconds int      `xml:"timeout,attr"`
	Play           *Play    `xml:"Play,omitempty"`
}

// Say asks the carrier to synthesize text itself, used only when our
// own TTSClient fails (spec.md §4.5 degrade path).
type Say struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

// Hangup ends the call from markup, used when end_call is set or on a
// fatal webhook validation failure.
type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// Start/Stream retained from the teacher's bidirectional media-bridge
// path (pkg/telephony), available for a future continuous-audio
// transport but not produced by TurnHandler today.
type Start struct {
	XMLName xml.Name `xml:"Start"`
	Streams []Stream `xml:"Stream"`
}

type Stream struct {
	XMLName xml.Name `xml:"Stream"`
	URL     string   `xml:"url,attr"`
	Track   string   `xml:"track,attr"`
}

// PlayAndGather builds the markup for spec.md §6.1's turn response:
// play the reply audio, then gather the next utterance targeted at
// turnActionURL with the state-tier timeout.
func PlayAndGather(audioURL, turnActionURL string, timeoutSeconds int) ([]byte, error) {
	doc := Response{
		Gather: &Gather{
			Input:          "speech",
			Action:         turnActionURL,
			Method:         "POST",
			TimeoutSeconds: timeoutSeconds,
			Play:           &Play{URL: audioURL},
		},
	}
	return xml.Marshal(doc)
}

// HangupWithPlay plays a closing line then hangs up, used on S12 and
// on permission-denied/hostile-intent exits.
func HangupWithPlay(audioURL string) ([]byte, error) {
	doc := Response{
		Play:   &Play{URL: audioURL},
		Hangup: &Hangup{},
	}
	return xml.Marshal(doc)
}

// SpokenFallback builds markup that has the carrier speak text directly
// and then gather the next utterance, used when TTSClient synthesis
// fails mid-call (spec.md §4.5 degrade path).
func SpokenFallback(text, voice, turnActionURL string, timeoutSeconds int) ([]byte, error) {
	doc := Response{
		Gather: &Gather{
			Input:          "speech",
			Action:         turnActionURL,
			Method:         "POST",
			TimeoutSeconds: timeoutSeconds,
		},
		Say: &Say{Voice: voice, Text: text},
	}
	return xml.Marshal(doc)
}

// HangupResponse builds markup that ends the call immediately with no
// spoken line, used on STATE_VIOLATION.
func HangupResponse() ([]byte, error) {
	doc := Response{Hangup: &Hangup{}}
	return xml.Marshal(doc)
}

// StreamResponse builds the legacy continuous-media-stream markup;
// TurnHandler does not use it.
func StreamResponse(wsURL string) ([]byte, error) {
	doc := Response{Start: &Start{Streams: []Stream{{URL: wsURL, Track: "both"}}}}
	return xml.Marshal(doc)
}

// AudioURLPath builds the path component of spec.md §6.2's audio
// serving endpoint for a given call and filename.
func AudioURLPath(callID, filename string) string {
	return fmt.Sprintf("/calls/%s/tts/%s", callID, filename)
}
