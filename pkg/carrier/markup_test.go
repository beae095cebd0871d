package carrier

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayAndGatherProducesGatherWithNestedPlay(t *testing.T) {
	raw, err := PlayAndGather("https://cdn.example.com/a.mp3", "https://agent.example.com/webhook/c1/turn", 7)
	require.NoError(t, err)

	var doc Response
	require.NoError(t, xml.Unmarshal(raw, &doc))
	require.NotNil(t, doc.Gather)
	assert.Equal(t, "speech", doc.Gather.Input)
	assert.Equal(t, "https://agent.example.com/webhook/c1/turn", doc.Gather.Action)
	assert.Equal(t, "POST", doc.Gather.Method)
	assert.Equal(t, 7, doc.Gather.TimeoutSeconds)
	require.NotNil(t, doc.Gather.Play)
	assert.Equal(t, "https://cdn.example.com/a.mp3", doc.Gather.Play.URL)
	assert.Nil(t, doc.Hangup)
}

func TestHangupWithPlayProducesPlayThenHangup(t *testing.T) {
	raw, err := HangupWithPlay("https://cdn.example.com/bye.mp3")
	require.NoError(t, err)

	var doc Response
	require.NoError(t, xml.Unmarshal(raw, &doc))
	require.NotNil(t, doc.Play)
	assert.Equal(t, "https://cdn.example.com/bye.mp3", doc.Play.URL)
	assert.NotNil(t, doc.Hangup)
	assert.Nil(t, doc.Gather)
}

func TestSpokenFallbackProducesSayWithGather(t *testing.T) {
	raw, err := SpokenFallback("sorry, one moment", "Joanna", "https://agent.example.com/webhook/c1/turn", 5)
	require.NoError(t, err)

	var doc Response
	require.NoError(t, xml.Unmarshal(raw, &doc))
	require.NotNil(t, doc.Say)
	assert.Equal(t, "Joanna", doc.Say.Voice)
	assert.Equal(t, "sorry, one moment", doc.Say.Text)
	require.NotNil(t, doc.Gather)
	assert.Nil(t, doc.Gather.Play)
}

func TestHangupResponseHasNoOtherVerbs(t *testing.T) {
	raw, err := HangupResponse()
	require.NoError(t, err)

	var doc Response
	require.NoError(t, xml.Unmarshal(raw, &doc))
	assert.NotNil(t, doc.Hangup)
	assert.Nil(t, doc.Play)
	assert.Nil(t, doc.Gather)
	assert.Nil(t, doc.Say)
}

func TestStreamResponseSetsBothTrack(t *testing.T) {
	raw, err := StreamResponse("wss://media.example.com/stream/c1")
	require.NoError(t, err)

	var doc Response
	require.NoError(t, xml.Unmarshal(raw, &doc))
	require.NotNil(t, doc.Start)
	require.Len(t, doc.Start.Streams, 1)
	assert.Equal(t, "wss://media.example.com/stream/c1", doc.Start.Streams[0].URL)
	assert.Equal(t, "both", doc.Start.Streams[0].Track)
}

func TestAudioURLPathBuildsExpectedPath(t *testing.T) {
	got := AudioURLPath("c1", "reply-42.mp3")
	assert.Equal(t, "/calls/c1/tts/reply-42.mp3", got)
}
