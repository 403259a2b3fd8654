package streamclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoderSingleChunk(t *testing.T) {
	var dec Decoder
	frames := dec.Feed([]byte("data: {\"chatId\":\"abc\"}\n\ndata: {\"content\":\"Hi\"}\n\ndata: [DONE]\n\n"))

	require.Len(t, frames, 3)
	assert.Equal(t, "abc", frames[0].ChatID)
	assert.Equal(t, "Hi", frames[1].Content)
	assert.True(t, frames[2].Done)
}

func TestDecoderPartialLineAcrossReads(t *testing.T) {
	var dec Decoder

	// A frame split mid-JSON must not be parsed until its newline arrives.
	frames := dec.Feed([]byte("data: {\"content\":\"Hel"))
	assert.Empty(t, frames)

	frames = dec.Feed([]byte("lo\"}\n\ndata: {\"cont"))
	require.Len(t, frames, 1)
	assert.Equal(t, "Hello", frames[0].Content)

	frames = dec.Feed([]byte("ent\":\" world\"}\n\n"))
	require.Len(t, frames, 1)
	assert.Equal(t, " world", frames[0].Content)
}

func TestDecoderDoneSplitAcrossReads(t *testing.T) {
	var dec Decoder

	assert.Empty(t, dec.Feed([]byte("data: [DO")))
	frames := dec.Feed([]byte("NE]\n"))
	require.Len(t, frames, 1)
	assert.True(t, frames[0].Done)
}

func TestDecoderByteAtATime(t *testing.T) {
	var dec Decoder
	wire := "data: {\"content\":\"a\"}\n\ndata: {\"title\":\"T\"}\n\ndata: [DONE]\n\n"

	var frames []Frame
	for i := 0; i < len(wire); i++ {
		frames = append(frames, dec.Feed([]byte{wire[i]})...)
	}

	require.Len(t, frames, 3)
	assert.Equal(t, "a", frames[0].Content)
	assert.Equal(t, "T", frames[1].Title)
	assert.True(t, frames[2].Done)
}

func TestDecoderIgnoresMalformedAndForeignLines(t *testing.T) {
	var dec Decoder
	frames := dec.Feed([]byte(": comment\nevent: ping\ndata: not json\ndata: {\"content\":\"ok\"}\n\n"))

	require.Len(t, frames, 1)
	assert.Equal(t, "ok", frames[0].Content)
}

func TestDecoderErrorFrame(t *testing.T) {
	var dec Decoder
	frames := dec.Feed([]byte("data: {\"error\":\"model unavailable\"}\n\ndata: [DONE]\n\n"))

	require.Len(t, frames, 2)
	assert.Equal(t, "model unavailable", frames[0].Error)
	assert.True(t, frames[1].Done)
}

func TestDecoderContentWithEmbeddedNewlineEscapes(t *testing.T) {
	var dec Decoder
	frames := dec.Feed([]byte("data: {\"content\":\"line1\\nline2\"}\n\n"))

	require.Len(t, frames, 1)
	assert.Equal(t, "line1\nline2", frames[0].Content)
}
