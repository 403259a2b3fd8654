package streamclient

import (
	"encoding/json"
	"strings"
)

// framePrefix is the wire prefix of every event line.
const framePrefix = "data: "

// doneSentinel is the literal payload of the terminal line. It is not JSON
// and must not be parsed as a frame.
const doneSentinel = "[DONE]"

// Frame is one decoded event from the chat stream. Exactly one of the fields
// is meaningful per frame; unknown fields on the wire are ignored for forward
// compatibility.
type Frame struct {
	ChatID  string `json:"chatId"`
	Content string `json:"content"`
	Title   string `json:"title"`
	Error   string `json:"error"`

	// Done marks the terminal sentinel. No further frames follow it.
	Done bool `json:"-"`
}

// Decoder reassembles frames from an arbitrarily chunked byte stream. A line
// may be split across two reads; the unterminated tail is buffered between
// calls and only complete lines are ever parsed.
type Decoder struct {
	tail string
}

// Feed consumes the next chunk of bytes and returns all frames completed by
// it, in wire order. Complete lines that fail to parse as frame JSON are
// dropped silently, matching the forward-compatibility contract.
func (d *Decoder) Feed(chunk []byte) []Frame {
	data := d.tail + string(chunk)
	lines := strings.Split(data, "\n")

	// The final element is either an empty string (chunk ended on a newline)
	// or an incomplete line; either way it is the next call's prefix.
	d.tail = lines[len(lines)-1]
	lines = lines[:len(lines)-1]

	var frames []Frame
	for _, line := range lines {
		if !strings.HasPrefix(line, framePrefix) {
			continue
		}
		payload := line[len(framePrefix):]
		if payload == doneSentinel {
			frames = append(frames, Frame{Done: true})
			continue
		}

		var frame Frame
		if err := json.Unmarshal([]byte(payload), &frame); err != nil {
			continue
		}
		frames = append(frames, frame)
	}

	return frames
}
