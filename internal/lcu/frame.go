package lcu

import (
	"encoding/json"
	"fmt"

	"riftcap/internal/services"
)

// Event is one decoded frame from the event feed: a message-kind tag, the
// event topic, and the payload document. Frames that do not decode into
// exactly this triple are discarded before reaching any handler.
type Event struct {
	Kind    int
	Topic   string
	Payload json.RawMessage
}

// DecodeEvent parses a raw frame. The frame must be a JSON array with more
// than two elements: [kind, topic, payload]. Trailing elements are ignored.
func DecodeEvent(data []byte) (Event, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return Event{}, services.Wrap(services.ErrDecode, "lcu", "decode", "malformed frame", err)
	}
	if len(parts) <= 2 {
		return Event{}, services.Wrap(services.ErrDecode, "lcu", "decode",
			fmt.Sprintf("frame has %d elements, need at least 3", len(parts)), nil)
	}

	var evt Event
	if err := json.Unmarshal(parts[0], &evt.Kind); err != nil {
		return Event{}, services.Wrap(services.ErrDecode, "lcu", "decode", "frame kind is not a number", err)
	}
	if err := json.Unmarshal(parts[1], &evt.Topic); err != nil {
		return Event{}, services.Wrap(services.ErrDecode, "lcu", "decode", "frame topic is not a string", err)
	}
	evt.Payload = parts[2]
	return evt, nil
}
