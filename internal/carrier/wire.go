// Package carrier implements the wire shapes for the Twilio-style
// bidirectional Media Streams WebSocket protocol referenced in spec §6:
// inbound start/media/stop events, outbound media/clear events.
package carrier

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// EventKind enumerates the inbound events the session controller demuxes.
type EventKind string

const (
	EventStart   EventKind = "start"
	EventMedia   EventKind = "media"
	EventStop    EventKind = "stop"
	EventMark    EventKind = "mark"
	EventUnknown EventKind = ""
)

// InboundEvent is a parsed carrier frame. Fields are populated only for the
// event kinds that use them.
type InboundEvent struct {
	Kind        EventKind
	StreamSID   string
	CallSID     string
	MediaBase64 string
}

// ParseInbound extracts just the fields the session controller needs from a
// raw carrier JSON frame, using gjson so unknown/extra vendor fields never
// require a matching struct (spec §6: "Unknown events ignored").
func ParseInbound(raw []byte) InboundEvent {
	event := gjson.GetBytes(raw, "event").String()
	switch EventKind(event) {
	case EventStart:
		return InboundEvent{
			Kind:      EventStart,
			StreamSID: gjson.GetBytes(raw, "start.streamSid").String(),
			CallSID:   gjson.GetBytes(raw, "start.callSid").String(),
		}
	case EventMedia:
		return InboundEvent{
			Kind:        EventMedia,
			StreamSID:   gjson.GetBytes(raw, "streamSid").String(),
			MediaBase64: gjson.GetBytes(raw, "media.payload").String(),
		}
	case EventStop:
		return InboundEvent{Kind: EventStop, StreamSID: gjson.GetBytes(raw, "streamSid").String()}
	case EventMark:
		return InboundEvent{Kind: EventMark, StreamSID: gjson.GetBytes(raw, "streamSid").String()}
	default:
		return InboundEvent{Kind: EventUnknown}
	}
}

type outboundMedia struct {
	Event     string        `json:"event"`
	StreamSID string        `json:"streamSid"`
	Media     outboundPay   `json:"media"`
}

type outboundPay struct {
	Payload string `json:"payload"`
}

type outboundClear struct {
	Event     string `json:"event"`
	StreamSID string `json:"streamSid"`
}

// EncodeMedia builds an outbound media frame carrying a base64 μ-law
// payload.
func EncodeMedia(streamSID, payload string) ([]byte, error) {
	b, err := json.Marshal(outboundMedia{Event: "media", StreamSID: streamSID, Media: outboundPay{Payload: payload}})
	if err != nil {
		return nil, fmt.Errorf("encode media frame: %w", err)
	}
	return b, nil
}

// EncodeClear builds the outbound "clear" control event that flushes the
// carrier's buffered playback.
func EncodeClear(streamSID string) ([]byte, error) {
	b, err := json.Marshal(outboundClear{Event: "clear", StreamSID: streamSID})
	if err != nil {
		return nil, fmt.Errorf("encode clear frame: %w", err)
	}
	return b, nil
}
