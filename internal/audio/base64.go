package audio

import "encoding/base64"

// EncodeFramePayload base64-encodes one outbound μ-law frame for the
// carrier's media.payload field. Plain stdlib base64 — there is no
// ecosystem wrapper in the example pack worth pulling in for a one-line
// standard-library call.
func EncodeFramePayload(frame []byte) string {
	return base64.StdEncoding.EncodeToString(frame)
}

// DecodeFramePayload reverses EncodeFramePayload for inbound media frames.
func DecodeFramePayload(payload string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(payload)
}
