package carrier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInboundStart(t *testing.T) {
	raw := []byte(`{"event":"start","start":{"streamSid":"MZ1","callSid":"CA1"}}`)
	ev := ParseInbound(raw)
	assert.Equal(t, EventStart, ev.Kind)
	assert.Equal(t, "MZ1", ev.StreamSID)
	assert.Equal(t, "CA1", ev.CallSID)
}

func TestParseInboundMedia(t *testing.T) {
	raw := []byte(`{"event":"media","streamSid":"MZ1","media":{"payload":"abcd"}}`)
	ev := ParseInbound(raw)
	assert.Equal(t, EventMedia, ev.Kind)
	assert.Equal(t, "MZ1", ev.StreamSID)
	assert.Equal(t, "abcd", ev.MediaBase64)
}

func TestParseInboundStop(t *testing.T) {
	raw := []byte(`{"event":"stop","streamSid":"MZ1"}`)
	ev := ParseInbound(raw)
	assert.Equal(t, EventStop, ev.Kind)
}

func TestParseInboundUnknownEventIgnored(t *testing.T) {
	raw := []byte(`{"event":"mystery","foo":"bar"}`)
	ev := ParseInbound(raw)
	assert.Equal(t, EventUnknown, ev.Kind)
}

func TestEncodeMediaRoundTrip(t *testing.T) {
	b, err := EncodeMedia("MZ1", "payload-bytes")
	require.NoError(t, err)

	ev := ParseInbound(b) // media frames round-trip through the same field paths
	assert.Equal(t, EventMedia, ev.Kind)
	assert.Equal(t, "MZ1", ev.StreamSID)
	assert.Equal(t, "payload-bytes", ev.MediaBase64)
}

func TestEncodeClearRoundTrip(t *testing.T) {
	b, err := EncodeClear("MZ1")
	require.NoError(t, err)

	// "clear" is outbound-only; ParseInbound never recognizes it.
	ev := ParseInbound(b)
	assert.Equal(t, EventUnknown, ev.Kind)
	assert.Contains(t, string(b), `"event":"clear"`)
	assert.Contains(t, string(b), `"streamSid":"MZ1"`)
}
