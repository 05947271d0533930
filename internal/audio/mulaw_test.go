package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulawRoundTrip(t *testing.T) {
	samples := []int16{0, 100, -100, 32000, -32000, 1, -1}
	encoded := PCM16ToMulaw(samples)
	require.Len(t, encoded, len(samples))

	decoded := MulawToPCM16(encoded)
	require.Len(t, decoded, len(samples))

	for i, want := range samples {
		got := decoded[i]
		diff := int(want) - int(got)
		if diff < 0 {
			diff = -diff
		}
		assert.Lessf(t, diff, 1100, "sample %d: want %d got %d (lossy codec, bounded error)", i, want, got)
	}
}

func TestSilenceFrameIsAllSilenceBytes(t *testing.T) {
	f := SilenceFrame()
	require.Len(t, f, FrameBytes)
	for _, b := range f {
		assert.Equal(t, byte(MulawSilence), b)
	}
}

func TestPadToFrame(t *testing.T) {
	data := make([]byte, FrameBytes+10)
	padded := PadToFrame(data)
	assert.Equal(t, 2*FrameBytes, len(padded))
	for _, b := range padded[FrameBytes+10:] {
		assert.Equal(t, byte(MulawSilence), b)
	}

	exact := make([]byte, FrameBytes)
	assert.Equal(t, exact, PadToFrame(exact))
}

func TestSplitFrames(t *testing.T) {
	data := make([]byte, FrameBytes*3)
	frames := SplitFrames(data)
	assert.Len(t, frames, 3)
	for _, f := range frames {
		assert.Len(t, f, FrameBytes)
	}
}

func TestRMSOfSilenceIsZero(t *testing.T) {
	samples := make([]int16, 160)
	assert.Equal(t, 0.0, RMS(samples))
}

func TestRMSOfConstantSignal(t *testing.T) {
	samples := make([]int16, 160)
	for i := range samples {
		samples[i] = 1000
	}
	assert.InDelta(t, 1000.0, RMS(samples), 0.01)
}
