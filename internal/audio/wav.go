package audio

import (
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// BuildWAV encodes mono PCM16 samples as an in-memory WAV container using
// go-audio/wav, for the ASR upload path (spec §4.3: "build an in-memory WAV
// (mono, 16-bit PCM, 8 kHz)").
func BuildWAV(samples []int16, sampleRate int) ([]byte, error) {
	ws := &memWriteSeeker{}
	enc := wav.NewEncoder(ws, sampleRate, 16, 1, 1)

	ints := make([]int, len(samples))
	for i, s := range samples {
		ints[i] = int(s)
	}
	intBuf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           ints,
		SourceBitDepth: 16,
	}
	if err := enc.Write(intBuf); err != nil {
		return nil, fmt.Errorf("wav encode write: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("wav encode close: %w", err)
	}
	return ws.buf, nil
}

// memWriteSeeker is a minimal io.WriteSeeker over a growable byte slice,
// needed because go-audio/wav.Encoder seeks back to the RIFF/data chunk
// headers to patch in final sizes after streaming samples.
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	end := m.pos + len(p)
	if end > len(m.buf) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = int64(m.pos) + offset
	case io.SeekEnd:
		newPos = int64(len(m.buf)) + offset
	default:
		return 0, fmt.Errorf("memWriteSeeker: invalid whence %d", whence)
	}
	if newPos < 0 {
		return 0, fmt.Errorf("memWriteSeeker: negative seek position")
	}
	m.pos = int(newPos)
	return newPos, nil
}
