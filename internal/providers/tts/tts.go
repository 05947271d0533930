// Package tts provides the Player's speech synthesis strategy (C6
// dependency): a file-backed vendor returning MP3 bytes and a
// stream-backed vendor pushing raw μ-law bytes incrementally, per spec §6
// ("TTS: text -> either MP3 file bytes (44.1kHz 128kbps) or live μ-law 8kHz
// byte stream").
package tts

import "context"

// FileSynthesizer returns a complete MP3-encoded utterance.
type FileSynthesizer interface {
	SynthesizeFile(ctx context.Context, text string) ([]byte, error)
}

// StreamSynthesizer pushes raw μ-law bytes into onChunk as they become
// available, returning once the utterance is fully streamed (or the
// context is canceled by a barge-in).
type StreamSynthesizer interface {
	SynthesizeStream(ctx context.Context, text string, onChunk func([]byte)) error
}
