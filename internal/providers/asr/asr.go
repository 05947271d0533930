// Package asr provides the ASR Worker (C3): a strategy interface with a
// cloud_api backend and a local_model backend, dispatched per spec §9's
// "interface with three methods, two implementations each" guidance.
package asr

import "context"

// Timing records the per-chunk breakdown spec §4.3 requires for
// diagnostics.
type Timing struct {
	BuildMS float64
	InferMS float64
	TotalMS float64
}

// Result is the outcome of transcribing one chunk.
type Result struct {
	Text   string
	Timing Timing
}

// Transcriber converts linear PCM16 @ 8kHz audio into text. Implementations
// must never return an error that the caller cannot recover from: per spec
// §4.3, "absence of text must never stall a phrase" — callers treat any
// error as an empty transcription and still mark the chunk transcribed.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []int16) (Result, error)
}
