package asr

import (
	"context"
	"time"

	"github.com/edwardb/callbridge/internal/audio"
)

func upsampleForInference(samples []int16) []float32 {
	return audio.UpsampleLinear2x(samples)
}

// Engine is the inference call a LocalModel wraps — an ONNX or whisper.cpp
// binding loaded once at process start. LocalModel always calls it with
// language "en" and beam width 5. Infer returns text only: no timestamps
// are returned or kept.
type Engine interface {
	Infer(samples []float32, language string, beamSize int) (text string, err error)
}

// LocalModel runs Engine.Infer on a bounded worker pool so a slow
// synchronous inference call never blocks the session's event loop (spec
// §5: "CPU-bound or synchronous SDK work... runs on a worker thread pool").
type LocalModel struct {
	engine Engine
	sem    chan struct{}
}

// NewLocalModel loads engine once and caps concurrent inferences at
// poolSize.
func NewLocalModel(engine Engine, poolSize int) *LocalModel {
	if poolSize < 1 {
		poolSize = 1
	}
	return &LocalModel{engine: engine, sem: make(chan struct{}, poolSize)}
}

func (m *LocalModel) Transcribe(ctx context.Context, samples []int16) (Result, error) {
	start := time.Now()

	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	defer func() { <-m.sem }()

	buildStart := time.Now()
	pcmFloat := upsampleForInference(samples)
	buildMS := float64(time.Since(buildStart).Milliseconds())

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		text, err := m.engine.Infer(pcmFloat, "en", 5)
		done <- outcome{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case o := <-done:
		if o.err != nil {
			return Result{}, o.err
		}
		inferMS := float64(time.Since(start).Milliseconds()) - buildMS
		return Result{
			Text: o.text,
			Timing: Timing{
				BuildMS: buildMS,
				InferMS: inferMS,
				TotalMS: float64(time.Since(start).Milliseconds()),
			},
		}, nil
	}
}
