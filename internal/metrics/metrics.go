// Package metrics exposes Prometheus instrumentation for the call pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CallsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "callbridge_calls_active",
		Help: "Currently active call sessions",
	})

	CallsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callbridge_calls_total",
		Help: "Total calls handled",
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "callbridge_stage_duration_seconds",
		Help:    "Per-stage latency (asr, llm, tts)",
		Buckets: []float64{0.05, 0.1, 0.2, 0.3, 0.5, 0.8, 1.0, 2.0, 5.0},
	}, []string{"stage"})

	Errors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callbridge_errors_total",
		Help: "Error counts by stage and error class",
	}, []string{"stage", "error_type"})

	ChunksEmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callbridge_vad_chunks_emitted_total",
		Help: "Audio chunks emitted by the VAD/phrase segmenter",
	})

	PhrasesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callbridge_phrases_completed_total",
		Help: "Phrases that reached is_done and were handed to the Dialog Manager",
	})

	BargeIns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callbridge_barge_ins_total",
		Help: "Barge-in events that interrupted an active playback",
	})

	FramePacingJitterMS = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "callbridge_frame_pacing_jitter_ms",
		Help:    "Absolute deviation of outbound frame send time from its scheduled slot",
		Buckets: []float64{1, 2, 5, 10, 15, 20, 30, 50},
	})

	LLMRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callbridge_llm_retries_total",
		Help: "LLM retry attempts after a 5xx response",
	})

	TTSQueueDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "callbridge_tts_queue_drops_total",
		Help: "Audio chunks dropped from the bounded TTS stream queue under backpressure (drop-newest)",
	})

	SilenceWatchdogEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "callbridge_silence_watchdog_events_total",
		Help: "Reminder/goodbye prompts enqueued by the silence watchdog",
	}, []string{"kind"})
)
