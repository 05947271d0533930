package main

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/edwardb/callbridge/internal/env"
)

// tuning holds behavior knobs loaded from callbridge.json. These are values
// that may eventually move to a database; for now a JSON file keeps them
// out of env vars, mirroring the split in original_source/app/config.py
// between checked-in tuning and deployment secrets.
type tuning struct {
	SystemPrompt string `json:"llm_system_prompt"`
	MaxTurns     int    `json:"max_turns"`

	LLMTemperature float64 `json:"llm_temperature"`
	LLMMaxTokens   int     `json:"llm_max_tokens"`

	ASRPoolSize int `json:"asr_pool_size"`
	LLMPoolSize int `json:"llm_pool_size"`
	TTSPoolSize int `json:"tts_pool_size"`

	MinSpeechRMS           float64 `json:"min_speech_rms_threshold"`
	ChunkSilenceSec        float64 `json:"chunk_silence_duration_seconds"`
	DoneSpeakingSilenceSec float64 `json:"done_speaking_silence_duration_seconds"`
	MinChunkSec            float64 `json:"min_chunk_duration_seconds"`
	MaxChunkSec            float64 `json:"max_chunk_duration_seconds"`
	LeadInSec              float64 `json:"lead_in_duration_seconds"`
	BargeInMultiplier      float64 `json:"barge_in_multiplier"`
	BargeInConsecFrames    int     `json:"barge_in_consec_frames"`

	PlaybackClearMarginMS int  `json:"playback_clear_margin_ms"`
	PlaybackClearAfterEnd bool `json:"playback_clear_after_end"`
	PlaybackClearAtStart  bool `json:"playback_clear_at_start"`

	ReminderSec     float64 `json:"reminder_seconds"`
	MaxSilenceSec   float64 `json:"max_silence_seconds"`

	StreamingTTS          bool `json:"eleven_streaming"`
	StoreAllResponseAudio bool `json:"store_all_response_audio"`
}

// defaultTuning returns sensible defaults matching the spec's stated
// constants.
func defaultTuning() tuning {
	return tuning{
		SystemPrompt: "You are a helpful call center agent. Keep responses concise and conversational.",
		MaxTurns:     2,

		LLMTemperature: 0.7,
		LLMMaxTokens:   200,

		ASRPoolSize: 8,
		LLMPoolSize: 8,
		TTSPoolSize: 8,

		MinSpeechRMS:           750,
		ChunkSilenceSec:        0.55,
		DoneSpeakingSilenceSec: 1.2,
		MinChunkSec:            0.9,
		MaxChunkSec:            10.0,
		LeadInSec:              0.35,
		BargeInMultiplier:      1.25,
		BargeInConsecFrames:    2,

		PlaybackClearMarginMS: 250,
		PlaybackClearAfterEnd: true,
		PlaybackClearAtStart:  false,

		ReminderSec:   10,
		MaxSilenceSec: 30,

		StreamingTTS:          false,
		StoreAllResponseAudio: false,
	}
}

// loadTuning reads path if present, otherwise starts from defaults. Either
// way, every call-behavior knob spec.md §6 lists as an environment variable
// is then applied on top, so an env var always wins over the JSON file.
func loadTuning(path string) tuning {
	t := defaultTuning()
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Info("no config file, using defaults", "path", path)
	} else if err := json.Unmarshal(data, &t); err != nil {
		slog.Warn("bad config file, using defaults", "path", path, "error", err)
		t = defaultTuning()
	} else {
		slog.Info("loaded config", "path", path)
	}
	return applyTuningEnvOverrides(t)
}

// applyTuningEnvOverrides layers spec.md §6's environment variables over a
// tuning value. Each env.* call returns its fallback untouched when the
// variable is unset, so this only ever raises, never lowers, precedence.
func applyTuningEnvOverrides(t tuning) tuning {
	t.MaxTurns = env.Int("MAX_TURNS", t.MaxTurns)
	t.MinSpeechRMS = env.Float("MIN_SPEECH_RMS_THRESHOLD", t.MinSpeechRMS)
	t.ChunkSilenceSec = env.Float("CHUNK_SILENCE_DURATION_SECONDS", t.ChunkSilenceSec)
	t.DoneSpeakingSilenceSec = env.Float("DONE_SPEAKING_SILENCE_DURATION_SECONDS", t.DoneSpeakingSilenceSec)
	t.MinChunkSec = env.Float("MINCHUNK_DURATION_SECONDS", t.MinChunkSec)
	t.MaxChunkSec = env.Float("MAXCHUNK_DURATION_SECONDS", t.MaxChunkSec)
	t.LeadInSec = env.Float("LEAD_IN_DURATION_SECONDS", t.LeadInSec)
	t.BargeInMultiplier = env.Float("BARGE_IN_MULTIPLIER", t.BargeInMultiplier)
	t.BargeInConsecFrames = env.Int("BARGE_IN_CONSEC_FRAMES", t.BargeInConsecFrames)

	clearMarginSec := float64(t.PlaybackClearMarginMS) / 1000
	clearMarginSec = env.Float("PLAYBACK_CLEAR_MARGIN", clearMarginSec)
	t.PlaybackClearMarginMS = int(clearMarginSec * 1000)
	t.PlaybackClearAfterEnd = env.Bool("PLAYBACK_CLEAR_AFTER_END", t.PlaybackClearAfterEnd)

	t.StreamingTTS = env.Bool("ELEVEN_STREAMING", t.StreamingTTS)
	t.ReminderSec = env.Float("REMINDER", t.ReminderSec)
	t.MaxSilenceSec = env.Float("MAX_SILENCE_SECONDS", t.MaxSilenceSec)
	t.StoreAllResponseAudio = env.Bool("STORE_ALL_RESPONSE_AUDIO", t.StoreAllResponseAudio)

	return t
}
