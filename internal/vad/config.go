// Package vad implements C2: voice-activity detection and the two-tier
// chunk/phrase segmenter, plus barge-in detection during playback.
package vad

import "time"

// Config holds the tunable thresholds from spec §4.2, all overridable via
// environment variables (see cmd/callbridge/config.go).
type Config struct {
	MinRMS               float64
	BargeInMult          float64
	BargeInConsecFrames  int
	ChunkSilenceSec      float64
	DoneSpeakingSilenceSec float64
	MinChunkSec          float64
	MaxChunkSec          float64
	LeadInSec            float64
}

// DefaultConfig returns the spec's default thresholds.
func DefaultConfig() Config {
	return Config{
		MinRMS:                 750,
		BargeInMult:            1.25,
		BargeInConsecFrames:    2,
		ChunkSilenceSec:        0.55,
		DoneSpeakingSilenceSec: 1.2,
		MinChunkSec:            0.9,
		MaxChunkSec:            10.0,
		LeadInSec:              0.35,
	}
}

func (c Config) frameDuration() time.Duration {
	return 20 * time.Millisecond
}

func (c Config) framesFor(sec float64) int {
	return int(sec / c.frameDuration().Seconds())
}
