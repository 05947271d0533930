package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveSilenceGrowsWithWallClock(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cur := start
	c := &Clock{lastSpeech: start, now: func() time.Time { return cur }}

	cur = start.Add(5 * time.Second)
	assert.Equal(t, 5*time.Second, c.EffectiveSilence())
}

func TestEffectiveSilenceExcludesPlaybackTime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cur := start
	c := &Clock{lastSpeech: start, now: func() time.Time { return cur }}

	cur = start.Add(2 * time.Second)
	c.StartAssistantPlaying()

	cur = start.Add(5 * time.Second)
	c.StopAssistantPlaying()

	cur = start.Add(10 * time.Second)
	// 10s elapsed, 3s of that was assistant playback -> 7s effective silence.
	assert.Equal(t, 7*time.Second, c.EffectiveSilence())
}

func TestEffectiveSilenceCountsOngoingPlaybackUpToNow(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cur := start
	c := &Clock{lastSpeech: start, now: func() time.Time { return cur }}

	cur = start.Add(1 * time.Second)
	c.StartAssistantPlaying()

	cur = start.Add(4 * time.Second)
	// 4s elapsed, the last 3s of it still-ongoing playback -> 1s effective silence.
	assert.Equal(t, 1*time.Second, c.EffectiveSilence())
}

func TestMarkSpeechResetsOriginAndPauseAccumulator(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cur := start
	c := &Clock{lastSpeech: start, now: func() time.Time { return cur }}

	cur = start.Add(1 * time.Second)
	c.StartAssistantPlaying()
	cur = start.Add(3 * time.Second)
	c.StopAssistantPlaying()

	cur = start.Add(4 * time.Second)
	c.MarkSpeech()

	cur = start.Add(6 * time.Second)
	assert.Equal(t, 2*time.Second, c.EffectiveSilence())
}

func TestEffectiveSilenceNeverNegative(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &Clock{lastSpeech: start, now: func() time.Time { return start }}
	assert.Equal(t, time.Duration(0), c.EffectiveSilence())
}
