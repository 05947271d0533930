// Package clock implements C8: effective-silence accounting that excludes
// time the agent itself spent playing audio, driving the silence watchdog's
// reminder/goodbye timers.
package clock

import (
	"sync"
	"time"
)

// Clock tracks when the caller last spoke and how much of the time since
// then the agent spent playing audio, so "effective silence" never counts
// the agent's own voice as caller silence.
type Clock struct {
	mu sync.Mutex

	lastSpeech time.Time

	assistantPlaying      bool
	playbackPauseStart    time.Time
	playbackPauseAccum    time.Duration

	now func() time.Time
}

// New creates a Clock with lastSpeech set to now.
func New() *Clock {
	return &Clock{lastSpeech: time.Now(), now: time.Now}
}

// MarkSpeech records that the caller just spoke: resets the silence origin
// and the playback-pause accumulator. If the agent is currently playing,
// the pause-tracking window restarts from now too.
func (c *Clock) MarkSpeech() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.lastSpeech = now
	c.playbackPauseAccum = 0
	if c.assistantPlaying {
		c.playbackPauseStart = now
	}
}

// StartAssistantPlaying marks the start of an assistant-playing interval.
func (c *Clock) StartAssistantPlaying() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.assistantPlaying {
		return
	}
	c.assistantPlaying = true
	c.playbackPauseStart = c.now()
}

// StopAssistantPlaying closes out the current assistant-playing interval,
// folding its duration into the accumulator.
func (c *Clock) StopAssistantPlaying() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.assistantPlaying {
		return
	}
	c.assistantPlaying = false
	c.playbackPauseAccum += c.now().Sub(c.playbackPauseStart)
}

// pauseSinceReset returns total agent-playback time since the silence
// origin was last reset.
func (c *Clock) pauseSinceReset() time.Duration {
	pause := c.playbackPauseAccum
	if c.assistantPlaying {
		pause += c.now().Sub(c.playbackPauseStart)
	}
	return pause
}

// EffectiveSilence returns wall-clock time since the caller last spoke,
// minus time the agent itself was playing audio during that window.
func (c *Clock) EffectiveSilence() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	elapsed := c.now().Sub(c.lastSpeech)
	silence := elapsed - c.pauseSinceReset()
	if silence < 0 {
		return 0
	}
	return silence
}
