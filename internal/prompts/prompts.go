// Package prompts implements C10: the three static voice prompts (greeting,
// reminder, goodbye) pre-synthesized to disk at process start so the
// Session Controller and silence watchdog never wait on a TTS round trip to
// speak them.
package prompts

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/edwardb/callbridge/internal/providers/tts"
)

// DefaultSystem seeds the Dialog Manager's system message when no
// per-deployment prompt is configured.
const DefaultSystem = "You are a helpful call center agent. Keep responses concise and conversational."

// ForSession resolves the final system prompt for a call session.
func ForSession(systemPrompt string) string {
	if systemPrompt != "" {
		return systemPrompt
	}
	return DefaultSystem
}

const (
	Greeting = "greeting"
	Reminder = "reminder"
	Goodbye  = "goodbye"
)

// Text is the canonical transcript line spoken for each static prompt kind
// (spec §4.7: "transcript_text = canonical greeting/reminder/goodbye
// string").
var Text = map[string]string{
	Greeting: "Hi, thanks for calling. How can I help you today?",
	Reminder: "Are you still there? I'm happy to help whenever you're ready.",
	Goodbye:  "I haven't heard from you in a while, so I'll let you go now. Have a great day.",
}

// Cache resolves a static prompt kind to its on-disk MP3 bytes, synthesizing
// and caching it on first use.
type Cache struct {
	mu     sync.Mutex
	dir    string
	synth  tts.FileSynthesizer
	log    *slog.Logger
	loaded map[string][]byte
}

// NewCache creates a prompt cache rooted at dir.
func NewCache(dir string, synth tts.FileSynthesizer, log *slog.Logger) *Cache {
	return &Cache{dir: dir, synth: synth, log: log, loaded: make(map[string][]byte)}
}

// Warm synthesizes (or verifies the existing file for) every static prompt.
// A failure for one prompt is logged and does not block the others or fail
// startup — the Session Controller simply skips a prompt it cannot find.
func (c *Cache) Warm(ctx context.Context) {
	for _, kind := range []string{Greeting, Reminder, Goodbye} {
		if _, err := c.Get(ctx, kind); err != nil {
			c.log.Warn("prompts: failed to warm static prompt", "kind", kind, "err", err)
		}
	}
}

// Get returns the cached MP3 bytes for kind, loading from disk or
// synthesizing via the TTS vendor if not already cached in memory.
func (c *Cache) Get(ctx context.Context, kind string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if mp3, ok := c.loaded[kind]; ok {
		return mp3, nil
	}

	path := c.path(kind)
	if data, err := os.ReadFile(path); err == nil {
		c.loaded[kind] = data
		return data, nil
	}

	text, ok := Text[kind]
	if !ok {
		return nil, os.ErrNotExist
	}
	if c.synth == nil {
		return nil, os.ErrNotExist
	}
	mp3, err := c.synth.SynthesizeFile(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err == nil {
		_ = os.WriteFile(path, mp3, 0o644)
	}
	c.loaded[kind] = mp3
	return mp3, nil
}

func (c *Cache) path(kind string) string {
	return filepath.Join(c.dir, kind+".mp3")
}
