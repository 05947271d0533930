package dialog

import (
	"context"
	"log/slog"

	"github.com/edwardb/callbridge/internal/metrics"
	"github.com/edwardb/callbridge/internal/player"
	"github.com/edwardb/callbridge/internal/transcript"
)

// llmFailurePlaceholder is never spoken to the caller: per the resolved
// open question on LLM failure handling, a failed turn is logged and
// skipped rather than enqueued, so this never reaches the Player. It exists
// only so a future strategy that does want a turn boundary has one to use.
const llmFailurePlaceholder = "I'm having trouble responding right now."

// Completer is the Dialog Manager's LLM dependency. Any llm.Client
// (including the retrying decorator) satisfies this without dialog needing
// to import the llm package.
type Completer interface {
	Complete(ctx context.Context, history []Message, temperature float64, maxTokens int) (string, error)
}

// Enqueuer is the Dialog Manager's Player dependency.
type Enqueuer interface {
	Enqueue(job *player.Job) uint64
}

// Config carries the Dialog Manager's LLM call tunables.
type Config struct {
	Temperature float64
	MaxTokens   int
	// StreamTTS selects KindStream PlayerJobs over KindFile when true.
	StreamTTS bool
}

// Manager implements C5: it owns the rolling ConversationHistory, drives
// the LLM round trip for each completed phrase, and enqueues the reply for
// playback.
type Manager struct {
	history  *History
	llm      Completer
	tlog     *transcript.Log
	enqueuer Enqueuer
	cfg      Config
	log      *slog.Logger
}

// NewManager creates a Dialog Manager seeded with systemPrompt.
func NewManager(systemPrompt string, maxTurns int, llmClient Completer, tlog *transcript.Log, enqueuer Enqueuer, cfg Config, log *slog.Logger) *Manager {
	return &Manager{
		history:  NewHistory(systemPrompt, maxTurns),
		llm:      llmClient,
		tlog:     tlog,
		enqueuer: enqueuer,
		cfg:      cfg,
		log:      log,
	}
}

// OnPhraseComplete is the Assembler's CompletionHandler: it runs the full
// user-turn round trip for one completed phrase.
func (m *Manager) OnPhraseComplete(ctx context.Context, phraseID string, chunks []*AudioChunk) {
	text := PhraseText(chunks)
	if text == "" {
		return
	}

	m.history.Append(RoleUser, text)
	m.tlog.Append(transcript.Caller, text)

	reply, err := m.llm.Complete(ctx, m.history.Snapshot(), m.cfg.Temperature, m.cfg.MaxTokens)
	if err != nil {
		m.log.Warn("dialog: llm completion failed, skipping turn", "phrase_id", phraseID, "err", err)
		metrics.Errors.WithLabelValues("llm", "completion").Inc()
		return
	}

	reply = Normalize(reply)
	if reply == "" {
		return
	}
	m.history.Append(RoleAssistant, reply)

	kind := player.KindFile
	if m.cfg.StreamTTS {
		kind = player.KindStream
	}
	m.enqueuer.Enqueue(&player.Job{Kind: kind, Text: reply, TranscriptText: reply})
}
