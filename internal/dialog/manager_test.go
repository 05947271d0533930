package dialog

import (
	"context"
	"errors"
	"log/slog"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edwardb/callbridge/internal/player"
	"github.com/edwardb/callbridge/internal/transcript"
)

type stubCompleter struct {
	reply string
	err   error
	calls int
}

func (s *stubCompleter) Complete(ctx context.Context, history []Message, temperature float64, maxTokens int) (string, error) {
	s.calls++
	return s.reply, s.err
}

type stubEnqueuer struct {
	jobs []*player.Job
}

func (s *stubEnqueuer) Enqueue(job *player.Job) uint64 {
	s.jobs = append(s.jobs, job)
	return 0
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func chunksFor(phraseID, text string) []*AudioChunk {
	return []*AudioChunk{{PhraseID: phraseID, ChunkIndex: 0, Transcription: text, IsTranscribed: true}}
}

func TestOnPhraseCompleteEnqueuesNormalizedReply(t *testing.T) {
	completer := &stubCompleter{reply: "- Sure **thing**, e.g. right away."}
	enqueuer := &stubEnqueuer{}
	mgr := NewManager("system prompt", 2, completer, transcript.New(), enqueuer, Config{Temperature: 0.5, MaxTokens: 100}, discardLogger())

	mgr.OnPhraseComplete(context.Background(), "p1", chunksFor("p1", "hello there"))

	require.Len(t, enqueuer.jobs, 1)
	assert.NotContains(t, enqueuer.jobs[0].Text, "*")
	assert.Contains(t, enqueuer.jobs[0].Text, "for example")
}

func TestOnPhraseCompleteSkipsEmptyPhraseText(t *testing.T) {
	completer := &stubCompleter{reply: "should never be called"}
	enqueuer := &stubEnqueuer{}
	mgr := NewManager("system", 2, completer, transcript.New(), enqueuer, Config{}, discardLogger())

	chunks := []*AudioChunk{{PhraseID: "p1", ChunkIndex: 0, Transcription: "  ", IsTranscribed: true}}
	mgr.OnPhraseComplete(context.Background(), "p1", chunks)

	assert.Equal(t, 0, completer.calls)
	assert.Empty(t, enqueuer.jobs)
}

func TestOnPhraseCompleteSkipsTurnOnLLMFailure(t *testing.T) {
	completer := &stubCompleter{err: errors.New("upstream 500")}
	enqueuer := &stubEnqueuer{}
	tlog := transcript.New()
	mgr := NewManager("system", 2, completer, tlog, enqueuer, Config{}, discardLogger())

	mgr.OnPhraseComplete(context.Background(), "p1", chunksFor("p1", "are you there"))

	assert.Empty(t, enqueuer.jobs, "a failed completion must never enqueue a reply")
	assert.Equal(t, 1, tlog.Len(), "the caller's line must survive even when the LLM call fails")
}

func TestOnPhraseCompleteWritesCallerTranscriptLineBeforeLLMCall(t *testing.T) {
	completer := &stubCompleter{err: errors.New("boom")}
	enqueuer := &stubEnqueuer{}
	tlog := transcript.New()
	mgr := NewManager("system", 2, completer, tlog, enqueuer, Config{}, discardLogger())

	mgr.OnPhraseComplete(context.Background(), "p1", chunksFor("p1", "hello"))
	assert.Equal(t, 1, completer.calls)
	assert.Equal(t, 1, tlog.Len())
}

func TestOnPhraseCompleteUsesStreamKindWhenConfigured(t *testing.T) {
	completer := &stubCompleter{reply: "ok then"}
	enqueuer := &stubEnqueuer{}
	mgr := NewManager("system", 2, completer, transcript.New(), enqueuer, Config{StreamTTS: true}, discardLogger())

	mgr.OnPhraseComplete(context.Background(), "p1", chunksFor("p1", "go ahead"))

	require.Len(t, enqueuer.jobs, 1)
	assert.Equal(t, player.KindStream, enqueuer.jobs[0].Kind)
}

func TestOnPhraseCompleteAppendsBothTurnsToHistory(t *testing.T) {
	completer := &stubCompleter{reply: "got it."}
	enqueuer := &stubEnqueuer{}
	mgr := NewManager("system", 2, completer, transcript.New(), enqueuer, Config{}, discardLogger())

	mgr.OnPhraseComplete(context.Background(), "p1", chunksFor("p1", "hi"))

	snap := mgr.history.Snapshot()
	require.Len(t, snap, 3) // system + user + assistant
	assert.Equal(t, RoleUser, snap[1].Role)
	assert.Equal(t, RoleAssistant, snap[2].Role)
}
