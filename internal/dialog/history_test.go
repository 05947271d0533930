package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryTrimKeepsSystemAndLastTurns(t *testing.T) {
	h := NewHistory("you are a helpful agent", 2)
	for i := 0; i < 10; i++ {
		h.Append(RoleUser, "user message")
		h.Append(RoleAssistant, "assistant reply")
	}

	snap := h.Snapshot()
	require.Len(t, snap, 1+2*2)
	assert.Equal(t, RoleSystem, snap[0].Role)
	for _, m := range snap[1:] {
		assert.NotEqual(t, RoleSystem, m.Role)
	}
}

func TestHistoryNeverDropsSystemMessage(t *testing.T) {
	h := NewHistory("system prompt", 1)
	h.Append(RoleUser, "hi")
	snap := h.Snapshot()
	assert.Equal(t, "system prompt", snap[0].Content)
}

func TestPhraseTextOrdersByChunkIndexNotArrivalOrder(t *testing.T) {
	chunks := []*AudioChunk{
		{ChunkIndex: 1, Transcription: "world", IsTranscribed: true},
		{ChunkIndex: 0, Transcription: "hello", IsTranscribed: true},
	}
	assert.Equal(t, "hello world", PhraseText(chunks))
}

func TestPhraseTextSkipsEmptyTranscriptions(t *testing.T) {
	chunks := []*AudioChunk{
		{ChunkIndex: 0, Transcription: "", IsTranscribed: true},
		{ChunkIndex: 1, Transcription: "  ", IsTranscribed: true},
		{ChunkIndex: 2, Transcription: "hi", IsTranscribed: true},
	}
	assert.Equal(t, "hi", PhraseText(chunks))
}

func TestPhraseObjectCompletionIsIdempotent(t *testing.T) {
	p := NewPhraseObject("phrase-1")
	p.AddChunk(&AudioChunk{ChunkIndex: 0, IsTranscribed: true})
	assert.True(t, p.IsComplete())
	assert.True(t, p.MarkDone())
	assert.False(t, p.MarkDone())
}

func TestPhraseObjectIncompleteUntilAllChunksTranscribed(t *testing.T) {
	p := NewPhraseObject("phrase-1")
	p.AddChunk(&AudioChunk{ChunkIndex: 0, IsTranscribed: true})
	p.AddChunk(&AudioChunk{ChunkIndex: 1, IsTranscribed: false})
	assert.False(t, p.IsComplete())
}
