package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemblerFiresOnDoneExactlyOncePerPhrase(t *testing.T) {
	var calls int
	var lastChunks []*AudioChunk
	a := NewAssembler(func(phraseID string, chunks []*AudioChunk) {
		calls++
		lastChunks = chunks
	})

	c0 := &AudioChunk{PhraseID: "p1", ChunkIndex: 0}
	c1 := &AudioChunk{PhraseID: "p1", ChunkIndex: 1}
	a.AddChunk(c0)
	a.AddChunk(c1)

	a.NotifyTranscribed("p1") // neither chunk transcribed yet
	assert.Equal(t, 0, calls)

	c0.IsTranscribed = true
	a.NotifyTranscribed("p1") // c1 still not transcribed
	assert.Equal(t, 0, calls)

	c1.IsTranscribed = true
	a.NotifyTranscribed("p1")
	require.Equal(t, 1, calls)
	assert.Len(t, lastChunks, 2)

	// A duplicate notification after completion must not re-fire.
	a.NotifyTranscribed("p1")
	assert.Equal(t, 1, calls)
}

func TestAssemblerIgnoresUnknownPhrase(t *testing.T) {
	a := NewAssembler(func(string, []*AudioChunk) { t.Fatal("should not be called") })
	a.NotifyTranscribed("never-seen")
}
