package dialog

import (
	"sync"

	"github.com/edwardb/callbridge/internal/metrics"
)

// CompletionHandler receives a phrase's chunk snapshot once every chunk has
// been transcribed. Invoked at most once per phrase_id (spec §4.4).
type CompletionHandler func(phraseID string, chunks []*AudioChunk)

// Assembler implements C4: it owns the live phrase_id -> PhraseObject map,
// appends chunks as they arrive from the VAD, and fires CompletionHandler
// exactly once per phrase once the ASR worker has transcribed every chunk.
type Assembler struct {
	mu       sync.Mutex
	phrases  map[string]*PhraseObject
	onDone   CompletionHandler
}

// NewAssembler creates an Assembler that calls onDone on phrase completion.
func NewAssembler(onDone CompletionHandler) *Assembler {
	return &Assembler{
		phrases: make(map[string]*PhraseObject),
		onDone:  onDone,
	}
}

// AddChunk registers a new chunk under its phrase, creating the
// PhraseObject if this is the first chunk seen for that phrase_id.
func (a *Assembler) AddChunk(c *AudioChunk) {
	a.mu.Lock()
	phrase, ok := a.phrases[c.PhraseID]
	if !ok {
		phrase = NewPhraseObject(c.PhraseID)
		a.phrases[c.PhraseID] = phrase
	}
	a.mu.Unlock()

	phrase.AddChunk(c)
}

// NotifyTranscribed is called by the ASR worker after it sets a chunk's
// Transcription/IsTranscribed fields. It checks for phrase completion and,
// if every chunk is now transcribed, fires the completion handler exactly
// once and drops the live entry.
func (a *Assembler) NotifyTranscribed(phraseID string) {
	a.mu.Lock()
	phrase, ok := a.phrases[phraseID]
	a.mu.Unlock()
	if !ok {
		return
	}

	if !phrase.IsComplete() {
		return
	}
	if !phrase.MarkDone() {
		return // another caller already completed this phrase
	}

	snapshot := phrase.Snapshot()

	a.mu.Lock()
	delete(a.phrases, phraseID)
	a.mu.Unlock()

	metrics.PhrasesCompleted.Inc()
	if a.onDone != nil {
		a.onDone(phraseID, snapshot)
	}
}
