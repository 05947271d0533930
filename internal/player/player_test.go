package player

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edwardb/callbridge/internal/audio"
	"github.com/edwardb/callbridge/internal/clock"
	"github.com/edwardb/callbridge/internal/transcript"
)

type fakeSender struct {
	mu     sync.Mutex
	frames []string
	clears int
}

func (f *fakeSender) SendMedia(payload string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, payload)
	return nil
}

func (f *fakeSender) SendClear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	return nil
}

func (f *fakeSender) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

type fakeArmer struct {
	armed int
	cleared int
}

func (a *fakeArmer) ArmBargeIn()   { a.armed++ }
func (a *fakeArmer) ClearBargeIn() { a.cleared++ }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(nopWriter{}, nil))
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func newTestPlayer(sender FrameSender, arm BargeInArmer) *Player {
	return New(DefaultConfig(), sender, arm, clock.New(), transcript.New(), nil, nil, discardLogger())
}

func TestArmBargeInCalledAtStartOfPlaybackAndClearedAtEnd(t *testing.T) {
	sender := &fakeSender{}
	arm := &fakeArmer{}
	p := newTestPlayer(sender, arm)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go p.Run(ctx)

	// An empty MP3 buffer fails to decode, but arm/clear must still bracket
	// the attempt since they guard clk/playing state, not decode success.
	job := &Job{Kind: KindFile, MP3: []byte{}}
	p.play(ctx, job)

	assert.GreaterOrEqual(t, arm.armed, 1)
	assert.GreaterOrEqual(t, arm.cleared, 1)
	assert.Equal(t, arm.armed, arm.cleared)
	assert.Equal(t, 0, sender.frameCount(), "a decode failure must send no frames")
}

func TestStaleGenerationJobIsSkipped(t *testing.T) {
	sender := &fakeSender{}
	arm := &fakeArmer{}
	p := newTestPlayer(sender, arm)
	p.generation.Store(5)

	job := &Job{Kind: KindFile, Generation: 1, MP3: []byte{}}
	p.play(context.Background(), job)

	assert.Equal(t, 0, arm.armed, "a stale-generation job must never arm barge-in or play")
}

func TestTriggerBargeInNoOpWhenNotPlaying(t *testing.T) {
	sender := &fakeSender{}
	arm := &fakeArmer{}
	p := newTestPlayer(sender, arm)

	p.TriggerBargeIn()
	assert.False(t, p.bargeIn.Load())
}

func TestIsPlayingReflectsCurrentJob(t *testing.T) {
	sender := &fakeSender{}
	arm := &fakeArmer{}
	p := newTestPlayer(sender, arm)
	assert.False(t, p.IsPlaying())
}

func TestEnqueueStampsCurrentGeneration(t *testing.T) {
	sender := &fakeSender{}
	arm := &fakeArmer{}
	p := newTestPlayer(sender, arm)
	p.generation.Store(3)

	job := &Job{Kind: KindFile}
	gen := p.Enqueue(job)
	require.Equal(t, uint64(3), gen)
	assert.Equal(t, uint64(3), job.Generation)
}

func TestResolveFramesErrorsWithoutFileSynthesizerConfigured(t *testing.T) {
	sender := &fakeSender{}
	arm := &fakeArmer{}
	p := newTestPlayer(sender, arm)

	_, err := p.resolveFrames(context.Background(), &Job{Kind: KindFile})
	assert.Error(t, err)
}

func TestResolveFramesErrorsOnUnknownKind(t *testing.T) {
	sender := &fakeSender{}
	arm := &fakeArmer{}
	p := newTestPlayer(sender, arm)

	_, err := p.resolveFrames(context.Background(), &Job{Kind: Kind("bogus")})
	assert.Error(t, err)
}

func TestAudioFrameBytesConstantMatchesCarrierFrame(t *testing.T) {
	// sanity check that player and audio agree on frame size, since
	// streamFrames slices pending bytes against audio.FrameBytes directly.
	assert.Equal(t, 160, audio.FrameBytes)
}
