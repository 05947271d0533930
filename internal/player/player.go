// Package player implements C6: the single-consumer egress worker that
// paces outbound frames against a monotonic clock and honors barge-in via
// a generational cancellation scheme.
package player

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edwardb/callbridge/internal/audio"
	"github.com/edwardb/callbridge/internal/clock"
	"github.com/edwardb/callbridge/internal/metrics"
	"github.com/edwardb/callbridge/internal/providers/tts"
	"github.com/edwardb/callbridge/internal/transcript"
)

// Kind distinguishes a pre-rendered MP3 job from an incrementally streamed
// TTS job.
type Kind string

const (
	KindFile   Kind = "file"
	KindStream Kind = "stream"
)

const (
	streamQueueCapacity = 512
	// playbackClearMargin is the settle delay before a normal-completion
	// clear, giving the carrier's jitter buffer time to drain.
	playbackClearMargin = 250 * time.Millisecond
)

// Job is an immutable unit of playback. It is valid only while its
// Generation equals the Player's current generation counter at the moment
// it is dequeued.
type Job struct {
	Kind           Kind
	Generation     uint64
	TranscriptText string
	MP3            []byte   // KindFile: pre-rendered audio; nil means synthesize Text first
	Text           string   // KindFile: synth input when MP3 is nil; KindStream: streaming synth input
	Frames         [][]byte // KindFile: pre-decoded frames; set by a caller that already ran audio.FramesFromMP3 and needs the resulting duration (e.g. the silence watchdog's goodbye wait)
}

// Duration returns how long job will take to play, for callers that
// pre-decoded Frames. Zero for jobs that synthesize or decode lazily.
func (j *Job) Duration() time.Duration {
	return time.Duration(len(j.Frames)) * audio.FrameDurationMS * time.Millisecond
}

// FrameSender is the outbound half of the carrier connection the Player
// paces frames onto.
type FrameSender interface {
	SendMedia(payload string) error
	SendClear() error
}

// BargeInArmer gates the VAD segmenter's barge-in detection to the window
// during which the Player is actually streaming a reply.
type BargeInArmer interface {
	ArmBargeIn()
	ClearBargeIn()
}

// Config carries the tunables §6 exposes for playback pacing/clearing.
type Config struct {
	ClearAfterEnd bool
	ClearMargin   time.Duration
}

// DefaultConfig returns the spec's default playback-clear behavior.
func DefaultConfig() Config {
	return Config{ClearAfterEnd: true, ClearMargin: playbackClearMargin}
}

// Player pulls PlayerJobs from an in-process FIFO and streams their audio
// to the carrier one frame at a time, 20ms apart.
type Player struct {
	cfg    Config
	sender FrameSender
	seg    BargeInArmer
	clk    *clock.Clock
	tlog   *transcript.Log
	file   tts.FileSynthesizer
	stream tts.StreamSynthesizer
	log    *slog.Logger

	queue chan *Job

	generation atomic.Uint64
	bargeIn    atomic.Bool
	playing    atomic.Bool

	mu sync.Mutex
}

// New creates a Player. file and stream may be nil if a call never uses
// that job kind.
func New(cfg Config, sender FrameSender, seg BargeInArmer, clk *clock.Clock, tlog *transcript.Log, file tts.FileSynthesizer, stream tts.StreamSynthesizer, log *slog.Logger) *Player {
	return &Player{
		cfg:    cfg,
		sender: sender,
		seg:    seg,
		clk:    clk,
		tlog:   tlog,
		file:   file,
		stream: stream,
		log:    log,
		queue:  make(chan *Job, 64),
	}
}

// Enqueue submits a job stamped with the Player's current generation and
// returns that generation, so callers can tell later whether their job is
// still live.
func (p *Player) Enqueue(job *Job) uint64 {
	gen := p.generation.Load()
	job.Generation = gen
	select {
	case p.queue <- job:
	default:
		// FIFO is small and only ever holds a couple of pending turns; if a
		// caller floods it, the oldest enqueue loses to the newest rather
		// than blocking the dialog manager.
		select {
		case <-p.queue:
		default:
		}
		p.queue <- job
	}
	return gen
}

// TriggerBargeIn is called by the VAD/session layer when the caller
// interrupts an active playback. It has no effect when nothing is playing.
func (p *Player) TriggerBargeIn() {
	if !p.playing.Load() {
		return
	}
	p.bargeIn.Store(true)
}

// IsPlaying reports whether a job is actively streaming.
func (p *Player) IsPlaying() bool {
	return p.playing.Load()
}

// Run is the single-consumer loop; it returns when ctx is canceled.
func (p *Player) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-p.queue:
			p.play(ctx, job)
		}
	}
}

func (p *Player) play(ctx context.Context, job *Job) {
	if job.Generation != p.generation.Load() {
		return
	}

	p.bargeIn.Store(false)
	p.playing.Store(true)
	p.clk.StartAssistantPlaying()
	p.seg.ArmBargeIn()
	defer func() {
		p.seg.ClearBargeIn()
		p.playing.Store(false)
		p.clk.StopAssistantPlaying()
	}()

	frames, err := p.resolveFrames(ctx, job)
	if err != nil {
		p.log.Warn("player: resolve frames failed", "err", err, "kind", job.Kind)
		metrics.Errors.WithLabelValues("player", "resolve").Inc()
		return
	}

	completed, sent := p.stream20ms(ctx, job, frames)
	if completed {
		p.onNormalCompletion(job, sent)
	} else {
		p.onBargeInStop(job, sent)
	}
}

func (p *Player) resolveFrames(ctx context.Context, job *Job) (<-chan []byte, error) {
	switch job.Kind {
	case KindFile:
		raw := job.Frames
		if raw == nil {
			mp3 := job.MP3
			if mp3 == nil {
				if p.file == nil {
					return nil, fmt.Errorf("player: no file synthesizer configured")
				}
				var err error
				mp3, err = p.file.SynthesizeFile(ctx, job.Text)
				if err != nil {
					return nil, err
				}
			}
			var err error
			raw, err = audio.FramesFromMP3(mp3)
			if err != nil {
				return nil, err
			}
		}
		ch := make(chan []byte, len(raw))
		for _, f := range raw {
			ch <- f
		}
		close(ch)
		return ch, nil
	case KindStream:
		if p.stream == nil {
			return nil, fmt.Errorf("player: no stream synthesizer configured")
		}
		return p.streamFrames(ctx, job.Text), nil
	default:
		return nil, fmt.Errorf("player: unknown job kind %q", job.Kind)
	}
}

// streamFrames bridges the TTS vendor's arbitrarily-sized audio pushes into
// exact 160-byte frames, applying drop-newest backpressure ahead of the
// assembler so a slow carrier never blocks the vendor's producer goroutine.
func (p *Player) streamFrames(ctx context.Context, text string) <-chan []byte {
	raw := make(chan []byte, streamQueueCapacity)
	out := make(chan []byte, 64)

	go func() {
		defer close(raw)
		err := p.stream.SynthesizeStream(ctx, text, func(chunk []byte) {
			select {
			case raw <- chunk:
			default:
				metrics.TTSQueueDrops.Inc()
			}
		})
		if err != nil && ctx.Err() == nil {
			p.log.Warn("player: tts stream failed", "err", err)
		}
	}()

	go func() {
		defer close(out)
		var pending []byte
		for chunk := range raw {
			pending = append(pending, chunk...)
			for len(pending) >= audio.FrameBytes {
				out <- pending[:audio.FrameBytes:audio.FrameBytes]
				pending = pending[audio.FrameBytes:]
			}
		}
		if len(pending) > 0 {
			out <- audio.PadToFrame(pending)
		}
	}()

	return out
}

// stream20ms sends frames from frames at a strict 20ms cadence, checking
// stop conditions before each send. It returns whether playback ran to
// completion and how many frames it actually sent.
func (p *Player) stream20ms(ctx context.Context, job *Job, frames <-chan []byte) (completed bool, sent int) {
	base := time.Now()
	i := 0
	for {
		var frame []byte
		var ok bool
		select {
		case <-ctx.Done():
			return false, sent
		case frame, ok = <-frames:
			if !ok {
				return true, sent
			}
		}

		if job.Generation != p.generation.Load() || p.bargeIn.Load() {
			return false, sent
		}

		i++
		payload := audio.EncodeFramePayload(frame)
		if err := p.sender.SendMedia(payload); err != nil {
			p.log.Warn("player: send media failed", "err", err)
			return false, sent
		}
		sent++

		target := base.Add(time.Duration(i) * audio.FrameDurationMS * time.Millisecond)
		if d := time.Until(target); d > 0 {
			select {
			case <-ctx.Done():
				return false, sent
			case <-time.After(d):
			}
		}
	}
}

func (p *Player) onNormalCompletion(job *Job, sent int) {
	if p.cfg.ClearAfterEnd {
		time.Sleep(p.cfg.ClearMargin)
		if err := p.sender.SendClear(); err != nil {
			p.log.Warn("player: send clear failed", "err", err)
		}
	}
	if sent > 0 && job.TranscriptText != "" {
		p.tlog.Append(transcript.Assistant, job.TranscriptText)
	}
}

func (p *Player) onBargeInStop(job *Job, sent int) {
	p.mu.Lock()
	p.generation.Add(1)
	p.drainQueue()
	p.mu.Unlock()

	if err := p.sender.SendClear(); err != nil {
		p.log.Warn("player: barge-in clear failed", "err", err)
	}
	metrics.BargeIns.Inc()

	if sent > 0 && job.TranscriptText != "" {
		p.tlog.Append(transcript.Assistant, job.TranscriptText+" [interrupted]")
	}
}

func (p *Player) drainQueue() {
	for {
		select {
		case <-p.queue:
		default:
			return
		}
	}
}
