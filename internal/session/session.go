// Package session implements C7: the per-call Session Controller that owns
// the carrier WebSocket, demuxes inbound events, and runs the silence
// watchdog.
package session

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/edwardb/callbridge/internal/audio"
	"github.com/edwardb/callbridge/internal/carrier"
	"github.com/edwardb/callbridge/internal/clock"
	"github.com/edwardb/callbridge/internal/dialog"
	"github.com/edwardb/callbridge/internal/metrics"
	"github.com/edwardb/callbridge/internal/player"
	"github.com/edwardb/callbridge/internal/prompts"
	"github.com/edwardb/callbridge/internal/providers/asr"
	"github.com/edwardb/callbridge/internal/transcript"
	"github.com/edwardb/callbridge/internal/vad"
)

const watchdogInterval = 500 * time.Millisecond

// Config carries the session-level tunables spec §6 exposes as environment
// variables.
type Config struct {
	ReminderSec       float64
	MaxSilenceSec     float64
	ASRWorkers        int
	ASRQueueSize      int
	GoodbyeWaitMargin time.Duration
	// TranscriptDir, if non-empty, is where the call's transcript is
	// flushed on teardown, named after its call SID.
	TranscriptDir string
}

// DefaultConfig returns the spec's default watchdog timings.
func DefaultConfig() Config {
	return Config{
		ReminderSec:       10,
		MaxSilenceSec:     30,
		ASRWorkers:        2,
		ASRQueueSize:      32,
		GoodbyeWaitMargin: 500 * time.Millisecond,
	}
}

// Session owns every per-call component and wires them together per spec
// §4.7's event demux and §4.8's silence watchdog.
type Session struct {
	cfg    Config
	sender *carrier.Sender
	seg    *vad.Segmenter
	asm    *dialog.Assembler
	mgr    *dialog.Manager
	ply    *player.Player
	clk    *clock.Clock
	tlog   *transcript.Log
	asrT   asr.Transcriber
	prompt *prompts.Cache
	log    *slog.Logger

	asrQueue chan *dialog.AudioChunk

	callSID   string
	streamSID string

	started      atomic.Bool
	ended        atomic.Bool
	lastReminder float64
	watchdogMu   sync.Mutex
}

// New wires a full Session from its components. The ctx later passed to
// Start governs the ASR worker pool and the silence watchdog; callers cancel
// it at teardown.
func New(cfg Config, sender *carrier.Sender, seg *vad.Segmenter, asm *dialog.Assembler, mgr *dialog.Manager, ply *player.Player, clk *clock.Clock, tlog *transcript.Log, asrT asr.Transcriber, promptCache *prompts.Cache, log *slog.Logger) *Session {
	return &Session{
		cfg:      cfg,
		sender:   sender,
		seg:      seg,
		asm:      asm,
		mgr:      mgr,
		ply:      ply,
		clk:      clk,
		tlog:     tlog,
		asrT:     asrT,
		prompt:   promptCache,
		log:      log,
		asrQueue: make(chan *dialog.AudioChunk, cfg.ASRQueueSize),
	}
}

// Start launches the ASR worker pool, the Player loop, and the silence
// watchdog. It returns once ctx is canceled: the watchdog also stops when
// the call ends, but the Player loop and ASR workers run until ctx is done.
func (s *Session) Start(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.ply.Run(ctx)
	}()

	for range s.cfg.ASRWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.asrWorker(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.watchdog(ctx)
	}()

	wg.Wait()
}

// End tears the session down, e.g. when the carrier's WebSocket connection
// drops without a proper "stop" event.
func (s *Session) End() {
	s.onStop()
}

// HandleEvent demuxes one inbound carrier frame.
func (s *Session) HandleEvent(ctx context.Context, raw []byte) {
	ev := carrier.ParseInbound(raw)
	switch ev.Kind {
	case carrier.EventStart:
		s.onStart(ctx, ev)
	case carrier.EventMedia:
		s.onMedia(ctx, ev)
	case carrier.EventStop:
		s.onStop()
	}
}

func (s *Session) onStart(ctx context.Context, ev carrier.InboundEvent) {
	s.streamSID = ev.StreamSID
	s.callSID = ev.CallSID
	s.sender.SetStreamSID(ev.StreamSID)
	s.started.Store(true)
	metrics.CallsActive.Inc()
	metrics.CallsTotal.Inc()

	if err := s.sender.SendMedia(audio.EncodeFramePayload(audio.SilenceFrame())); err != nil {
		s.log.Warn("session: failed to send opening silence frame", "err", err)
	}

	s.enqueuePrompt(ctx, prompts.Greeting)
}

func (s *Session) onMedia(ctx context.Context, ev carrier.InboundEvent) {
	frame, err := audio.DecodeFramePayload(ev.MediaBase64)
	if err != nil {
		s.log.Warn("session: failed to decode media payload", "err", err)
		return
	}

	s.clk.MarkSpeech()

	res := s.seg.ProcessFrame(frame)
	if res.BargeIn {
		s.ply.TriggerBargeIn()
	}
	if res.Chunk != nil {
		metrics.ChunksEmitted.Inc()
		s.asm.AddChunk(res.Chunk)
		select {
		case s.asrQueue <- res.Chunk:
		default:
			s.log.Warn("session: asr queue full, dropping chunk", "phrase_id", res.Chunk.PhraseID)
		}
	}
}

func (s *Session) onStop() {
	if s.ended.CompareAndSwap(false, true) {
		s.sender.Close()
		s.flushTranscript()
		if s.started.Load() {
			metrics.CallsActive.Dec()
		}
	}
}

func (s *Session) flushTranscript() {
	if s.cfg.TranscriptDir == "" {
		return
	}
	callSID := s.callSID
	if callSID == "" {
		callSID = "unknown-call"
	}
	path := filepath.Join(s.cfg.TranscriptDir, callSID+".txt")
	if err := s.tlog.Flush(path); err != nil {
		s.log.Warn("session: failed to flush transcript", "path", path, "err", err)
	}
}

func (s *Session) asrWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-s.asrQueue:
			if !ok {
				return
			}
			s.transcribe(ctx, chunk)
		}
	}
}

func (s *Session) transcribe(ctx context.Context, chunk *dialog.AudioChunk) {
	result, err := s.asrT.Transcribe(ctx, chunk.AudioBytes)
	if err != nil {
		s.log.Warn("session: asr transcription failed", "phrase_id", chunk.PhraseID, "err", err)
		metrics.Errors.WithLabelValues("asr", "transcribe").Inc()
	} else {
		chunk.Transcription = result.Text
	}
	chunk.IsTranscribed = true

	s.asm.NotifyTranscribed(chunk.PhraseID)
}

// watchdog implements spec §4.7/§4.8: every 500ms, compute effective
// silence and drive the reminder/goodbye prompts.
func (s *Session) watchdog(ctx context.Context) {
	ticker := time.NewTicker(watchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.ended.Load() {
				return
			}
			silence := s.clk.EffectiveSilence().Seconds()

			s.watchdogMu.Lock()
			dueReminder := silence-s.lastReminder >= s.cfg.ReminderSec
			if dueReminder {
				s.lastReminder = silence
			}
			s.watchdogMu.Unlock()

			if dueReminder {
				metrics.SilenceWatchdogEvents.WithLabelValues("reminder").Inc()
				s.enqueuePrompt(ctx, prompts.Reminder)
			}

			if s.cfg.MaxSilenceSec > 0 && silence >= s.cfg.MaxSilenceSec {
				metrics.SilenceWatchdogEvents.WithLabelValues("goodbye").Inc()
				dur := s.enqueuePrompt(ctx, prompts.Goodbye)
				s.waitForGoodbye(dur)
				s.onStop()
				return
			}
		}
	}
}

// enqueuePrompt decodes kind's audio up front and hands the Player
// pre-decoded frames, returning the resulting playback duration so callers
// like the goodbye watchdog can size their wait without guessing.
func (s *Session) enqueuePrompt(ctx context.Context, kind string) time.Duration {
	mp3, err := s.prompt.Get(ctx, kind)
	if err != nil {
		s.log.Warn("session: static prompt unavailable, skipping", "kind", kind, "err", err)
		return 0
	}
	frames, err := audio.FramesFromMP3(mp3)
	if err != nil {
		s.log.Warn("session: failed to decode static prompt, skipping", "kind", kind, "err", err)
		return 0
	}
	job := &player.Job{Kind: player.KindFile, Frames: frames, TranscriptText: prompts.Text[kind]}
	s.ply.Enqueue(job)
	return job.Duration()
}

// waitForGoodbye blocks until the Player finishes its current job (the
// goodbye prompt, assuming nothing raced ahead of it) or dur plus the
// configured margin elapses, per spec §4.7.
func (s *Session) waitForGoodbye(dur time.Duration) {
	deadline := time.Now().Add(dur + s.cfg.GoodbyeWaitMargin)
	for !s.ply.IsPlaying() && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	for s.ply.IsPlaying() && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
}
