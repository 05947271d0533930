package vad

import (
	"time"

	"github.com/google/uuid"

	"github.com/edwardb/callbridge/internal/audio"
	"github.com/edwardb/callbridge/internal/dialog"
)

const frameSamples = audio.FrameBytes // 160 PCM16 samples per 20ms frame at 8kHz

// Segmenter implements C2's per-frame state machine: it turns a stream of
// 20ms μ-law frames into AudioChunk events, tracks phrase boundaries, and
// raises the barge-in signal while a reply is playing.
type Segmenter struct {
	cfg Config

	inChunk              bool
	hasSpoken            bool
	silenceFrames        int
	phraseSilenceFrames  int
	activePCM            []int16
	chunkStartTime       time.Time
	phraseID             string
	chunkIndex           int

	preRoll    []int16
	preRollCap int

	bargeInRun     int
	bargeInArmed   bool // true while a playback is active and hasn't yet been interrupted
	bargeInLatched bool // barge-in already raised for the current playback

	now func() time.Time
}

// NewSegmenter creates a Segmenter with the given thresholds.
func NewSegmenter(cfg Config) *Segmenter {
	return &Segmenter{
		cfg:        cfg,
		preRollCap: cfg.framesFor(cfg.LeadInSec) * frameSamples,
		phraseID:   uuid.NewString(),
		now:        time.Now,
	}
}

// Result carries what a single frame produced.
type Result struct {
	Chunk         *dialog.AudioChunk // non-nil if a chunk closed on this frame
	PhraseEnded   bool                // true the instant DONE_SPEAKING_SILENCE is crossed
	BargeIn       bool                // true exactly once per ongoing playback
}

// ArmBargeIn is called by the Player when it starts streaming a reply, and
// ClearBargeIn when playback ends (normally or via interruption), so the
// segmenter knows whether to watch for barge-in on this frame.
func (s *Segmenter) ArmBargeIn() {
	s.bargeInArmed = true
	s.bargeInLatched = false
	s.bargeInRun = 0
}

func (s *Segmenter) ClearBargeIn() {
	s.bargeInArmed = false
	s.bargeInLatched = false
	s.bargeInRun = 0
}

// ProcessFrame feeds one inbound μ-law frame (160 bytes) through the
// segmenter state machine.
func (s *Segmenter) ProcessFrame(mulawFrame []byte) Result {
	pcm := audio.MulawToPCM16(mulawFrame)
	rms := audio.RMS(pcm)
	now := s.now()

	var res Result
	if s.bargeInArmed && !s.bargeInLatched {
		res.BargeIn = s.checkBargeIn(rms)
		if res.BargeIn {
			s.startNewPhrase(now)
		}
	}

	s.appendPreRoll(pcm)

	speaking := rms >= s.cfg.MinRMS

	if !s.inChunk && speaking {
		if s.hasSpoken && s.phraseSilenceFrames >= s.cfg.framesFor(s.cfg.DoneSpeakingSilenceSec) {
			s.phraseID = uuid.NewString()
			s.chunkIndex = 0
		}
		s.startChunk(now)
	}

	if s.inChunk {
		s.activePCM = append(s.activePCM, pcm...)
		if speaking {
			s.silenceFrames = 0
		} else {
			s.silenceFrames++
		}

		chunkDurSec := float64(len(s.activePCM)) / float64(audio.SampleRate)
		trailingSilenceSec := float64(s.silenceFrames) * 0.020
		forceCut := chunkDurSec >= s.cfg.MaxChunkSec
		naturalCut := trailingSilenceSec >= s.cfg.ChunkSilenceSec && chunkDurSec >= s.cfg.MinChunkSec

		if naturalCut || forceCut {
			res.Chunk = s.closeChunk(now)
		}
	} else {
		if speaking {
			s.phraseSilenceFrames = 0
		} else if s.hasSpoken {
			s.phraseSilenceFrames++
			if s.phraseSilenceFrames == s.cfg.framesFor(s.cfg.DoneSpeakingSilenceSec) {
				res.PhraseEnded = true
			}
		}
	}

	return res
}

func (s *Segmenter) checkBargeIn(rms float64) bool {
	if rms >= s.cfg.MinRMS*s.cfg.BargeInMult {
		s.bargeInRun++
	} else {
		s.bargeInRun = 0
	}
	if s.bargeInRun >= s.cfg.BargeInConsecFrames {
		s.bargeInLatched = true
		return true
	}
	return false
}

func (s *Segmenter) startNewPhrase(now time.Time) {
	s.phraseID = uuid.NewString()
	s.chunkIndex = 0
	s.inChunk = false
	s.hasSpoken = false
	s.silenceFrames = 0
	s.phraseSilenceFrames = 0
	s.activePCM = nil
}

func (s *Segmenter) startChunk(now time.Time) {
	s.inChunk = true
	s.hasSpoken = true
	s.silenceFrames = 0
	s.activePCM = append([]int16{}, s.preRoll...)
	s.chunkStartTime = now
}

func (s *Segmenter) closeChunk(now time.Time) *dialog.AudioChunk {
	pcm := s.activePCM
	idx := s.chunkIndex
	s.chunkIndex++
	s.inChunk = false
	s.activePCM = nil
	s.silenceFrames = 0
	s.phraseSilenceFrames = 0

	durSec := float64(len(pcm)) / float64(audio.SampleRate)
	capture := dialog.CaptureListening
	if s.bargeInArmed {
		capture = dialog.CaptureSpeaking
	}
	chunk := &dialog.AudioChunk{
		PhraseID:     s.phraseID,
		ChunkIndex:   idx,
		AudioBytes:   pcm,
		RMS:          audio.RMS(pcm),
		TimestampSec: float64(s.chunkStartTime.UnixNano()) / 1e9,
		DurationSec:  durSec,
		CaptureState: capture,
	}
	return chunk
}

func (s *Segmenter) appendPreRoll(pcm []int16) {
	s.preRoll = append(s.preRoll, pcm...)
	if len(s.preRoll) > s.preRollCap {
		s.preRoll = s.preRoll[len(s.preRoll)-s.preRollCap:]
	}
}

// CurrentPhraseID exposes the live phrase id, mostly for tests.
func (s *Segmenter) CurrentPhraseID() string { return s.phraseID }
