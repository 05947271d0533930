package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/edwardb/callbridge/internal/carrier"
	"github.com/edwardb/callbridge/internal/clock"
	"github.com/edwardb/callbridge/internal/dialog"
	"github.com/edwardb/callbridge/internal/player"
	"github.com/edwardb/callbridge/internal/providers/tts"
	"github.com/edwardb/callbridge/internal/session"
	"github.com/edwardb/callbridge/internal/transcript"
	"github.com/edwardb/callbridge/internal/vad"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleStream accepts the carrier's bidirectional media WebSocket and
// drives one Session for the connection's lifetime. Each accepted
// connection gets its own Session; concurrent connections are not rejected.
func handleStream(deps callDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("stream: websocket upgrade failed", "error", err)
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		defer conn.Close()

		sess := buildSession(ctx, deps, conn)

		go sess.Start(ctx)

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				slog.Info("stream: websocket closed", "error", err)
				sess.End()
				return
			}
			sess.HandleEvent(ctx, raw)
		}
	}
}

func buildSession(ctx context.Context, deps callDeps, conn *websocket.Conn) *session.Session {
	t := deps.tuning
	log := slog.Default()

	sender := carrier.NewSender(conn)
	clk := clock.New()
	tlog := transcript.New()

	asrBackend, err := deps.asrRouter.Route("")
	if err != nil {
		log.Warn("stream: no asr backend configured", "error", err)
	}

	llmBackend, err := deps.llmRouter.Route("")
	if err != nil {
		log.Warn("stream: no llm backend configured", "error", err)
	}

	seg := vad.NewSegmenter(newSegmenterConfig(t))

	ply := player.New(newPlayerConfig(t), sender, seg, clk, tlog, fileSynthOrNil(deps), streamSynthOrNil(deps, t), log)

	mgr := dialog.NewManager(t.SystemPrompt, t.MaxTurns, llmBackend, tlog, ply, newDialogConfig(t), log)

	asm := dialog.NewAssembler(func(phraseID string, chunks []*dialog.AudioChunk) {
		mgr.OnPhraseComplete(ctx, phraseID, chunks)
	})

	sessCfg := session.DefaultConfig()
	sessCfg.ASRWorkers = max(1, t.ASRPoolSize/4)
	sessCfg.ReminderSec = t.ReminderSec
	sessCfg.MaxSilenceSec = t.MaxSilenceSec
	sessCfg.TranscriptDir = deps.transcriptDir

	return session.New(sessCfg, sender, seg, asm, mgr, ply, clk, tlog, asrBackend, deps.promptCache, log)
}

func fileSynthOrNil(deps callDeps) tts.FileSynthesizer {
	backend, err := deps.ttsFileRouter.Route("")
	if err != nil {
		return nil
	}
	return backend
}

func streamSynthOrNil(deps callDeps, t tuning) tts.StreamSynthesizer {
	if !t.StreamingTTS {
		return nil
	}
	backend, err := deps.ttsStreamRouter.Route("")
	if err != nil {
		return nil
	}
	return backend
}
