package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/edwardb/callbridge/internal/dialog"
	"github.com/edwardb/callbridge/internal/env"
	"github.com/edwardb/callbridge/internal/player"
	"github.com/edwardb/callbridge/internal/prompts"
	"github.com/edwardb/callbridge/internal/providers/asr"
	"github.com/edwardb/callbridge/internal/providers/llm"
	"github.com/edwardb/callbridge/internal/providers/tts"
	"github.com/edwardb/callbridge/internal/router"
	"github.com/edwardb/callbridge/internal/vad"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, relying on process environment")
	}

	t := loadTuning(env.Str("CALLBRIDGE_CONFIG", "callbridge.json"))

	port := env.Str("CALLBRIDGE_PORT", "8000")
	promptDir := env.Str("CALLBRIDGE_PROMPT_DIR", "prompts")
	transcriptDir := env.Str("CALLBRIDGE_TRANSCRIPT_DIR", "transcripts")
	if err := os.MkdirAll(transcriptDir, 0o755); err != nil {
		slog.Warn("failed to create transcript dir", "dir", transcriptDir, "error", err)
	}

	asrCloudURL := env.Str("ASR_CLOUD_URL", "")
	llmCloudURL := env.Str("LLM_CLOUD_URL", "")
	llmModel := env.Str("LLM_MODEL", "gpt-4.1-nano")
	llmAPIKey := env.Str("LLM_API_KEY", "")
	ttsFileURL := env.Str("TTS_FILE_URL", "")
	ttsStreamURL := env.Str("TTS_STREAM_URL", "")
	ttsVoiceID := env.Str("TTS_VOICE_ID", "")
	ttsAPIKey := env.Str("TTS_API_KEY", "")

	twilioAuthToken := env.Str("TWILIO_AUTH_TOKEN", "")
	twilioAccountSID := env.Str("TWILIO_ACCOUNT_SID", "")
	twilioFromNumber := env.Str("TWILIO_FROM_NUMBER", "")
	momPhoneNumber := env.Str("MOM_PHONE_NUMBER", "")
	callTriggerToken := env.Str("CALL_TRIGGER_TOKEN", "")
	publicBaseURL := env.Str("PUBLIC_BASE_URL", "")

	asrRouter := initASR(asrCloudURL, t.ASRPoolSize)
	llmRouter := initLLM(llmCloudURL, llmModel, llmAPIKey, t.LLMPoolSize)
	ttsFileRouter := initTTSFile(ttsFileURL, ttsVoiceID, ttsAPIKey, t.TTSPoolSize)
	ttsStreamRouter := initTTSStream(ttsStreamURL, ttsVoiceID, ttsAPIKey)

	ttsFileBackend, err := ttsFileRouter.Route("")
	if err != nil {
		slog.Warn("no file-backed tts configured", "error", err)
	}

	promptCache := prompts.NewCache(promptDir, ttsFileBackend, slog.Default())
	warmCtx, warmCancel := context.WithTimeout(context.Background(), 60*time.Second)
	promptCache.Warm(warmCtx)
	warmCancel()

	deps := callDeps{
		tuning:          t,
		asrRouter:       asrRouter,
		llmRouter:       llmRouter,
		ttsFileRouter:   ttsFileRouter,
		ttsStreamRouter: ttsStreamRouter,
		promptCache:     promptCache,
		transcriptDir:   transcriptDir,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("POST /voice", handleVoice(publicBaseURL))
	mux.HandleFunc("/stream", handleStream(deps))
	mux.HandleFunc("POST /call_mom", handleCallMom(callTriggerToken, twilioAccountSID, twilioAuthToken, twilioFromNumber, momPhoneNumber, publicBaseURL))
	mux.Handle("/metrics", promhttp.Handler())

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: mux}

	go awaitShutdown(srv)

	slog.Info("callbridge starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("callbridge stopped")
}

func awaitShutdown(srv *http.Server) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}

// callDeps carries everything a newly accepted call needs to build its
// Session. It is shared by every accepted connection.
type callDeps struct {
	tuning          tuning
	asrRouter       *router.Router[asr.Transcriber]
	llmRouter       *router.Router[llm.Client]
	ttsFileRouter   *router.Router[tts.FileSynthesizer]
	ttsStreamRouter *router.Router[tts.StreamSynthesizer]
	promptCache     *prompts.Cache
	transcriptDir   string
}

func newSegmenterConfig(t tuning) vad.Config {
	return vad.Config{
		MinRMS:                 t.MinSpeechRMS,
		BargeInMult:            t.BargeInMultiplier,
		BargeInConsecFrames:    t.BargeInConsecFrames,
		ChunkSilenceSec:        t.ChunkSilenceSec,
		DoneSpeakingSilenceSec: t.DoneSpeakingSilenceSec,
		MinChunkSec:            t.MinChunkSec,
		MaxChunkSec:            t.MaxChunkSec,
		LeadInSec:              t.LeadInSec,
	}
}

func newPlayerConfig(t tuning) player.Config {
	return player.Config{
		ClearAfterEnd: t.PlaybackClearAfterEnd,
		ClearMargin:   time.Duration(t.PlaybackClearMarginMS) * time.Millisecond,
	}
}

func newDialogConfig(t tuning) dialog.Config {
	return dialog.Config{
		Temperature: t.LLMTemperature,
		MaxTokens:   t.LLMMaxTokens,
		StreamTTS:   t.StreamingTTS,
	}
}

