package main

import (
	"github.com/edwardb/callbridge/internal/providers/asr"
	"github.com/edwardb/callbridge/internal/providers/llm"
	"github.com/edwardb/callbridge/internal/providers/tts"
	"github.com/edwardb/callbridge/internal/router"
)

func initASR(cloudURL string, poolSize int) *router.Router[asr.Transcriber] {
	backends := map[string]asr.Transcriber{}
	fallback := ""
	if cloudURL != "" {
		backends["cloud_api"] = asr.NewCloudClient(cloudURL, poolSize)
		fallback = "cloud_api"
	}
	return router.New(backends, fallback)
}

func initLLM(cloudURL, model, apiKey string, poolSize int) *router.Router[llm.Client] {
	backends := map[string]llm.Client{}
	fallback := ""
	if cloudURL != "" {
		backends["cloud"] = llm.WithRetry(llm.NewCloudClient(cloudURL, model, apiKey, poolSize))
		fallback = "cloud"
	}
	return router.New(backends, fallback)
}

func initTTSFile(baseURL, voiceID, apiKey string, poolSize int) *router.Router[tts.FileSynthesizer] {
	backends := map[string]tts.FileSynthesizer{}
	fallback := ""
	if baseURL != "" {
		backends["vendor"] = tts.NewFileClient(baseURL, voiceID, apiKey, poolSize)
		fallback = "vendor"
	}
	return router.New(backends, fallback)
}

func initTTSStream(wsURL, voiceID, apiKey string) *router.Router[tts.StreamSynthesizer] {
	backends := map[string]tts.StreamSynthesizer{}
	fallback := ""
	if wsURL != "" {
		backends["vendor"] = tts.NewStreamClient(wsURL, voiceID, apiKey)
		fallback = "vendor"
	}
	return router.New(backends, fallback)
}
