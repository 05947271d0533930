package tts

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"github.com/edwardb/callbridge/internal/callerr"
)

// StreamClient speaks a vendor's WebSocket streaming TTS protocol (e.g.
// ElevenLabs' input-streaming endpoint), pushing raw μ-law 8kHz bytes into
// onChunk as the vendor produces them — the producer side of the Player's
// bounded byte queue (spec §4.6).
type StreamClient struct {
	wsURL   string
	voiceID string
	apiKey  string
}

// NewStreamClient creates a streaming TTS client targeting wsURL.
func NewStreamClient(wsURL, voiceID, apiKey string) *StreamClient {
	return &StreamClient{wsURL: wsURL, voiceID: voiceID, apiKey: apiKey}
}

type streamStartMsg struct {
	Text         string                 `json:"text"`
	VoiceID      string                 `json:"voice_id"`
	OutputFormat string                 `json:"output_format"`
	GenConfig    map[string]interface{} `json:"generation_config,omitempty"`
}

type streamChunkMsg struct {
	Audio   string `json:"audio,omitempty"`
	IsFinal bool   `json:"isFinal,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (c *StreamClient) SynthesizeStream(ctx context.Context, text string, onChunk func([]byte)) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s?voice_id=%s&output_format=ulaw_8000", c.wsURL, c.voiceID)
	header := map[string][]string{}
	if c.apiKey != "" {
		header["xi-api-key"] = []string{c.apiKey}
	}

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, url, header)
	if err != nil {
		return callerr.Wrap(callerr.Transient, err)
	}
	defer conn.Close()

	start := streamStartMsg{Text: text, VoiceID: c.voiceID, OutputFormat: "ulaw_8000"}
	if err := conn.WriteJSON(start); err != nil {
		return callerr.Wrap(callerr.Transient, err)
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		var msg streamChunkMsg
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return callerr.Wrap(callerr.Transient, err)
		}
		if msg.Error != "" {
			return callerr.Wrap(callerr.Permanent, fmt.Errorf("tts stream error: %s", msg.Error))
		}
		if msg.Audio != "" {
			raw, err := decodeBase64Audio(msg.Audio)
			if err != nil {
				return callerr.Wrap(callerr.Decode, err)
			}
			onChunk(raw)
		}
		if msg.IsFinal {
			return nil
		}
	}
}

func decodeBase64Audio(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
