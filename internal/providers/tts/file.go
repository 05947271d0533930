package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/edwardb/callbridge/internal/callerr"
	"github.com/edwardb/callbridge/internal/httpx"
	"github.com/edwardb/callbridge/internal/metrics"
)

// FileClient requests an MP3 utterance from an HTTP TTS vendor (ElevenLabs,
// Piper, or any compatible synchronous synthesis endpoint).
type FileClient struct {
	baseURL string
	voiceID string
	apiKey  string
	client  *http.Client
}

// NewFileClient creates a pooled HTTP TTS client for one voice.
func NewFileClient(baseURL, voiceID, apiKey string, poolSize int) *FileClient {
	return &FileClient{
		baseURL: baseURL,
		voiceID: voiceID,
		apiKey:  apiKey,
		client:  httpx.NewPooledClient(poolSize, 15*time.Second),
	}
}

func (c *FileClient) SynthesizeFile(ctx context.Context, text string) ([]byte, error) {
	start := time.Now()

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL, url.PathEscape(c.voiceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, textBody(text))
	if err != nil {
		return nil, callerr.Wrap(callerr.Permanent, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("xi-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("tts", "http").Inc()
		return nil, callerr.Wrap(callerr.Transient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, callerr.Wrap(callerr.Transient, fmt.Errorf("tts status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return nil, callerr.Wrap(callerr.Permanent, fmt.Errorf("tts status %d", resp.StatusCode))
	}

	mp3, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, callerr.Wrap(callerr.Decode, err)
	}

	metrics.StageDuration.WithLabelValues("tts").Observe(time.Since(start).Seconds())
	return mp3, nil
}

func textBody(text string) io.Reader {
	return strings.NewReader(fmt.Sprintf(`{"text":%q}`, text))
}
