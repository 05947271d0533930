package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/edwardb/callbridge/internal/audio"
	"github.com/edwardb/callbridge/internal/callerr"
	"github.com/edwardb/callbridge/internal/httpx"
	"github.com/edwardb/callbridge/internal/metrics"
)

// CloudClient transcribes chunk audio against an HTTP ASR vendor (e.g. a
// whisper.cpp server) by uploading a WAV-wrapped multipart request,
// forcing English and beam search width 5 as spec §4.3 requires.
type CloudClient struct {
	url    string
	client *http.Client
}

// NewCloudClient creates an HTTP ASR client pooled for poolSize concurrent
// in-flight requests.
func NewCloudClient(url string, poolSize int) *CloudClient {
	return &CloudClient{
		url:    url,
		client: httpx.NewPooledClient(poolSize, 12*time.Second),
	}
}

type whisperResponse struct {
	Text string `json:"text"`
}

func (c *CloudClient) Transcribe(ctx context.Context, samples []int16) (Result, error) {
	start := time.Now()

	wavBytes, err := audio.BuildWAV(samples, audio.SampleRate)
	if err != nil {
		return Result{}, callerr.Wrap(callerr.Decode, err)
	}
	buildMS := float64(time.Since(start).Milliseconds())

	body, contentType, err := buildMultipartAudio(wavBytes)
	if err != nil {
		return Result{}, callerr.Wrap(callerr.Decode, err)
	}

	inferStart := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/inference", body)
	if err != nil {
		return Result{}, callerr.Wrap(callerr.Permanent, err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Language", "en")
	req.Header.Set("X-Beam-Size", "5")

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("asr", "http").Inc()
		return Result{}, callerr.Wrap(callerr.Transient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		metrics.Errors.WithLabelValues("asr", "status").Inc()
		return Result{}, callerr.Wrap(callerr.Transient, fmt.Errorf("asr status %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		metrics.Errors.WithLabelValues("asr", "status").Inc()
		return Result{}, callerr.Wrap(callerr.Permanent, fmt.Errorf("asr status %d", resp.StatusCode))
	}

	var out whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, callerr.Wrap(callerr.Decode, err)
	}

	inferMS := float64(time.Since(inferStart).Milliseconds())
	metrics.StageDuration.WithLabelValues("asr").Observe(time.Since(start).Seconds())

	return Result{
		Text: out.Text,
		Timing: Timing{
			BuildMS: buildMS,
			InferMS: inferMS,
			TotalMS: buildMS + inferMS,
		},
	}, nil
}

func buildMultipartAudio(wavBytes []byte) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile("file", "chunk.wav")
	if err != nil {
		return nil, "", fmt.Errorf("multipart create: %w", err)
	}
	if _, err := part.Write(wavBytes); err != nil {
		return nil, "", fmt.Errorf("multipart write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("multipart close: %w", err)
	}
	return buf, w.FormDataContentType(), nil
}
