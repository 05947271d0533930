package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/edwardb/callbridge/internal/callerr"
	"github.com/edwardb/callbridge/internal/dialog"
	"github.com/edwardb/callbridge/internal/httpx"
	"github.com/edwardb/callbridge/internal/metrics"
)

// CloudClient calls an OpenAI-chat-completions-shaped HTTP endpoint
// (OpenAI, a local Ollama/vLLM server, or any compatible vendor) with
// stream:false.
type CloudClient struct {
	url    string
	model  string
	apiKey string
	client *http.Client
}

// NewCloudClient creates a pooled HTTP client against a chat-completions
// endpoint.
func NewCloudClient(url, model, apiKey string, poolSize int) *CloudClient {
	return &CloudClient{
		url:    url,
		model:  model,
		apiKey: apiKey,
		client: httpx.NewPooledClient(poolSize, 15*time.Second),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete posts the full history with stream:false and returns the first
// choice's content.
func (c *CloudClient) Complete(ctx context.Context, history []dialog.Message, temperature float64, maxTokens int) (string, error) {
	start := time.Now()

	messages := make([]chatMessage, len(history))
	for i, m := range history {
		messages[i] = chatMessage{Role: string(m.Role), Content: m.Content}
	}

	reqBody := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      false,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", callerr.Wrap(callerr.Permanent, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", callerr.Wrap(callerr.Permanent, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		metrics.Errors.WithLabelValues("llm", "http").Inc()
		// Not classed Transient: only 5xx responses are retried.
		return "", fmt.Errorf("llm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		metrics.Errors.WithLabelValues("llm", "status").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", callerr.Wrap(callerr.Transient, fmt.Errorf("llm status %d: %s", resp.StatusCode, body))
	}
	if resp.StatusCode >= 400 {
		metrics.Errors.WithLabelValues("llm", "status").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", callerr.Wrap(callerr.Permanent, fmt.Errorf("llm status %d: %s", resp.StatusCode, body))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", callerr.Wrap(callerr.Decode, err)
	}
	if len(out.Choices) == 0 {
		return "", callerr.Wrap(callerr.Decode, fmt.Errorf("llm response had no choices"))
	}

	metrics.StageDuration.WithLabelValues("llm").Observe(time.Since(start).Seconds())
	return out.Choices[0].Message.Content, nil
}
