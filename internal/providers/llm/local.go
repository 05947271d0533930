package llm

import (
	"context"
	"strings"

	"github.com/edwardb/callbridge/internal/dialog"
)

// Generator is a local single-generate LLM binding (e.g. a GGUF model
// loaded once at process start) — the counterpart to CloudClient's
// chat-completions style, per spec §9's "strategy: chat-completions-style
// or single-generate".
type Generator interface {
	Generate(prompt string, maxTokens int) (string, error)
}

// LocalClient flattens the rolling history into a single prompt and runs it
// on a bounded worker pool so inference never blocks the session loop.
type LocalClient struct {
	gen Generator
	sem chan struct{}
}

// NewLocalClient wraps gen with a concurrency cap of poolSize.
func NewLocalClient(gen Generator, poolSize int) *LocalClient {
	if poolSize < 1 {
		poolSize = 1
	}
	return &LocalClient{gen: gen, sem: make(chan struct{}, poolSize)}
}

func (c *LocalClient) Complete(ctx context.Context, history []dialog.Message, temperature float64, maxTokens int) (string, error) {
	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-c.sem }()

	prompt := flattenPrompt(history)

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		text, err := c.gen.Generate(prompt, maxTokens)
		done <- outcome{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case o := <-done:
		return o.text, o.err
	}
}

func flattenPrompt(history []dialog.Message) string {
	var b strings.Builder
	for _, m := range history {
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	b.WriteString("assistant: ")
	return b.String()
}
