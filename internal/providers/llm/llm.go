// Package llm provides the Dialog Manager's LLM strategy (C5 dependency): a
// chat-completions-style cloud backend and a single-generate local backend,
// per spec §6 ("chat-style completion with {model, messages, temperature,
// max_tokens, stream:false}; returns a single string").
package llm

import (
	"context"

	"github.com/edwardb/callbridge/internal/dialog"
)

// Client completes a chat turn given the full rolling history and returns
// a single reply string — no streaming, matching spec §6's stream:false
// contract.
type Client interface {
	Complete(ctx context.Context, history []dialog.Message, temperature float64, maxTokens int) (string, error)
}
