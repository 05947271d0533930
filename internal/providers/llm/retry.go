package llm

import (
	"context"
	"time"

	"github.com/edwardb/callbridge/internal/callerr"
	"github.com/edwardb/callbridge/internal/dialog"
	"github.com/edwardb/callbridge/internal/metrics"
)

// retryBackoffs are the exact sleep durations spec §4.5 mandates: "up to 2
// retries on 5xx with backoffs {200 ms, 600 ms}".
var retryBackoffs = []time.Duration{200 * time.Millisecond, 600 * time.Millisecond}

// WithRetry wraps a Client so that transient (5xx) failures are retried up
// to len(retryBackoffs) times with the spec's fixed backoff schedule.
// Permanent and decode errors are never retried.
func WithRetry(client Client) Client {
	return &retrying{client: client}
}

type retrying struct {
	client Client
}

func (r *retrying) Complete(ctx context.Context, history []dialog.Message, temperature float64, maxTokens int) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= len(retryBackoffs); attempt++ {
		text, err := r.client.Complete(ctx, history, temperature, maxTokens)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !callerr.IsRetryable(err) || attempt == len(retryBackoffs) {
			break
		}
		metrics.LLMRetries.Inc()
		select {
		case <-time.After(retryBackoffs[attempt]):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}
