// Package callerr classifies errors raised anywhere in the call pipeline into
// the taxonomy a session needs to decide whether to retry, log, or ignore.
package callerr

import "errors"

// Sentinel classes. Wrap a concrete error with one of these via fmt.Errorf's
// %w so callers can classify with errors.Is without string matching.
var (
	// Transient covers ASR/LLM/TTS 5xx responses and ASR/TTS network
	// failures. Only LLM transient errors (5xx) are retried, up to 2 times.
	Transient = errors.New("transient error")

	// Permanent covers 4xx responses and malformed request payloads sent to
	// an external service. Never retried.
	Permanent = errors.New("permanent client error")

	// Decode covers bad MP3 data, truncated WAV, or an unrecognized frame
	// shape arriving from a vendor or the carrier.
	Decode = errors.New("decode error")

	// Protocol covers unknown carrier events and unexpected WebSocket
	// closure.
	Protocol = errors.New("protocol error")
)

// Wrap attaches class to cause in a value whose Unwrap returns both, so
// errors.Is(err, class) and errors.Is(err, original cause) succeed.
func Wrap(class, cause error) error {
	if cause == nil {
		return nil
	}
	return &classified{class: class, cause: cause}
}

type classified struct {
	class error
	cause error
}

func (c *classified) Error() string {
	return c.class.Error() + ": " + c.cause.Error()
}

func (c *classified) Unwrap() []error {
	return []error{c.class, c.cause}
}

// IsRetryable reports whether err belongs to a class that the LLM client
// should retry (transient only, per spec §7/§4.5).
func IsRetryable(err error) bool {
	return errors.Is(err, Transient)
}
