// Package deception builds disinformation payloads for classified honeypot
// interactions. The prompt assembly is local; text generation is delegated to
// an external LLM collaborator behind the Generator interface, with bounded
// retries and a fixed fallback so ingest never fails on generator trouble.
package deception

import (
	"context"
	"errors"
	"fmt"
)

// Generator produces deception text for a prompt. Implementations must honor
// the context deadline.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// TransientError marks a generator failure worth retrying: provider overload,
// service unavailability, or a provider-side internal error. Anything not
// wrapped in TransientError stops the retry loop immediately.
type TransientError struct {
	Reason string
	Err    error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transient generator error (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("transient generator error (%s)", e.Reason)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
