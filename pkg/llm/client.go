// Package llm defines the generate() boundary between the pipeline and any
// chat-completion backend, plus the OpenAI-compatible implementation and the
// scripted client used offline and in tests.
package llm

import (
	"context"
	"fmt"
)

// Prompt is the full input for one generation call.
type Prompt struct {
	Agent  string
	System string
	User   string
}

// Client is the model-call boundary. Transport, authentication, and model
// selection live behind it.
type Client interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// ProviderError classifies a failed model call. Transient errors (rate
// limits, timeouts, 5xx) are retried; fatal errors (bad credentials, unknown
// model) abort the run.
type ProviderError struct {
	Fatal   bool
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	kind := "transient"
	if e.Fatal {
		kind = "fatal"
	}
	return fmt.Sprintf("provider error (%s): %s", kind, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Transient implements the retry controller's classification interface.
func (e *ProviderError) Transient() bool { return !e.Fatal }
