// Package gateway provides the language-model gateway used by every component
// that needs generation, classification, or extraction. The gateway is an
// opaque, fallible function: callers get text back or a CallError, and no call
// is retried internally - the debug loop is the retry mechanism.
package gateway

import (
	"context"
	"fmt"
)

// Client is the interface every LLM backend implements.
type Client interface {
	// Complete sends a prompt and returns the completion.
	Complete(ctx context.Context, prompt string) (string, error)
	// CompleteWithSystem sends a prompt with system instructions.
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ModelSelector is implemented by backends that support switching between the
// main model and a cheaper fast model for classification/extraction calls.
type ModelSelector interface {
	WithModel(model string) Client
}

// CallError wraps a transport-level gateway failure. It propagates as a stage
// failure with the underlying message attached.
type CallError struct {
	Provider string
	Op       string
	Err      error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("gateway %s call failed (%s): %v", e.Provider, e.Op, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// NewCallError builds a CallError for the given provider and operation.
func NewCallError(provider, op string, err error) *CallError {
	return &CallError{Provider: provider, Op: op, Err: err}
}
