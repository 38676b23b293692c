package fallback

import (
	"context"
	"time"

	"github.com/effective-security/llmrelay/pkg/llms"
)

// Resolver maps model keys to provider model ids
type Resolver interface {
	// Resolve returns the provider model id for the key,
	// or error matching registry.ErrUnknownModel.
	Resolve(key ModelKey) (string, error)
	// DisplayName returns the display name, or the key itself.
	DisplayName(key ModelKey) string
}

// Adapter performs one provider call.
// Retries within a single call are the adapter's responsibility.
type Adapter interface {
	Call(ctx context.Context, providerModelID, prompt string, maxTokens int, temperature float64) (*Completion, error)
}

// Observer is notified after every attempt
type Observer interface {
	OnAttempt(ctx context.Context, attempt Attempt)
}

// Completion is a successful provider call
type Completion struct {
	Content string
	// Usage is optional
	Usage *llms.Usage
	// Cost is optional, nil when unknown
	Cost *float64
}

// Outcome of an attempt
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Attempt records one model tried during execution
type Attempt struct {
	// Index is the position in the request models, 0 is the primary
	Index       int      `json:"index" yaml:"index"`
	Model       ModelKey `json:"model" yaml:"model"`
	DisplayName string   `json:"display_name" yaml:"display_name"`
	Outcome     Outcome  `json:"outcome" yaml:"outcome"`
	// Error is the failure message, as returned by the adapter
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
	// Kind is the failure classification
	Kind     llms.FailureKind `json:"kind,omitempty" yaml:"kind,omitempty"`
	Duration time.Duration    `json:"duration" yaml:"duration"`
}

// Succeeded returns true if the attempt succeeded
func (a Attempt) Succeeded() bool {
	return a.Outcome == OutcomeSuccess
}

// Result is the outcome of Execute
type Result struct {
	Success   bool        `json:"success" yaml:"success"`
	Content   string      `json:"content,omitempty" yaml:"content,omitempty"`
	ModelUsed ModelKey    `json:"model_used,omitempty" yaml:"model_used,omitempty"`
	Usage     *llms.Usage `json:"usage,omitempty" yaml:"usage,omitempty"`
	Cost      *float64    `json:"cost,omitempty" yaml:"cost,omitempty"`
	// ErrorSummary is set when Success is false
	ErrorSummary string    `json:"error,omitempty" yaml:"error,omitempty"`
	Attempts     []Attempt `json:"attempts" yaml:"attempts"`
	RequestID    string    `json:"request_id,omitempty" yaml:"request_id,omitempty"`
}

// Failed returns the failed attempts
func (r *Result) Failed() []Attempt {
	var list []Attempt
	for _, a := range r.Attempts {
		if !a.Succeeded() {
			list = append(list, a)
		}
	}
	return list
}

// AdapterFunc adapts a function to Adapter
type AdapterFunc func(ctx context.Context, providerModelID, prompt string, maxTokens int, temperature float64) (*Completion, error)

// Call implements Adapter
func (f AdapterFunc) Call(ctx context.Context, providerModelID, prompt string, maxTokens int, temperature float64) (*Completion, error) {
	return f(ctx, providerModelID, prompt, maxTokens, temperature)
}
