package llms

import (
	"fmt"
	"math"
)

// MaxTemperature is the upper bound of sampling temperature accepted by all providers.
const MaxTemperature = 2.0

// CallOption is a function that configures CallOptions.
type CallOption func(*CallOptions)

// CallOptions are the generation parameters of a single call.
type CallOptions struct {
	// Model is the provider model name.
	Model string
	// MaxTokens caps the completion length, 0 uses the client default.
	// Values above math.MaxInt32 are rejected.
	MaxTokens int
	// Temperature is nil for the provider default.
	Temperature *float64
	// StopWords end generation when produced.
	StopWords []string
	// TopP is the nucleus sampling mass, 0 for the provider default.
	TopP float64
}

// NewCallOptions applies options over defaults.
func NewCallOptions(defaults CallOptions, options ...CallOption) CallOptions {
	opts := defaults
	for _, opt := range options {
		opt(&opts)
	}
	return opts
}

// Check returns a bad request ProviderError when the options
// cannot be sent to the provider.
func (o *CallOptions) Check(provider ProviderType) *ProviderError {
	var msg string
	switch {
	case o.Model == "":
		msg = "model is required"
	case o.MaxTokens < 0 || o.MaxTokens > math.MaxInt32:
		msg = fmt.Sprintf("invalid max tokens: %d", o.MaxTokens)
	case o.Temperature != nil && (*o.Temperature < 0 || *o.Temperature > MaxTemperature):
		msg = fmt.Sprintf("invalid temperature: %g", *o.Temperature)
	case o.TopP < 0 || o.TopP > 1:
		msg = fmt.Sprintf("invalid top_p: %g", o.TopP)
	default:
		return nil
	}
	return NewProviderError(provider, o.Model, 0, "", msg, nil).WithKind(FailureBadRequest)
}

// WithModel names the provider model.
func WithModel(model string) CallOption {
	return func(o *CallOptions) {
		o.Model = model
	}
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(maxTokens int) CallOption {
	return func(o *CallOptions) {
		o.MaxTokens = maxTokens
	}
}

// WithTemperature sets the sampling temperature, 0 included.
func WithTemperature(temperature float64) CallOption {
	return func(o *CallOptions) {
		o.Temperature = &temperature
	}
}

// WithStopWords ends generation on any of the words.
func WithStopWords(words ...string) CallOption {
	return func(o *CallOptions) {
		o.StopWords = words
	}
}

// WithTopP sets nucleus sampling.
func WithTopP(topP float64) CallOption {
	return func(o *CallOptions) {
		o.TopP = topP
	}
}
