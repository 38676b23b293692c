// Package dispatch implements fallback.Adapter on top of the provider clients.
package dispatch

import (
	"context"
	"time"

	"github.com/effective-security/llmrelay/pkg/fallback"
	"github.com/effective-security/llmrelay/pkg/llmfactory"
	"github.com/effective-security/llmrelay/pkg/llms"
	"github.com/effective-security/llmrelay/pkg/llmutils"
	"github.com/effective-security/llmrelay/pkg/metricskey"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/llmrelay", "dispatch")

// ensure that Dispatcher implements fallback.Adapter
var _ fallback.Adapter = (*Dispatcher)(nil)

// Pricer returns the cost of a generation, or nil when the price is unknown
type Pricer interface {
	Cost(providerModelID string, usage *llms.Usage) *float64
}

// Dispatcher sends a prompt to the provider named by the provider model id
type Dispatcher struct {
	factory llmfactory.Factory
	pricer  Pricer
}

// New returns a Dispatcher, pricer is optional
func New(factory llmfactory.Factory, pricer Pricer) *Dispatcher {
	return &Dispatcher{
		factory: factory,
		pricer:  pricer,
	}
}

// Call implements fallback.Adapter.
// Errors are *llms.ProviderError.
func (d *Dispatcher) Call(ctx context.Context, providerModelID, prompt string, maxTokens int, temperature float64) (*fallback.Completion, error) {
	pt, model, err := llms.SplitModelID(providerModelID)
	if err != nil {
		return nil, d.failed(llms.NewProviderError("", providerModelID, 0, "", err.Error(), err).
			WithKind(llms.FailureBadRequest))
	}

	client, err := d.factory.ModelByType(pt)
	if err != nil {
		return nil, d.failed(llms.NewProviderError(pt, model, 0, "", err.Error(), err).
			WithKind(llms.FailureAuth))
	}

	messages := []llms.Message{
		llms.MessageFromTextParts(llms.RoleHuman, prompt),
	}
	provider := string(pt)
	metricskey.StatsLLMBytesSent.IncrCounter(float64(llmutils.CountMessagesContentSize(messages)), provider, model)

	started := time.Now()
	resp, err := client.GenerateContent(ctx, messages,
		llms.WithModel(model),
		llms.WithMaxTokens(maxTokens),
		llms.WithTemperature(temperature),
	)
	if err != nil {
		return nil, d.failed(llms.AsProviderError(pt, model, err))
	}

	metricskey.StatsLLMBytesReceived.IncrCounter(float64(llmutils.CountResponseContentSize(resp)), provider, model)

	choice, ok := resp.FirstContent()
	if !ok {
		return nil, d.failed(llms.NewProviderError(pt, model, 0, "", "response has no content", nil).
			WithKind(llms.FailureMalformedResponse))
	}

	usage := llms.UsageFromGenerationInfo(choice.GenerationInfo)
	if usage != nil {
		metricskey.StatsLLMInputTokens.IncrCounter(float64(usage.InputTokens), provider, model)
		metricskey.StatsLLMOutputTokens.IncrCounter(float64(usage.OutputTokens), provider, model)
		metricskey.StatsLLMTotalTokens.IncrCounter(float64(usage.TotalTokens), provider, model)
	}

	var cost *float64
	if d.pricer != nil {
		cost = d.pricer.Cost(providerModelID, usage)
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "generated",
		"provider", pt,
		"model", model,
		"stop_reason", choice.StopReason,
		"elapsed", time.Since(started).String())

	return &fallback.Completion{
		Content: choice.Content,
		Usage:   usage,
		Cost:    cost,
	}, nil
}

func (d *Dispatcher) failed(pe *llms.ProviderError) *llms.ProviderError {
	metricskey.StatsProviderErrors.IncrCounter(1, string(pe.Provider), string(pe.Kind))
	return pe
}
