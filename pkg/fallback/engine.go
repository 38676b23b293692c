package fallback

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmrelay/pkg/llms"
	"github.com/effective-security/llmrelay/pkg/metricskey"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/llmrelay", "fallback")

// maxPromptLog is the prompt prefix size in logs
const maxPromptLog = 100

// Option configures the Engine
type Option func(*Engine)

// WithObserver sets the attempt observer
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithRequestIDGenerator sets the generator for missing request IDs
func WithRequestIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// Engine executes requests against an ordered list of models
type Engine struct {
	resolver Resolver
	adapter  Adapter
	observer Observer
	newID    func() string
}

// New returns an Engine
func New(resolver Resolver, adapter Adapter, opts ...Option) *Engine {
	e := &Engine{
		resolver: resolver,
		adapter:  adapter,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute attempts the request models in order and returns
// the first success, or a failed Result when all models failed.
// The request is not modified.
func (e *Engine) Execute(ctx context.Context, req *Request) *Result {
	if err := req.Validate(); err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"reason", "invalid_request",
			"err", err.Error())
		return &Result{
			ErrorSummary: "invalid request: " + err.Error(),
			Attempts:     []Attempt{},
		}
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = e.newID()
	}
	primary := req.PrimaryModel()

	started := time.Now()
	defer metricskey.PerfFallbackExecute.MeasureSince(started, primary)

	logger.ContextKV(ctx, xlog.INFO,
		"status", "processing",
		"request_id", requestID,
		"prompt", slices.StringUpto(req.Prompt, maxPromptLog),
		"models", req.Models)

	res := &Result{
		RequestID: requestID,
		Attempts:  make([]Attempt, 0, len(req.Models)),
	}

	for i, key := range req.Models {
		label := "primary"
		if i > 0 {
			label = fmt.Sprintf("fallback_%d", i)
		}

		attempt, completion := e.try(ctx, requestID, label, i, key, req)
		res.Attempts = append(res.Attempts, attempt)
		e.notify(ctx, requestID, attempt)

		if completion != nil {
			res.Success = true
			res.Content = completion.Content
			res.ModelUsed = key
			res.Usage = completion.Usage
			res.Cost = completion.Cost
			if i > 0 {
				metricskey.StatsFallbackRecovered.IncrCounter(1, primary, key)
			}
			return res
		}
	}

	res.ErrorSummary = fmt.Sprintf("All %d models failed", len(res.Attempts))
	metricskey.StatsFallbackExhausted.IncrCounter(1, primary)
	logger.ContextKV(ctx, xlog.ERROR,
		"status", "exhausted",
		"request_id", requestID,
		"attempts", len(res.Attempts))
	return res
}

func (e *Engine) try(ctx context.Context, requestID, label string, index int, key ModelKey, req *Request) (attempt Attempt, completion *Completion) {
	attempt = Attempt{
		Index:       index,
		Model:       key,
		DisplayName: e.resolver.DisplayName(key),
		Outcome:     OutcomeFailure,
	}

	started := time.Now()
	defer func() {
		attempt.Duration = time.Since(started)
		metricskey.PerfFallbackAttempt.MeasureSince(started, key)
		metricskey.StatsFallbackAttempts.IncrCounter(1, key, string(attempt.Outcome))
	}()

	providerModelID, err := e.resolver.Resolve(key)
	if err != nil {
		attempt.Error = err.Error()
		attempt.Kind = llms.FailureUnknownModel
		logger.ContextKV(ctx, xlog.ERROR,
			"reason", "unknown_model",
			"request_id", requestID,
			"attempt", label,
			"model", key)
		return attempt, nil
	}

	logger.ContextKV(ctx, xlog.INFO,
		"status", "trying",
		"request_id", requestID,
		"attempt", label,
		"model", key,
		"name", attempt.DisplayName,
		"provider_model", providerModelID)

	completion, err = e.call(ctx, providerModelID, req)
	if err != nil {
		attempt.Error = err.Error()
		attempt.Kind = llms.Classify(err)
		logger.ContextKV(ctx, xlog.ERROR,
			"reason", "attempt_failed",
			"request_id", requestID,
			"attempt", label,
			"model", key,
			"kind", attempt.Kind,
			"err", attempt.Error)
		return attempt, nil
	}

	attempt.Outcome = OutcomeSuccess
	logger.ContextKV(ctx, xlog.INFO,
		"status", "succeeded",
		"request_id", requestID,
		"attempt", label,
		"model", key,
		"name", attempt.DisplayName)
	return attempt, completion
}

// notify reports the attempt to the observer, a panic is logged and ignored
func (e *Engine) notify(ctx context.Context, requestID string, attempt Attempt) {
	if e.observer == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.ContextKV(ctx, xlog.ERROR,
				"reason", "observer_panic",
				"request_id", requestID,
				"model", attempt.Model,
				"err", fmt.Sprintf("%v", r))
		}
	}()
	e.observer.OnAttempt(ctx, attempt)
}

// call invokes the adapter, a panic or a nil completion is a failure
func (e *Engine) call(ctx context.Context, providerModelID string, req *Request) (c *Completion, err error) {
	defer func() {
		if r := recover(); r != nil {
			c = nil
			err = errors.Newf("adapter panic: %v", r)
		}
	}()

	c, err = e.adapter.Call(ctx, providerModelID, req.Prompt, req.MaxTokens, req.Temperature)
	if err == nil && c == nil {
		err = llms.NewProviderError("", providerModelID, 0, "", "empty completion", nil).
			WithKind(llms.FailureMalformedResponse)
	}
	return c, err
}
