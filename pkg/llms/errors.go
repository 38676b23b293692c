package llms

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

// FailureKind classifies a provider failure.
// The classification is informational and never changes fallback behavior.
type FailureKind string

const (
	FailureUnknown           FailureKind = "unknown"
	FailureThrottled         FailureKind = "throttled"
	FailureAuth              FailureKind = "auth"
	FailureNetwork           FailureKind = "network"
	FailureTimeout           FailureKind = "timeout"
	FailureServer            FailureKind = "server"
	FailureBadRequest        FailureKind = "bad_request"
	FailureMalformedResponse FailureKind = "malformed_response"
	FailureUnknownModel      FailureKind = "unknown_model"
	FailureCanceled          FailureKind = "canceled"
)

// ProviderError is the normalized failure returned by every provider client.
type ProviderError struct {
	// Provider that produced the error.
	Provider ProviderType
	// Model requested from the provider.
	Model string
	// StatusCode is the HTTP status, when known.
	StatusCode int
	// Code is the provider-specific error code, when known.
	Code string
	// Message is the human-readable error message.
	Message string
	// Kind is the failure classification.
	Kind FailureKind

	cause error
}

// NewProviderError returns ProviderError for the cause,
// classified by its status code and message.
func NewProviderError(provider ProviderType, model string, statusCode int, code, message string, cause error) *ProviderError {
	pe := &ProviderError{
		Provider:   provider,
		Model:      model,
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		cause:      cause,
	}
	if pe.Message == "" && cause != nil {
		pe.Message = cause.Error()
	}
	pe.Kind = classify(statusCode, code, pe.Message, cause)
	return pe
}

// Error implements error
func (e *ProviderError) Error() string {
	var b strings.Builder
	if e.Provider != "" {
		b.WriteString(strings.ToLower(string(e.Provider)))
		b.WriteString(": ")
	}
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, "%d ", e.StatusCode)
	}
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// Unwrap returns the underlying error
func (e *ProviderError) Unwrap() error {
	return e.cause
}

// AsProviderError returns err as *ProviderError,
// normalizing any other error for the provider.
func AsProviderError(provider ProviderType, model string, err error) *ProviderError {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe
	}
	return NewProviderError(provider, model, 0, "", "", err)
}

// Classify returns the failure kind of err.
func Classify(err error) FailureKind {
	if err == nil {
		return ""
	}
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Kind != "" {
		return pe.Kind
	}
	return classify(0, "", err.Error(), err)
}

func classify(statusCode int, code, message string, cause error) FailureKind {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return FailureThrottled
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return FailureAuth
	case statusCode == http.StatusRequestTimeout || statusCode == http.StatusGatewayTimeout:
		return FailureTimeout
	case statusCode >= 500:
		return FailureServer
	case statusCode >= 400:
		return FailureBadRequest
	}

	if cause != nil {
		if errors.Is(cause, context.Canceled) {
			return FailureCanceled
		}
		if errors.Is(cause, context.DeadlineExceeded) {
			return FailureTimeout
		}
		var netErr net.Error
		if errors.As(cause, &netErr) {
			if netErr.Timeout() {
				return FailureTimeout
			}
			return FailureNetwork
		}
	}

	text := strings.ToLower(code + " " + message)
	switch {
	case strings.Contains(text, "429"),
		strings.Contains(text, "throttl"),
		strings.Contains(text, "rate limit"),
		strings.Contains(text, "rate_limit"),
		strings.Contains(text, "too many requests"):
		return FailureThrottled
	case strings.Contains(text, "unauthorized"),
		strings.Contains(text, "invalid api key"),
		strings.Contains(text, "authentication"),
		strings.Contains(text, "access denied"),
		strings.Contains(text, "accessdenied"):
		return FailureAuth
	case strings.Contains(text, "timeout"), strings.Contains(text, "timed out"):
		return FailureTimeout
	case strings.Contains(text, "connection refused"),
		strings.Contains(text, "no such host"),
		strings.Contains(text, "connection reset"):
		return FailureNetwork
	}
	return FailureUnknown
}

// IsRetryableStatus returns true for HTTP statuses worth retrying
// against the same endpoint.
func IsRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// WithKind overrides the failure classification.
func (e *ProviderError) WithKind(kind FailureKind) *ProviderError {
	e.Kind = kind
	return e
}
