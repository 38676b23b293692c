package llms_test

import (
	"context"
	"net"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmrelay/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderError(t *testing.T) {
	t.Parallel()
	cause := errors.New("boom")
	pe := llms.NewProviderError(llms.ProviderOpenAI, "gpt-4o", 429, "rate_limit_exceeded", "Rate limit reached", cause)
	assert.Equal(t, "openai: 429 rate_limit_exceeded: Rate limit reached", pe.Error())
	assert.Equal(t, llms.FailureThrottled, pe.Kind)
	assert.True(t, errors.Is(pe, cause))

	pe = llms.NewProviderError("", "", 0, "", "", cause)
	assert.Equal(t, "boom", pe.Error())
	assert.Equal(t, llms.FailureUnknown, pe.Kind)
}

func TestAsProviderError(t *testing.T) {
	t.Parallel()
	assert.Nil(t, llms.AsProviderError(llms.ProviderBedrock, "m", nil))

	orig := llms.NewProviderError(llms.ProviderAnthropic, "claude", 401, "", "invalid x-api-key", nil)
	wrapped := errors.WithMessage(orig, "call failed")
	assert.Same(t, orig, llms.AsProviderError(llms.ProviderBedrock, "m", wrapped))

	pe := llms.AsProviderError(llms.ProviderBedrock, "m", errors.New("ThrottlingException: Too many requests"))
	require.NotNil(t, pe)
	assert.Equal(t, llms.ProviderBedrock, pe.Provider)
	assert.Equal(t, llms.FailureThrottled, pe.Kind)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestClassify(t *testing.T) {
	t.Parallel()
	tcases := []struct {
		name string
		err  error
		exp  llms.FailureKind
	}{
		{"nil", nil, ""},
		{"401", llms.NewProviderError(llms.ProviderOpenAI, "", 401, "", "no", nil), llms.FailureAuth},
		{"403", llms.NewProviderError(llms.ProviderOpenAI, "", 403, "", "no", nil), llms.FailureAuth},
		{"400", llms.NewProviderError(llms.ProviderOpenAI, "", 400, "", "no", nil), llms.FailureBadRequest},
		{"503", llms.NewProviderError(llms.ProviderOpenAI, "", 503, "", "no", nil), llms.FailureServer},
		{"504", llms.NewProviderError(llms.ProviderOpenAI, "", 504, "", "no", nil), llms.FailureTimeout},
		{"429 text", errors.New("status 429 from upstream"), llms.FailureThrottled},
		{"throttled", errors.New("request was Throttled"), llms.FailureThrottled},
		{"canceled", errors.Wrap(context.Canceled, "call"), llms.FailureCanceled},
		{"deadline", errors.Wrap(context.DeadlineExceeded, "call"), llms.FailureTimeout},
		{"net timeout", errors.WithStack(timeoutErr{}), llms.FailureTimeout},
		{"refused", errors.New("dial tcp: connection refused"), llms.FailureNetwork},
		{"auth text", errors.New("Invalid API key provided"), llms.FailureAuth},
		{"other", errors.New("something odd"), llms.FailureUnknown},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.exp, llms.Classify(tc.err))
		})
	}
}

func TestIsRetryableStatus(t *testing.T) {
	t.Parallel()
	for _, c := range []int{429, 500, 502, 503, 504} {
		assert.True(t, llms.IsRetryableStatus(c), c)
	}
	for _, c := range []int{200, 400, 401, 403, 404, 501} {
		assert.False(t, llms.IsRetryableStatus(c), c)
	}
}
