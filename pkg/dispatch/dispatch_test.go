package dispatch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmrelay/mocks/mockllmfactory"
	"github.com/effective-security/llmrelay/mocks/mockllms"
	"github.com/effective-security/llmrelay/pkg/dispatch"
	"github.com/effective-security/llmrelay/pkg/fallback"
	"github.com/effective-security/llmrelay/pkg/llmfactory"
	"github.com/effective-security/llmrelay/pkg/llms"
	"github.com/effective-security/llmrelay/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	factory := mockllmfactory.NewMockFactory(ctrl)
	model := mockllms.NewMockModel(ctrl)

	factory.EXPECT().ModelByType(llms.ProviderBedrock).Return(model, nil)
	model.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
			require.Len(t, messages, 1)
			assert.Equal(t, llms.RoleHuman, messages[0].Role)
			assert.Equal(t, "hello", messages[0].GetContent())

			opts := llms.NewCallOptions(llms.CallOptions{}, options...)
			assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", opts.Model)
			assert.Equal(t, 100, opts.MaxTokens)
			require.NotNil(t, opts.Temperature)
			assert.Equal(t, 0.3, *opts.Temperature)

			return &llms.ContentResponse{
				Choices: []*llms.ContentChoice{
					{Content: ""},
					{
						Content:    "world",
						StopReason: "end_turn",
						GenerationInfo: map[string]any{
							llms.InfoInputTokens:  1_000_000,
							llms.InfoOutputTokens: 1_000_000,
						},
					},
				},
			}, nil
		})

	d := dispatch.New(factory, registry.Default())
	c, err := d.Call(context.Background(), "bedrock/anthropic.claude-3-haiku-20240307-v1:0", "hello", 100, 0.3)
	require.NoError(t, err)
	assert.Equal(t, "world", c.Content)
	assert.Equal(t, &llms.Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000, TotalTokens: 2_000_000}, c.Usage)
	require.NotNil(t, c.Cost)
	assert.InDelta(t, 1.5, *c.Cost, 0.0001)
}

func TestCall_Errors(t *testing.T) {
	ctrl := gomock.NewController(t)
	factory := mockllmfactory.NewMockFactory(ctrl)
	model := mockllms.NewMockModel(ctrl)
	d := dispatch.New(factory, nil)
	ctx := context.Background()

	var pe *llms.ProviderError

	_, err := d.Call(ctx, "mistral-large", "hello", 10, 0)
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, llms.FailureBadRequest, pe.Kind)

	factory.EXPECT().ModelByType(llms.ProviderCohere).Return(nil, llmfactory.ErrProviderNotConfigured)
	_, err = d.Call(ctx, "cohere/command-r-plus", "hello", 10, 0)
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, llms.FailureAuth, pe.Kind)
	assert.True(t, errors.Is(err, llmfactory.ErrProviderNotConfigured))

	factory.EXPECT().ModelByType(llms.ProviderOpenAI).Return(model, nil).Times(3)

	model.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("dial tcp: connection refused"))
	_, err = d.Call(ctx, "gpt-4o", "hello", 10, 0)
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, llms.ProviderOpenAI, pe.Provider)
	assert.Equal(t, llms.FailureNetwork, pe.Kind)
	assert.Equal(t, "openai: dial tcp: connection refused", err.Error())

	model.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, llms.NewProviderError(llms.ProviderOpenAI, "gpt-4o", 429, "rate_limit_exceeded", "slow down", nil))
	_, err = d.Call(ctx, "gpt-4o", "hello", 10, 0)
	assert.Equal(t, llms.FailureThrottled, llms.Classify(err))
	assert.Equal(t, "openai: 429 rate_limit_exceeded: slow down", err.Error())

	model.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: ""}}}, nil)
	_, err = d.Call(ctx, "gpt-4o", "hello", 10, 0)
	assert.Equal(t, llms.FailureMalformedResponse, llms.Classify(err))
}

func TestCall_NoPrice(t *testing.T) {
	ctrl := gomock.NewController(t)
	factory := mockllmfactory.NewMockFactory(ctrl)
	model := mockllms.NewMockModel(ctrl)

	factory.EXPECT().ModelByType(llms.ProviderGoogleAI).Return(model, nil)
	model.EXPECT().GenerateContent(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "hi"}}}, nil)

	c, err := dispatch.New(factory, registry.Default()).Call(context.Background(), "gemini/gemini-2.0-flash", "hello", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, "hi", c.Content)
	assert.Nil(t, c.Usage)
	assert.Nil(t, c.Cost)
}

// TestFallbackThroughProviders runs the engine against real provider clients
// backed by test servers: Anthropic keeps failing with 500 and is retried by
// the HTTP client, then OpenAI succeeds.
func TestFallbackThroughProviders(t *testing.T) {
	var anthropicCalls, openaiCalls atomic.Int32

	anthropicSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		anthropicCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"Internal server error"}}`))
	}))
	defer anthropicSrv.Close()

	openaiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		openaiCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"OK"}}],
			"usage":{"prompt_tokens":1000,"completion_tokens":2000,"total_tokens":3000}}`))
	}))
	defer openaiSrv.Close()

	retries := 2
	factory, err := llmfactory.New(&llmfactory.Config{
		Providers: []*llmfactory.ProviderConfig{
			{Name: "anthropic", APIType: "ANTHROPIC", Token: "fake", BaseURL: anthropicSrv.URL + "/"},
			{Name: "openai", APIType: "OPENAI", Token: "fake", BaseURL: openaiSrv.URL + "/v1/"},
		},
		Retry: llmfactory.RetryConfig{MaxRetries: &retries, Backoff: "1ms", Timeout: "5s"},
	})
	require.NoError(t, err)

	reg, err := registry.New([]*registry.Entry{
		{Key: "sonnet", ModelID: "claude-3-5-sonnet-20241022", Name: "Sonnet"},
		{Key: "mini", ModelID: "gpt-4o-mini", Name: "Mini", Pricing: &registry.Pricing{InputPerMillion: 1, OutputPerMillion: 1}},
	})
	require.NoError(t, err)

	engine := fallback.New(reg, dispatch.New(factory, reg))
	req, err := fallback.NewRequest("ping", []string{"sonnet", "unknown", "mini"})
	require.NoError(t, err)

	res := engine.Execute(context.Background(), req)
	require.True(t, res.Success, res.ErrorSummary)
	assert.Equal(t, "mini", res.ModelUsed)
	assert.Equal(t, "OK", res.Content)
	assert.Equal(t, &llms.Usage{InputTokens: 1000, OutputTokens: 2000, TotalTokens: 3000}, res.Usage)
	require.NotNil(t, res.Cost)
	assert.InDelta(t, 0.003, *res.Cost, 0.000001)

	require.Len(t, res.Attempts, 3)
	assert.Equal(t, llms.FailureServer, res.Attempts[0].Kind)
	assert.Contains(t, res.Attempts[0].Error, "Internal server error")
	assert.Equal(t, llms.FailureUnknownModel, res.Attempts[1].Kind)
	assert.True(t, res.Attempts[2].Succeeded())

	assert.Equal(t, int32(1+retries), anthropicCalls.Load())
	assert.Equal(t, int32(1), openaiCalls.Load())
}
