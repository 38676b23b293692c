package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmrelay/pkg/llms"
	"github.com/effective-security/llmrelay/pkg/llms/openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := openai.New(llms.ProviderOpenAI)
	require.Error(t, err)
	assert.True(t, errors.Is(err, openai.ErrMissingToken))

	_, err = openai.New(llms.ProviderAzure, llms.WithToken("t"))
	assert.EqualError(t, err, "openai: base URL is required for Azure")

	_, err = openai.New(llms.ProviderBedrock, llms.WithToken("t"))
	assert.True(t, errors.Is(err, llms.ErrUnsupportedProvider))

	for _, pt := range []llms.ProviderType{llms.ProviderOpenAI, llms.ProviderCohere, llms.ProviderPerplexity} {
		llm, err := openai.New(pt, llms.WithToken("t"), llms.WithDefaultModel("m"))
		require.NoError(t, err)
		assert.Equal(t, pt, llm.GetProviderType())
		assert.Equal(t, "m", llm.GetName())
	}

	llm, err := openai.New(llms.ProviderAzure,
		llms.WithToken("t"),
		llms.WithBaseURL("https://example.openai.azure.com"),
		llms.WithAPIVersion("2024-10-21"),
	)
	require.NoError(t, err)
	assert.Equal(t, llms.ProviderAzure, llm.GetProviderType())
}

func TestNew_TokenFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-token")

	_, err := openai.New(llms.ProviderOpenAI)
	require.NoError(t, err)

	// env token is not used for third party compatible providers
	_, err = openai.New(llms.ProviderCohere)
	require.Error(t, err)
}

func newTestLLM(t *testing.T, provider llms.ProviderType, handler http.HandlerFunc) *openai.LLM {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	llm, err := openai.New(provider,
		llms.WithToken("fake-token"),
		llms.WithBaseURL(srv.URL+"/v1/"),
		llms.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return llm
}

func TestGenerateContent(t *testing.T) {
	t.Parallel()

	tcases := []struct {
		provider  llms.ProviderType
		tokensKey string
	}{
		{llms.ProviderOpenAI, "max_completion_tokens"},
		{llms.ProviderCohere, "max_tokens"},
	}
	for _, tc := range tcases {
		t.Run(string(tc.provider), func(t *testing.T) {
			llm := newTestLLM(t, tc.provider, func(w http.ResponseWriter, r *http.Request) {
				assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
				assert.Equal(t, "Bearer fake-token", r.Header.Get("Authorization"))

				body, _ := io.ReadAll(r.Body)
				var req map[string]any
				require.NoError(t, json.Unmarshal(body, &req))
				assert.Equal(t, "gpt-4o-mini", req["model"])
				assert.EqualValues(t, 50, req[tc.tokensKey])
				assert.EqualValues(t, 0, req["temperature"])
				msgs := req["messages"].([]any)
				require.Len(t, msgs, 2)

				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{
					"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"gpt-4o-mini",
					"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"OK"}}],
					"usage":{"prompt_tokens":7,"completion_tokens":1,"total_tokens":8}}`))
			})

			resp, err := llm.GenerateContent(context.Background(),
				[]llms.Message{
					llms.MessageFromTextParts(llms.RoleSystem, "be brief"),
					llms.MessageFromTextParts(llms.RoleHuman, "ping"),
				},
				llms.WithModel("gpt-4o-mini"),
				llms.WithMaxTokens(50),
				llms.WithTemperature(0),
			)
			require.NoError(t, err)
			c, ok := resp.FirstContent()
			require.True(t, ok)
			assert.Equal(t, "OK", c.Content)
			assert.Equal(t, "stop", c.StopReason)
			assert.Equal(t, &llms.Usage{InputTokens: 7, OutputTokens: 1, TotalTokens: 8},
				llms.UsageFromGenerationInfo(c.GenerationInfo))
		})
	}
}

func TestGenerateContent_Errors(t *testing.T) {
	t.Parallel()

	llm := newTestLLM(t, llms.ProviderOpenAI, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`))
	})

	msgs := []llms.Message{llms.MessageFromTextParts(llms.RoleHuman, "ping")}
	_, err := llm.GenerateContent(context.Background(), msgs)
	assert.Equal(t, "openai: model is required", err.Error())

	_, err = llm.GenerateContent(context.Background(), msgs, llms.WithModel("gpt-4o"))
	var pe *llms.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusUnauthorized, pe.StatusCode)
	assert.Equal(t, "invalid_api_key", pe.Code)
	assert.Equal(t, "Incorrect API key provided", pe.Message)
	assert.Equal(t, llms.FailureAuth, pe.Kind)

	_, err = llm.GenerateContent(context.Background(), nil, llms.WithModel("gpt-4o"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no messages to send")
}

func TestGenerateContent_NoChoices(t *testing.T) {
	t.Parallel()

	llm := newTestLLM(t, llms.ProviderPerplexity, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"sonar","choices":[],"usage":{"prompt_tokens":1,"completion_tokens":0,"total_tokens":1}}`))
	})

	_, err := llm.GenerateContent(context.Background(),
		[]llms.Message{llms.MessageFromTextParts(llms.RoleHuman, "ping")},
		llms.WithModel("sonar"))
	require.Error(t, err)
	assert.Equal(t, llms.FailureMalformedResponse, llms.Classify(err))
}
