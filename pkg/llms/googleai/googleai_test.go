package googleai_test

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmrelay/pkg/llms"
	"github.com/effective-security/llmrelay/pkg/llms/googleai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestBackend(t *testing.T) {
	o := llms.NewClientOptions(llms.ClientOptions{}, llms.WithToken("key"))
	assert.Equal(t, genai.BackendGeminiAPI, googleai.Backend(&o))

	o = llms.NewClientOptions(llms.ClientOptions{}, llms.WithCloudProject("proj", "us-central1"))
	assert.Equal(t, genai.BackendVertexAI, googleai.Backend(&o))
}

func TestNew_TokenFromEnv(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	llm, err := googleai.New(context.Background(), llms.WithDefaultModel("gemini-1.5-pro"))
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-pro", llm.GetName())
}

func newTestLLM(t *testing.T, handler http.HandlerFunc) *googleai.GoogleAI {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	llm, err := googleai.New(context.Background(),
		llms.WithToken("fake-key"),
		llms.WithBaseURL(srv.URL+"/"),
		llms.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return llm
}

func TestGenerateContent(t *testing.T) {
	t.Parallel()

	llm := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/gemini-1.5-pro:generateContent"), r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		require.NoError(t, json.Unmarshal(body, &req))
		cfg := req["generationConfig"].(map[string]any)
		assert.EqualValues(t, 64, cfg["maxOutputTokens"])
		assert.InDelta(t, 0.7, cfg["temperature"], 0.0001)
		assert.NotNil(t, req["systemInstruction"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates":[{"content":{"parts":[{"text":"O"},{"text":"K"}],"role":"model"},"finishReason":"STOP"}],
			"usageMetadata":{"promptTokenCount":4,"candidatesTokenCount":1,"totalTokenCount":5}}`))
	})
	assert.Equal(t, llms.ProviderGoogleAI, llm.GetProviderType())

	resp, err := llm.GenerateContent(context.Background(),
		[]llms.Message{
			llms.MessageFromTextParts(llms.RoleSystem, "be brief"),
			llms.MessageFromTextParts(llms.RoleHuman, "ping"),
		},
		llms.WithModel("gemini-1.5-pro"),
		llms.WithMaxTokens(64),
		llms.WithTemperature(0.7),
	)
	require.NoError(t, err)
	c, ok := resp.FirstContent()
	require.True(t, ok)
	assert.Equal(t, "OK", c.Content)
	assert.Equal(t, "STOP", c.StopReason)
	assert.Equal(t, &llms.Usage{InputTokens: 4, OutputTokens: 1, TotalTokens: 5},
		llms.UsageFromGenerationInfo(c.GenerationInfo))
}

func TestGenerateContent_Errors(t *testing.T) {
	t.Parallel()

	llm := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	})

	ping := []llms.Message{llms.MessageFromTextParts(llms.RoleHuman, "ping")}

	_, err := llm.GenerateContent(context.Background(), ping)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model is required")

	_, err = llm.GenerateContent(context.Background(), nil, llms.WithModel("gemini-1.5-pro"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no messages to send")

	// MaxOutputTokens is int32
	_, err = llm.GenerateContent(context.Background(), ping,
		llms.WithModel("gemini-1.5-pro"), llms.WithMaxTokens(math.MaxInt32 + 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid max tokens: 2147483648")
	assert.Equal(t, llms.FailureBadRequest, llms.Classify(err))

	_, err = llm.GenerateContent(context.Background(), ping, llms.WithModel("gemini-1.5-pro"))
	var pe *llms.ProviderError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, http.StatusTooManyRequests, pe.StatusCode)
	assert.Equal(t, "RESOURCE_EXHAUSTED", pe.Code)
	assert.Equal(t, llms.FailureThrottled, pe.Kind)
}

func TestGenerateContent_Empty(t *testing.T) {
	t.Parallel()

	llm := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[],"usageMetadata":{"promptTokenCount":4,"totalTokenCount":4}}`))
	})

	_, err := llm.GenerateContent(context.Background(),
		[]llms.Message{llms.MessageFromTextParts(llms.RoleHuman, "ping")},
		llms.WithModel("gemini-1.5-pro"))
	require.Error(t, err)
	assert.Equal(t, llms.FailureMalformedResponse, llms.Classify(err))
}
