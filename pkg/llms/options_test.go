package llms_test

import (
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/effective-security/llmrelay/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallOptions(t *testing.T) {
	opts := llms.NewCallOptions(llms.CallOptions{Model: "default", MaxTokens: 1},
		llms.WithModel("gpt-4o"),
		llms.WithMaxTokens(100),
		llms.WithTemperature(0.5),
		llms.WithStopWords("END", "STOP"),
		llms.WithTopP(0.9),
	)
	assert.Equal(t, "gpt-4o", opts.Model)
	assert.Equal(t, 100, opts.MaxTokens)
	require.NotNil(t, opts.Temperature)
	assert.Equal(t, 0.5, *opts.Temperature)
	assert.Equal(t, []string{"END", "STOP"}, opts.StopWords)
	assert.Equal(t, 0.9, opts.TopP)
	assert.Nil(t, opts.Check(llms.ProviderOpenAI))

	largest := llms.NewCallOptions(llms.CallOptions{}, llms.WithModel("m"), llms.WithMaxTokens(math.MaxInt32))
	assert.Nil(t, largest.Check(llms.ProviderGoogleAI))

	defaults := llms.NewCallOptions(llms.CallOptions{Model: "default", MaxTokens: 1})
	assert.Equal(t, "default", defaults.Model)
	assert.Nil(t, defaults.Temperature)

	zero := llms.NewCallOptions(llms.CallOptions{}, llms.WithTemperature(0))
	require.NotNil(t, zero.Temperature)
	assert.Zero(t, *zero.Temperature)
}

func TestCallOptions_Check(t *testing.T) {
	tcases := []struct {
		opts []llms.CallOption
		exp  string
	}{
		{nil, "anthropic: model is required"},
		{[]llms.CallOption{llms.WithModel("m"), llms.WithMaxTokens(-1)}, "anthropic: invalid max tokens: -1"},
		{[]llms.CallOption{llms.WithModel("m"), llms.WithMaxTokens(math.MaxInt32 + 1)}, "anthropic: invalid max tokens: 2147483648"},
		{[]llms.CallOption{llms.WithModel("m"), llms.WithTemperature(2.5)}, "anthropic: invalid temperature: 2.5"},
		{[]llms.CallOption{llms.WithModel("m"), llms.WithTopP(1.5)}, "anthropic: invalid top_p: 1.5"},
	}
	for _, tc := range tcases {
		opts := llms.NewCallOptions(llms.CallOptions{}, tc.opts...)
		pe := opts.Check(llms.ProviderAnthropic)
		require.NotNil(t, pe)
		assert.EqualError(t, pe, tc.exp)
		assert.Equal(t, llms.FailureBadRequest, pe.Kind)
	}
}

func TestClientOptions(t *testing.T) {
	t.Setenv("TEST_FIRST_KEY", "")
	t.Setenv("TEST_SECOND_KEY", "second")

	client := &http.Client{}
	o := llms.NewClientOptions(llms.ClientOptions{BaseURL: "https://default"},
		llms.WithDefaultModel("m"),
		llms.WithOrganization("org"),
		llms.WithAPIVersion("2024-10-21"),
		llms.WithCloudProject("proj", "us-central1"),
		llms.WithHTTPClient(client),
	)
	assert.Equal(t, "https://default", o.BaseURL)
	assert.Equal(t, "m", o.DefaultModel)
	assert.Equal(t, "org", o.Organization)
	assert.Equal(t, "2024-10-21", o.APIVersion)
	assert.Equal(t, "proj", o.Project)
	assert.Equal(t, "us-central1", o.Location)
	assert.Same(t, client, o.HTTPClient)
	assert.Equal(t, llms.DefaultRequestTimeout, o.Timeout)

	o.TokenFromEnv("TEST_FIRST_KEY", "TEST_SECOND_KEY")
	assert.Equal(t, "second", o.Token)

	o = llms.NewClientOptions(llms.ClientOptions{},
		llms.WithToken("explicit"),
		llms.WithBaseURL("https://custom"),
		llms.WithTimeout(time.Second))
	o.TokenFromEnv("TEST_SECOND_KEY")
	assert.Equal(t, "explicit", o.Token)
	assert.Equal(t, "https://custom", o.BaseURL)
	assert.Equal(t, time.Second, o.Timeout)
}
