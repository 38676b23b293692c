package googleai

import (
	"testing"

	"cloud.google.com/go/auth"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmrelay/pkg/llms"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestClientConfig(t *testing.T) {
	saved := detectCredentials
	defer func() { detectCredentials = saved }()

	creds := auth.NewCredentials(&auth.CredentialsOptions{})
	detectCredentials = func(*llms.ClientOptions) (*auth.Credentials, error) {
		return creds, nil
	}

	o := llms.NewClientOptions(llms.ClientOptions{}, llms.WithCloudProject("proj", "us-central1"))
	cfg, err := clientConfig(&o)
	require.NoError(t, err)
	assert.Equal(t, genai.BackendVertexAI, cfg.Backend)
	assert.Equal(t, "proj", cfg.Project)
	assert.Equal(t, "us-central1", cfg.Location)
	assert.Same(t, creds, cfg.Credentials)

	o = llms.NewClientOptions(llms.ClientOptions{}, llms.WithToken("key"), llms.WithBaseURL("http://localhost/"))
	cfg, err = clientConfig(&o)
	require.NoError(t, err)
	assert.Equal(t, genai.BackendGeminiAPI, cfg.Backend)
	assert.Empty(t, cfg.Project)
	assert.Nil(t, cfg.Credentials)
	assert.Equal(t, "http://localhost/", cfg.HTTPOptions.BaseURL)

	detectCredentials = func(*llms.ClientOptions) (*auth.Credentials, error) {
		return nil, errors.New("no ADC")
	}
	o = llms.NewClientOptions(llms.ClientOptions{}, llms.WithCloudProject("proj", ""))
	_, err = clientConfig(&o)
	assert.EqualError(t, err, "no ADC")
}
