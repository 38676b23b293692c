package googleai

import (
	"cloud.google.com/go/auth"
	"cloud.google.com/go/auth/credentials"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmrelay/pkg/llms"
	"google.golang.org/genai"
)

const (
	// DefaultMaxTokens is sent when the call does not cap the completion.
	DefaultMaxTokens = 8192
	// DefaultHarmThreshold is applied to every harm category.
	DefaultHarmThreshold = genai.HarmBlockThresholdBlockOnlyHigh
)

// TokenEnvVarNames are checked in order for the Gemini API key.
var TokenEnvVarNames = []string{"GOOGLE_API_KEY", "GEMINI_API_KEY"}

var cloudPlatformScope = []string{"https://www.googleapis.com/auth/cloud-platform"}

// Backend returns Vertex AI when a cloud project is configured
// without an API key, Gemini API otherwise.
func Backend(o *llms.ClientOptions) genai.Backend {
	if o.Project != "" && o.Token == "" {
		return genai.BackendVertexAI
	}
	return genai.BackendGeminiAPI
}

// detectCredentials returns the application default credentials for Vertex AI.
// Token requests go through the configured HTTP client.
var detectCredentials = func(o *llms.ClientOptions) (*auth.Credentials, error) {
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		Scopes: cloudPlatformScope,
		Client: o.HTTPClient,
	})
	if err != nil {
		return nil, errors.Wrap(err, "googleai: unable to detect Vertex AI credentials")
	}
	return creds, nil
}

func clientConfig(o *llms.ClientOptions) (*genai.ClientConfig, error) {
	cfg := &genai.ClientConfig{
		APIKey:     o.Token,
		HTTPClient: o.HTTPClient,
		Backend:    Backend(o),
	}
	if o.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: o.BaseURL}
	}
	if cfg.Backend == genai.BackendVertexAI {
		creds, err := detectCredentials(o)
		if err != nil {
			return nil, err
		}
		cfg.Project = o.Project
		cfg.Location = o.Location
		cfg.Credentials = creds
	}
	return cfg, nil
}
