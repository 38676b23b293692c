// Package googleai implements a provider for Google Gemini models,
// served by either the Gemini API or Vertex AI.
package googleai

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmrelay/pkg/llms"
	"google.golang.org/genai"
)

// GoogleAI is a client for Gemini models.
type GoogleAI struct {
	client *genai.Client
	opts   llms.ClientOptions
}

var _ llms.Model = (*GoogleAI)(nil)

// New creates a new GoogleAI client.
// The API key is read from TokenEnvVarNames when not set,
// unless a cloud project selects Vertex AI.
func New(ctx context.Context, opts ...llms.ClientOption) (*GoogleAI, error) {
	o := llms.NewClientOptions(llms.ClientOptions{}, opts...)
	if o.Project == "" {
		o.TokenFromEnv(TokenEnvVarNames...)
	}

	cfg, err := clientConfig(&o)
	if err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "googleai: failed to create client")
	}
	return &GoogleAI{
		client: client,
		opts:   o,
	}, nil
}
