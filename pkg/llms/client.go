package llms

import (
	"net/http"
	"os"
	"time"
)

// DefaultRequestTimeout is the per request timeout used when none is configured.
const DefaultRequestTimeout = 5 * time.Minute

// ClientOptions are the connection settings of a provider client.
// Fields that a provider does not use are ignored.
type ClientOptions struct {
	// Token is the API key.
	Token string
	// DefaultModel is used when a call does not name a model.
	DefaultModel string
	// BaseURL overrides the provider endpoint.
	// For Azure it is the resource endpoint.
	BaseURL string
	// Organization is the OpenAI organization.
	Organization string
	// APIVersion is the Azure OpenAI API version.
	APIVersion string
	// Project and Location select Vertex AI for Gemini.
	Project  string
	Location string

	HTTPClient *http.Client
	// Timeout is per request, 0 uses DefaultRequestTimeout.
	Timeout time.Duration
}

// ClientOption configures ClientOptions.
type ClientOption func(*ClientOptions)

// NewClientOptions applies options over defaults.
func NewClientOptions(defaults ClientOptions, opts ...ClientOption) ClientOptions {
	o := defaults
	for _, opt := range opts {
		opt(&o)
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultRequestTimeout
	}
	return o
}

// TokenFromEnv sets the token from the first non-empty environment variable,
// when not already set.
func (o *ClientOptions) TokenFromEnv(names ...string) {
	for _, name := range names {
		if o.Token != "" {
			return
		}
		o.Token = os.Getenv(name)
	}
}

// WithToken sets the API key.
func WithToken(token string) ClientOption {
	return func(o *ClientOptions) {
		o.Token = token
	}
}

// WithDefaultModel sets the model used when a call does not name one.
func WithDefaultModel(model string) ClientOption {
	return func(o *ClientOptions) {
		o.DefaultModel = model
	}
}

// WithBaseURL overrides the provider endpoint.
func WithBaseURL(baseURL string) ClientOption {
	return func(o *ClientOptions) {
		o.BaseURL = baseURL
	}
}

// WithOrganization sets the OpenAI organization.
func WithOrganization(org string) ClientOption {
	return func(o *ClientOptions) {
		o.Organization = org
	}
}

// WithAPIVersion sets the Azure OpenAI API version.
func WithAPIVersion(version string) ClientOption {
	return func(o *ClientOptions) {
		o.APIVersion = version
	}
}

// WithCloudProject selects Vertex AI in the given GCP project and location.
func WithCloudProject(project, location string) ClientOption {
	return func(o *ClientOptions) {
		o.Project = project
		o.Location = location
	}
}

// WithHTTPClient sets the HTTP client, which owns the retry policy.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(o *ClientOptions) {
		o.HTTPClient = client
	}
}

// WithTimeout sets the per request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(o *ClientOptions) {
		o.Timeout = timeout
	}
}
