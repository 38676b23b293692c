package llmfactory

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmrelay/pkg/httpretry"
	"github.com/effective-security/llmrelay/pkg/llms"
	"github.com/effective-security/x/configloader"
	"github.com/effective-security/x/values"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	// Providers specifies the list of providers to use
	Providers []*ProviderConfig `json:"providers" yaml:"providers" validate:"dive"`
	// Retry specifies the HTTP retry policy shared by all providers
	Retry RetryConfig `json:"retry" yaml:"retry"`
}

// RetryConfig specifies the HTTP retry policy
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt, default 3
	MaxRetries *int `json:"max_retries,omitempty" yaml:"max_retries,omitempty" validate:"omitempty,gte=0,lte=10"`
	// Backoff is the initial backoff, doubled on each retry, default 1s
	Backoff string `json:"backoff,omitempty" yaml:"backoff,omitempty"`
	// Timeout is the HTTP client timeout, default 60s
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// ProviderConfig specifies a provider client
type ProviderConfig struct {
	Name string `json:"name" yaml:"name" validate:"required"`
	// APIType specifies the type of API to use:
	// OPENAI|AZURE|ANTHROPIC|GOOGLEAI|BEDROCK|COHERE|PERPLEXITY
	APIType      string `json:"api_type" yaml:"api_type" validate:"required"`
	Token        string `json:"token,omitempty" yaml:"token,omitempty"`
	DefaultModel string `json:"default_model,omitempty" yaml:"default_model,omitempty"`
	BaseURL      string `json:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`
	// APIVersion is used by Azure
	APIVersion string `json:"api_version,omitempty" yaml:"api_version,omitempty"`
	// OrgID specifies which organization's quota and billing should be used when making API requests.
	OrgID string `json:"org_id,omitempty" yaml:"org_id,omitempty"`

	// Region, AccessKeyID, SecretAccessKey and SessionToken are used by Bedrock,
	// the default AWS chain is used when not set.
	Region          string `json:"region,omitempty" yaml:"region,omitempty"`
	AccessKeyID     string `json:"access_key_id,omitempty" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty" yaml:"secret_access_key,omitempty"`
	SessionToken    string `json:"session_token,omitempty" yaml:"session_token,omitempty"`

	// Project and Location are used by Gemini on Vertex AI
	Project  string `json:"project,omitempty" yaml:"project,omitempty"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
}

// ProviderType returns the parsed APIType.
func (c *ProviderConfig) ProviderType() (llms.ProviderType, error) {
	return llms.ParseProviderType(c.APIType)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate returns error if the configuration is invalid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid LLM config")
	}
	seen := map[llms.ProviderType]string{}
	for _, p := range c.Providers {
		pt, err := p.ProviderType()
		if err != nil {
			return errors.WithMessagef(err, "provider %q", p.Name)
		}
		if other, ok := seen[pt]; ok {
			return errors.Newf("providers %q and %q have the same type %s", other, p.Name, pt)
		}
		seen[pt] = p.Name
	}
	if _, err := c.RetryPolicy(); err != nil {
		return err
	}
	return nil
}

// RetryPolicy returns the HTTP retry policy and client timeout
func (c *Config) RetryPolicy() (httpretry.Policy, error) {
	p := httpretry.DefaultPolicy()
	if c.Retry.MaxRetries != nil {
		p.MaxRetries = *c.Retry.MaxRetries
	}
	if c.Retry.Backoff != "" {
		d, err := time.ParseDuration(c.Retry.Backoff)
		if err != nil {
			return p, errors.Wrapf(err, "invalid retry backoff %q", c.Retry.Backoff)
		}
		p.BackoffFactor = d
	}
	return p, nil
}

// Timeout returns the HTTP client timeout
func (c *Config) Timeout() (time.Duration, error) {
	if c.Retry.Timeout == "" {
		return httpretry.DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Retry.Timeout)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid timeout %q", c.Retry.Timeout)
	}
	return d, nil
}

// LoadConfig from file
func LoadConfig(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}

	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, err
	}
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv returns configuration for providers with credentials
// in the environment. Bedrock is always configured and uses the AWS
// credentials chain.
func FromEnv() *Config {
	cfg := new(Config)
	if token := os.Getenv("OPENAI_API_KEY"); token != "" {
		cfg.Providers = append(cfg.Providers, &ProviderConfig{
			Name:    "openai",
			APIType: string(llms.ProviderOpenAI),
			Token:   token,
			BaseURL: os.Getenv("OPENAI_BASE_URL"),
			OrgID:   os.Getenv("OPENAI_ORGANIZATION"),
		})
	}
	if token := os.Getenv("ANTHROPIC_API_KEY"); token != "" {
		cfg.Providers = append(cfg.Providers, &ProviderConfig{
			Name:    "anthropic",
			APIType: string(llms.ProviderAnthropic),
			Token:   token,
		})
	}
	if token := os.Getenv("COHERE_API_KEY"); token != "" {
		cfg.Providers = append(cfg.Providers, &ProviderConfig{
			Name:    "cohere",
			APIType: string(llms.ProviderCohere),
			Token:   token,
		})
	}
	if token := values.StringsCoalesce(os.Getenv("GOOGLE_API_KEY"), os.Getenv("GEMINI_API_KEY")); token != "" {
		cfg.Providers = append(cfg.Providers, &ProviderConfig{
			Name:    "gemini",
			APIType: string(llms.ProviderGoogleAI),
			Token:   token,
		})
	}
	if token := os.Getenv("PERPLEXITY_API_KEY"); token != "" {
		cfg.Providers = append(cfg.Providers, &ProviderConfig{
			Name:    "perplexity",
			APIType: string(llms.ProviderPerplexity),
			Token:   token,
		})
	}
	cfg.Providers = append(cfg.Providers, &ProviderConfig{
		Name:            "bedrock",
		APIType:         string(llms.ProviderBedrock),
		Region:          values.StringsCoalesce(os.Getenv("AWS_REGION"), os.Getenv("AWS_DEFAULT_REGION"), "us-east-1"),
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
	})
	return cfg
}
