package llmfactory

import (
	"context"
	"net/http"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmrelay/pkg/httpretry"
	"github.com/effective-security/llmrelay/pkg/llms"
	"github.com/effective-security/llmrelay/pkg/llms/anthropic"
	"github.com/effective-security/llmrelay/pkg/llms/bedrock"
	"github.com/effective-security/llmrelay/pkg/llms/googleai"
	"github.com/effective-security/llmrelay/pkg/llms/openai"
	"github.com/effective-security/xlog"
)

//go:generate mockgen -source=factory.go -destination=../../mocks/mockllmfactory/factory_mock.gen.go -package mockllmfactory

var logger = xlog.NewPackageLogger("github.com/effective-security/llmrelay", "llmfactory")

// NewLLM is a wrapper for CreateLLM to allow for overriding the default implementation.
var NewLLM = CreateLLM

// ErrProviderNotConfigured is returned when no provider is configured for a type.
var ErrProviderNotConfigured = errors.New("provider not configured")

// Factory is the interface for creating and managing LLM models.
type Factory interface {
	// ModelByType returns an LLM model by its provider type.
	ModelByType(providerType llms.ProviderType) (llms.Model, error)
	// ProviderTypes returns the configured provider types.
	ProviderTypes() []llms.ProviderType
}

// Load returns factory from configuration file
func Load(location string) (Factory, error) {
	cfg, err := LoadConfig(location)
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

type factory struct {
	cfg        *Config
	httpClient *http.Client

	byType map[llms.ProviderType]llms.Model
	lock   sync.Mutex
}

// New creates a new LLM factory
func New(cfg *Config) (Factory, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := cfg.RetryPolicy()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}

	return &factory{
		cfg:        cfg,
		httpClient: httpretry.NewClient(policy, timeout),
		byType:     make(map[llms.ProviderType]llms.Model),
	}, nil
}

// CreateLLM returns a new client for the provider configuration
func CreateLLM(cfg *ProviderConfig, httpClient *http.Client) (llms.Model, error) {
	pt, err := cfg.ProviderType()
	if err != nil {
		return nil, err
	}
	switch pt {
	case llms.ProviderOpenAI, llms.ProviderAzure, llms.ProviderCohere, llms.ProviderPerplexity:
		return newOpenAI(pt, cfg, httpClient)
	case llms.ProviderAnthropic:
		return newAnthropic(cfg, httpClient)
	case llms.ProviderGoogleAI:
		return newGoogleAI(cfg, httpClient)
	case llms.ProviderBedrock:
		return newBedrock(cfg, httpClient)
	}
	return nil, errors.Wrapf(llms.ErrUnsupportedProvider, "provider type: %s", pt)
}

// clientOptions maps the provider config to client options,
// unset values keep the client defaults.
func clientOptions(cfg *ProviderConfig, httpClient *http.Client) []llms.ClientOption {
	opts := []llms.ClientOption{
		llms.WithDefaultModel(cfg.DefaultModel),
		llms.WithHTTPClient(httpClient),
	}
	if cfg.Token != "" {
		opts = append(opts, llms.WithToken(cfg.Token))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, llms.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIVersion != "" {
		opts = append(opts, llms.WithAPIVersion(cfg.APIVersion))
	}
	if cfg.OrgID != "" {
		opts = append(opts, llms.WithOrganization(cfg.OrgID))
	}
	if cfg.Project != "" {
		opts = append(opts, llms.WithCloudProject(cfg.Project, cfg.Location))
	}
	if httpClient != nil && httpClient.Timeout > 0 {
		opts = append(opts, llms.WithTimeout(httpClient.Timeout))
	}
	return opts
}

func newOpenAI(pt llms.ProviderType, cfg *ProviderConfig, httpClient *http.Client) (llms.Model, error) {
	return openai.New(pt, clientOptions(cfg, httpClient)...)
}

func newAnthropic(cfg *ProviderConfig, httpClient *http.Client) (llms.Model, error) {
	return anthropic.New(clientOptions(cfg, httpClient)...)
}

func newGoogleAI(cfg *ProviderConfig, httpClient *http.Client) (llms.Model, error) {
	return googleai.New(context.Background(), clientOptions(cfg, httpClient)...)
}

func newBedrock(cfg *ProviderConfig, httpClient *http.Client) (llms.Model, error) {
	opts := []bedrock.Option{
		bedrock.WithModel(cfg.DefaultModel),
		bedrock.WithHTTPClient(httpClient),
	}
	if cfg.Region != "" {
		opts = append(opts, bedrock.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, bedrock.WithStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken))
	}
	return bedrock.New(context.Background(), opts...)
}

func (f *factory) ProviderTypes() []llms.ProviderType {
	var res []llms.ProviderType
	for _, cfg := range f.cfg.Providers {
		if pt, err := cfg.ProviderType(); err == nil {
			res = append(res, pt)
		}
	}
	return res
}

func (f *factory) ModelByType(providerType llms.ProviderType) (llms.Model, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	if client, ok := f.byType[providerType]; ok {
		return client, nil
	}

	for _, cfg := range f.cfg.Providers {
		pt, err := cfg.ProviderType()
		if err != nil || pt != providerType {
			continue
		}

		model, err := NewLLM(cfg, f.httpClient)
		if err != nil {
			logger.KV(xlog.ERROR,
				"reason", "create_llm",
				"type", pt,
				"name", cfg.Name,
				"err", err.Error())
			return nil, err
		}

		logger.KV(xlog.DEBUG,
			"status", "created_llm",
			"type", pt,
			"name", cfg.Name)

		f.byType[providerType] = model
		return model, nil
	}
	return nil, errors.WithMessagef(ErrProviderNotConfigured, "type: %s", providerType)
}
