package llms

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
)

// ProviderType is the type of provider.
type ProviderType string

const (
	// ProviderAnthropic is Anthropic's direct API.
	ProviderAnthropic ProviderType = "ANTHROPIC"
	// ProviderAzure is Azure OpenAI.
	ProviderAzure ProviderType = "AZURE"
	// ProviderBedrock is Amazon Bedrock.
	ProviderBedrock ProviderType = "BEDROCK"
	// ProviderCohere is Cohere, accessed through its OpenAI compatible API.
	ProviderCohere ProviderType = "COHERE"
	// ProviderGoogleAI is Google Gemini, either Gemini API or Vertex AI.
	ProviderGoogleAI ProviderType = "GOOGLEAI"
	// ProviderOpenAI is OpenAI's direct API.
	ProviderOpenAI ProviderType = "OPENAI"
	// ProviderPerplexity is Perplexity, accessed through its OpenAI compatible API.
	ProviderPerplexity ProviderType = "PERPLEXITY"
)

// ErrUnsupportedProvider is returned when a provider type or prefix is not known.
var ErrUnsupportedProvider = errors.New("unsupported provider")

// prefixes maps the provider prefix of a provider model id,
// such as "bedrock/..." or "gemini/...", to the provider type.
var prefixes = map[string]ProviderType{
	"anthropic":  ProviderAnthropic,
	"azure":      ProviderAzure,
	"bedrock":    ProviderBedrock,
	"cohere":     ProviderCohere,
	"gemini":     ProviderGoogleAI,
	"googleai":   ProviderGoogleAI,
	"vertex_ai":  ProviderGoogleAI,
	"openai":     ProviderOpenAI,
	"perplexity": ProviderPerplexity,
}

// ParseProviderType returns the provider type for a name or prefix,
// case insensitive.
func ParseProviderType(name string) (ProviderType, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if pt, ok := prefixes[n]; ok {
		return pt, nil
	}
	switch pt := ProviderType(strings.ToUpper(n)); pt {
	case ProviderAnthropic, ProviderAzure, ProviderBedrock, ProviderCohere,
		ProviderGoogleAI, ProviderOpenAI, ProviderPerplexity:
		return pt, nil
	}
	return "", errors.Wrapf(ErrUnsupportedProvider, "provider %q", name)
}

// SplitModelID splits a provider model id in "provider/model" form.
// When the prefix is missing, the provider is inferred from the model name.
// Bedrock ids may contain further slashes or colons, which are kept in the model.
func SplitModelID(id string) (ProviderType, string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "", errors.New("empty provider model id")
	}

	if prefix, model, ok := strings.Cut(id, "/"); ok {
		if pt, err := ParseProviderType(prefix); err == nil {
			if model == "" {
				return "", "", errors.Newf("missing model name in %q", id)
			}
			return pt, model, nil
		}
	}

	lower := strings.ToLower(id)
	switch {
	case strings.HasPrefix(lower, "claude"):
		return ProviderAnthropic, id, nil
	case strings.HasPrefix(lower, "gpt"),
		strings.HasPrefix(lower, "o1"),
		strings.HasPrefix(lower, "o3"),
		strings.HasPrefix(lower, "o4"):
		return ProviderOpenAI, id, nil
	case strings.HasPrefix(lower, "gemini"):
		return ProviderGoogleAI, id, nil
	case strings.HasPrefix(lower, "command"):
		return ProviderCohere, id, nil
	}
	return "", "", errors.Wrapf(ErrUnsupportedProvider, "unable to infer provider for %q", id)
}

//go:generate mockgen -destination=../../mocks/mockllms/llms_mock.gen.go -package mockllms github.com/effective-security/llmrelay/pkg/llms Model

// Model is an interface text generation models implement.
type Model interface {
	// GetName returns the configured provider name.
	GetName() string
	// GetProviderType returns the type of provider.
	GetProviderType() ProviderType
	// GenerateContent asks the model to generate content from a sequence of messages.
	// Errors returned by provider clients are *ProviderError.
	GenerateContent(ctx context.Context, messages []Message, options ...CallOption) (*ContentResponse, error)
}
