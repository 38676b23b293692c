package openai

import (
	"context"
	"net/http"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmrelay/pkg/llms"
	"github.com/effective-security/x/values"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
)

const (
	tokenEnvVarName        = "OPENAI_API_KEY"      //nolint:gosec
	baseURLEnvVarName      = "OPENAI_BASE_URL"     //nolint:gosec
	organizationEnvVarName = "OPENAI_ORGANIZATION" //nolint:gosec
)

const (
	// DefaultAPIVersion is the Azure OpenAI API version.
	DefaultAPIVersion = "2024-10-21"

	DefaultOpenAIBaseURL     = "https://api.openai.com/v1"
	DefaultCohereBaseURL     = "https://api.cohere.ai/compatibility/v1"
	DefaultPerplexityBaseURL = "https://api.perplexity.ai"
)

// ErrMissingToken is returned when no API key is configured.
var ErrMissingToken = errors.New("openai: missing API key")

// LLM is a client for OpenAI and OpenAI compatible chat completion APIs:
// Azure OpenAI, the Cohere compatibility API and Perplexity.
type LLM struct {
	Client   *openai.Client
	provider llms.ProviderType
	model    string
}

var _ llms.Model = (*LLM)(nil)

// New returns a new LLM for the OpenAI compatible provider.
// The OpenAI environment variables are only consulted for OpenAI and Azure.
// SDK retries are disabled, retries are owned by the HTTP client.
func New(provider llms.ProviderType, opts ...llms.ClientOption) (*LLM, error) {
	o := llms.NewClientOptions(llms.ClientOptions{APIVersion: DefaultAPIVersion}, opts...)
	if provider == llms.ProviderOpenAI || provider == llms.ProviderAzure {
		o.TokenFromEnv(tokenEnvVarName)
	}
	if o.Token == "" {
		return nil, errors.WithMessagef(ErrMissingToken, "provider %s", provider)
	}

	sdkOpts := []option.RequestOption{
		option.WithMaxRetries(0),
		option.WithRequestTimeout(o.Timeout),
	}
	if o.HTTPClient != nil {
		sdkOpts = append(sdkOpts, option.WithHTTPClient(o.HTTPClient))
	}

	switch provider {
	case llms.ProviderAzure:
		if o.BaseURL == "" {
			return nil, errors.New("openai: base URL is required for Azure")
		}
		sdkOpts = append(sdkOpts,
			azure.WithEndpoint(o.BaseURL, o.APIVersion),
			azure.WithAPIKey(o.Token),
		)
	case llms.ProviderOpenAI:
		sdkOpts = append(sdkOpts,
			option.WithAPIKey(o.Token),
			option.WithBaseURL(values.StringsCoalesce(o.BaseURL, os.Getenv(baseURLEnvVarName), DefaultOpenAIBaseURL)),
		)
		if org := values.StringsCoalesce(o.Organization, os.Getenv(organizationEnvVarName)); org != "" {
			sdkOpts = append(sdkOpts, option.WithOrganization(org))
		}
	case llms.ProviderCohere, llms.ProviderPerplexity:
		sdkOpts = append(sdkOpts,
			option.WithAPIKey(o.Token),
			option.WithBaseURL(values.StringsCoalesce(o.BaseURL, defaultBaseURL(provider))),
		)
	default:
		return nil, errors.Wrapf(llms.ErrUnsupportedProvider, "openai: %s", provider)
	}

	client := openai.NewClient(sdkOpts...)
	return &LLM{
		Client:   &client,
		provider: provider,
		model:    o.DefaultModel,
	}, nil
}

func defaultBaseURL(provider llms.ProviderType) string {
	switch provider {
	case llms.ProviderCohere:
		return DefaultCohereBaseURL
	case llms.ProviderPerplexity:
		return DefaultPerplexityBaseURL
	}
	return DefaultOpenAIBaseURL
}

// GetName implements the Model interface.
func (o *LLM) GetName() string {
	return o.model
}

// GetProviderType implements the Model interface.
func (o *LLM) GetProviderType() llms.ProviderType {
	return o.provider
}

// GenerateContent implements the Model interface.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(llms.CallOptions{Model: o.model}, options...)
	if pe := opts.Check(o.provider); pe != nil {
		return nil, pe
	}

	chatMessages, err := toChatMessages(messages)
	if err != nil {
		return nil, llms.NewProviderError(o.provider, opts.Model, 0, "", "", err)
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(opts.Model),
		Messages: chatMessages,
	}
	if opts.MaxTokens > 0 {
		switch o.provider {
		case llms.ProviderOpenAI, llms.ProviderAzure:
			params.MaxCompletionTokens = openai.Int(int64(opts.MaxTokens))
		default:
			params.MaxTokens = openai.Int(int64(opts.MaxTokens))
		}
	}
	if opts.Temperature != nil {
		params.Temperature = openai.Float(*opts.Temperature)
	}
	if opts.TopP > 0 {
		params.TopP = openai.Float(opts.TopP)
	}
	if len(opts.StopWords) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: opts.StopWords}
	}

	result, err := o.Client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, o.normalizeError(opts.Model, err)
	}

	choices := make([]*llms.ContentChoice, 0, len(result.Choices))
	for i, c := range result.Choices {
		choices = append(choices, &llms.ContentChoice{
			Content:    c.Message.Content,
			StopReason: c.FinishReason,
			GenerationInfo: map[string]any{
				llms.InfoInputTokens:  result.Usage.PromptTokens,
				llms.InfoOutputTokens: result.Usage.CompletionTokens,
				llms.InfoTotalTokens:  result.Usage.TotalTokens,
				"ID":                  result.ID,
				"Index":               i,
			},
		})
	}
	if len(choices) == 0 {
		return nil, llms.NewProviderError(o.provider, opts.Model, 0, "", "no choices in response", nil).
			WithKind(llms.FailureMalformedResponse)
	}

	return &llms.ContentResponse{Choices: choices}, nil
}

func toChatMessages(messages []llms.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	res := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		text := msg.GetContent()
		switch msg.Role {
		case llms.RoleSystem:
			res = append(res, openai.SystemMessage(text))
		case llms.RoleHuman:
			res = append(res, openai.UserMessage(text))
		case llms.RoleAI:
			res = append(res, openai.AssistantMessage(text))
		default:
			return nil, errors.WithMessagef(llms.ErrUnexpectedRole, "openai: %v", msg.Role)
		}
	}
	if len(res) == 0 {
		return nil, errors.New("openai: no messages to send")
	}
	return res, nil
}

func (o *LLM) normalizeError(model string, err error) *llms.ProviderError {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := values.StringsCoalesce(apiErr.Message, http.StatusText(apiErr.StatusCode))
		return llms.NewProviderError(o.provider, model, apiErr.StatusCode, apiErr.Code, msg, err)
	}
	return llms.NewProviderError(o.provider, model, 0, "", "", err)
}
