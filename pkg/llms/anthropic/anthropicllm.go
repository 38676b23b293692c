package anthropic

import (
	"context"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmrelay/pkg/llms"
	"github.com/effective-security/x/values"
	"github.com/tidwall/gjson"
)

// TokenEnvVarName is the environment variable with the API key.
const TokenEnvVarName = "ANTHROPIC_API_KEY" //nolint:gosec

// DefaultBaseURL is the Anthropic API endpoint.
const DefaultBaseURL = "https://api.anthropic.com"

// DefaultMaxTokens is sent when the call does not cap the completion,
// the Messages API requires it.
const DefaultMaxTokens = 4096

// ErrMissingToken is returned when no API key is configured.
var ErrMissingToken = errors.New("anthropic: missing API key, set it in the ANTHROPIC_API_KEY environment variable")

// LLM is a client for the Anthropic Messages API.
type LLM struct {
	Client  *anthropic.Client
	Options llms.ClientOptions
}

var _ llms.Model = (*LLM)(nil)

// New creates a new Anthropic LLM client using the official Anthropic SDK.
// SDK retries are disabled, retries are owned by the HTTP client.
func New(opts ...llms.ClientOption) (*LLM, error) {
	o := llms.NewClientOptions(llms.ClientOptions{BaseURL: DefaultBaseURL}, opts...)
	o.TokenFromEnv(TokenEnvVarName)
	if o.Token == "" {
		return nil, ErrMissingToken
	}

	sdkOpts := []option.RequestOption{
		option.WithAPIKey(o.Token),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(o.Timeout),
		option.WithBaseURL(values.StringsCoalesce(o.BaseURL, DefaultBaseURL)),
	}
	if o.HTTPClient != nil {
		sdkOpts = append(sdkOpts, option.WithHTTPClient(o.HTTPClient))
	}

	client := anthropic.NewClient(sdkOpts...)
	return &LLM{
		Client:  &client,
		Options: o,
	}, nil
}

// GetName implements the Model interface.
func (o *LLM) GetName() string {
	return o.Options.DefaultModel
}

// GetProviderType implements the Model interface.
func (o *LLM) GetProviderType() llms.ProviderType {
	return llms.ProviderAnthropic
}

// GenerateContent implements the Model interface.
func (o *LLM) GenerateContent(ctx context.Context, messages []llms.Message, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(llms.CallOptions{Model: o.Options.DefaultModel}, options...)
	if pe := opts.Check(llms.ProviderAnthropic); pe != nil {
		return nil, pe
	}

	sdkMessages, systemPrompt, err := ProcessMessages(messages)
	if err != nil {
		return nil, llms.NewProviderError(llms.ProviderAnthropic, opts.Model, 0, "", "", err)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(opts.Model),
		Messages:  sdkMessages,
		MaxTokens: values.NumbersCoalesce(int64(opts.MaxTokens), DefaultMaxTokens),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}
	if opts.Temperature != nil {
		params.Temperature = anthropic.Float(*opts.Temperature)
	}
	if opts.TopP > 0 {
		params.TopP = anthropic.Float(opts.TopP)
	}
	if len(opts.StopWords) > 0 {
		params.StopSequences = opts.StopWords
	}

	result, err := o.Client.Messages.New(ctx, params)
	if err != nil {
		return nil, normalizeError(opts.Model, err)
	}

	var choices []*llms.ContentChoice
	for i, block := range result.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			choices = append(choices, &llms.ContentChoice{
				Content:    text.Text,
				StopReason: string(result.StopReason),
				GenerationInfo: map[string]any{
					llms.InfoInputTokens:  result.Usage.InputTokens,
					llms.InfoOutputTokens: result.Usage.OutputTokens,
					llms.InfoTotalTokens:  result.Usage.InputTokens + result.Usage.OutputTokens,
					"ID":                  result.ID,
					"Index":               i,
				},
			})
		}
	}
	if len(choices) == 0 {
		return nil, llms.NewProviderError(llms.ProviderAnthropic, opts.Model, 0, "", "no text content in response", nil).
			WithKind(llms.FailureMalformedResponse)
	}

	return &llms.ContentResponse{Choices: choices}, nil
}

// ProcessMessages converts messages to Anthropic SDK message parameters,
// returning system messages as a separate prompt.
func ProcessMessages(messages []llms.Message) ([]anthropic.MessageParam, string, error) {
	systemPrompt, rest := llms.SplitSystem(messages)
	chatMessages := make([]anthropic.MessageParam, 0, len(rest))
	for _, msg := range rest {
		text := msg.GetContent()
		if text == "" {
			continue
		}
		switch msg.Role {
		case llms.RoleHuman:
			chatMessages = append(chatMessages, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
		case llms.RoleAI:
			chatMessages = append(chatMessages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(text)))
		default:
			return nil, "", errors.WithMessagef(llms.ErrUnexpectedRole, "anthropic: %v", msg.Role)
		}
	}
	if len(chatMessages) == 0 {
		return nil, "", errors.New("anthropic: no messages to send")
	}
	return chatMessages, systemPrompt, nil
}

func normalizeError(model string, err error) *llms.ProviderError {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		raw := apiErr.RawJSON()
		msg := gjson.Get(raw, "error.message").String()
		code := gjson.Get(raw, "error.type").String()
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return llms.NewProviderError(llms.ProviderAnthropic, model, apiErr.StatusCode, code, msg, err)
	}
	return llms.NewProviderError(llms.ProviderAnthropic, model, 0, "", "", err)
}
