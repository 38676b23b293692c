package bedrockclient

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmrelay/pkg/llms"
)

// InvokeModelAPI is the subset of the Bedrock runtime client used for completions.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Client is a Bedrock client.
type Client struct {
	api InvokeModelAPI
}

// Message is a chunk of text that will be sent to the provider.
//
// The provider may then transform the message to its own
// format before sending it to the LLM model API.
type Message struct {
	Role    llms.Role
	Content string
}

// ErrUnsupportedModel is returned for model families without a request encoder.
var ErrUnsupportedModel = errors.New("bedrock: unsupported model provider")

// ErrNoResults is returned when the model returned no text.
var ErrNoResults = errors.New("bedrock: no results")

// modelFamily returns the model vendor of a Bedrock model id,
// skipping the region prefix of inference profiles such as "us.anthropic.claude-...".
func modelFamily(modelID string) string {
	family, rest, ok := strings.Cut(modelID, ".")
	if ok && len(family) == 2 && strings.ToLower(family) == family {
		family, _, _ = strings.Cut(rest, ".")
	}
	return family
}

type completer func(ctx context.Context, api InvokeModelAPI, modelID string, messages []Message, options llms.CallOptions) (*llms.ContentResponse, error)

// completers encode requests and decode responses per model family
var completers = map[string]completer{
	"anthropic": createAnthropicCompletion,
	"cohere":    createCohereCompletion,
	"meta":      createMetaCompletion,
}

// NewClient creates a new Bedrock client.
func NewClient(api InvokeModelAPI) *Client {
	return &Client{
		api: api,
	}
}

// CreateCompletion creates a new completion response from the provider
// after sending the messages to the provider.
func (c *Client) CreateCompletion(ctx context.Context,
	modelID string,
	messages []Message,
	options llms.CallOptions,
) (*llms.ContentResponse, error) {
	family := modelFamily(modelID)
	create, ok := completers[family]
	if !ok {
		return nil, errors.WithMessagef(ErrUnsupportedModel, "%q", family)
	}
	return create(ctx, c.api, modelID, messages, options)
}

func splitSystem(messages []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == llms.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n"), rest
}

func generationInfo(in, out int) map[string]any {
	return map[string]any{
		llms.InfoInputTokens:  in,
		llms.InfoOutputTokens: out,
		llms.InfoTotalTokens:  in + out,
	}
}
