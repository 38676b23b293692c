package bedrockclient

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmrelay/pkg/llms"
	"github.com/effective-security/x/values"
)

// Ref: https://docs.aws.amazon.com/bedrock/latest/userguide/model-parameters-anthropic-claude-messages.html

type anthropicContent struct {
	// One of: "text"
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicMessage struct {
	// One of: ["user", "assistant"]
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicInput struct {
	AnthropicVersion string              `json:"anthropic_version"`
	MaxTokens        int                 `json:"max_tokens"`
	System           string              `json:"system,omitempty"`
	Messages         []*anthropicMessage `json:"messages"`
	Temperature      *float64            `json:"temperature,omitempty"`
	TopP             float64             `json:"top_p,omitempty"`
	StopSequences    []string            `json:"stop_sequences,omitempty"`
}

type anthropicOutput struct {
	Type       string             `json:"type"`
	Role       string             `json:"role"`
	Content    []anthropicContent `json:"content"`
	StopReason string             `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

const (
	AnthropicLatestVersion = "bedrock-2023-05-31"

	anthropicRoleUser      = "user"
	anthropicRoleAssistant = "assistant"
	anthropicDefaultTokens = 2048
)

func createAnthropicCompletion(ctx context.Context,
	api InvokeModelAPI,
	modelID string,
	messages []Message,
	options llms.CallOptions,
) (*llms.ContentResponse, error) {
	inputMessages, systemPrompt, err := processInputMessagesAnthropic(messages)
	if err != nil {
		return nil, err
	}

	input := anthropicInput{
		AnthropicVersion: AnthropicLatestVersion,
		MaxTokens:        values.NumbersCoalesce(options.MaxTokens, anthropicDefaultTokens),
		System:           systemPrompt,
		Messages:         inputMessages,
		Temperature:      options.Temperature,
		TopP:             options.TopP,
		StopSequences:    options.StopWords,
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	resp, err := api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		Accept:      aws.String("*/*"),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, err
	}

	var output anthropicOutput
	if err = json.Unmarshal(resp.Body, &output); err != nil {
		return nil, errors.Wrap(err, "bedrock: failed to decode anthropic response")
	}

	var text strings.Builder
	for _, c := range output.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}
	if text.Len() == 0 {
		return nil, ErrNoResults
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content:        text.String(),
				StopReason:     output.StopReason,
				GenerationInfo: generationInfo(output.Usage.InputTokens, output.Usage.OutputTokens),
			},
		},
	}, nil
}

// processInputMessagesAnthropic merges consecutive messages with the same role,
// returns the input messages and system prompt.
func processInputMessagesAnthropic(messages []Message) ([]*anthropicMessage, string, error) {
	systemPrompt, rest := splitSystem(messages)

	res := make([]*anthropicMessage, 0, len(rest))
	for _, m := range rest {
		if m.Content == "" {
			continue
		}
		var role string
		switch m.Role {
		case llms.RoleHuman:
			role = anthropicRoleUser
		case llms.RoleAI:
			role = anthropicRoleAssistant
		default:
			return nil, "", errors.WithMessagef(llms.ErrUnexpectedRole, "bedrock: %v", m.Role)
		}

		content := anthropicContent{Type: "text", Text: m.Content}
		if n := len(res); n > 0 && res[n-1].Role == role {
			res[n-1].Content = append(res[n-1].Content, content)
			continue
		}
		res = append(res, &anthropicMessage{Role: role, Content: []anthropicContent{content}})
	}
	if len(res) == 0 {
		return nil, "", errors.New("bedrock: no messages to send")
	}
	return res, systemPrompt, nil
}
