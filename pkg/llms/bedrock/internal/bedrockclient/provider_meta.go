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

// Ref: https://docs.aws.amazon.com/bedrock/latest/userguide/model-parameters-meta.html

type metaInput struct {
	Prompt      string   `json:"prompt"`
	MaxGenLen   int      `json:"max_gen_len,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        float64  `json:"top_p,omitempty"`
}

type metaOutput struct {
	Generation           string `json:"generation"`
	PromptTokenCount     int    `json:"prompt_token_count"`
	GenerationTokenCount int    `json:"generation_token_count"`
	StopReason           string `json:"stop_reason"`
}

const metaDefaultTokens = 2048

func createMetaCompletion(ctx context.Context,
	api InvokeModelAPI,
	modelID string,
	messages []Message,
	options llms.CallOptions,
) (*llms.ContentResponse, error) {
	input := metaInput{
		Prompt:      llama3Prompt(messages),
		MaxGenLen:   values.NumbersCoalesce(options.MaxTokens, metaDefaultTokens),
		Temperature: options.Temperature,
		TopP:        options.TopP,
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

	var output metaOutput
	if err = json.Unmarshal(resp.Body, &output); err != nil {
		return nil, errors.Wrap(err, "bedrock: failed to decode meta response")
	}
	if output.Generation == "" {
		return nil, ErrNoResults
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content:        output.Generation,
				StopReason:     output.StopReason,
				GenerationInfo: generationInfo(output.PromptTokenCount, output.GenerationTokenCount),
			},
		},
	}, nil
}

// llama3Prompt renders messages with the Llama 3 chat template.
func llama3Prompt(messages []Message) string {
	var sb strings.Builder
	sb.WriteString("<|begin_of_text|>")
	for _, m := range messages {
		role := "user"
		switch m.Role {
		case llms.RoleSystem:
			role = "system"
		case llms.RoleAI:
			role = "assistant"
		}
		sb.WriteString("<|start_header_id|>")
		sb.WriteString(role)
		sb.WriteString("<|end_header_id|>\n\n")
		sb.WriteString(m.Content)
		sb.WriteString("<|eot_id|>")
	}
	sb.WriteString("<|start_header_id|>assistant<|end_header_id|>\n\n")
	return sb.String()
}
