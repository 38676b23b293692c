package bedrockclient

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmrelay/pkg/llms"
	"github.com/effective-security/x/values"
)

// Ref: https://docs.aws.amazon.com/bedrock/latest/userguide/model-parameters-cohere-command-r-plus.html

type cohereChatMessage struct {
	// One of: ["USER", "CHATBOT"]
	Role    string `json:"role"`
	Message string `json:"message"`
}

type cohereInput struct {
	Message       string              `json:"message"`
	ChatHistory   []cohereChatMessage `json:"chat_history,omitempty"`
	Preamble      string              `json:"preamble,omitempty"`
	MaxTokens     int                 `json:"max_tokens,omitempty"`
	Temperature   *float64            `json:"temperature,omitempty"`
	P             float64             `json:"p,omitempty"`
	StopSequences []string            `json:"stop_sequences,omitempty"`
}

type cohereOutput struct {
	ResponseID   string `json:"response_id"`
	Text         string `json:"text"`
	FinishReason string `json:"finish_reason"`
}

const cohereDefaultTokens = 2048

func createCohereCompletion(ctx context.Context,
	api InvokeModelAPI,
	modelID string,
	messages []Message,
	options llms.CallOptions,
) (*llms.ContentResponse, error) {
	preamble, rest := splitSystem(messages)
	if len(rest) == 0 || rest[len(rest)-1].Role != llms.RoleHuman {
		return nil, errors.New("bedrock: cohere requires the last message from human")
	}

	history := make([]cohereChatMessage, 0, len(rest)-1)
	for _, m := range rest[:len(rest)-1] {
		role := "USER"
		if m.Role == llms.RoleAI {
			role = "CHATBOT"
		}
		history = append(history, cohereChatMessage{Role: role, Message: m.Content})
	}

	input := cohereInput{
		Message:       rest[len(rest)-1].Content,
		ChatHistory:   history,
		Preamble:      preamble,
		MaxTokens:     values.NumbersCoalesce(options.MaxTokens, cohereDefaultTokens),
		Temperature:   options.Temperature,
		P:             options.TopP,
		StopSequences: options.StopWords,
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

	var output cohereOutput
	if err = json.Unmarshal(resp.Body, &output); err != nil {
		return nil, errors.Wrap(err, "bedrock: failed to decode cohere response")
	}
	if output.Text == "" {
		return nil, ErrNoResults
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content:    output.Text,
				StopReason: output.FinishReason,
				GenerationInfo: map[string]any{
					"ID": output.ResponseID,
				},
			},
		},
	}, nil
}
