package googleai

import (
	"context"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmrelay/pkg/llms"
	"github.com/effective-security/x/values"
	"google.golang.org/genai"
)

const (
	RoleModel = "model"
	RoleUser  = "user"
)

// GetName implements the Model interface.
func (g *GoogleAI) GetName() string {
	return g.opts.DefaultModel
}

// GetProviderType implements the Model interface.
func (g *GoogleAI) GetProviderType() llms.ProviderType {
	return llms.ProviderGoogleAI
}

// GenerateContent implements the [llms.Model] interface.
func (g *GoogleAI) GenerateContent(
	ctx context.Context,
	messages []llms.Message,
	options ...llms.CallOption,
) (*llms.ContentResponse, error) {
	opts := llms.NewCallOptions(llms.CallOptions{
		Model:     g.opts.DefaultModel,
		MaxTokens: DefaultMaxTokens,
	}, options...)
	if pe := opts.Check(llms.ProviderGoogleAI); pe != nil {
		return nil, pe
	}

	callCfg := &genai.GenerateContentConfig{
		StopSequences:   opts.StopWords,
		MaxOutputTokens: int32(opts.MaxTokens),
	}
	if opts.Temperature != nil {
		callCfg.Temperature = float32Ptr(*opts.Temperature)
	}
	if opts.TopP > 0 {
		callCfg.TopP = float32Ptr(opts.TopP)
	}
	for _, category := range []genai.HarmCategory{
		genai.HarmCategoryDangerousContent,
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
	} {
		callCfg.SafetySettings = append(callCfg.SafetySettings, &genai.SafetySetting{
			Category:  category,
			Threshold: DefaultHarmThreshold,
		})
	}

	system, history, err := convertMessages(messages)
	if err != nil {
		return nil, llms.NewProviderError(llms.ProviderGoogleAI, opts.Model, 0, "", "", err)
	}
	if system != "" {
		callCfg.SystemInstruction = genai.NewContentFromText(system, RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, opts.Model, history, callCfg)
	if err != nil {
		return nil, normalizeError(opts.Model, err)
	}

	res := convertCandidates(resp.Candidates, resp.UsageMetadata)
	if _, ok := res.FirstContent(); !ok {
		return nil, llms.NewProviderError(llms.ProviderGoogleAI, opts.Model, 0, "", "no content in generation response", nil).
			WithKind(llms.FailureMalformedResponse)
	}
	return res, nil
}

// convertMessages returns the system instruction and the conversation history.
func convertMessages(messages []llms.Message) (string, []*genai.Content, error) {
	system, rest := llms.SplitSystem(messages)
	history := make([]*genai.Content, 0, len(rest))
	for _, m := range rest {
		var role string
		switch m.Role {
		case llms.RoleHuman:
			role = RoleUser
		case llms.RoleAI:
			role = RoleModel
		default:
			return "", nil, errors.WithMessagef(llms.ErrUnexpectedRole, "googleai: %v", m.Role)
		}
		history = append(history, genai.NewContentFromText(m.GetContent(), genai.Role(role)))
	}
	if len(history) == 0 {
		return "", nil, errors.New("googleai: no messages to send")
	}
	return system, history, nil
}

// convertCandidates converts a sequence of genai.Candidate to a response.
func convertCandidates(candidates []*genai.Candidate, usage *genai.GenerateContentResponseUsageMetadata) *llms.ContentResponse {
	var contentResponse llms.ContentResponse
	for _, candidate := range candidates {
		if candidate == nil {
			continue
		}
		var buf strings.Builder
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if part != nil && !part.Thought {
					buf.WriteString(part.Text)
				}
			}
		}

		metadata := make(map[string]any)
		if usage != nil {
			metadata[llms.InfoInputTokens] = usage.PromptTokenCount
			metadata[llms.InfoOutputTokens] = usage.CandidatesTokenCount + usage.ThoughtsTokenCount
			metadata[llms.InfoTotalTokens] = usage.TotalTokenCount
		}

		contentResponse.Choices = append(contentResponse.Choices,
			&llms.ContentChoice{
				Content:        buf.String(),
				StopReason:     string(candidate.FinishReason),
				GenerationInfo: metadata,
			})
	}
	return &contentResponse
}

func normalizeError(model string, err error) *llms.ProviderError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		msg := values.StringsCoalesce(apiErr.Message, http.StatusText(apiErr.Code))
		return llms.NewProviderError(llms.ProviderGoogleAI, model, apiErr.Code, apiErr.Status, msg, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		msg := values.StringsCoalesce(apiErrPtr.Message, http.StatusText(apiErrPtr.Code))
		return llms.NewProviderError(llms.ProviderGoogleAI, model, apiErrPtr.Code, apiErrPtr.Status, msg, err)
	}
	return llms.NewProviderError(llms.ProviderGoogleAI, model, 0, "", "", err)
}

func float32Ptr(f float64) *float32 {
	v := float32(f)
	return &v
}
