package llms

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/values"
)

// ErrUnexpectedRole is returned when a message role is of an unexpected type.
var ErrUnexpectedRole = errors.New("unexpected role")

// Role is the type of chat message.
type Role string

const (
	// RoleAI is a message sent by an AI.
	RoleAI Role = "ai"
	// RoleHuman is a message sent by a human.
	RoleHuman Role = "human"
	// RoleSystem is a message sent by the system.
	RoleSystem Role = "system"
)

// Message is the message sent to a LLM. It has a role and a
// sequence of parts.
type Message struct {
	Role  Role          `json:"role"`
	Parts []ContentPart `json:"parts"`
}

// ContentPart is an interface all parts of content have to implement.
type ContentPart interface {
	isPart()
}

// TextContent is content with some text.
type TextContent struct {
	Text string `json:"text"`
}

func (tc TextContent) String() string {
	return tc.Text
}

func (TextContent) isPart() {}

// TextPart creates TextContent from a given string.
func TextPart(s string) TextContent {
	return TextContent{Text: s}
}

// MessageFromTextParts is a helper function to create a Message with a role and a
// list of text parts.
func MessageFromTextParts(role Role, parts ...string) Message {
	result := Message{
		Role:  role,
		Parts: make([]ContentPart, 0, len(parts)),
	}
	for _, part := range parts {
		result.Parts = append(result.Parts, TextPart(part))
	}
	return result
}

// GetContent returns text parts joined by new line.
func (m Message) GetContent() string {
	var buf strings.Builder
	for i, p := range m.Parts {
		if tc, ok := p.(TextContent); ok {
			if i > 0 {
				buf.WriteString("\n")
			}
			buf.WriteString(tc.Text)
		}
	}
	return buf.String()
}

// SplitSystem returns the concatenated system prompt and the remaining messages.
func SplitSystem(messages []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.GetContent())
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n"), rest
}

// ContentResponse is the response returned by a GenerateContent call.
// It can potentially return multiple content choices.
type ContentResponse struct {
	Choices []*ContentChoice
}

// ContentChoice is one of the response choices returned by GenerateContent
// calls.
type ContentChoice struct {
	// Content is the textual content of a response
	Content string `json:"content"`

	// StopReason is the reason the model stopped generating output.
	StopReason string `json:"stop_reason"`

	// GenerationInfo is arbitrary information the model adds to the response.
	// Token counts are reported as InputTokens, OutputTokens and TotalTokens.
	GenerationInfo map[string]any `json:"generation_info"`
}

// Generation info keys used by all providers.
const (
	InfoInputTokens  = "InputTokens"
	InfoOutputTokens = "OutputTokens"
	InfoTotalTokens  = "TotalTokens"
)

// Usage is the token usage of a single generation.
type Usage struct {
	InputTokens  int64 `json:"input_tokens" yaml:"input_tokens"`
	OutputTokens int64 `json:"output_tokens" yaml:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens" yaml:"total_tokens"`
}

// UsageFromGenerationInfo extracts token usage from a choice GenerationInfo,
// or nil if the provider did not report any.
func UsageFromGenerationInfo(info map[string]any) *Usage {
	if len(info) == 0 {
		return nil
	}
	m := values.MapAny(info)
	u := &Usage{
		InputTokens:  m.Int64(InfoInputTokens),
		OutputTokens: m.Int64(InfoOutputTokens),
		TotalTokens:  m.Int64(InfoTotalTokens),
	}
	if u.InputTokens == 0 && u.OutputTokens == 0 && u.TotalTokens == 0 {
		return nil
	}
	u.TotalTokens = values.NumbersCoalesce(u.TotalTokens, u.InputTokens+u.OutputTokens)
	return u
}

// FirstContent returns the first choice with non-empty content.
func (r *ContentResponse) FirstContent() (*ContentChoice, bool) {
	if r == nil {
		return nil, false
	}
	for _, c := range r.Choices {
		if c != nil && c.Content != "" {
			return c, true
		}
	}
	return nil, false
}
