package llmutils

import (
	"encoding/json"
	"strings"

	"github.com/effective-security/llmrelay/pkg/llms"
	"gopkg.in/yaml.v3"
)

// ToJSONIndent returns val as tab indented JSON, or empty string if it cannot be encoded.
func ToJSONIndent(val any) string {
	js, _ := json.MarshalIndent(val, "", "\t")
	return string(js)
}

// ToYAML returns val as YAML, or empty string if it cannot be encoded.
func ToYAML(val any) string {
	y, _ := yaml.Marshal(val)
	return string(y)
}

// EnsureEndsWithNewline returns s with exactly one trailing newline
func EnsureEndsWithNewline(s string) string {
	return strings.TrimRight(s, "\n") + "\n"
}

// CountMessagesContentSize returns the bytes sent for the messages, roles included.
func CountMessagesContentSize(msgs []llms.Message) uint64 {
	var size int
	for _, m := range msgs {
		size += len(m.Role) + len(m.GetContent())
	}
	return uint64(size)
}

// CountResponseContentSize returns the bytes of content received in all choices.
func CountResponseContentSize(resp *llms.ContentResponse) uint64 {
	if resp == nil {
		return 0
	}
	var size int
	for _, choice := range resp.Choices {
		size += len(choice.Content)
	}
	return uint64(size)
}
