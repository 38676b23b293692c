// Package llmutils provides helpers for sizing and rendering LLM messages and responses.
package llmutils
