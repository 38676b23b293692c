// Package llms defines the provider-agnostic surface used by llmrelay to talk
// to language models: the Model interface, plain text messages, call options,
// token usage and the normalized ProviderError every provider client returns.
//
// Provider implementations live in subpackages (anthropic, openai, bedrock,
// googleai). The internal directories within these subpackages contain
// provider-specific request and response types.
package llms
