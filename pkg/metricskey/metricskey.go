package metricskey

import "github.com/effective-security/metrics"

// Stats
var (
	// StatsFallbackAttempts is base for counter metric for model attempts
	StatsFallbackAttempts = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_fallback_attempts",
		Help:         "stats_fallback_attempts provides total model attempts by outcome",
		RequiredTags: []string{"model", "outcome"},
	}

	StatsFallbackExhausted = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_fallback_exhausted",
		Help:         "stats_fallback_exhausted provides total requests where all models failed",
		RequiredTags: []string{"primary"},
	}

	StatsFallbackRecovered = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_fallback_recovered",
		Help:         "stats_fallback_recovered provides total requests served by a fallback model",
		RequiredTags: []string{"primary", "model"},
	}

	StatsLLMBytesSent = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_bytes_sent",
		Help:         "stats_llm_bytes_sent provides total bytes sent to LLM",
		RequiredTags: []string{"provider", "model"},
	}

	StatsLLMBytesReceived = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_bytes_received",
		Help:         "stats_llm_bytes_received provides total bytes received from LLM",
		RequiredTags: []string{"provider", "model"},
	}

	StatsLLMInputTokens = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_input_tokens",
		Help:         "stats_llm_input_tokens provides total input tokens sent to LLM",
		RequiredTags: []string{"provider", "model"},
	}

	StatsLLMOutputTokens = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_output_tokens",
		Help:         "stats_llm_output_tokens provides total output tokens received from LLM",
		RequiredTags: []string{"provider", "model"},
	}

	StatsLLMTotalTokens = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_total_tokens",
		Help:         "stats_llm_total_tokens provides total tokens sent and received from LLM",
		RequiredTags: []string{"provider", "model"},
	}

	StatsProviderErrors = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_provider_errors",
		Help:         "stats_provider_errors provides total provider call failures by kind",
		RequiredTags: []string{"provider", "kind"},
	}
)

// Perf
var (
	PerfFallbackAttempt = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_fallback_attempt",
		Help:         "perf_fallback_attempt provides duration of a single model attempt",
		RequiredTags: []string{"model"},
	}

	PerfFallbackExecute = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_fallback_execute",
		Help:         "perf_fallback_execute provides duration of a fallback execution",
		RequiredTags: []string{"primary"},
	}
)

// Metrics returns slice of metrics from this repo
// keep sorted by name
var Metrics = []*metrics.Describe{
	&PerfFallbackAttempt,
	&PerfFallbackExecute,
	&StatsFallbackAttempts,
	&StatsFallbackExhausted,
	&StatsFallbackRecovered,
	&StatsLLMBytesReceived,
	&StatsLLMBytesSent,
	&StatsLLMInputTokens,
	&StatsLLMOutputTokens,
	&StatsLLMTotalTokens,
	&StatsProviderErrors,
}
