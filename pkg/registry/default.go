package registry

// DefaultEntries returns the built-in model table
func DefaultEntries() []*Entry {
	return []*Entry{
		{
			Key:     "claude-3-5-sonnet",
			ModelID: "claude-3-5-sonnet-20241022",
			Name:    "Claude 3.5 Sonnet (Direct)",
			Pricing: &Pricing{InputPerMillion: 3, OutputPerMillion: 15},
		},
		{
			Key:     "claude-3-haiku",
			ModelID: "claude-3-haiku-20240307",
			Name:    "Claude 3 Haiku (Direct)",
			Pricing: &Pricing{InputPerMillion: 0.25, OutputPerMillion: 1.25},
		},
		{
			Key:     "gpt-4o",
			ModelID: "gpt-4o",
			Name:    "GPT-4o",
			Pricing: &Pricing{InputPerMillion: 2.5, OutputPerMillion: 10},
		},
		{
			Key:     "gpt-4o-mini",
			ModelID: "gpt-4o-mini",
			Name:    "GPT-4o Mini",
			Pricing: &Pricing{InputPerMillion: 0.15, OutputPerMillion: 0.6},
		},
		{
			Key:     "gpt-4-turbo",
			ModelID: "gpt-4-turbo",
			Name:    "GPT-4 Turbo",
			Pricing: &Pricing{InputPerMillion: 10, OutputPerMillion: 30},
		},
		{
			Key:     "claude-3-5-sonnet-bedrock",
			ModelID: "bedrock/us.anthropic.claude-3-5-sonnet-20241022-v2:0",
			Name:    "Claude 3.5 Sonnet (Bedrock)",
			Pricing: &Pricing{InputPerMillion: 3, OutputPerMillion: 15},
		},
		{
			Key:     "claude-3-haiku-bedrock",
			ModelID: "bedrock/anthropic.claude-3-haiku-20240307-v1:0",
			Name:    "Claude 3 Haiku (Bedrock)",
			Pricing: &Pricing{InputPerMillion: 0.25, OutputPerMillion: 1.25},
		},
		{
			Key:     "cohere-command-r-plus",
			ModelID: "cohere/command-r-plus",
			Name:    "Cohere Command R+",
			Pricing: &Pricing{InputPerMillion: 2.5, OutputPerMillion: 10},
		},
		{
			Key:     "gemini-1-5-pro",
			ModelID: "gemini/gemini-1.5-pro",
			Name:    "Gemini 1.5 Pro",
			Pricing: &Pricing{InputPerMillion: 1.25, OutputPerMillion: 5},
		},
	}
}

// Default returns a registry with the built-in model table
func Default() *Registry {
	r, err := New(DefaultEntries())
	if err != nil {
		panic(err)
	}
	return r
}
