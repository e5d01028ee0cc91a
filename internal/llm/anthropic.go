package llm

import "fmt"

const defaultAnthropicURL = "https://api.anthropic.com/v1"

// NewAnthropicProvider creates an Anthropic provider through its
// OpenAI SDK compatible endpoint. That endpoint ignores response_format, so
// JSON output relies on the prompt and ExtractJSONObject.
func NewAnthropicProvider(config Config) (Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultAnthropicURL
	}
	return newChatProvider("anthropic", config, "claude-3-5-sonnet-20241022", false), nil
}
