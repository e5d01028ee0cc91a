package llm

import "strings"

const defaultOllamaURL = "http://localhost:11434"

// NewOllamaProvider creates a provider for a local Ollama server through its
// OpenAI-compatible endpoint. No API key is needed.
func NewOllamaProvider(config Config) (Provider, error) {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}
	config.BaseURL = baseURL

	if config.APIKey == "" {
		config.APIKey = "ollama"
	}
	return newChatProvider("ollama", config, "llama3.2", true), nil
}
