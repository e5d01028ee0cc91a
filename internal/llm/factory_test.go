package llm

import (
	"testing"

	"github.com/ckwokli/pws/internal/model"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		wantName string
		wantNil  bool
		wantErr  bool
	}{
		{"disabled", Config{}, "", true, false},
		{"openai", Config{Provider: "openai", APIKey: "k"}, "openai", false, false},
		{"openai without key", Config{Provider: "openai"}, "", true, true},
		{"claude alias", Config{Provider: "Claude", APIKey: "k"}, "anthropic", false, false},
		{"ollama", Config{Provider: "ollama"}, "ollama", false, false},
		{"unknown", Config{Provider: "mystery"}, "", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if (provider == nil) != tt.wantNil {
				t.Fatalf("provider = %v, wantNil %v", provider, tt.wantNil)
			}
			if provider != nil && provider.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", provider.Name(), tt.wantName)
			}
		})
	}
}

func TestConfigFromModel(t *testing.T) {
	cfg := ConfigFromModel(model.LLMConfig{Provider: "openai", APIKey: "k"})

	if cfg.Timeout != 30 {
		t.Errorf("Timeout = %d, want default 30", cfg.Timeout)
	}
	if cfg.MaxTokens == 0 {
		t.Error("MaxTokens should default to a positive value")
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"Sure! ```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`},
		{"no json here", ""},
	}
	for _, tt := range tests {
		if got := ExtractJSONObject(tt.in); got != tt.want {
			t.Errorf("ExtractJSONObject(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
