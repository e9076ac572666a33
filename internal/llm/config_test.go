package llm

import "testing"

func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
		"PARLEY_LLM_PROVIDER", "PARLEY_GEMINI_API_KEY", "PARLEY_OPENAI_API_KEY", "PARLEY_OPENAI_MODEL",
		"PARLEY_OPENAI_BASE_URL", "PARLEY_ANTHROPIC_API_KEY", "PARLEY_OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"gemini missing key", Config{Provider: "gemini"}, true},
		{"gemini ok", Config{Provider: "gemini", Gemini: GeminiConfig{APIKey: "k"}}, false},
		{"openai missing key", Config{Provider: "openai"}, true},
		{"anthropic ok", Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "k"}}, false},
		{"openrouter missing", Config{Provider: "openrouter"}, true},
		{"mock", Config{Provider: "mock"}, false},
		{"unknown", Config{Provider: "llama"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("PARLEY_LLM_PROVIDER", "openai")
	t.Setenv("PARLEY_OPENAI_API_KEY", "sk-test")
	t.Setenv("PARLEY_OPENAI_BASE_URL", "http://localhost:8080/v1")

	cfg := ApplyEnv(DefaultConfig())
	if cfg.Provider != "openai" || cfg.OpenAI.APIKey != "sk-test" {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.OpenAI.BaseURL != "http://localhost:8080/v1" {
		t.Fatalf("base url = %q", cfg.OpenAI.BaseURL)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Fatalf("default model lost: %q", cfg.OpenAI.Model)
	}
}

func TestDiscoverConfig(t *testing.T) {
	clearKeyEnv(t)
	if _, ok := DiscoverConfig(DefaultConfig()); ok {
		t.Fatal("nothing should be discovered with no keys")
	}

	t.Setenv("ANTHROPIC_API_KEY", "a")
	t.Setenv("OPENAI_API_KEY", "o")
	cfg, ok := DiscoverConfig(DefaultConfig())
	if !ok || cfg.Provider != "openai" || cfg.OpenAI.APIKey != "o" {
		t.Fatalf("expected openai to win by priority, got %+v", cfg)
	}

	t.Setenv("GOOGLE_API_KEY", "g")
	cfg, _ = DiscoverConfig(DefaultConfig())
	if cfg.Provider != "gemini" || cfg.Gemini.APIKey != "g" {
		t.Fatalf("expected gemini, got %+v", cfg)
	}
}

func TestResolveFallsBack(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("OPENROUTER_API_KEY", "or")

	cfg, err := Resolve(DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != "openrouter" {
		t.Fatalf("provider = %q", cfg.Provider)
	}

	clearKeyEnv(t)
	if _, err := Resolve(DefaultConfig()); err == nil {
		t.Fatal("expected error when no key is available")
	}
}
