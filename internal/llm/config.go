package llm

import (
	"fmt"
	"os"
	"time"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "gemini", "openai", "anthropic", "openrouter", "mock"
	Provider string `yaml:"provider"`

	Gemini     GeminiConfig     `yaml:"gemini"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	OpenRouter OpenRouterConfig `yaml:"openrouter"`
	Retry      RetryConfig      `yaml:"retry"`

	// Timeout bounds a single logical request including retries.
	Timeout time.Duration `yaml:"timeout"`
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"` // Default: "gemini-flash"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`    // Default: "gpt-4o-mini"
	BaseURL string `yaml:"base_url"` // Optional, for compatible APIs.
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"` // Default: "claude-haiku"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"` // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts"`
	InitialWait time.Duration `yaml:"initial_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`

	// PurposeAttempts caps MaxAttempts for individual purposes.
	PurposeAttempts map[string]int `yaml:"purpose_attempts"`
}

// attemptsFor returns the attempt budget for a purpose, never below one.
func (c RetryConfig) attemptsFor(purpose string) int {
	n := c.MaxAttempts
	if v, ok := c.PurposeAttempts[purpose]; ok && v < n {
		n = v
	}
	return max(n, 1)
}

func defaultPurposeAttempts() map[string]int {
	return map[string]int{
		PurposeSuggestions: 1,
		PurposeFollowup:    2,
	}
}

// DefaultConfig returns a Config with sensible defaults. Gemini is the
// default because the conversation prompts were tuned against it.
func DefaultConfig() Config {
	return Config{
		Provider:  "gemini",
		Gemini:    GeminiConfig{Model: "gemini-flash"},
		OpenAI:    OpenAIConfig{Model: "gpt-4o-mini"},
		Anthropic: AnthropicConfig{Model: "claude-haiku"},
		OpenRouter: OpenRouterConfig{
			Model: "google/gemini-2.5-flash",
		},
		Retry: RetryConfig{
			MaxAttempts:     3,
			InitialWait:     1 * time.Second,
			MaxWait:         8 * time.Second,
			Multiplier:      2.0,
			PurposeAttempts: defaultPurposeAttempts(),
		},
		Timeout: 45 * time.Second,
	}
}

// ApplyEnv overrides fields of cfg from PARLEY_* environment variables.
func ApplyEnv(cfg Config) Config {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	set(&cfg.Provider, "PARLEY_LLM_PROVIDER")

	set(&cfg.Gemini.APIKey, "PARLEY_GEMINI_API_KEY")
	set(&cfg.Gemini.Model, "PARLEY_GEMINI_MODEL")

	set(&cfg.OpenAI.APIKey, "PARLEY_OPENAI_API_KEY")
	set(&cfg.OpenAI.Model, "PARLEY_OPENAI_MODEL")
	set(&cfg.OpenAI.BaseURL, "PARLEY_OPENAI_BASE_URL")

	set(&cfg.Anthropic.APIKey, "PARLEY_ANTHROPIC_API_KEY")
	set(&cfg.Anthropic.Model, "PARLEY_ANTHROPIC_MODEL")

	set(&cfg.OpenRouter.APIKey, "PARLEY_OPENROUTER_API_KEY")
	set(&cfg.OpenRouter.Model, "PARLEY_OPENROUTER_MODEL")

	return cfg
}

// DiscoverConfig probes standard API key env vars in priority order
// (Gemini, then Google, OpenAI, Anthropic, OpenRouter) and selects the
// first provider whose key is found. Fields already set in base are kept.
func DiscoverConfig(base Config) (Config, bool) {
	cfg := base

	for _, key := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if k := os.Getenv(key); k != "" {
			cfg.Provider = "gemini"
			cfg.Gemini.APIKey = k
			return cfg, true
		}
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = "openai"
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = "anthropic"
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = "openrouter"
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}

	return base, false
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("PARLEY_GEMINI_API_KEY is required for the gemini provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("PARLEY_OPENAI_API_KEY is required for the openai provider")
		}
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("PARLEY_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("PARLEY_OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
