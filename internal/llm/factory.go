package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/parley/internal/logging"
)

// NewProvider creates a Provider from configuration.
// The result is wrapped as caller -> timeout -> retry -> logging -> base.
func NewProvider(ctx context.Context, cfg Config, events EventSink, logger logging.Logger) (Provider, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	var base Provider
	var err error

	switch cfg.Provider {
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	logged := WithLogging(base, cfg.Provider, events, logger)
	return WithTimeout(WithRetry(logged, cfg.Retry, logger), cfg.Timeout), nil
}

// Resolve validates cfg and, when the configured provider has no key,
// falls back to the first provider discoverable from standard env vars.
func Resolve(cfg Config) (Config, error) {
	err := cfg.Validate()
	if err == nil {
		return cfg, nil
	}
	if discovered, ok := DiscoverConfig(cfg); ok {
		return discovered, nil
	}
	return cfg, err
}

// Unconfigured returns a provider whose every call fails with
// ErrProviderUnavailable wrapping cause. It stands in when no provider
// could be built so callers never hold a nil Provider.
func Unconfigured(cause error) Provider {
	return unconfigured{cause: cause}
}

type unconfigured struct {
	cause error
}

func (u unconfigured) Generate(context.Context, Request) (*Response, error) {
	return nil, &ErrProviderUnavailable{Err: u.cause}
}

func (u unconfigured) ModelID() string { return "none" }
