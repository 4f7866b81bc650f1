package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/tsaristov/boop-final-prototype/internal/config"
)

// NewClient builds a gateway client from LLM configuration.
func NewClient(ctx context.Context, cfg config.LLMConfig, timeout time.Duration) (Client, error) {
	switch cfg.Provider {
	case "openrouter", "":
		orCfg := DefaultOpenRouterConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			orCfg.BaseURL = cfg.BaseURL
		}
		if cfg.Model != "" {
			orCfg.Model = cfg.Model
		}
		if timeout > 0 {
			orCfg.Timeout = timeout
		}
		return NewOpenRouterClientWithConfig(orCfg), nil

	case "gemini":
		return NewGeminiClient(ctx, GeminiConfig{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: timeout,
		})

	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
}

// FastClient returns a client bound to the cheaper classification model when
// one is configured, falling back to the main client otherwise.
func FastClient(main Client, cfg config.LLMConfig) Client {
	if cfg.FastModel == "" {
		return main
	}
	if sel, ok := main.(ModelSelector); ok {
		return sel.WithModel(cfg.FastModel)
	}
	return main
}
