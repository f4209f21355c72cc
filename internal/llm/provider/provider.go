// Package provider builds the configured llm.Client.
package provider

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/batpad/ll-html/internal/config"
	"github.com/batpad/ll-html/internal/llm"
	"github.com/batpad/ll-html/internal/llm/gemini"
	"github.com/batpad/ll-html/internal/llm/openai"
)

// New returns the provider client for cfg wrapped with rate limiting and
// logging. The result is shared by sessions; per-session metering is added
// with llm.Metered.
func New(ctx context.Context, cfg config.ModelConfig, log zerolog.Logger) (llm.Client, error) {
	var base llm.Client
	switch cfg.Provider {
	case "gemini":
		c, err := gemini.New(ctx, cfg.APIKey, cfg.Name)
		if err != nil {
			return nil, fmt.Errorf("provider: gemini: %w", err)
		}
		base = c
	case "openai":
		base = openai.New(cfg.BaseURL, cfg.APIKey, cfg.Name, nil)
	case "groq":
		url := cfg.BaseURL
		if url == "" {
			url = openai.GroqURL
		}
		base = openai.New(url, cfg.APIKey, cfg.Name, nil)
	case "fake":
		base = llm.NewFakeClient()
	default:
		return nil, fmt.Errorf("provider: unknown provider %q", cfg.Provider)
	}
	return llm.Wrap(base,
		llm.WithLogging(log.With().Str("component", "llm").Logger()),
		llm.RateLimit(cfg.RPS, cfg.Burst),
	), nil
}
