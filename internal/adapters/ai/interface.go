package ai

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/internal/adapters/config"
	"github.com/selivandex/portfolio-digest/pkg/logger"
)

// Provider represents a text completion backend used for narratives
type Provider interface {
	// Complete sends a system + user prompt and returns the raw text reply
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// GetName returns provider name
	GetName() string

	// IsEnabled returns whether provider is configured
	IsEnabled() bool
}

// NewProviders builds every configured provider in preference order
func NewProviders(ctx context.Context, cfg *config.AIConfig) []Provider {
	var providers []Provider

	for _, name := range cfg.GetEnabledAIProviders() {
		var (
			p   Provider
			err error
		)
		switch name {
		case "openai":
			p = NewOpenAIProvider(&cfg.OpenAI)
		case "claude":
			p = NewClaudeProvider(&cfg.Claude)
		case "gemini":
			p, err = NewGeminiProvider(ctx, &cfg.Gemini)
		case "deepseek":
			p = NewDeepSeekProvider(&cfg.DeepSeek)
		}
		if err != nil {
			logger.Warn("AI provider unavailable", zap.String("provider", name), zap.Error(err))
			continue
		}
		if p != nil {
			providers = append(providers, p)
		}
	}

	return providers
}

// Pick returns the provider named by preference, or the first configured one
// for "auto". Returns nil when narratives should stay heuristic.
func Pick(providers []Provider, preference string) Provider {
	preference = strings.ToLower(strings.TrimSpace(preference))
	if preference == "heuristic" {
		return nil
	}

	for _, p := range providers {
		if !p.IsEnabled() {
			continue
		}
		if preference == "" || preference == "auto" || p.GetName() == preference {
			return p
		}
	}
	return nil
}

func emptyReply(provider string) error {
	return fmt.Errorf("empty response from %s", provider)
}
