package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/internal/adapters/config"
	"github.com/selivandex/portfolio-digest/pkg/logger"
)

// ClaudeProvider implements Provider on the Anthropic Messages API
type ClaudeProvider struct {
	client      anthropic.Client
	model       string
	maxTokens   int
	temperature float64
	enabled     bool
}

// NewClaudeProvider creates new Claude provider
func NewClaudeProvider(cfg *config.AIProviderConfig) *ClaudeProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &ClaudeProvider{
		client:      anthropic.NewClient(opts...),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		enabled:     cfg.APIKey != "",
	}
}

func (c *ClaudeProvider) GetName() string {
	return "claude"
}

func (c *ClaudeProvider) IsEnabled() bool {
	return c.enabled
}

// Complete sends the prompt as a single user message
func (c *ClaudeProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(c.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}
	if c.temperature > 0 {
		params.Temperature = anthropic.Float(c.temperature)
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemPrompt},
		}
	}

	startTime := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("Claude API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	logger.Debug("Claude response",
		zap.Duration("latency", time.Since(startTime)),
		zap.Int("chars", text.Len()),
	)

	if text.Len() == 0 {
		return "", emptyReply(c.GetName())
	}
	return text.String(), nil
}
