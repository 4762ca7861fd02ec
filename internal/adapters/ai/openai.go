package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/selivandex/portfolio-digest/internal/adapters/config"
	"github.com/selivandex/portfolio-digest/pkg/logger"
)

// OpenAIProvider implements Provider on the chat completions API
type OpenAIProvider struct {
	client      *openai.Client
	name        string
	model       string
	maxTokens   int
	temperature float32
	enabled     bool
}

// NewOpenAIProvider creates new OpenAI provider
func NewOpenAIProvider(cfg *config.AIProviderConfig) *OpenAIProvider {
	return newChatProvider("openai", cfg, "")
}

func newChatProvider(name string, cfg *config.AIProviderConfig, defaultBaseURL string) *OpenAIProvider {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if defaultBaseURL != "" {
		clientCfg.BaseURL = defaultBaseURL
	}
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(clientCfg),
		name:        name,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
		enabled:     cfg.APIKey != "",
	}
}

func (o *OpenAIProvider) GetName() string {
	return o.name
}

func (o *OpenAIProvider) IsEnabled() bool {
	return o.enabled
}

// Complete sends the prompts as system and user chat messages
func (o *OpenAIProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: userPrompt})

	startTime := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%s API call failed: %w", o.name, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", emptyReply(o.name)
	}

	logger.Debug("chat completion response",
		zap.String("provider", o.name),
		zap.Duration("latency", time.Since(startTime)),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return resp.Choices[0].Message.Content, nil
}
