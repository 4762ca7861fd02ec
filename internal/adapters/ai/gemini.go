package ai

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/selivandex/portfolio-digest/internal/adapters/config"
	"github.com/selivandex/portfolio-digest/pkg/logger"
)

// GeminiProvider implements Provider on the Gemini API
type GeminiProvider struct {
	client      *genai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
}

// NewGeminiProvider creates new Gemini provider
func NewGeminiProvider(ctx context.Context, cfg *config.AIProviderConfig) (*GeminiProvider, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client:      client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: float32(cfg.Temperature),
		timeout:     cfg.Timeout,
	}, nil
}

func (g *GeminiProvider) GetName() string {
	return "gemini"
}

func (g *GeminiProvider) IsEnabled() bool {
	return g.client != nil
}

// Complete sends the user prompt with the system prompt as instruction
func (g *GeminiProvider) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: int32(g.maxTokens),
	}
	if systemPrompt != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	startTime := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(userPrompt), genCfg)
	if err != nil {
		return "", fmt.Errorf("Gemini API call failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", emptyReply(g.GetName())
	}

	text := resp.Text()
	logger.Debug("Gemini response",
		zap.Duration("latency", time.Since(startTime)),
		zap.Int("chars", len(text)),
	)

	if text == "" {
		return "", emptyReply(g.GetName())
	}
	return text, nil
}
