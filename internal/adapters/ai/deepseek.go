package ai

import "github.com/selivandex/portfolio-digest/internal/adapters/config"

const deepseekBaseURL = "https://api.deepseek.com/v1"

// NewDeepSeekProvider creates a DeepSeek provider; its API is OpenAI-compatible
func NewDeepSeekProvider(cfg *config.AIProviderConfig) *OpenAIProvider {
	return newChatProvider("deepseek", cfg, deepseekBaseURL)
}
