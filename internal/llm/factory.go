package llm

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ppiankov/factlens/internal/model"
	"github.com/ppiankov/factlens/internal/worker"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai", "groq":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("%w: unknown LLM provider: %q (supported: openai, anthropic, ollama)", model.ErrConfiguration, config.Provider)
	}
}

// ConfigFromModel converts the application config into a provider config
func ConfigFromModel(llmConfig model.LLMConfig, httpConfig model.HTTPConfig, logger *log.Logger) Config {
	return Config{
		Provider:    llmConfig.Provider,
		Model:       llmConfig.Model,
		APIKey:      llmConfig.APIKey,
		BaseURL:     llmConfig.BaseURL,
		Temperature: llmConfig.Temperature,
		MaxTokens:   llmConfig.MaxTokens,
		Timeout:     llmConfig.Timeout,
		HTTPProxy:   httpConfig.HTTPProxy,
		HTTPSProxy:  httpConfig.HTTPSProxy,
		NoProxy:     httpConfig.NoProxy,
		Logger:      logger,
	}
}

// FromModel builds the configured provider, rate limited when llm.rps is set
func FromModel(llmConfig model.LLMConfig, httpConfig model.HTTPConfig, logger *log.Logger) (Provider, error) {
	provider, err := NewProvider(ConfigFromModel(llmConfig, httpConfig, logger))
	if err != nil {
		return nil, err
	}
	if llmConfig.RPS > 0 {
		provider = NewRateLimited(provider, worker.NewLimiter(llmConfig.RPS, llmConfig.Burst))
	}
	return provider, nil
}
