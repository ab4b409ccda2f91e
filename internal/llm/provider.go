package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ppiankov/factlens/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one prompt and returns the raw response text
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// CompletionRequest is a single-turn prompt
type CompletionRequest struct {
	Prompt string

	// System is an optional system message
	System string

	// Model overrides the configured model
	Model string

	// Temperature and MaxTokens fall back to the provider config when zero
	Temperature float32
	MaxTokens   int

	// JSONMode asks the backend to emit a JSON object, where supported
	JSONMode bool
}

// CompletionResponse is the raw model output
type CompletionResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI-compatible endpoints and Anthropic
	APIKey string

	// BaseURL for custom endpoints (Groq, Ollama, proxies)
	BaseURL string

	Temperature float32
	MaxTokens   int

	// Timeout bounds every call
	Timeout time.Duration

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string

	Logger *log.Logger
}

// DefaultConfig returns the adjudication defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "openai",
		Model:       "llama3-8b-8192",
		BaseURL:     "https://api.groq.com/openai/v1",
		Temperature: 0.1,
		MaxTokens:   400,
		Timeout:     30 * time.Second,
	}
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Timeout
}

// resolve fills zero request fields from the provider config
func (c Config) resolve(req CompletionRequest, fallbackModel string) CompletionRequest {
	if req.Model == "" {
		req.Model = c.Model
	}
	if req.Model == "" {
		req.Model = fallbackModel
	}
	if req.Temperature == 0 {
		req.Temperature = c.Temperature
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.MaxTokens
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = 400
	}
	return req
}

// classify maps a call failure onto the adjudication error kinds
func classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s: %w", model.ErrAdjudicationTimeout, provider, err)
	}
	return fmt.Errorf("%w: %s: %w", model.ErrAdjudicationTransport, provider, err)
}
