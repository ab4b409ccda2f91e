package model

import (
	"fmt"
	"time"
)

// Config is the complete factlens configuration
type Config struct {
	Verify   VerifyConfig   `yaml:"verify" mapstructure:"verify"`
	Extract  ExtractConfig  `yaml:"extract" mapstructure:"extract"`
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Embed    EmbedConfig    `yaml:"embed" mapstructure:"embed"`
	Index    IndexConfig    `yaml:"index" mapstructure:"index"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	HTTP     HTTPConfig     `yaml:"http" mapstructure:"http"`
	Feedback FeedbackConfig `yaml:"feedback" mapstructure:"feedback"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// VerifyConfig controls the verification run
type VerifyConfig struct {
	Threshold float64       `yaml:"threshold" mapstructure:"threshold"` // Confidence gate in [0,1]
	TopK      int           `yaml:"top_k" mapstructure:"top_k"`         // Evidence items per query
	Workers   int           `yaml:"workers" mapstructure:"workers"`     // Concurrent adjudications
	Deadline  time.Duration `yaml:"deadline" mapstructure:"deadline"`   // Overall run deadline (0 = none)
}

// ExtractConfig selects the claim and entity extractors
type ExtractConfig struct {
	Mode      string `yaml:"mode" mapstructure:"mode"`             // "llm" or "heuristic"
	MaxClaims int    `yaml:"max_claims" mapstructure:"max_claims"` // Upper bound on claims per text
}

// LLMConfig configures the adjudication backend
type LLMConfig struct {
	Provider    string        `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model       string        `yaml:"model" mapstructure:"model"`
	APIKey      string        `yaml:"-" mapstructure:"api_key"` // Never written to disk
	BaseURL     string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Temperature float32       `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RPS         float64       `yaml:"rps" mapstructure:"rps"` // 0 disables rate limiting
	Burst       int           `yaml:"burst" mapstructure:"burst"`
}

// EmbedConfig configures the embedding backend used for queries and ingestion
type EmbedConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, ollama
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	BatchSize int    `yaml:"batch_size" mapstructure:"batch_size"`
}

// IndexConfig selects and configures the evidence index backend
type IndexConfig struct {
	Backend        string `yaml:"backend" mapstructure:"backend"`                 // memory, pgvector, weaviate
	SnapshotPath   string `yaml:"snapshot_path" mapstructure:"snapshot_path"`     // memory backend
	DSN            string `yaml:"dsn,omitempty" mapstructure:"dsn"`               // pgvector backend
	Table          string `yaml:"table" mapstructure:"table"`                     // pgvector backend
	WeaviateURL    string `yaml:"weaviate_url,omitempty" mapstructure:"weaviate_url"`
	WeaviateClass  string `yaml:"weaviate_class" mapstructure:"weaviate_class"`
	WeaviateAPIKey string `yaml:"-" mapstructure:"weaviate_api_key"`
}

// CacheConfig configures the embedding cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// HTTPConfig configures corpus fetching
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// FeedbackConfig configures where user feedback is recorded
type FeedbackConfig struct {
	Sink string `yaml:"sink" mapstructure:"sink"` // csv or sqlite
	Path string `yaml:"path" mapstructure:"path"`
}

// LogConfig configures logging
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	JSON  bool   `yaml:"json" mapstructure:"json"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Verify: VerifyConfig{
			Threshold: 0.5,
			TopK:      3,
			Workers:   4,
			Deadline:  5 * time.Minute,
		},
		Extract: ExtractConfig{
			Mode:      "llm",
			MaxClaims: 20,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "llama3-8b-8192",
			BaseURL:     "https://api.groq.com/openai/v1",
			Temperature: 0.1,
			MaxTokens:   400,
			Timeout:     30 * time.Second,
			RPS:         0,
			Burst:       1,
		},
		Embed: EmbedConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			BatchSize: 64,
		},
		Index: IndexConfig{
			Backend:       "memory",
			SnapshotPath:  "factlens-index.json",
			Table:         "statements",
			WeaviateClass: "Statement",
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".factlens-cache",
			MemoryTTL: time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		HTTP: HTTPConfig{
			Timeout:      10 * time.Second,
			UserAgent:    "factlens/0.1 (+https://github.com/ppiankov/factlens)",
			MaxBodyBytes: 5_000_000,
		},
		Feedback: FeedbackConfig{
			Sink: "csv",
			Path: "feedback_log.csv",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks values no component can recover from
func (c *Config) Validate() error {
	if c.Verify.Threshold < 0 || c.Verify.Threshold > 1 {
		return fmt.Errorf("%w: verify.threshold must be in [0,1], got %v", ErrConfiguration, c.Verify.Threshold)
	}
	if c.Verify.TopK < 1 {
		return fmt.Errorf("%w: verify.top_k must be >= 1, got %d", ErrConfiguration, c.Verify.TopK)
	}
	if c.Verify.Workers < 1 {
		return fmt.Errorf("%w: verify.workers must be >= 1, got %d", ErrConfiguration, c.Verify.Workers)
	}
	switch c.Index.Backend {
	case "memory", "pgvector", "weaviate":
	default:
		return fmt.Errorf("%w: unknown index backend %q (supported: memory, pgvector, weaviate)", ErrConfiguration, c.Index.Backend)
	}
	switch c.Extract.Mode {
	case "llm", "heuristic":
	default:
		return fmt.Errorf("%w: unknown extract mode %q (supported: llm, heuristic)", ErrConfiguration, c.Extract.Mode)
	}
	return nil
}
