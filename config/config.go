// Package config loads runtime configuration from the environment and an
// optional yaml file, with working local-development defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the serve and check commands need.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `mapstructure:"addr"`

	// Provider selects the generation backend: "ollama" or "anthropic".
	Provider string `mapstructure:"provider"`

	// CallTimeout bounds each generation invocation.
	CallTimeout time.Duration `mapstructure:"call_timeout"`

	// RatePerMinute limits chat requests per session. 0 disables.
	RatePerMinute int `mapstructure:"rate_per_minute"`

	Ollama    OllamaConfig    `mapstructure:"ollama"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Recall    RecallConfig    `mapstructure:"recall"`
}

// OllamaConfig configures the local Ollama backend.
type OllamaConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`

	// Temperature is used by the response stage; ExtractionTemperature by
	// the extraction stage, which wants more deterministic JSON.
	Temperature           float64 `mapstructure:"temperature"`
	ExtractionTemperature float64 `mapstructure:"extraction_temperature"`
}

// AnthropicConfig configures the Anthropic backend. The API key comes from
// the environment via the SDK.
type AnthropicConfig struct {
	Model                 string  `mapstructure:"model"`
	Temperature           float64 `mapstructure:"temperature"`
	ExtractionTemperature float64 `mapstructure:"extraction_temperature"`
}

// RecallConfig configures semantic recall of past exchanges.
type RecallConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
	MinSimilarity  float64 `mapstructure:"min_similarity"`
	MaxRecalled    int     `mapstructure:"max_recalled"`
}

// Load reads configuration. Environment variables use the MEMOCHAT_ prefix
// with underscores for nesting (MEMOCHAT_OLLAMA_BASE_URL); a memochat.yaml
// in the working directory is honored when present.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("addr", ":3001")
	v.SetDefault("provider", "ollama")
	v.SetDefault("call_timeout", 2*time.Minute)
	v.SetDefault("rate_per_minute", 60)
	v.SetDefault("ollama.base_url", "http://localhost:11434")
	v.SetDefault("ollama.model", "mistral")
	v.SetDefault("ollama.temperature", 0.7)
	v.SetDefault("ollama.extraction_temperature", 0.3)
	v.SetDefault("anthropic.model", "")
	v.SetDefault("anthropic.temperature", 0.7)
	v.SetDefault("anthropic.extraction_temperature", 0.3)
	v.SetDefault("recall.enabled", false)
	v.SetDefault("recall.embedding_model", "nomic-embed-text")
	v.SetDefault("recall.min_similarity", 0.5)
	v.SetDefault("recall.max_recalled", 5)

	v.SetEnvPrefix("MEMOCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("memochat")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Provider != "ollama" && cfg.Provider != "anthropic" {
		return nil, fmt.Errorf("unknown provider %q (ollama, anthropic)", cfg.Provider)
	}
	return &cfg, nil
}
