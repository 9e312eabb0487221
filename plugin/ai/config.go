package ai

import (
	"errors"
	"time"

	"github.com/hrygo/orcha/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	Enabled bool

	LLM LLMConfig
}

// LLMConfig represents LLM configuration.
type LLMConfig struct {
	Provider    string // deepseek, openai, ollama
	Model       string // gpt-4o-mini
	APIKey      string
	BaseURL     string
	MaxTokens   int           // default: 512
	Temperature float32       // default: 0.7
	Timeout     time.Duration // per request, default: 30s
	MaxRetries  int           // default: 2 attempts in total
	RetryDelay  time.Duration // default: 2s

	// RequestsPerMinute bounds LLM calls per user; 0 disables the limit.
	RequestsPerMinute float64
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.IsAIEnabled(),
	}

	if !cfg.Enabled {
		return cfg
	}

	cfg.LLM = LLMConfig{
		Provider:          p.AILLMProvider,
		Model:             p.AILLMModel,
		MaxTokens:         512,
		Temperature:       0.7,
		Timeout:           30 * time.Second,
		MaxRetries:        2,
		RetryDelay:        2 * time.Second,
		RequestsPerMinute: p.AIRequestsPerMin,
	}

	switch p.AILLMProvider {
	case "deepseek":
		cfg.LLM.APIKey = p.AIDeepSeekAPIKey
		cfg.LLM.BaseURL = p.AIDeepSeekBaseURL
	case "openai":
		cfg.LLM.APIKey = p.AIOpenAIAPIKey
		cfg.LLM.BaseURL = p.AIOpenAIBaseURL
	case "ollama":
		cfg.LLM.BaseURL = p.AIOllamaBaseURL
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.LLM.Provider == "" {
		return errors.New("LLM provider is required")
	}

	if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}

	return nil
}
