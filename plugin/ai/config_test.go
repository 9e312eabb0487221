package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hrygo/orcha/internal/profile"
)

func TestNewConfigFromProfile(t *testing.T) {
	tests := []struct {
		name        string
		profile     *profile.Profile
		wantEnabled bool
		wantKey     string
		wantURL     string
	}{
		{
			name:    "disabled",
			profile: &profile.Profile{AIEnabled: false, AIOpenAIAPIKey: "k"},
		},
		{
			name:    "enabled without key",
			profile: &profile.Profile{AIEnabled: true, AILLMProvider: "openai"},
		},
		{
			name: "openai",
			profile: &profile.Profile{
				AIEnabled:        true,
				AILLMProvider:    "openai",
				AIOpenAIAPIKey:   "sk-test",
				AIOpenAIBaseURL:  "https://api.openai.com/v1",
				AILLMModel:       "gpt-4o-mini",
				AIRequestsPerMin: 6,
			},
			wantEnabled: true,
			wantKey:     "sk-test",
			wantURL:     "https://api.openai.com/v1",
		},
		{
			name: "deepseek",
			profile: &profile.Profile{
				AIEnabled:         true,
				AILLMProvider:     "deepseek",
				AIDeepSeekAPIKey:  "ds-key",
				AIDeepSeekBaseURL: "https://api.deepseek.com",
			},
			wantEnabled: true,
			wantKey:     "ds-key",
			wantURL:     "https://api.deepseek.com",
		},
		{
			name: "ollama",
			profile: &profile.Profile{
				AIEnabled:       true,
				AILLMProvider:   "ollama",
				AIOllamaBaseURL: "http://localhost:11434/v1",
			},
			wantEnabled: true,
			wantURL:     "http://localhost:11434/v1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfigFromProfile(tt.profile)
			assert.Equal(t, tt.wantEnabled, cfg.Enabled)
			assert.NoError(t, cfg.Validate())
			if !tt.wantEnabled {
				return
			}
			assert.Equal(t, tt.profile.AILLMProvider, cfg.LLM.Provider)
			assert.Equal(t, tt.wantKey, cfg.LLM.APIKey)
			assert.Equal(t, tt.wantURL, cfg.LLM.BaseURL)
			assert.Equal(t, tt.profile.AIRequestsPerMin, cfg.LLM.RequestsPerMinute)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, (&Config{}).Validate())
	assert.Error(t, (&Config{Enabled: true}).Validate())
	assert.Error(t, (&Config{Enabled: true, LLM: LLMConfig{Provider: "openai"}}).Validate())
	assert.NoError(t, (&Config{Enabled: true, LLM: LLMConfig{Provider: "ollama"}}).Validate())
}
