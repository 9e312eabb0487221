package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/orcha/server/timezone"
)

// Profile is the configuration to start the engine.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Data is the data directory
	Data string
	// Driver is the calendar storage driver (file, sqlite, postgres or memory)
	Driver string
	// DSN points to where the driver stores calendars.
	// For the file driver it is the calendar directory.
	DSN string
	// Version is the current version of the engine
	Version string

	LogLevel  string
	LogFormat string

	// ReminderInterval is how often the due-reminder sweep runs.
	ReminderInterval time.Duration
	// ReminderLookahead is how far ahead of an event a reminder becomes due.
	ReminderLookahead time.Duration
	// PruneDays is the age after which events are removed by the prune pass.
	PruneDays int
	// UpcomingDays is the default horizon for upcoming-event queries.
	UpcomingDays int
	// Timezone is the IANA zone of the reference clock; empty means local.
	Timezone string

	// AI Configuration
	AIEnabled          bool    // ORCHA_AI_ENABLED
	AILLMProvider      string  // ORCHA_AI_LLM_PROVIDER (default: openai)
	AIOpenAIAPIKey     string  // ORCHA_AI_OPENAI_API_KEY
	AIOpenAIBaseURL    string  // ORCHA_AI_OPENAI_BASE_URL (default: https://api.openai.com/v1)
	AIDeepSeekAPIKey   string  // ORCHA_AI_DEEPSEEK_API_KEY
	AIDeepSeekBaseURL  string  // ORCHA_AI_DEEPSEEK_BASE_URL (default: https://api.deepseek.com)
	AIOllamaBaseURL    string  // ORCHA_AI_OLLAMA_BASE_URL (default: http://localhost:11434/v1)
	AILLMModel         string  // ORCHA_AI_LLM_MODEL (default: gpt-4o-mini)
	AIRequestsPerMin   float64 // ORCHA_AI_REQUESTS_PER_MINUTE (default: 6)
}

// Defaults for the scheduling knobs.
const (
	DefaultReminderInterval  = time.Minute
	DefaultReminderLookahead = 30 * time.Minute
	DefaultPruneDays         = 30
	DefaultUpcomingDays      = 7
)

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI is enabled and the selected provider is reachable with the given settings.
func (p *Profile) IsAIEnabled() bool {
	if !p.AIEnabled {
		return false
	}
	switch p.AILLMProvider {
	case "deepseek":
		return p.AIDeepSeekAPIKey != ""
	case "ollama":
		return p.AIOllamaBaseURL != ""
	default:
		return p.AIOpenAIAPIKey != ""
	}
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads the AI configuration from ORCHA_AI_* environment variables.
func (p *Profile) FromEnv() {
	p.AIEnabled = os.Getenv("ORCHA_AI_ENABLED") == "true"
	p.AILLMProvider = getEnvOrDefault("ORCHA_AI_LLM_PROVIDER", "openai")
	p.AIOpenAIAPIKey = os.Getenv("ORCHA_AI_OPENAI_API_KEY")
	p.AIOpenAIBaseURL = getEnvOrDefault("ORCHA_AI_OPENAI_BASE_URL", "https://api.openai.com/v1")
	p.AIDeepSeekAPIKey = os.Getenv("ORCHA_AI_DEEPSEEK_API_KEY")
	p.AIDeepSeekBaseURL = getEnvOrDefault("ORCHA_AI_DEEPSEEK_BASE_URL", "https://api.deepseek.com")
	p.AIOllamaBaseURL = getEnvOrDefault("ORCHA_AI_OLLAMA_BASE_URL", "http://localhost:11434/v1")
	p.AILLMModel = getEnvOrDefault("ORCHA_AI_LLM_MODEL", "gpt-4o-mini")

	p.AIRequestsPerMin = 6
	if v := os.Getenv("ORCHA_AI_REQUESTS_PER_MINUTE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			p.AIRequestsPerMin = f
		} else {
			slog.Warn("ignoring invalid ORCHA_AI_REQUESTS_PER_MINUTE", slog.String("value", v))
		}
	}
}

func checkDataDir(dataDir string) (string, error) {
	absDir, err := filepath.Abs(dataDir)
	if err != nil {
		return "", errors.Wrapf(err, "unable to resolve data folder %s", dataDir)
	}

	// Trim trailing \ or / in case user supplies
	absDir = strings.TrimRight(absDir, "\\/")
	if err := os.MkdirAll(absDir, 0770); err != nil {
		return "", errors.Wrapf(err, "unable to create data folder %s", absDir)
	}
	if _, err := os.Stat(absDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", absDir)
	}
	return absDir, nil
}

// Validate normalizes the profile, creating the data directory and deriving the DSN when unset.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}
	if p.Driver == "" {
		p.Driver = "file"
	}
	if p.ReminderInterval <= 0 {
		p.ReminderInterval = DefaultReminderInterval
	}
	if p.ReminderLookahead <= 0 {
		p.ReminderLookahead = DefaultReminderLookahead
	}
	if p.PruneDays <= 0 {
		p.PruneDays = DefaultPruneDays
	}
	if p.UpcomingDays <= 0 {
		p.UpcomingDays = DefaultUpcomingDays
	}
	if !timezone.IsValidTimezone(p.Timezone) {
		return errors.Errorf("unknown timezone %q", p.Timezone)
	}

	// The memory driver keeps nothing on disk.
	if p.Driver == "memory" {
		return nil
	}

	if p.Data == "" {
		if p.Mode == "prod" {
			p.Data = "/var/opt/orcha"
		} else {
			p.Data = "./data"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.DSN == "" {
		switch p.Driver {
		case "sqlite":
			p.DSN = filepath.Join(dataDir, fmt.Sprintf("orcha_%s.db", p.Mode))
		case "file":
			p.DSN = filepath.Join(dataDir, "calendar")
		case "postgres":
			return errors.New("postgres driver requires a DSN")
		}
	}

	return nil
}
