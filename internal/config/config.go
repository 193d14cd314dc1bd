// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backend selectors for the activity store.
const (
	StoreSQLite = "sqlite"
	StoreFile   = "file"
)

// Queue mode selectors for webhook processing.
const (
	QueueModeSync   = "sync"
	QueueModeQueued = "queued"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr string

	Store            string
	DBPath           string
	ActivityFilePath string

	GitHubToken   string
	WebhookSecret string
	BaseBranch    string
	HeadBranch    string

	Cooldown          time.Duration
	MaxRequestsPerDay int
	TeamCount         int
	RequestsPerTeam   int

	QueueMode   string
	MinInterval time.Duration

	TokenCeiling     int
	SystemPromptPath string

	LLMBaseURL string
	LLMAPIKey  string
	LLMModels  []string
	LLMTimeout time.Duration

	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	AlertRecipient string
}

// AllowedPerDay returns the effective daily allowance: the global ceiling
// capped by the per-team budget.
func (c *Config) AllowedPerDay() int {
	teamTotal := c.TeamCount * c.RequestsPerTeam
	if teamTotal < c.MaxRequestsPerDay {
		return teamTotal
	}
	return c.MaxRequestsPerDay
}

// AlertingEnabled returns true when an SMTP host is configured. With alerting
// disabled the service still works; operational errors are only logged.
func (c *Config) AlertingEnabled() bool {
	return c.SMTPHost != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. REVIEWGATE_GITHUB_TOKEN, REVIEWGATE_LLM_API_KEY, and
// REVIEWGATE_LLM_MODELS are required; everything else has a default.
func Load() (*Config, error) {
	token := os.Getenv("REVIEWGATE_GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("REVIEWGATE_GITHUB_TOKEN is required")
	}

	llmAPIKey := os.Getenv("REVIEWGATE_LLM_API_KEY")
	if llmAPIKey == "" {
		return nil, fmt.Errorf("REVIEWGATE_LLM_API_KEY is required")
	}

	llmModels := splitList(os.Getenv("REVIEWGATE_LLM_MODELS"))
	if len(llmModels) == 0 {
		return nil, fmt.Errorf("REVIEWGATE_LLM_MODELS is required (comma-separated model identifiers)")
	}

	store := envDefault("REVIEWGATE_STORE", StoreSQLite)
	if store != StoreSQLite && store != StoreFile {
		return nil, fmt.Errorf("REVIEWGATE_STORE has invalid value %q: expected %q or %q", store, StoreSQLite, StoreFile)
	}

	queueMode := envDefault("REVIEWGATE_QUEUE_MODE", QueueModeSync)
	if queueMode != QueueModeSync && queueMode != QueueModeQueued {
		return nil, fmt.Errorf("REVIEWGATE_QUEUE_MODE has invalid value %q: expected %q or %q", queueMode, QueueModeSync, QueueModeQueued)
	}

	cooldown, err := envDuration("REVIEWGATE_COOLDOWN", time.Minute)
	if err != nil {
		return nil, err
	}

	minInterval, err := envDuration("REVIEWGATE_MIN_INTERVAL", 60*time.Second)
	if err != nil {
		return nil, err
	}

	llmTimeout, err := envDuration("REVIEWGATE_LLM_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	maxPerDay, err := envInt("REVIEWGATE_MAX_REQUESTS_PER_DAY", 200)
	if err != nil {
		return nil, err
	}

	teamCount, err := envInt("REVIEWGATE_TEAM_COUNT", 10)
	if err != nil {
		return nil, err
	}

	perTeam, err := envInt("REVIEWGATE_REQUESTS_PER_TEAM", 5)
	if err != nil {
		return nil, err
	}

	tokenCeiling, err := envInt("REVIEWGATE_TOKEN_CEILING", 1_000_000)
	if err != nil {
		return nil, err
	}

	smtpPort, err := envInt("REVIEWGATE_SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}

	return &Config{
		ListenAddr:        envDefault("REVIEWGATE_LISTEN_ADDR", "127.0.0.1:8080"),
		Store:             store,
		DBPath:            envDefault("REVIEWGATE_DB_PATH", "reviewgate.db"),
		ActivityFilePath:  envDefault("REVIEWGATE_ACTIVITY_FILE", "pull_request_activity.json"),
		GitHubToken:       token,
		WebhookSecret:     os.Getenv("REVIEWGATE_WEBHOOK_SECRET"),
		BaseBranch:        envDefault("REVIEWGATE_BASE_BRANCH", "main"),
		HeadBranch:        envDefault("REVIEWGATE_HEAD_BRANCH", "develop"),
		Cooldown:          cooldown,
		MaxRequestsPerDay: maxPerDay,
		TeamCount:         teamCount,
		RequestsPerTeam:   perTeam,
		QueueMode:         queueMode,
		MinInterval:       minInterval,
		TokenCeiling:      tokenCeiling,
		SystemPromptPath:  envDefault("REVIEWGATE_SYSTEM_PROMPT_PATH", "data/systemPrompt.txt"),
		LLMBaseURL:        envDefault("REVIEWGATE_LLM_BASE_URL", "https://openrouter.ai/api/v1/chat/completions"),
		LLMAPIKey:         llmAPIKey,
		LLMModels:         llmModels,
		LLMTimeout:        llmTimeout,
		SMTPHost:          os.Getenv("REVIEWGATE_SMTP_HOST"),
		SMTPPort:          smtpPort,
		SMTPUsername:      os.Getenv("REVIEWGATE_SMTP_USERNAME"),
		SMTPPassword:      os.Getenv("REVIEWGATE_SMTP_PASSWORD"),
		AlertRecipient:    envDefault("REVIEWGATE_SMTP_RECIPIENT", os.Getenv("REVIEWGATE_SMTP_USERNAME")),
	}, nil
}

func envDefault(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid duration %q: %w", key, v, err)
	}
	return parsed, nil
}

func envInt(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s has invalid integer %q: %w", key, v, err)
	}
	return parsed, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
