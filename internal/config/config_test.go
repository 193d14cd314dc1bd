package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewgate/reviewgate/internal/config"
)

// setRequired populates the env vars Load refuses to start without.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("REVIEWGATE_GITHUB_TOKEN", "ghp_test")
	t.Setenv("REVIEWGATE_LLM_API_KEY", "sk-test")
	t.Setenv("REVIEWGATE_LLM_MODELS", "model-a, model-b")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, config.StoreSQLite, cfg.Store)
	assert.Equal(t, "reviewgate.db", cfg.DBPath)
	assert.Equal(t, "main", cfg.BaseBranch)
	assert.Equal(t, "develop", cfg.HeadBranch)
	assert.Equal(t, time.Minute, cfg.Cooldown)
	assert.Equal(t, 60*time.Second, cfg.MinInterval)
	assert.Equal(t, config.QueueModeSync, cfg.QueueMode)
	assert.Equal(t, 1_000_000, cfg.TokenCeiling)
	assert.Equal(t, []string{"model-a", "model-b"}, cfg.LLMModels)
	assert.Equal(t, 50, cfg.AllowedPerDay())
	assert.False(t, cfg.AlertingEnabled())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("REVIEWGATE_LISTEN_ADDR", "0.0.0.0:9000")
	t.Setenv("REVIEWGATE_STORE", "file")
	t.Setenv("REVIEWGATE_QUEUE_MODE", "queued")
	t.Setenv("REVIEWGATE_COOLDOWN", "5m")
	t.Setenv("REVIEWGATE_MAX_REQUESTS_PER_DAY", "10")
	t.Setenv("REVIEWGATE_SMTP_HOST", "smtp.example.com")
	t.Setenv("REVIEWGATE_SMTP_USERNAME", "alerts@example.com")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.ListenAddr)
	assert.Equal(t, config.StoreFile, cfg.Store)
	assert.Equal(t, config.QueueModeQueued, cfg.QueueMode)
	assert.Equal(t, 5*time.Minute, cfg.Cooldown)
	assert.Equal(t, 10, cfg.AllowedPerDay(), "global ceiling caps the team budget")
	assert.True(t, cfg.AlertingEnabled())
	assert.Equal(t, "alerts@example.com", cfg.AlertRecipient, "recipient defaults to the sending account")
}

func TestLoadMissingRequired(t *testing.T) {
	t.Run("github token", func(t *testing.T) {
		t.Setenv("REVIEWGATE_GITHUB_TOKEN", "")
		t.Setenv("REVIEWGATE_LLM_API_KEY", "sk-test")
		t.Setenv("REVIEWGATE_LLM_MODELS", "model-a")

		_, err := config.Load()
		assert.ErrorContains(t, err, "REVIEWGATE_GITHUB_TOKEN")
	})

	t.Run("llm models", func(t *testing.T) {
		t.Setenv("REVIEWGATE_GITHUB_TOKEN", "ghp_test")
		t.Setenv("REVIEWGATE_LLM_API_KEY", "sk-test")
		t.Setenv("REVIEWGATE_LLM_MODELS", " , ")

		_, err := config.Load()
		assert.ErrorContains(t, err, "REVIEWGATE_LLM_MODELS")
	})
}

func TestLoadInvalidValues(t *testing.T) {
	t.Run("bad duration", func(t *testing.T) {
		setRequired(t)
		t.Setenv("REVIEWGATE_COOLDOWN", "sixty seconds")

		_, err := config.Load()
		assert.ErrorContains(t, err, "REVIEWGATE_COOLDOWN")
	})

	t.Run("bad integer", func(t *testing.T) {
		setRequired(t)
		t.Setenv("REVIEWGATE_TEAM_COUNT", "ten")

		_, err := config.Load()
		assert.ErrorContains(t, err, "REVIEWGATE_TEAM_COUNT")
	})

	t.Run("bad store", func(t *testing.T) {
		setRequired(t)
		t.Setenv("REVIEWGATE_STORE", "redis")

		_, err := config.Load()
		assert.ErrorContains(t, err, "REVIEWGATE_STORE")
	})

	t.Run("bad queue mode", func(t *testing.T) {
		setRequired(t)
		t.Setenv("REVIEWGATE_QUEUE_MODE", "parallel")

		_, err := config.Load()
		assert.ErrorContains(t, err, "REVIEWGATE_QUEUE_MODE")
	})
}
