package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/support-triage-poc/server/internal/agent/graph/diagnosis"
	"github.com/support-triage-poc/server/internal/core"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.APIKey)
	assert.Equal(t, core.Development, cfg.env())
	assert.Equal(t, "gemini-2.5-flash", cfg.Diagnosis.Model)
	assert.Equal(t, 1024, cfg.Diagnosis.MaxTokens)
	assert.InDelta(t, 0.2, cfg.Diagnosis.Temperature, 1e-6)
	assert.Equal(t, 30*time.Second, cfg.Diagnosis.Timeout)
	assert.Equal(t, "triage:audit", cfg.Audit.Key)
	assert.Equal(t, time.Duration(0), cfg.Audit.TTL)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 3, cfg.Redis.ReadTimeout)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DIAGNOSIS_MODEL", "gemini-2.5-pro")
	t.Setenv("DIAGNOSIS_TIMEOUT", "5s")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("AUDIT_TTL", "24h")
	t.Setenv("SERVER_ADDR", ":9090")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.env().IsProduction())
	assert.Equal(t, "gemini-2.5-pro", cfg.Diagnosis.Model)
	assert.Equal(t, 5*time.Second, cfg.Diagnosis.Timeout)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 24*time.Hour, cfg.Audit.TTL)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	t.Setenv("DIAGNOSIS_TIMEOUT", "soon")

	_, err := loadConfig()
	assert.Error(t, err)
}

func TestAppConfig_Validate(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.ErrorIs(t, cfg.validate(false), errMissingAPIKey)
	assert.NoError(t, cfg.validate(true))

	cfg.Diagnosis.Timeout = 0
	assert.Error(t, cfg.validate(true))
}

func TestAppConfig_GraphConfig(t *testing.T) {
	cfg := &AppConfig{APIKey: "k", BaseURL: "http://gemini.local"}

	online := cfg.graphConfig(false)
	assert.Nil(t, online.ChatModel)
	assert.Equal(t, "k", online.APIKey)

	offlineCfg := cfg.graphConfig(true)
	assert.IsType(t, &diagnosis.CannedChatModel{}, offlineCfg.ChatModel)
}
