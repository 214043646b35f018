package main

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/support-triage-poc/server/internal/agent/graph"
	"github.com/support-triage-poc/server/internal/agent/graph/diagnosis"
	"github.com/support-triage-poc/server/internal/agent/model"
	"github.com/support-triage-poc/server/internal/core"
	pkgredis "github.com/support-triage-poc/server/pkg/redis"
)

// AppConfig defines all configurable parameters, sourced from environment
// variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogFile     string `envconfig:"LOG_FILE"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Workflow configs
	Diagnosis model.DiagnosisModelConfig
	Audit     model.AuditConfig
	Server    model.ServerConfig
}

var errMissingAPIKey = errors.New("GEMINI_API_KEY is required unless --offline is set")

// loadDotenv loads .env into the process environment. A missing file is not
// an error for callers; they only log it.
func loadDotenv() error {
	return godotenv.Load(".env")
}

func loadConfig() (*AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	return &cfg, nil
}

func (c *AppConfig) env() core.Environment {
	return core.ParseEnvironment(c.Environment)
}

func (c *AppConfig) validate(offline bool) error {
	if !offline && c.APIKey == "" {
		return errMissingAPIKey
	}
	if c.Diagnosis.Timeout <= 0 {
		return fmt.Errorf("DIAGNOSIS_TIMEOUT must be positive, got %s", c.Diagnosis.Timeout)
	}
	if c.Diagnosis.MaxTokens <= 0 {
		return fmt.Errorf("DIAGNOSIS_MAX_TOKENS must be positive, got %d", c.Diagnosis.MaxTokens)
	}
	return nil
}

// graphConfig builds the workflow config. Offline runs swap Gemini for the
// canned generator.
func (c *AppConfig) graphConfig(offline bool) graph.Config {
	cfg := graph.Config{
		APIKey:    c.APIKey,
		BaseURL:   c.BaseURL,
		Diagnosis: c.Diagnosis,
	}
	if offline {
		cfg.ChatModel = diagnosis.NewCannedChatModel("")
	}
	return cfg
}
