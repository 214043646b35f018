package model

import "time"

// ================ Config ================
type DiagnosisModelConfig struct {
	Model       string        `envconfig:"DIAGNOSIS_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int           `envconfig:"DIAGNOSIS_MAX_TOKENS" default:"1024"`
	Temperature float32       `envconfig:"DIAGNOSIS_TEMPERATURE" default:"0.2"`
	Timeout     time.Duration `envconfig:"DIAGNOSIS_TIMEOUT" default:"30s"`
}

type AuditConfig struct {
	Key string        `envconfig:"AUDIT_KEY" default:"triage:audit"`
	TTL time.Duration `envconfig:"AUDIT_TTL" default:"0"`
}

type ServerConfig struct {
	Addr string `envconfig:"SERVER_ADDR" default:":8080"`
}
