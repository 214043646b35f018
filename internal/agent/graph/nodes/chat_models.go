package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/support-triage-poc/server/internal/agent/model"
	logx "github.com/support-triage-poc/server/pkg/logger"
)

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey          string
	BaseURL         string
	DiagnosisConfig *model.DiagnosisModelConfig
}

// NewDiagnosisChatModel creates the Gemini chat model used by the diagnosis stage.
func NewDiagnosisChatModel(ctx context.Context, config ChatModelConfig) (*gemini.ChatModel, error) {
	if config.DiagnosisConfig == nil {
		return nil, fmt.Errorf("diagnosis model config is nil")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	cm, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.DiagnosisConfig.Model,
		Temperature: &config.DiagnosisConfig.Temperature,
		MaxTokens:   &config.DiagnosisConfig.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating diagnosis model")
		return nil, fmt.Errorf("error creating diagnosis model: %w", err)
	}

	logx.Debug().Str("model", config.DiagnosisConfig.Model).Msg("Diagnosis chat model ready")
	return cm, nil
}
