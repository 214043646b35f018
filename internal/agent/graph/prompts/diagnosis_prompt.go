package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/diagnosis_prompt.txt
var diagnosisSystemPrompt string

// ConfidenceMarker prefixes the score line the model is told to end with.
const ConfidenceMarker = "CONFIDENCE_SCORE:"

// RenderDiagnosisSystem renders the diagnosis directive via the Eino prompt component,
// which also emits prompt callbacks.
func RenderDiagnosisSystem(ctx context.Context, migrationStatus, lastError string) (string, error) {
	status := strings.TrimSpace(migrationStatus)
	if status == "" {
		status = "unknown"
	}

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(diagnosisSystemPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"MigrationStatus": status,
		"LastError":       strings.TrimSpace(lastError),
		"Marker":          ConfidenceMarker,
	})
	if err != nil {
		return "", fmt.Errorf("diagnosis prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("diagnosis prompt render: empty result")
	}
	return msgs[0].Content, nil
}
