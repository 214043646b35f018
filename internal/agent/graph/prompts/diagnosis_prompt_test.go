package prompts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDiagnosisSystem(t *testing.T) {
	out, err := RenderDiagnosisSystem(context.Background(), "Headless (45% migrated)", "Webhook_Signature_Mismatch")
	require.NoError(t, err)

	assert.Contains(t, out, "Migration Stage: Headless (45% migrated)")
	assert.Contains(t, out, "Error Signal: Webhook_Signature_Mismatch")
	assert.Contains(t, out, "MIGRATION-INDUCED GAP")
	assert.Contains(t, out, "LEGACY PLATFORM ISSUE")
	assert.Contains(t, out, "CONFIDENCE_SCORE: <integer>")
	assert.NotContains(t, out, "{{")
}

func TestRenderDiagnosisSystem_UnknownStatus(t *testing.T) {
	out, err := RenderDiagnosisSystem(context.Background(), "  ", "Server_500_Timeout")
	require.NoError(t, err)
	assert.Contains(t, out, "Migration Stage: unknown")
}
