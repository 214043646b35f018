package conversations

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/support-triage-poc/server/internal/agent/model"
)

func TestBuildDiagnosisContext(t *testing.T) {
	history := model.Transcript{
		model.UserTurn("Ticket: checkout is failing"),
		model.AssistantTurn(""),
		model.AssistantTurn("Looking into it."),
	}

	msgs, err := BuildDiagnosisContext(history, "directive")
	require.NoError(t, err)
	require.Len(t, msgs, 3)

	assert.Equal(t, schema.User, msgs[0].Role)
	assert.Equal(t, "Ticket: checkout is failing", msgs[0].Content)
	assert.Equal(t, schema.Assistant, msgs[1].Role)
	assert.Equal(t, schema.System, msgs[2].Role)
	assert.Equal(t, "directive", msgs[2].Content)

	// history untouched
	assert.Len(t, history, 3)
}

func TestBuildDiagnosisContext_RejectsUnknownRole(t *testing.T) {
	_, err := BuildDiagnosisContext(model.Transcript{{Role: model.Role(42), Text: "x"}}, "directive")
	assert.Error(t, err)
}

func TestToMessage(t *testing.T) {
	for _, tc := range []struct {
		turn model.Turn
		role schema.RoleType
	}{
		{model.UserTurn("u"), schema.User},
		{model.SystemTurn("s"), schema.System},
		{model.AssistantTurn("a"), schema.Assistant},
	} {
		m, err := ToMessage(tc.turn)
		require.NoError(t, err)
		assert.Equal(t, tc.role, m.Role)
		assert.Equal(t, tc.turn.Text, m.Content)
	}

	_, err := ToMessage(model.Turn{Role: model.Role(42), Text: "x"})
	assert.Error(t, err)
}
