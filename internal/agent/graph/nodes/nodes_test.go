package nodes

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/support-triage-poc/server/internal/agent/model"
	errx "github.com/support-triage-poc/server/internal/core/error"
)

func incident() model.IncidentRecord {
	return model.IncidentRecord{
		ID:          "TKT-501",
		MerchantID:  103,
		IssueCode:   "Webhook_Signature_Mismatch",
		Description: "Help! My checkout is failing after I updated to the new API.",
	}
}

func TestInputConverterPreHandler_SeedsState(t *testing.T) {
	ctx := context.Background()
	s := &model.ConversationState{}
	history := model.Transcript{model.UserTurn("earlier message")}

	_, err := NewInputConverterPreHandler()(ctx, model.TriageInput{
		Incident:        incident(),
		MigrationStatus: "Headless (45% migrated)",
		History:         history,
	}, s)
	require.NoError(t, err)

	assert.Equal(t, "TKT-501", s.IncidentID)
	assert.Equal(t, "Webhook_Signature_Mismatch", s.LastError)
	assert.Equal(t, "Headless (45% migrated)", s.MigrationStatus)
	assert.Equal(t, 0, s.Confidence)
	assert.Equal(t, model.StageStart, s.Stage)
	require.Len(t, s.Transcript, 2)
	assert.Equal(t, model.UserTurn("earlier message"), s.Transcript[0])
	assert.Equal(t, model.UserTurn("Ticket: Help! My checkout is failing after I updated to the new API."), s.Transcript[1])

	// caller history not aliased
	s.Transcript[0].Text = "changed"
	assert.Equal(t, "earlier message", history[0].Text)
}

func TestInputConverterPreHandler_RejectsInvalidIncident(t *testing.T) {
	inc := incident()
	inc.IssueCode = ""
	_, err := NewInputConverterPreHandler()(context.Background(), model.TriageInput{Incident: inc}, &model.ConversationState{})
	assert.ErrorIs(t, err, errx.ErrInvalidIncident)
}

func TestStageHandlers_InOrder(t *testing.T) {
	ctx := context.Background()
	s := &model.ConversationState{IncidentID: "TKT-501", Transcript: model.Transcript{model.UserTurn("Ticket: x")}}

	_, err := NewDiagnosisPostHandler("gemini-2.5-flash")(ctx, model.DiagnosisResult{Narrative: "gap", Confidence: 73}, s)
	require.NoError(t, err)
	_, err = NewRiskClassifierPostHandler()(ctx, model.Classification{RiskLevel: model.RiskLow, ActionType: model.ActionAutoFix, Message: "fixed"}, s)
	require.NoError(t, err)
	_, err = NewOutcomePostHandler()(ctx, model.Resolution{Outcome: model.OutcomeVerified, Message: "stable"}, s)
	require.NoError(t, err)

	assert.Equal(t, model.StageResolved, s.Stage)
	assert.Equal(t, 73, s.Confidence)
	assert.Equal(t, model.RiskLow, s.RiskLevel)
	assert.Equal(t, model.ActionAutoFix, s.ActionType)
	assert.Equal(t, model.Transcript{
		model.UserTurn("Ticket: x"),
		model.AssistantTurn("gap"),
		model.AssistantTurn("fixed"),
		model.AssistantTurn("stable"),
	}, s.Transcript)
}

func TestStageHandlers_OutOfOrderIsRejected(t *testing.T) {
	ctx := context.Background()
	s := &model.ConversationState{}

	_, err := NewOutcomePostHandler()(ctx, model.Resolution{Outcome: model.OutcomeVerified, Message: "stable"}, s)
	assert.ErrorIs(t, err, errx.ErrInvalidTransition)

	_, err = NewRiskClassifierPostHandler()(ctx, model.Classification{RiskLevel: model.RiskLow}, s)
	assert.ErrorIs(t, err, errx.ErrInvalidTransition)

	// nothing was written
	assert.Equal(t, model.RiskUnset, s.RiskLevel)
	assert.Empty(t, s.Transcript)
}

func TestDiagnosisPostHandler_AccumulatesCost(t *testing.T) {
	s := &model.ConversationState{}
	_, err := NewDiagnosisPostHandler("gemini-2.5-flash")(context.Background(), model.DiagnosisResult{
		Narrative:  "gap",
		Confidence: 90,
		Usage:      &schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 1_000_000, TotalTokens: 2_000_000},
	}, s)
	require.NoError(t, err)
	assert.InDelta(t, 0.3+2.5, s.TotalCostUSD, 1e-9)
}
