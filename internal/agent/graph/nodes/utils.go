package nodes

import (
	"github.com/cloudwego/eino/schema"

	"github.com/support-triage-poc/server/internal/agent/model"
	logx "github.com/support-triage-poc/server/pkg/logger"
)

const (
	NodeInputConverter = "InputConverter"
	NodeDiagnosis      = "Diagnosis"
	NodeRiskClassifier = "RiskClassifier"
	NodeOutcome        = "OutcomeResolver"
	NodeFinalizer      = "Finalizer"
)

// ticketTurn is the user turn that opens every run.
func ticketTurn(incident model.IncidentRecord) model.Turn {
	return model.UserTurn("Ticket: " + incident.Description)
}

// accumulateCost prices the generator usage and adds it to the run total.
func accumulateCost(state *model.ConversationState, modelName string, usage *schema.TokenUsage) {
	if usage == nil {
		return
	}
	inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(modelName))
	state.TotalCostUSD += totalC

	logx.Debug().
		Str("incident_id", state.IncidentID).
		Str("node", NodeDiagnosis).
		Str("model", modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
}
