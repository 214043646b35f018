package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/support-triage-poc/server/internal/agent/graph/outcome"
	"github.com/support-triage-poc/server/internal/agent/graph/risk"
	"github.com/support-triage-poc/server/internal/agent/model"
	logx "github.com/support-triage-poc/server/pkg/logger"
)

// NewInputConverterPreHandler seeds the run state from the incident.
func NewInputConverterPreHandler() func(context.Context, model.TriageInput, *model.ConversationState) (model.TriageInput, error) {
	return func(ctx context.Context, in model.TriageInput, s *model.ConversationState) (model.TriageInput, error) {
		if err := in.Incident.Validate(); err != nil {
			return in, err
		}
		if s.Stage != model.StageStart || len(s.Transcript) != 0 {
			return in, fmt.Errorf("input converter: state already initialised for %s", s.IncidentID)
		}

		s.IncidentID = in.Incident.ID
		s.Transcript = append(in.History.Clone(), ticketTurn(in.Incident))
		s.MigrationStatus = in.MigrationStatus
		s.LastError = in.Incident.IssueCode
		s.Confidence = 0
		return in, nil
	}
}

// NewInputConverterNode turns the seeded state into a diagnosis request.
func NewInputConverterNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.TriageInput) (model.DiagnosisRequest, error) {
		var req model.DiagnosisRequest
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.ConversationState) error {
			req = model.DiagnosisRequest{
				Transcript:      s.Transcript.Clone(),
				MigrationStatus: s.MigrationStatus,
				LastError:       s.LastError,
			}
			return nil
		})
		if err != nil {
			return model.DiagnosisRequest{}, fmt.Errorf("failed to access state: %w", err)
		}
		return req, nil
	})
}

// NewDiagnosisPostHandler records the confidence and the cleaned narrative.
func NewDiagnosisPostHandler(modelName string) func(context.Context, model.DiagnosisResult, *model.ConversationState) (model.DiagnosisResult, error) {
	return func(ctx context.Context, out model.DiagnosisResult, s *model.ConversationState) (model.DiagnosisResult, error) {
		if err := s.Advance(model.StageStart, model.StageDiagnosed); err != nil {
			return out, err
		}
		s.Confidence = out.Confidence
		s.Append(model.AssistantTurn(out.Narrative))
		accumulateCost(s, modelName, out.Usage)

		logx.Debug().
			Str("incident_id", s.IncidentID).
			Int("confidence", out.Confidence).
			Msg("Diagnosis complete")
		return out, nil
	}
}

// NewRiskClassifierNode classifies the incident's issue code.
func NewRiskClassifierNode(classifier *risk.Classifier) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.DiagnosisResult) (model.Classification, error) {
		var issueCode string
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.ConversationState) error {
			issueCode = s.LastError
			return nil
		})
		if err != nil {
			return model.Classification{}, fmt.Errorf("failed to access state: %w", err)
		}
		return classifier.Classify(issueCode), nil
	})
}

// NewRiskClassifierPostHandler records the risk tier and action.
func NewRiskClassifierPostHandler() func(context.Context, model.Classification, *model.ConversationState) (model.Classification, error) {
	return func(ctx context.Context, out model.Classification, s *model.ConversationState) (model.Classification, error) {
		if err := s.Advance(model.StageDiagnosed, model.StageClassified); err != nil {
			return out, err
		}
		s.RiskLevel = out.RiskLevel
		s.ActionType = out.ActionType
		s.Append(model.AssistantTurn(out.Message))

		logx.Debug().
			Str("incident_id", s.IncidentID).
			Str("risk_level", string(out.RiskLevel)).
			Str("action_type", string(out.ActionType)).
			Msg("Risk classified")
		return out, nil
	}
}

// NewOutcomeNode resolves the run's terminal message.
func NewOutcomeNode(resolver *outcome.Resolver) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.Classification) (model.Resolution, error) {
		return resolver.Resolve(ctx, in.RiskLevel), nil
	})
}

// NewOutcomePostHandler records the resolution.
func NewOutcomePostHandler() func(context.Context, model.Resolution, *model.ConversationState) (model.Resolution, error) {
	return func(ctx context.Context, out model.Resolution, s *model.ConversationState) (model.Resolution, error) {
		if err := s.Advance(model.StageClassified, model.StageResolved); err != nil {
			return out, err
		}
		s.Outcome = out.Outcome
		s.Append(model.AssistantTurn(out.Message))

		if out.Outcome == model.OutcomeAwaitingApproval {
			logx.Warn().
				Str("incident_id", s.IncidentID).
				Str("risk_level", string(s.RiskLevel)).
				Msg("Human approval required")
		}
		return out, nil
	}
}

// NewFinalizerNode snapshots the resolved state for the caller.
func NewFinalizerNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.Resolution) (*model.FinalState, error) {
		var final *model.FinalState
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.ConversationState) error {
			var err error
			final, err = s.Snapshot()
			return err
		})
		if err != nil {
			return nil, err
		}
		return final, nil
	})
}
