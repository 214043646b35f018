package outcome

import (
	"context"

	"github.com/support-triage-poc/server/internal/agent/model"
	logx "github.com/support-triage-poc/server/pkg/logger"
)

const (
	PausedMessage     = "Paused: awaiting manual override from a human approver before any change is applied."
	StableMessage     = "Fix verified. System stable."
	RolledBackMessage = "Error persists after fix. Initiating rollback to the previous configuration."
)

// VerifyFunc checks system health after an automatic fix.
type VerifyFunc func(ctx context.Context) bool

// AssumeStable is the demo verifier. Production deployments should replace it
// with a real post-action health probe.
func AssumeStable(context.Context) bool { return true }

// Message is the pure resolution message for a risk tier, assuming verification succeeds.
func Message(risk model.RiskLevel) string {
	if risk == model.RiskHigh {
		return PausedMessage
	}
	return StableMessage
}

// Resolver produces the terminal message of a run.
type Resolver struct {
	verify VerifyFunc
}

// NewResolver falls back to AssumeStable when verify is nil.
func NewResolver(verify VerifyFunc) *Resolver {
	if verify == nil {
		verify = AssumeStable
	}
	return &Resolver{verify: verify}
}

// Resolve pauses High risk incidents without verifying. Other tiers are
// verified; a failed verification yields a rollback.
func (r *Resolver) Resolve(ctx context.Context, risk model.RiskLevel) model.Resolution {
	if risk == model.RiskHigh {
		return model.Resolution{Outcome: model.OutcomeAwaitingApproval, Message: PausedMessage}
	}
	if !r.verify(ctx) {
		logx.Warn().Str("risk_level", string(risk)).Msg("post-action verification failed")
		return model.Resolution{Outcome: model.OutcomeRolledBack, Message: RolledBackMessage}
	}
	return model.Resolution{Outcome: model.OutcomeVerified, Message: StableMessage}
}
