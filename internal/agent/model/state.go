package model

import (
	"fmt"

	"github.com/cloudwego/eino/schema"

	errx "github.com/support-triage-poc/server/internal/core/error"
)

// Role tags a transcript turn.
type Role int

const (
	RoleUser Role = iota + 1
	RoleSystem
	RoleAssistant
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleSystem:
		return "system"
	case RoleAssistant:
		return "assistant"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// MarshalText renders the role as its lowercase name.
func (r Role) MarshalText() ([]byte, error) {
	switch r {
	case RoleUser, RoleSystem, RoleAssistant:
		return []byte(r.String()), nil
	}
	return nil, fmt.Errorf("unknown role %d", int(r))
}

// UnmarshalText parses a lowercase role name.
func (r *Role) UnmarshalText(b []byte) error {
	switch string(b) {
	case "user":
		*r = RoleUser
	case "system":
		*r = RoleSystem
	case "assistant":
		*r = RoleAssistant
	default:
		return fmt.Errorf("unknown role %q", string(b))
	}
	return nil
}

// Turn is a single (role, text) entry of a transcript.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

func UserTurn(text string) Turn      { return Turn{Role: RoleUser, Text: text} }
func SystemTurn(text string) Turn    { return Turn{Role: RoleSystem, Text: text} }
func AssistantTurn(text string) Turn { return Turn{Role: RoleAssistant, Text: text} }

// Transcript is an append-only, oldest-first list of turns.
type Transcript []Turn

// Clone returns a copy that does not share backing storage.
func (t Transcript) Clone() Transcript {
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}

// Last returns the newest turn, or false for an empty transcript.
func (t Transcript) Last() (Turn, bool) {
	if len(t) == 0 {
		return Turn{}, false
	}
	return t[len(t)-1], true
}

type RiskLevel string

const (
	RiskUnset  RiskLevel = ""
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

type ActionType string

const (
	ActionUnset                 ActionType = ""
	ActionAutoFix               ActionType = "AUTO_FIX"
	ActionDelayNotice           ActionType = "DELAY_NOTICE"
	ActionHumanApprovalRequired ActionType = "HUMAN_APPROVAL_REQUIRED"
)

// Outcome is the terminal result of the resolution stage.
type Outcome string

const (
	OutcomeUnset            Outcome = ""
	OutcomeVerified         Outcome = "VERIFIED"
	OutcomeAwaitingApproval Outcome = "AWAITING_APPROVAL"
	OutcomeRolledBack       Outcome = "ROLLED_BACK"
)

// Stage tracks how far a run has progressed. Stages only move forward.
type Stage int

const (
	StageStart Stage = iota
	StageDiagnosed
	StageClassified
	StageResolved
)

func (s Stage) String() string {
	switch s {
	case StageStart:
		return "start"
	case StageDiagnosed:
		return "diagnosed"
	case StageClassified:
		return "classified"
	case StageResolved:
		return "resolved"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// LowConfidenceThreshold is the score under which a diagnosis is flagged for manual review.
const LowConfidenceThreshold = 90

// DiagnosisRequest is the input of the diagnosis stage.
type DiagnosisRequest struct {
	Transcript      Transcript
	MigrationStatus string
	LastError       string
}

// DiagnosisResult is the cleaned model answer plus its confidence score.
type DiagnosisResult struct {
	Narrative  string
	Confidence int
	// Usage is the token usage reported by the generator, when available.
	Usage *schema.TokenUsage
}

// Classification is the output of the risk classifier.
type Classification struct {
	RiskLevel  RiskLevel
	ActionType ActionType
	Message    string
}

// Resolution is the output of the outcome resolver.
type Resolution struct {
	Outcome Outcome
	Message string
}

// TriageInput is the public input of one workflow run.
type TriageInput struct {
	Incident        IncidentRecord
	MigrationStatus string
	// History is prior conversation, kept ahead of the ticket turn.
	History Transcript
}

// ConversationState stores per-run state for the Eino graph.
// Concurrency model:
//   - Registered as graph local state via compose.WithGenLocalState, one per Invoke.
//   - Read and written only inside state handlers or compose.ProcessState,
//     which Eino serializes, so no mutex is needed.
//   - Each stage writes only its own fields; Advance rejects out-of-order stages.
type ConversationState struct {
	IncidentID      string
	Transcript      Transcript
	MigrationStatus string
	LastError       string
	Confidence      int
	RiskLevel       RiskLevel
	ActionType      ActionType
	Outcome         Outcome
	Stage           Stage

	// Accumulated generator cost (USD) for this run
	TotalCostUSD float64
}

// Advance moves the state from one stage to the next.
func (s *ConversationState) Advance(from, to Stage) error {
	if s.Stage != from || to != from+1 {
		return fmt.Errorf("%w: %s -> %s while at %s", errx.ErrInvalidTransition, from, to, s.Stage)
	}
	s.Stage = to
	return nil
}

// Append adds a turn to the transcript.
func (s *ConversationState) Append(t Turn) {
	s.Transcript = append(s.Transcript, t)
}

// Snapshot copies the state of a resolved run into a FinalState.
func (s *ConversationState) Snapshot() (*FinalState, error) {
	if s.Stage != StageResolved {
		return nil, fmt.Errorf("%w: snapshot while at %s", errx.ErrInvalidTransition, s.Stage)
	}
	return &FinalState{
		IncidentID:      s.IncidentID,
		Transcript:      s.Transcript.Clone(),
		MigrationStatus: s.MigrationStatus,
		LastError:       s.LastError,
		Confidence:      s.Confidence,
		RiskLevel:       s.RiskLevel,
		ActionType:      s.ActionType,
		Outcome:         s.Outcome,
		CostUSD:         s.TotalCostUSD,
	}, nil
}

// FinalState is what a completed run hands back to its caller.
// The last three transcript turns are the diagnosis narrative, the
// classification message and the resolution message, in that order.
type FinalState struct {
	IncidentID      string     `json:"incident_id"`
	Transcript      Transcript `json:"transcript"`
	MigrationStatus string     `json:"migration_status"`
	LastError       string     `json:"last_error"`
	Confidence      int        `json:"confidence"`
	RiskLevel       RiskLevel  `json:"risk_level"`
	ActionType      ActionType `json:"action_type"`
	Outcome         Outcome    `json:"outcome"`
	CostUSD         float64    `json:"cost_usd"`
}

func (f *FinalState) turnFromEnd(n int) string {
	if len(f.Transcript) < n {
		return ""
	}
	return f.Transcript[len(f.Transcript)-n].Text
}

// Narrative returns the diagnosis text.
func (f *FinalState) Narrative() string { return f.turnFromEnd(3) }

// Decision returns the resolution message.
func (f *FinalState) Decision() string { return f.turnFromEnd(1) }

// NeedsApproval reports whether the incident must be gated behind a human.
func (f *FinalState) NeedsApproval() bool { return f.RiskLevel == RiskHigh }

// NeedsReview reports whether the diagnosis confidence is below the review threshold.
func (f *FinalState) NeedsReview() bool { return f.Confidence < LowConfidenceThreshold }
