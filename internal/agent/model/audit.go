package model

import (
	"context"
	"time"
)

// AuditEntry is the canonical record written for every resolved incident.
type AuditEntry struct {
	ID     string    `json:"id"`
	Issue  string    `json:"issue"`
	Risk   RiskLevel `json:"risk"`
	Action string    `json:"action"`
	Time   time.Time `json:"time"`
}

// Action labels recorded for human decisions on gated incidents.
const (
	AuditActionApproved = "HUMAN_APPROVED"
	AuditActionRejected = "HUMAN_REJECTED"
)

type AuditRepository interface {
	// Append records an entry at the end of the log
	Append(ctx context.Context, entry AuditEntry) error

	// List returns all entries, oldest first
	List(ctx context.Context) ([]AuditEntry, error)
}
