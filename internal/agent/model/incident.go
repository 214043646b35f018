package model

import (
	"fmt"
	"strings"

	errx "github.com/support-triage-poc/server/internal/core/error"
)

// IncidentRecord is one support incident handed to the triage workflow.
// It is produced by the signal source and never mutated afterwards.
type IncidentRecord struct {
	ID          string `json:"id" yaml:"id"`
	MerchantID  int    `json:"merchant_id" yaml:"merchant_id"`
	IssueCode   string `json:"issue_code" yaml:"issue_code"`
	Description string `json:"description" yaml:"description"`
}

// Validate enforces the presence of an issue code and a description.
func (r IncidentRecord) Validate() error {
	if strings.TrimSpace(r.IssueCode) == "" {
		return fmt.Errorf("%w: %s: empty issue code", errx.ErrInvalidIncident, r.ID)
	}
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("%w: %s: empty description", errx.ErrInvalidIncident, r.ID)
	}
	return nil
}

// MerchantContext describes the account an incident belongs to.
type MerchantContext struct {
	ID       int    `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Stage    string `json:"stage" yaml:"stage"`
	Progress int    `json:"progress" yaml:"progress"`
	Tier     string `json:"tier" yaml:"tier"`
}

// MigrationStatus renders the stage label handed to the diagnosis prompt.
func (m MerchantContext) MigrationStatus() string {
	return fmt.Sprintf("%s (%d%% migrated)", m.Stage, m.Progress)
}
