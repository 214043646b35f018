package signals

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/support-triage-poc/server/internal/agent/model"
)

//go:embed signals.yaml
var defaultSignals []byte

const LevelError = "ERROR"

// LogEntry is one system log line.
type LogEntry struct {
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
	MerchantID int       `json:"merchant_id" yaml:"merchant_id"`
	Level      string    `json:"level" yaml:"level"`
	Event      string    `json:"event" yaml:"event"`
}

// Ticket is one human-submitted support ticket.
type Ticket struct {
	ID         string `json:"id" yaml:"id"`
	MerchantID int    `json:"merchant_id" yaml:"merchant_id"`
	Text       string `json:"text" yaml:"text"`
	Priority   string `json:"priority" yaml:"priority"`
}

// Signals is one pull of the mock signal source.
type Signals struct {
	Merchants []model.MerchantContext `json:"merchants" yaml:"merchants"`
	Logs      []LogEntry              `json:"logs" yaml:"logs"`
	Tickets   []Ticket                `json:"tickets" yaml:"tickets"`
}

// Generate returns the built-in demo signals, with log timestamps set to now.
func Generate(now time.Time) (*Signals, error) {
	return Parse(defaultSignals, now)
}

// Parse decodes a signals document. Logs without a timestamp are stamped with now.
func Parse(data []byte, now time.Time) (*Signals, error) {
	var s Signals
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode signals: %w", err)
	}
	for i := range s.Logs {
		if s.Logs[i].Timestamp.IsZero() {
			s.Logs[i].Timestamp = now
		}
	}
	return &s, nil
}

// MerchantByID returns the merchant context for id.
func (s *Signals) MerchantByID(id int) (model.MerchantContext, bool) {
	for _, m := range s.Merchants {
		if m.ID == id {
			return m, true
		}
	}
	return model.MerchantContext{}, false
}

// MigrationStatus returns the migration label for a merchant, or "unknown".
func (s *Signals) MigrationStatus(merchantID int) string {
	m, ok := s.MerchantByID(merchantID)
	if !ok {
		return "unknown"
	}
	return m.MigrationStatus()
}

// latestError returns the most recent ERROR event for a merchant. Ties keep the
// later entry in the log.
func (s *Signals) latestError(merchantID int) (LogEntry, bool) {
	var (
		found  LogEntry
		exists bool
	)
	for _, l := range s.Logs {
		if l.MerchantID != merchantID || l.Level != LevelError {
			continue
		}
		if !exists || !l.Timestamp.Before(found.Timestamp) {
			found, exists = l, true
		}
	}
	return found, exists
}

// Incidents joins every ticket with its merchant's latest ERROR log, in ticket order.
// Tickets without an error signal are skipped since they carry no issue code.
func (s *Signals) Incidents() []model.IncidentRecord {
	out := make([]model.IncidentRecord, 0, len(s.Tickets))
	for _, t := range s.Tickets {
		l, ok := s.latestError(t.MerchantID)
		if !ok {
			continue
		}
		rec := model.IncidentRecord{
			ID:          t.ID,
			MerchantID:  t.MerchantID,
			IssueCode:   l.Event,
			Description: t.Text,
		}
		if rec.Validate() != nil {
			continue
		}
		out = append(out, rec)
	}
	return out
}
