package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/support-triage-poc/server/internal/agent/model"
	errx "github.com/support-triage-poc/server/internal/core/error"
	"github.com/support-triage-poc/server/internal/metrics"
	"github.com/support-triage-poc/server/internal/signals"
	logx "github.com/support-triage-poc/server/pkg/logger"
)

// Triager runs the triage workflow for one incident.
type Triager interface {
	Run(ctx context.Context, in model.TriageInput) (*model.FinalState, error)
}

// Pending is a High risk incident waiting for a human decision.
type Pending struct {
	Incident model.IncidentRecord `json:"incident"`
	Result   *model.FinalState    `json:"result"`
}

// Stats are the dashboard counters.
type Stats struct {
	Queued       int `json:"queued"`
	Pending      int `json:"pending"`
	AutoResolved int `json:"auto_resolved"`
	Approved     int `json:"approved"`
	Rejected     int `json:"rejected"`
	Failed       int `json:"failed"`
}

// Session owns the dashboard state: the ticket queue, the approval gate and the
// counters. The workflow itself stays stateless; Session feeds it one incident
// at a time and records the outcome.
type Session struct {
	runner  Triager
	signals *signals.Signals
	audit   model.AuditRepository
	metrics *metrics.Metrics
	now     func() time.Time

	mu           sync.Mutex
	queue        []model.IncidentRecord
	inFlight     map[string]bool
	pending      map[string]*Pending
	pendingOrder []string
	results      map[string]*model.FinalState
	stats        Stats
}

type Option func(*Session)

// WithClock overrides the clock used for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

func NewSession(runner Triager, sig *signals.Signals, audit model.AuditRepository, m *metrics.Metrics, opts ...Option) *Session {
	s := &Session{
		runner:   runner,
		signals:  sig,
		audit:    audit,
		metrics:  m,
		now:      time.Now,
		queue:    sig.Incidents(),
		inFlight: map[string]bool{},
		pending:  map[string]*Pending{},
		results:  map[string]*model.FinalState{},
	}
	for _, o := range opts {
		o(s)
	}
	s.updateGaugesLocked()
	return s
}

// Signals returns the signal snapshot the queue was built from.
func (s *Session) Signals() *signals.Signals {
	return s.signals
}

// Queue returns the tickets waiting for triage, in arrival order.
func (s *Session) Queue() []model.IncidentRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.IncidentRecord, len(s.queue))
	copy(out, s.queue)
	return out
}

// Pending returns incidents awaiting approval, oldest first.
func (s *Session) Pending() []Pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Pending, 0, len(s.pendingOrder))
	for _, id := range s.pendingOrder {
		out = append(out, *s.pending[id])
	}
	return out
}

// Result returns the last completed run for a ticket.
func (s *Session) Result(ticketID string) (*model.FinalState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[ticketID]
	return r, ok
}

func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.Queued = len(s.queue)
	st.Pending = len(s.pendingOrder)
	return st
}

func (s *Session) Audit(ctx context.Context) ([]model.AuditEntry, error) {
	return s.audit.List(ctx)
}

// Triage runs the workflow for a queued ticket. Low and Medium risk results are
// applied and audited at once; High risk results move to the approval gate.
// On any failure the ticket stays in the queue.
func (s *Session) Triage(ctx context.Context, ticketID string) (*model.FinalState, error) {
	incident, err := s.claim(ticketID)
	if err != nil {
		return nil, err
	}
	defer s.release(ticketID)

	start := time.Now()
	out, err := s.runner.Run(ctx, model.TriageInput{
		Incident:        incident,
		MigrationStatus: s.signals.MigrationStatus(incident.MerchantID),
	})
	s.metrics.TriageDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.mu.Lock()
		s.stats.Failed++
		s.mu.Unlock()
		s.metrics.TriageFailures.Inc()
		return nil, err
	}

	s.metrics.TriageRuns.WithLabelValues(string(out.RiskLevel), string(out.Outcome)).Inc()
	s.metrics.DiagnosisScore.Observe(float64(out.Confidence))

	if !out.NeedsApproval() {
		if err := s.record(ctx, incident, out.RiskLevel, string(out.ActionType)); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeQueuedLocked(ticketID)
	s.results[ticketID] = out
	if out.NeedsApproval() {
		s.pending[ticketID] = &Pending{Incident: incident, Result: out}
		s.pendingOrder = append(s.pendingOrder, ticketID)
	} else {
		s.stats.AutoResolved++
	}
	s.updateGaugesLocked()
	return out, nil
}

// Approve releases a gated incident.
func (s *Session) Approve(ctx context.Context, ticketID string) error {
	return s.decide(ctx, ticketID, model.AuditActionApproved)
}

// Reject closes a gated incident without applying the action.
func (s *Session) Reject(ctx context.Context, ticketID string) error {
	return s.decide(ctx, ticketID, model.AuditActionRejected)
}

func (s *Session) decide(ctx context.Context, ticketID, action string) error {
	s.mu.Lock()
	p, ok := s.pending[ticketID]
	if !ok {
		queued := s.indexLocked(ticketID) >= 0
		s.mu.Unlock()
		if queued {
			return fmt.Errorf("%w: %s", errx.ErrNotAwaitingApproval, ticketID)
		}
		return fmt.Errorf("%w: %s", errx.ErrTicketNotFound, ticketID)
	}
	// the entry stays listed until the audit write lands; inFlight stops a
	// second decision from recording twice
	if s.inFlight[ticketID] {
		s.mu.Unlock()
		return errx.New(nil, http.StatusConflict, fmt.Sprintf("ticket %s already has a decision in progress", ticketID))
	}
	s.inFlight[ticketID] = true
	s.mu.Unlock()
	defer s.release(ticketID)

	if err := s.record(ctx, p.Incident, p.Result.RiskLevel, action); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, ticketID)
	s.pendingOrder = removeID(s.pendingOrder, ticketID)
	if action == model.AuditActionApproved {
		s.stats.Approved++
	} else {
		s.stats.Rejected++
	}
	s.metrics.HumanDecisions.WithLabelValues(action).Inc()
	s.updateGaugesLocked()

	logx.Info().Str("ticket_id", ticketID).Str("action", action).Msg("Human decision recorded")
	return nil
}

func (s *Session) record(ctx context.Context, incident model.IncidentRecord, risk model.RiskLevel, action string) error {
	entry := model.AuditEntry{
		ID:     incident.ID,
		Issue:  incident.IssueCode,
		Risk:   risk,
		Action: action,
		Time:   s.now().UTC(),
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.metrics.AuditWriteFailure.Inc()
		logx.Error().Err(err).Str("ticket_id", incident.ID).Msg("failed to write audit entry")
		return err
	}
	return nil
}

func (s *Session) claim(ticketID string) (model.IncidentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(ticketID)
	if i < 0 {
		if _, ok := s.pending[ticketID]; ok {
			return model.IncidentRecord{}, errx.New(nil, http.StatusConflict, fmt.Sprintf("ticket %s is awaiting approval", ticketID))
		}
		return model.IncidentRecord{}, fmt.Errorf("%w: %s", errx.ErrTicketNotFound, ticketID)
	}
	if s.inFlight[ticketID] {
		return model.IncidentRecord{}, errx.New(nil, http.StatusConflict, fmt.Sprintf("ticket %s is already being triaged", ticketID))
	}
	s.inFlight[ticketID] = true
	return s.queue[i], nil
}

func (s *Session) release(ticketID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, ticketID)
}

func (s *Session) indexLocked(ticketID string) int {
	for i, inc := range s.queue {
		if inc.ID == ticketID {
			return i
		}
	}
	return -1
}

func (s *Session) removeQueuedLocked(ticketID string) {
	if i := s.indexLocked(ticketID); i >= 0 {
		s.queue = append(s.queue[:i], s.queue[i+1:]...)
	}
}

func (s *Session) updateGaugesLocked() {
	s.metrics.QueuedTickets.Set(float64(len(s.queue)))
	s.metrics.PendingApprovals.Set(float64(len(s.pendingOrder)))
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
