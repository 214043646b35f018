package repo

import (
	"context"
	"sync"

	"github.com/support-triage-poc/server/internal/agent/model"
)

// MemoryAuditRepository is the process-local audit log used when Redis is not configured.
type MemoryAuditRepository struct {
	mu      sync.RWMutex
	entries []model.AuditEntry
}

func NewMemoryAuditRepository() *MemoryAuditRepository {
	return &MemoryAuditRepository{}
}

func (r *MemoryAuditRepository) Append(_ context.Context, entry model.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *MemoryAuditRepository) List(_ context.Context) ([]model.AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.AuditEntry, len(r.entries))
	copy(out, r.entries)
	return out, nil
}

var _ model.AuditRepository = (*MemoryAuditRepository)(nil)
