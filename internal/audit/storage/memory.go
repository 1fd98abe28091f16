package storage

import (
	"context"
	"sync"

	"github.com/pagelens/pagelens/internal/audit/domain"
)

// MemoryStore is the transient in-process backend. It is not durable
// across restarts and not shared across instances; it exists so that
// submissions and polls keep working while the database is unreachable.
type MemoryStore struct {
	mu     sync.RWMutex
	audits map[string]*domain.Audit
	order  []string // ids in creation order
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		audits: make(map[string]*domain.Audit),
	}
}

func (s *MemoryStore) Create(_ context.Context, audit *domain.Audit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *audit
	s.audits[audit.ID] = &clone
	s.order = append(s.order, audit.ID)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*domain.Audit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	audit, ok := s.audits[id]
	if !ok {
		return nil, domain.ErrAuditNotFound
	}
	clone := *audit
	return &clone, nil
}

func (s *MemoryStore) MarkProcessing(_ context.Context, id string) error {
	return s.updateStatus(id, func(audit *domain.Audit) {
		audit.Status = domain.StatusProcessing
	})
}

func (s *MemoryStore) MarkCompleted(_ context.Context, id string, verdict *domain.Verdict) error {
	return s.updateStatus(id, func(audit *domain.Audit) {
		score := verdict.OverallScore
		audit.Status = domain.StatusCompleted
		audit.Score = &score
		audit.Result = verdict
	})
}

func (s *MemoryStore) MarkFailed(_ context.Context, id string, message string) error {
	return s.updateStatus(id, func(audit *domain.Audit) {
		audit.Status = domain.StatusFailed
		audit.Error = message
	})
}

func (s *MemoryStore) updateStatus(id string, apply func(*domain.Audit)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	audit, ok := s.audits[id]
	if !ok {
		return domain.ErrAuditNotFound
	}
	if domain.IsTerminal(audit.Status) {
		return domain.ErrTerminalStatus
	}
	apply(audit)
	return nil
}

func (s *MemoryStore) ListRecent(_ context.Context, n int) ([]domain.Audit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	audits := make([]domain.Audit, 0, n)
	for i := len(s.order) - 1; i >= 0 && len(audits) < n; i-- {
		audits = append(audits, *s.audits[s.order[i]])
	}
	return audits, nil
}
