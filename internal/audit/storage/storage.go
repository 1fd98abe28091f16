package storage

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/pagelens/pagelens/internal/audit/domain"
)

// Store is the persistence contract for audit records. Exactly one of
// MarkCompleted/MarkFailed is ever applied to a given audit, and no
// update may move an audit out of a terminal status.
type Store interface {
	Create(ctx context.Context, audit *domain.Audit) error
	Get(ctx context.Context, id string) (*domain.Audit, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string, verdict *domain.Verdict) error
	MarkFailed(ctx context.Context, id string, message string) error
	ListRecent(ctx context.Context, n int) ([]domain.Audit, error)
}

// DualStore fronts a durable backend with an in-process fallback. The
// backend is chosen per call from current connectivity, so records
// created while the database was down live in memory and are not
// migrated when it comes back. Submissions and polls therefore never
// fail just because the database is unreachable.
type DualStore struct {
	durable   Store
	memory    Store
	connected func(ctx context.Context) bool
	logger    *slog.Logger
}

// NewDualStore builds a DualStore. durable may be nil when no database
// is configured; connected is probed once per call.
func NewDualStore(durable Store, memory Store, connected func(ctx context.Context) bool, logger *slog.Logger) *DualStore {
	return &DualStore{
		durable:   durable,
		memory:    memory,
		connected: connected,
		logger:    logger,
	}
}

func (s *DualStore) durableUp(ctx context.Context) bool {
	return s.durable != nil && s.connected != nil && s.connected(ctx)
}

func (s *DualStore) Create(ctx context.Context, audit *domain.Audit) error {
	if s.durableUp(ctx) {
		if err := s.durable.Create(ctx, audit); err == nil {
			return nil
		} else {
			s.logger.Warn("durable create failed, falling back to memory",
				slog.String("audit_id", audit.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return s.memory.Create(ctx, audit)
}

func (s *DualStore) Get(ctx context.Context, id string) (*domain.Audit, error) {
	if s.durableUp(ctx) {
		audit, err := s.durable.Get(ctx, id)
		if err == nil {
			return audit, nil
		}
		if !errors.Is(err, domain.ErrAuditNotFound) {
			return nil, err
		}
		// The record may have been created while the database was down.
	}
	return s.memory.Get(ctx, id)
}

func (s *DualStore) MarkProcessing(ctx context.Context, id string) error {
	return s.update(ctx, id, func(backend Store) error {
		return backend.MarkProcessing(ctx, id)
	})
}

func (s *DualStore) MarkCompleted(ctx context.Context, id string, verdict *domain.Verdict) error {
	return s.update(ctx, id, func(backend Store) error {
		return backend.MarkCompleted(ctx, id, verdict)
	})
}

func (s *DualStore) MarkFailed(ctx context.Context, id string, message string) error {
	return s.update(ctx, id, func(backend Store) error {
		return backend.MarkFailed(ctx, id, message)
	})
}

// update routes a status transition to the backend that owns the record.
func (s *DualStore) update(ctx context.Context, id string, apply func(Store) error) error {
	if s.durableUp(ctx) {
		err := apply(s.durable)
		if err == nil || !errors.Is(err, domain.ErrAuditNotFound) {
			return err
		}
	}
	return apply(s.memory)
}

// ListRecent merges both backends, newest first, capped at n. Records
// never exist in both, so no dedup is needed.
func (s *DualStore) ListRecent(ctx context.Context, n int) ([]domain.Audit, error) {
	audits, err := s.memory.ListRecent(ctx, n)
	if err != nil {
		return nil, err
	}
	if s.durableUp(ctx) {
		durable, err := s.durable.ListRecent(ctx, n)
		if err != nil {
			return nil, err
		}
		audits = append(audits, durable...)
	}
	sort.Slice(audits, func(i, j int) bool {
		return audits[i].CreatedAt.After(audits[j].CreatedAt)
	})
	if len(audits) > n {
		audits = audits[:n]
	}
	return audits, nil
}
