package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pagelens/pagelens/internal/audit/domain"
)

const createAuditsTable = `
	CREATE TABLE IF NOT EXISTS audits (
		audit_id      TEXT PRIMARY KEY,
		url           TEXT NOT NULL,
		status        TEXT NOT NULL,
		score         INTEGER,
		result        JSONB,
		error_message TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL
	)
`

// PostgresStore is the durable audit backend.
type PostgresStore struct {
	db      *sqlx.DB
	logger  *slog.Logger
	ensured atomic.Bool
}

// NewPostgresStore creates a PostgresStore. Schema bootstrap is
// attempted immediately but deferred to the first store call when the
// database is unreachable at startup.
func NewPostgresStore(db *sqlx.DB, logger *slog.Logger) *PostgresStore {
	s := &PostgresStore{db: db, logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.ensure(ctx); err != nil {
		logger.Warn("Deferring audits schema bootstrap",
			slog.String("error", err.Error()),
		)
	}
	return s
}

// ensure creates the audits table once. Retried on every call until it
// succeeds so a database that comes up late still gets its schema.
func (s *PostgresStore) ensure(ctx context.Context) error {
	if s.ensured.Load() {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, createAuditsTable); err != nil {
		return &domain.PersistenceError{Op: "ensure schema", Err: err}
	}
	s.ensured.Store(true)
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, audit *domain.Audit) error {
	if err := s.ensure(ctx); err != nil {
		return err
	}

	query := `
		INSERT INTO audits (audit_id, url, status, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.db.ExecContext(ctx, query, audit.ID, audit.URL, audit.Status, audit.CreatedAt)
	if err != nil {
		return &domain.PersistenceError{Op: "create", Err: err}
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*domain.Audit, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT audit_id, url, status, score, result, error_message, created_at
		FROM audits
		WHERE audit_id = $1
	`

	var audit domain.Audit
	var score sql.NullInt64
	var result []byte

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&audit.ID,
		&audit.URL,
		&audit.Status,
		&score,
		&result,
		&audit.Error,
		&audit.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAuditNotFound
		}
		return nil, &domain.PersistenceError{Op: "get", Err: err}
	}

	if score.Valid {
		n := int(score.Int64)
		audit.Score = &n
	}
	if len(result) > 0 {
		var verdict domain.Verdict
		if err := json.Unmarshal(result, &verdict); err != nil {
			return nil, fmt.Errorf("failed to decode stored verdict: %w", err)
		}
		audit.Result = &verdict
	}

	return &audit, nil
}

func (s *PostgresStore) MarkProcessing(ctx context.Context, id string) error {
	query := `
		UPDATE audits
		SET status = $1
		WHERE audit_id = $2 AND status NOT IN ($3, $4)
	`

	return s.exec(ctx, id, "mark processing", query,
		domain.StatusProcessing, id, domain.StatusCompleted, domain.StatusFailed)
}

func (s *PostgresStore) MarkCompleted(ctx context.Context, id string, verdict *domain.Verdict) error {
	result, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("failed to marshal verdict: %w", err)
	}

	query := `
		UPDATE audits
		SET status = $1, score = $2, result = $3
		WHERE audit_id = $4 AND status NOT IN ($5, $6)
	`

	return s.exec(ctx, id, "mark completed", query,
		domain.StatusCompleted, verdict.OverallScore, result, id, domain.StatusCompleted, domain.StatusFailed)
}

func (s *PostgresStore) MarkFailed(ctx context.Context, id string, message string) error {
	query := `
		UPDATE audits
		SET status = $1, error_message = $2
		WHERE audit_id = $3 AND status NOT IN ($4, $5)
	`

	return s.exec(ctx, id, "mark failed", query,
		domain.StatusFailed, message, id, domain.StatusCompleted, domain.StatusFailed)
}

// exec runs a guarded status update. Zero rows affected means the audit
// either does not exist or is already terminal.
func (s *PostgresStore) exec(ctx context.Context, id, op, query string, args ...interface{}) error {
	if err := s.ensure(ctx); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return &domain.PersistenceError{Op: op, Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return &domain.PersistenceError{Op: op, Err: err}
	}
	if affected == 0 {
		var status string
		err := s.db.QueryRowContext(ctx, `SELECT status FROM audits WHERE audit_id = $1`, id).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrAuditNotFound
		}
		if err != nil {
			return &domain.PersistenceError{Op: op, Err: err}
		}
		s.logger.Warn("Refusing to update terminal audit",
			slog.String("audit_id", id),
			slog.String("status", status),
		)
		return domain.ErrTerminalStatus
	}
	return nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, n int) ([]domain.Audit, error) {
	if err := s.ensure(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT audit_id, url, status, score, result, error_message, created_at
		FROM audits
		ORDER BY created_at DESC, audit_id DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list recent", Err: err}
	}
	defer rows.Close()

	var audits []domain.Audit
	for rows.Next() {
		var audit domain.Audit
		var score sql.NullInt64
		var result []byte

		if err := rows.Scan(&audit.ID, &audit.URL, &audit.Status, &score, &result, &audit.Error, &audit.CreatedAt); err != nil {
			return nil, &domain.PersistenceError{Op: "list recent", Err: err}
		}
		if score.Valid {
			v := int(score.Int64)
			audit.Score = &v
		}
		if len(result) > 0 {
			var verdict domain.Verdict
			if err := json.Unmarshal(result, &verdict); err != nil {
				return nil, fmt.Errorf("failed to decode stored verdict: %w", err)
			}
			audit.Result = &verdict
		}
		audits = append(audits, audit)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.PersistenceError{Op: "list recent", Err: err}
	}

	return audits, nil
}
