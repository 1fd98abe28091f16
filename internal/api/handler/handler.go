package handler

import (
	"context"
	"log/slog"

	"github.com/pagelens/pagelens/internal/audit/orchestrator"
	"github.com/pagelens/pagelens/internal/audit/storage"
)

// Dependencies holds everything the handlers need.
type Dependencies struct {
	Logger       *slog.Logger
	Orchestrator *orchestrator.Orchestrator
	Store        storage.Store

	// DatabaseUp probes durable-store connectivity for the health
	// endpoint. nil means no database is configured at all.
	DatabaseUp func(ctx context.Context) bool

	// LLMConfigured reports whether an evaluation credential is present.
	LLMConfigured bool

	// HistoryLimit caps the /api/history listing.
	HistoryLimit int
}

// AuditHandler handles audit submission, polling, and history requests.
type AuditHandler struct {
	logger        *slog.Logger
	orchestrator  *orchestrator.Orchestrator
	store         storage.Store
	databaseUp    func(ctx context.Context) bool
	llmConfigured bool
	historyLimit  int
}

// NewAuditHandler creates an AuditHandler from its dependencies.
func NewAuditHandler(deps *Dependencies) *AuditHandler {
	limit := deps.HistoryLimit
	if limit <= 0 {
		limit = 5
	}
	return &AuditHandler{
		logger:        deps.Logger,
		orchestrator:  deps.Orchestrator,
		store:         deps.Store,
		databaseUp:    deps.DatabaseUp,
		llmConfigured: deps.LLMConfigured,
		historyLimit:  limit,
	}
}
