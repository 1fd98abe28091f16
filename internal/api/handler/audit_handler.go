package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pagelens/pagelens/internal/api/dto"
	"github.com/pagelens/pagelens/internal/audit/domain"
)

// Analyze handles POST /api/analyze.
// Accepts a URL and returns the audit id as soon as the record exists;
// capture and evaluation run in the background.
func (h *AuditHandler) Analyze(c *gin.Context) {
	var req dto.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	auditID, err := h.orchestrator.Submit(c.Request.Context(), req.URL)
	if err != nil {
		if errors.Is(err, domain.ErrURLRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required"})
			return
		}
		h.logger.Error("Failed to start audit", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start audit"})
		return
	}

	c.JSON(http.StatusAccepted, dto.AnalyzeResponse{
		AuditID: auditID,
		Status:  domain.StatusPending,
	})
}

// Status handles GET /api/status/:audit_id.
// Read-only projection of a single audit for polling clients.
func (h *AuditHandler) Status(c *gin.Context) {
	auditID := c.Param("audit_id")

	audit, err := h.store.Get(c.Request.Context(), auditID)
	if err != nil {
		if errors.Is(err, domain.ErrAuditNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Audit not found"})
			return
		}
		h.logger.Error("Failed to fetch audit",
			slog.String("audit_id", auditID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching audit"})
		return
	}

	c.JSON(http.StatusOK, dto.StatusResponse{
		AuditID: audit.ID,
		URL:     audit.URL,
		Status:  audit.Status,
		Score:   audit.Score,
		Result:  audit.Result,
		Error:   audit.Error,
	})
}

// History handles GET /api/history.
// Returns the most recent audits, newest first.
func (h *AuditHandler) History(c *gin.Context) {
	audits, err := h.store.ListRecent(c.Request.Context(), h.historyLimit)
	if err != nil {
		h.logger.Error("Failed to list audits", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch audits"})
		return
	}

	summaries := make([]dto.AuditSummary, len(audits))
	for i, audit := range audits {
		summaries[i] = dto.AuditSummary{
			AuditID:   audit.ID,
			URL:       audit.URL,
			Status:    audit.Status,
			Score:     audit.Score,
			CreatedAt: audit.CreatedAt.Format(time.RFC3339),
		}
	}

	c.JSON(http.StatusOK, summaries)
}
