package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pagelens/pagelens/internal/api/dto"
)

// SystemStatus handles GET /api/status (no id): overall service health,
// distinct from the per-audit status endpoint.
func (h *AuditHandler) SystemStatus(c *gin.Context) {
	database := "disconnected"
	if h.databaseUp != nil && h.databaseUp(c.Request.Context()) {
		database = "connected"
	}

	llm := "demo_mode"
	if h.llmConfigured {
		llm = "configured"
	}

	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:    "ok",
		Database:  database,
		LLM:       llm,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
