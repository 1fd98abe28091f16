package router

import (
	"github.com/gin-gonic/gin"

	"github.com/pagelens/pagelens/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes.
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	auditHandler := handler.NewAuditHandler(deps)

	api := r.Group("/api")
	{
		// POST /api/analyze - submit a URL for auditing
		api.POST("/analyze", auditHandler.Analyze)

		// GET /api/status - service health (distinct from audit status)
		api.GET("/status", auditHandler.SystemStatus)

		// GET /api/status/:audit_id - poll one audit
		api.GET("/status/:audit_id", auditHandler.Status)

		// GET /api/history - most recent audits, newest first
		api.GET("/history", auditHandler.History)
	}

	return r
}
