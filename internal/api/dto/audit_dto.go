package dto

import "github.com/pagelens/pagelens/internal/audit/domain"

type AnalyzeRequest struct {
	URL string `json:"url"`
}

type AnalyzeResponse struct {
	AuditID string `json:"auditId"`
	Status  string `json:"status"`
}

type StatusResponse struct {
	AuditID string          `json:"auditId"`
	URL     string          `json:"url"`
	Status  string          `json:"status"`
	Score   *int            `json:"score,omitempty"`
	Result  *domain.Verdict `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type AuditSummary struct {
	AuditID   string `json:"auditId"`
	URL       string `json:"url"`
	Status    string `json:"status"`
	Score     *int   `json:"score,omitempty"`
	CreatedAt string `json:"created_at"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	LLM       string `json:"llm"`
	Timestamp string `json:"timestamp"`
}
