package domain

import "time"

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Audit represents a single submitted usability audit and its tracked lifecycle.
type Audit struct {
	ID        string    `db:"audit_id"`
	URL       string    `db:"url"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	Score     *int      `db:"score"`
	Result    *Verdict  `db:"-"`
	Error     string    `db:"error_message"`
}

// IsTerminal reports whether a status is one the audit can never leave.
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

// PageContent is the bounded structural text extracted during capture.
// Each slice holds at most five trimmed, non-empty samples.
type PageContent struct {
	Title    string   `json:"title"`
	Headings []string `json:"headings"`
	Buttons  []string `json:"buttons"`
	Forms    []string `json:"forms"`
}
