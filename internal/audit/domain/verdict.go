package domain

import "fmt"

// Severity levels a verdict issue may carry. "critical" is accepted on
// parse but the evaluator prompt and the demo verdict only use the
// other three.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Categories is the fixed set of keys a verdict's category breakdown
// is grouped under.
var Categories = []string{"clarity", "layout", "navigation", "accessibility", "trust"}

// Verdict is the structured usability-audit result.
type Verdict struct {
	OverallScore      int                        `json:"overall_score"`
	SummaryReasoning  string                     `json:"summary_reasoning"`
	TopSevereIssues   []SevereIssue              `json:"top_severe_issues"`
	CategoryBreakdown map[string][]CategoryIssue `json:"category_breakdown"`
}

// SevereIssue is one of the most severe findings, with a before/after fix.
type SevereIssue struct {
	Title          string `json:"title"`
	Severity       string `json:"severity"`
	Evidence       string `json:"evidence"`
	CurrentState   string `json:"current_state"`
	RecommendedFix string `json:"recommended_fix"`
}

// CategoryIssue is a single finding within a category.
type CategoryIssue struct {
	Issue  string `json:"issue"`
	Impact string `json:"impact"`
}

// Validate checks that the verdict satisfies the schema: score in range,
// known severities, and no categories outside the fixed set. A verdict
// that fails validation is treated as an evaluation failure, never
// partially accepted.
func (v *Verdict) Validate() error {
	if v.OverallScore < 0 || v.OverallScore > 100 {
		return fmt.Errorf("overall_score %d out of range [0,100]", v.OverallScore)
	}
	if v.SummaryReasoning == "" {
		return fmt.Errorf("summary_reasoning is empty")
	}
	if len(v.TopSevereIssues) == 0 {
		return fmt.Errorf("top_severe_issues is empty")
	}
	for i, issue := range v.TopSevereIssues {
		if issue.Title == "" {
			return fmt.Errorf("top_severe_issues[%d]: title is empty", i)
		}
		if !validSeverity(issue.Severity) {
			return fmt.Errorf("top_severe_issues[%d]: unknown severity %q", i, issue.Severity)
		}
	}
	if len(v.CategoryBreakdown) == 0 {
		return fmt.Errorf("category_breakdown is empty")
	}
	for category := range v.CategoryBreakdown {
		if !validCategory(category) {
			return fmt.Errorf("category_breakdown: unknown category %q", category)
		}
	}
	return nil
}

func validSeverity(s string) bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

func validCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
