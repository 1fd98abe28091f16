package evaluator

import "github.com/pagelens/pagelens/internal/audit/domain"

// demoIssue carries only what the scoring rule needs.
type demoIssue struct {
	severity string
	category string
}

// demoIssues is the fixed issue list used when no credential is
// configured: two high, three medium, three low, spread across the
// five categories.
var demoIssues = []demoIssue{
	{severity: domain.SeverityHigh, category: "accessibility"},
	{severity: domain.SeverityHigh, category: "clarity"},
	{severity: domain.SeverityMedium, category: "navigation"},
	{severity: domain.SeverityMedium, category: "layout"},
	{severity: domain.SeverityMedium, category: "trust"},
	{severity: domain.SeverityLow, category: "layout"},
	{severity: domain.SeverityLow, category: "clarity"},
	{severity: domain.SeverityLow, category: "navigation"},
}

// demoScore derives the score from severity alone: start at 100,
// subtract 10 per high, 5 per medium, 2 per low, clamp to [40, 95].
// With the fixed issue list above this is always 59.
func demoScore(issues []demoIssue) int {
	score := 100
	for _, issue := range issues {
		switch issue.severity {
		case domain.SeverityHigh:
			score -= 10
		case domain.SeverityMedium:
			score -= 5
		case domain.SeverityLow:
			score -= 2
		}
	}
	if score < 40 {
		score = 40
	}
	if score > 95 {
		score = 95
	}
	return score
}

// DemoVerdict returns the fixed deterministic verdict used to validate
// the end-to-end pipeline without calling any external service.
func DemoVerdict() *domain.Verdict {
	return &domain.Verdict{
		OverallScore: demoScore(demoIssues),
		SummaryReasoning: "The page demonstrates a solid baseline UX but shows several simulated issues " +
			"across clarity, navigation, and accessibility. This score reflects the cumulative severity " +
			"of those findings.",
		TopSevereIssues: []domain.SevereIssue{
			{
				Title:          "Low Contrast Primary CTA",
				Severity:       domain.SeverityHigh,
				Evidence:       "Primary button text appears light against a white background",
				CurrentState:   "The primary call-to-action lacks sufficient contrast, reducing visibility.",
				RecommendedFix: "Increase contrast to meet WCAG AA standards by darkening the button text or background.",
			},
			{
				Title:          "Overloaded Top Navigation",
				Severity:       domain.SeverityMedium,
				Evidence:       "Top navigation contains more than 7 visible menu items",
				CurrentState:   "Too many navigation options increase cognitive load for users.",
				RecommendedFix: "Group secondary links under a dropdown or move them to the footer.",
			},
			{
				Title:          "Unclear Hero Value Proposition",
				Severity:       domain.SeverityMedium,
				Evidence:       "Hero headline does not clearly describe user benefit",
				CurrentState:   "Users may not immediately understand what the product offers.",
				RecommendedFix: "Rewrite the headline to emphasize a clear outcome or benefit.",
			},
		},
		CategoryBreakdown: map[string][]domain.CategoryIssue{
			"clarity": {
				{Issue: "Vague headline", Impact: "Users may struggle to understand the product quickly."},
				{Issue: "Generic CTA labels", Impact: "Reduced conversion intent."},
			},
			"layout": {
				{Issue: "Hero image scaling", Impact: "Content may crop on small screens."},
				{Issue: "Inconsistent spacing", Impact: "Visual hierarchy is weakened."},
			},
			"navigation": {
				{Issue: "Too many menu items", Impact: "Increases cognitive load."},
				{Issue: "No search option", Impact: "Harder to find specific content."},
			},
			"accessibility": {
				{Issue: "Low contrast text", Impact: "Fails accessibility guidelines."},
			},
			"trust": {
				{Issue: "Missing social proof", Impact: "Reduces credibility for first-time visitors."},
			},
		},
	}
}
