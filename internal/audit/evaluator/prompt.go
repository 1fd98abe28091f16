package evaluator

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/pagelens/pagelens/internal/audit/domain"
)

const systemPrompt = "You are a UX auditing assistant. Output JSON only."

const auditPrompt = `
You are a senior UX reviewer.

Analyze the provided webpage using ONLY the given content and rendered page context.

Tasks:
1. Identify 8-12 UX issues grouped across:
   clarity, layout, navigation, accessibility, trust.
2. Each issue MUST cite concrete evidence (exact text or element description).
3. Avoid generic advice. No assumptions.
4. Identify the top 3 most severe issues and provide before/after fixes.
5. Derive a UX score (0-100) based on issue severity and spread.

Return ONLY valid JSON with this structure:
{
  "overall_score": number,
  "summary_reasoning": "string",
  "top_severe_issues": [
    {
      "title": "string",
      "severity": "high | medium | low",
      "evidence": "string",
      "current_state": "string",
      "recommended_fix": "string"
    }
  ],
  "category_breakdown": {
    "clarity": [{ "issue": "string", "impact": "string" }],
    "layout": [{ "issue": "string", "impact": "string" }],
    "navigation": [{ "issue": "string", "impact": "string" }],
    "accessibility": [{ "issue": "string", "impact": "string" }],
    "trust": [{ "issue": "string", "impact": "string" }]
  }
}
`

// buildMessages assembles the single evaluation request: the fixed
// instruction prompt plus the extracted content as text, and the
// snapshot as an inline low-detail image.
func buildMessages(snapshot []byte, content domain.PageContent) ([]message, error) {
	serialized, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize extracted content: %w", err)
	}

	return []message{
		{
			Role:    "system",
			Content: systemPrompt,
		},
		{
			Role: "user",
			Content: []any{
				textPart{
					Type: "text",
					Text: auditPrompt + "\n\nExtracted Content:\n" + string(serialized),
				},
				imagePart{
					Type: "image_url",
					ImageURL: imageURL{
						URL:    "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(snapshot),
						Detail: "low",
					},
				},
			},
		},
	}, nil
}
