package capture

import (
	"strings"

	"github.com/pagelens/pagelens/internal/audit/domain"
)

// maxSamples bounds prompt size, not quality: the evaluator only ever
// sees the first few samples of each selector class.
const maxSamples = 5

// extractScript pulls the page title plus up to maxSamples visible text
// samples for each selector class.
const extractScript = `(() => {
	const take = (selector, limit) =>
		Array.from(document.querySelectorAll(selector))
			.map(el => (el.innerText || "").trim())
			.filter(Boolean)
			.slice(0, limit);
	return {
		title: document.title,
		headings: take("h1, h2, h3", 5),
		buttons: take("button, a", 5),
		forms: take("label", 5),
	};
})()`

// normalizeContent re-applies the trim/non-empty/cap rules on the Go
// side so downstream code can rely on them regardless of what the page
// script returned.
func normalizeContent(content *domain.PageContent) {
	content.Title = strings.TrimSpace(content.Title)
	content.Headings = normalizeSamples(content.Headings)
	content.Buttons = normalizeSamples(content.Buttons)
	content.Forms = normalizeSamples(content.Forms)
}

func normalizeSamples(samples []string) []string {
	out := make([]string, 0, maxSamples)
	for _, sample := range samples {
		trimmed := strings.TrimSpace(sample)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
		if len(out) == maxSamples {
			break
		}
	}
	return out
}
