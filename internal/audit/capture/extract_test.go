package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pagelens/pagelens/internal/audit/domain"
)

func TestNormalizeSamples(t *testing.T) {
	tests := []struct {
		name    string
		samples []string
		want    []string
	}{
		{
			name:    "nil stays empty",
			samples: nil,
			want:    []string{},
		},
		{
			name:    "trims surrounding whitespace",
			samples: []string{"  Sign up  ", "\tLog in\n"},
			want:    []string{"Sign up", "Log in"},
		},
		{
			name:    "drops blank entries",
			samples: []string{"Pricing", "", "   ", "Docs"},
			want:    []string{"Pricing", "Docs"},
		},
		{
			name:    "caps the sample count",
			samples: []string{"a", "b", "c", "d", "e", "f", "g"},
			want:    []string{"a", "b", "c", "d", "e"},
		},
		{
			name:    "blank entries do not count toward the cap",
			samples: []string{"", "a", " ", "b", "c", "d", "", "e", "f"},
			want:    []string{"a", "b", "c", "d", "e"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeSamples(tt.samples))
		})
	}
}

func TestNormalizeContent(t *testing.T) {
	content := domain.PageContent{
		Title:    "  Example Domain  ",
		Headings: []string{" Welcome ", "", "Features"},
		Buttons:  []string{"one", "two", "three", "four", "five", "six"},
		Forms:    []string{"  "},
	}

	normalizeContent(&content)

	assert.Equal(t, "Example Domain", content.Title)
	assert.Equal(t, []string{"Welcome", "Features"}, content.Headings)
	assert.Len(t, content.Buttons, maxSamples)
	assert.Empty(t, content.Forms)
}
