package comment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	s := NewService(nil, nil, nil)

	tests := []struct {
		name     string
		input    string
		contains string
		excludes string
	}{
		{
			name:     "bold markdown",
			input:    "deployment is **blocked** on review",
			contains: "<strong>blocked</strong>",
		},
		{
			name:     "gfm strikethrough",
			input:    "~~done~~ reopened",
			contains: "<del>done</del>",
		},
		{
			name:     "script stripped",
			input:    "hello <script>alert(1)</script> world",
			excludes: "<script>",
		},
		{
			name:     "event handler stripped",
			input:    `<img src="x" onerror="alert(1)">`,
			excludes: "onerror",
		},
		{
			name:     "links kept",
			input:    "see [the runbook](https://example.com/runbook)",
			contains: `href="https://example.com/runbook"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html, err := s.render(tt.input)
			require.NoError(t, err)
			if tt.contains != "" {
				assert.Contains(t, html, tt.contains)
			}
			if tt.excludes != "" {
				assert.NotContains(t, html, tt.excludes)
			}
		})
	}
}
