package template

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTaskEntries(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantLen int
		wantErr string
	}{
		{name: "absent", raw: "", wantLen: 0},
		{name: "empty array", raw: `[]`, wantLen: 0},
		{
			name:    "inline definition",
			raw:     `[{"task_title": "Set up environment", "estimated_hours": 4}]`,
			wantLen: 1,
		},
		{
			name:    "link by template id",
			raw:     `[{"template_id": 12}]`,
			wantLen: 1,
		},
		{
			name:    "mixed",
			raw:     `[{"template_id": 12}, {"task_title": "Kickoff meeting", "estimated_hours": 1, "work_mode": "REMOTE"}]`,
			wantLen: 2,
		},
		{
			name:    "missing both title and template id",
			raw:     `[{"estimated_hours": 4}]`,
			wantErr: "failed validation",
		},
		{
			name:    "blank title",
			raw:     `[{"task_title": "", "estimated_hours": 4}]`,
			wantErr: "failed validation",
		},
		{
			name:    "zero estimated hours",
			raw:     `[{"task_title": "x", "estimated_hours": 0}]`,
			wantErr: "failed validation",
		},
		{
			name:    "bad work mode",
			raw:     `[{"task_title": "x", "estimated_hours": 2, "work_mode": "HYBRID"}]`,
			wantErr: "failed validation",
		},
		{
			name:    "not an array",
			raw:     `{"task_title": "x"}`,
			wantErr: "failed validation",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := parseTaskEntries(json.RawMessage(tt.raw))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, entries, tt.wantLen)
		})
	}
}

func TestCheckTemplateHours(t *testing.T) {
	maxv := func(v float64) *float64 { return &v }

	got, err := checkTemplateHours(8, nil)
	require.NoError(t, err)
	assert.Equal(t, 8.0, got)

	got, err = checkTemplateHours(8, maxv(12))
	require.NoError(t, err)
	assert.Equal(t, 12.0, got)

	_, err = checkTemplateHours(0, nil)
	require.Error(t, err)

	_, err = checkTemplateHours(8, maxv(4))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "less than estimated")
}
