package leave

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goatkit/timeflow/internal/models"
	"github.com/goatkit/timeflow/internal/utils"
)

func day(s string) time.Time {
	d, err := utils.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name      string
		leaveType string
		from, to  time.Time
		wantDays  float64
		wantHours float64
		wantErr   string
	}{
		{
			name:      "permission leave is a quarter day",
			leaveType: models.LeaveTypePermission,
			from:      day("10-06-2024"), to: day("10-06-2024"),
			wantDays: 0.25, wantHours: 2,
		},
		{
			name:      "permission leave cannot span days",
			leaveType: models.LeaveTypePermission,
			from:      day("10-06-2024"), to: day("11-06-2024"),
			wantErr: "single day",
		},
		{
			name:      "half day is half a day",
			leaveType: models.LeaveTypeHalfDay,
			from:      day("10-06-2024"), to: day("10-06-2024"),
			wantDays: 0.5, wantHours: 4,
		},
		{
			name:      "half day cannot span days",
			leaveType: models.LeaveTypeHalfDay,
			from:      day("10-06-2024"), to: day("12-06-2024"),
			wantErr: "single day",
		},
		{
			name:      "regular leave counts inclusive days",
			leaveType: "LT001",
			from:      day("10-06-2024"), to: day("14-06-2024"),
			wantDays: 5, wantHours: 40,
		},
		{
			name:      "regular single day",
			leaveType: "LT002",
			from:      day("10-06-2024"), to: day("10-06-2024"),
			wantDays: 1, wantHours: 8,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, hours, err := duration(tt.leaveType, tt.from, tt.to)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDays, days)
			require.NotNil(t, hours)
			assert.Equal(t, tt.wantHours, *hours)
		})
	}
}

func TestWorkingDaysSkipsWeekends(t *testing.T) {
	svc := NewService(nil, nil, nil, nil)
	// Monday 10th through Sunday 16th June 2024: five business days.
	assert.Equal(t, 5.0, svc.workingDays(day("10-06-2024"), day("16-06-2024")))
	// Saturday only.
	assert.Equal(t, 0.0, svc.workingDays(day("15-06-2024"), day("15-06-2024")))
}
