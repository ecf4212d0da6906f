package timesheet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goatkit/timeflow/internal/models"
	"github.com/goatkit/timeflow/internal/utils"
)

func i64p(v int64) *int64     { return &v }
func f64p(v float64) *float64 { return &v }
func strp(s string) *string   { return &s }

func TestParentRefs(t *testing.T) {
	tests := []struct {
		name      string
		req       CreateRequest
		wantCount int
	}{
		{"none", CreateRequest{}, 0},
		{"zero values are placeholders", CreateRequest{TaskCode: i64p(0), ActivityCode: i64p(0)}, 0},
		{"task only", CreateRequest{TaskCode: i64p(12)}, 1},
		{"activity only", CreateRequest{ActivityCode: i64p(3)}, 1},
		{"ticket only", CreateRequest{TicketCode: i64p(9001)}, 1},
		{"task and ticket", CreateRequest{TaskCode: i64p(12), TicketCode: i64p(9001)}, 2},
		{"all three", CreateRequest{TaskCode: i64p(1), ActivityCode: i64p(2), TicketCode: i64p(3)}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, count := tt.req.parentRefs()
			assert.Equal(t, tt.wantCount, count)
		})
	}
}

func TestDraftHours(t *testing.T) {
	tests := []struct {
		name                    string
		actual, travel, waiting float64
		claimed                 *float64
		wantTotal               float64
		wantErr                 string
	}{
		{name: "simple sum", actual: 6, travel: 1, waiting: 0.5, wantTotal: 7.5},
		{name: "claimed total within tolerance", actual: 6, travel: 1, waiting: 0.5, claimed: f64p(7.505), wantTotal: 7.505},
		{name: "claimed total off", actual: 6, travel: 1, waiting: 0.5, claimed: f64p(8), wantErr: "does not match"},
		{name: "all zero allowed for a partial save", wantTotal: 0},
		{name: "claimed total alone accepted", claimed: f64p(5), wantTotal: 5},
		{name: "negative travel rejected", actual: 4, travel: -1, wantErr: "cannot be negative"},
		{name: "over 24 rejected", actual: 20, travel: 3, waiting: 2, wantErr: "cannot exceed 24"},
		{name: "exactly 24 allowed", actual: 24, wantTotal: 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, err := draftHours(tt.actual, tt.travel, tt.waiting, tt.claimed)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantTotal, total, 0.0001)
		})
	}
}

func completeTaskEntry() *models.TimesheetEntry {
	d := time.Date(2024, 5, 20, 0, 0, 0, 0, utils.IST)
	return &models.TimesheetEntry{
		UserCode:     "EMP001",
		EntryDate:    &d,
		TaskCode:     i64p(12),
		EpicCode:     i64p(7),
		ActualHours:  6,
		WorkLocation: strp("OFFICE"),
		Description:  strp("Built the export job"),
	}
}

func TestCheckSubmittable(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(e *models.TimesheetEntry)
		wantErr string
	}{
		{name: "complete task entry", mutate: func(e *models.TimesheetEntry) {}},
		{
			name:    "missing entry date",
			mutate:  func(e *models.TimesheetEntry) { e.EntryDate = nil },
			wantErr: "entry_date",
		},
		{
			name: "no parent at all",
			mutate: func(e *models.TimesheetEntry) {
				e.TaskCode = nil
				e.EpicCode = nil
			},
			wantErr: "exactly one required",
		},
		{
			name:    "two parents",
			mutate:  func(e *models.TimesheetEntry) { e.ActivityCode = i64p(3) },
			wantErr: "multiple parent codes",
		},
		{
			name:    "task entry without epic",
			mutate:  func(e *models.TimesheetEntry) { e.EpicCode = nil },
			wantErr: "epic_code (required when task_code is provided)",
		},
		{
			name:    "task entry without work location",
			mutate:  func(e *models.TimesheetEntry) { e.WorkLocation = nil },
			wantErr: "work_location (required for task entries)",
		},
		{
			name:    "task entry with blank description",
			mutate:  func(e *models.TimesheetEntry) { e.Description = strp("   ") },
			wantErr: "description (required for task entries)",
		},
		{
			name:    "zero actual hours",
			mutate:  func(e *models.TimesheetEntry) { e.ActualHours = 0 },
			wantErr: "actual_hours_worked (must be > 0)",
		},
		{
			name: "activity entry with epic rejected",
			mutate: func(e *models.TimesheetEntry) {
				e.TaskCode = nil
				e.ActivityCode = i64p(3)
			},
			wantErr: "cannot have epic_code",
		},
		{
			name: "activity entry with task type rejected",
			mutate: func(e *models.TimesheetEntry) {
				e.TaskCode = nil
				e.EpicCode = nil
				e.ActivityCode = i64p(3)
				e.TaskTypeCode = strp("TT002")
			},
			wantErr: "cannot have task_type_code",
		},
		{
			name: "bare activity entry submits",
			mutate: func(e *models.TimesheetEntry) {
				e.TaskCode = nil
				e.EpicCode = nil
				e.WorkLocation = nil
				e.Description = nil
				e.ActivityCode = i64p(3)
			},
		},
		{
			name: "ticket entry with epic rejected",
			mutate: func(e *models.TimesheetEntry) {
				e.TaskCode = nil
				e.TicketCode = i64p(9001)
			},
			wantErr: "cannot have epic_code",
		},
		{
			name: "ticket entry without description submits",
			mutate: func(e *models.TimesheetEntry) {
				e.TaskCode = nil
				e.EpicCode = nil
				e.Description = nil
				e.TicketCode = i64p(9001)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := completeTaskEntry()
			tt.mutate(e)
			err := checkSubmittable(e)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCheckEntryDate(t *testing.T) {
	svc := &Service{}
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, utils.IST)

	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{name: "today", raw: "20-05-2024"},
		{name: "iso form", raw: "2024-05-18"},
		{name: "seven days back", raw: "13-05-2024"},
		{name: "eight days back", raw: "12-05-2024", wantErr: "more than 7 days"},
		{name: "tomorrow", raw: "21-05-2024", wantErr: "future"},
		{name: "missing", raw: "", wantErr: "required"},
		{name: "garbage", raw: "2024/05/20", wantErr: "Invalid entry_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := svc.checkEntryDate(tt.raw, now)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.False(t, d.IsZero())
		})
	}
}
