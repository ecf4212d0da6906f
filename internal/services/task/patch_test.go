package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goatkit/timeflow/internal/models"
	"github.com/goatkit/timeflow/internal/utils"
)

func strp(s string) *string { return &s }
func intp(v int) *int       { return &v }

func datep(s string) *time.Time {
	d, err := utils.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func TestPatchNormalizeFiltersPlaceholders(t *testing.T) {
	tests := []struct {
		name    string
		patch   Patch
		wantErr string
		check   func(t *testing.T, n *normalized)
	}{
		{
			name:    "all placeholders rejected",
			patch:   Patch{Title: strp(""), StatusCode: strp("string"), PriorityCode: intp(0)},
			wantErr: "At least one field must be provided to update",
		},
		{
			name:    "empty patch rejected",
			patch:   Patch{},
			wantErr: "At least one field must be provided to update",
		},
		{
			name:  "literal string placeholder is case insensitive",
			patch: Patch{StatusCode: strp("STRING"), Title: strp("Fix login")},
			check: func(t *testing.T, n *normalized) {
				assert.Nil(t, n.StatusCode)
				require.NotNil(t, n.Title)
				assert.Equal(t, "Fix login", *n.Title)
			},
		},
		{
			name:  "values are trimmed",
			patch: Patch{Assignee: strp("  EMP001  ")},
			check: func(t *testing.T, n *normalized) {
				require.NotNil(t, n.Assignee)
				assert.Equal(t, "EMP001", *n.Assignee)
			},
		},
		{
			name:  "dd-mm-yyyy date accepted",
			patch: Patch{StartDate: strp("15-01-2024")},
			check: func(t *testing.T, n *normalized) {
				require.NotNil(t, n.StartDate)
				assert.True(t, n.StartDateExplicit)
				assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, utils.IST), *n.StartDate)
			},
		},
		{
			name:  "iso date accepted",
			patch: Patch{DueDate: strp("2024-02-20")},
			check: func(t *testing.T, n *normalized) {
				require.NotNil(t, n.DueDate)
				assert.Equal(t, time.Date(2024, 2, 20, 0, 0, 0, 0, utils.IST), *n.DueDate)
			},
		},
		{
			name:    "garbage date rejected",
			patch:   Patch{StartDate: strp("15/01/2024")},
			wantErr: "Invalid start_date",
		},
		{
			name:  "zero priority is placeholder, nonzero is value",
			patch: Patch{PriorityCode: intp(2)},
			check: func(t *testing.T, n *normalized) {
				require.NotNil(t, n.PriorityCode)
				assert.Equal(t, 2, *n.PriorityCode)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := tt.patch.normalize()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, n)
		})
	}
}

func baseTask() *models.Task {
	return &models.Task{
		ID:               42,
		TaskTitle:        "Investigate sync failures",
		Reporter:         "EMP010",
		StatusCode:       models.StatusNotStarted,
		PriorityCode:     3,
		EstimatedHours:   8,
		MaxHours:         8,
		Assignee:         strp("EMP001"),
		AssignedTeamCode: strp("TM001"),
		TeamCode:         strp("TM001"),
		CreatedBy:        "EMP010",
	}
}

func TestApplyStatusSideEffects(t *testing.T) {
	now := time.Date(2024, 3, 10, 14, 30, 0, 0, utils.IST)
	today := utils.DateOnly(now)

	t.Run("in progress defaults start date to today", func(t *testing.T) {
		next, set, reason := apply(baseTask(), &normalized{StatusCode: strp(models.StatusInProgress)}, now, "EMP001")
		assert.Equal(t, models.StatusInProgress, next.StatusCode)
		require.NotNil(t, next.StartDate)
		assert.Equal(t, today, *next.StartDate)
		assert.Equal(t, today, set["start_date"])
		assert.Nil(t, reason)
	})

	t.Run("explicit start date survives in progress transition", func(t *testing.T) {
		supplied := datep("01-03-2024")
		n := &normalized{StatusCode: strp(models.StatusInProgress), StartDate: supplied, StartDateExplicit: true}
		next, set, _ := apply(baseTask(), n, now, "EMP001")
		assert.Equal(t, *supplied, *next.StartDate)
		assert.Equal(t, *supplied, set["start_date"])
	})

	t.Run("completed always stamps closed_on", func(t *testing.T) {
		cur := baseTask()
		cur.StatusCode = models.StatusInProgress
		old := time.Date(2024, 1, 1, 0, 0, 0, 0, utils.IST)
		cur.ClosedOn = &old
		next, set, _ := apply(cur, &normalized{StatusCode: strp(models.StatusCompleted)}, now, "EMP001")
		require.NotNil(t, next.ClosedOn)
		assert.Equal(t, today, *next.ClosedOn)
		assert.Equal(t, today, set["closed_on"])
	})

	t.Run("cancelled records actor time and reason", func(t *testing.T) {
		n := &normalized{
			StatusCode:         strp(models.StatusCancelled),
			CancellationReason: strp("Duplicate of another task"),
		}
		next, set, reason := apply(baseTask(), n, now, "EMP009")
		require.NotNil(t, next.CancelledBy)
		assert.Equal(t, "EMP009", *next.CancelledBy)
		assert.Equal(t, now, *next.CancelledAt)
		assert.Equal(t, "Duplicate of another task", set["cancellation_reason"])
		require.NotNil(t, reason)
		assert.Equal(t, "Duplicate of another task", *reason)
	})

	t.Run("leaving cancelled clears cancel markers", func(t *testing.T) {
		cur := baseTask()
		cur.StatusCode = models.StatusCancelled
		cur.CancelledBy = strp("EMP009")
		cur.CancelledAt = &now
		cur.CancellationReason = strp("old reason")
		next, set, _ := apply(cur, &normalized{StatusCode: strp(models.StatusInProgress)}, now, "EMP001")
		assert.Nil(t, next.CancelledBy)
		assert.Nil(t, next.CancelledAt)
		assert.Nil(t, next.CancellationReason)
		assert.Nil(t, set["cancelled_by"])
		assert.Nil(t, set["cancellation_reason"])
	})

	t.Run("same status is not a transition", func(t *testing.T) {
		cur := baseTask()
		cur.StatusCode = models.StatusInProgress
		next, set, _ := apply(cur, &normalized{StatusCode: strp(models.StatusInProgress), Title: strp("Renamed")}, now, "EMP001")
		assert.Nil(t, next.StartDate)
		_, hasStart := set["start_date"]
		assert.False(t, hasStart)
		assert.Equal(t, "Renamed", next.TaskTitle)
	})
}

func TestApplyAssignmentCoherence(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, utils.IST)
	today := utils.DateOnly(now)

	t.Run("team change without assignee clears assignee", func(t *testing.T) {
		next, set, _ := apply(baseTask(), &normalized{AssignedTeamCode: strp("TM002")}, now, "EMP010")
		assert.Nil(t, next.Assignee)
		assert.Nil(t, next.AssignedOn)
		assert.Nil(t, set["assignee"])
		assert.Equal(t, "TM002", *next.AssignedTeamCode)
		assert.Equal(t, "TM002", *next.TeamCode)
	})

	t.Run("same team leaves assignee untouched", func(t *testing.T) {
		next, set, _ := apply(baseTask(), &normalized{AssignedTeamCode: strp("TM001")}, now, "EMP010")
		require.NotNil(t, next.Assignee)
		assert.Equal(t, "EMP001", *next.Assignee)
		_, cleared := set["assignee"]
		assert.False(t, cleared)
	})

	t.Run("assignee change stamps assigned_on and follows team", func(t *testing.T) {
		n := &normalized{Assignee: strp("EMP005"), AssignedTeamCode: strp("TM003")}
		next, set, _ := apply(baseTask(), n, now, "EMP010")
		assert.Equal(t, "EMP005", *next.Assignee)
		assert.Equal(t, today, *next.AssignedOn)
		assert.Equal(t, "TM003", *next.AssignedTeamCode)
		assert.Equal(t, "TM003", *next.TeamCode)
		assert.Equal(t, "TM003", set["team_code"])
	})

	t.Run("audit columns always stamped", func(t *testing.T) {
		_, set, _ := apply(baseTask(), &normalized{Title: strp("x")}, now, "EMP010")
		assert.Equal(t, "EMP010", set["updated_by"])
		assert.Equal(t, now, set["updated_at"])
	})
}

func int64p(v int64) *int64 { return &v }
func boolp(v bool) *bool    { return &v }

func TestApplyOwnershipAndBilling(t *testing.T) {
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, utils.IST)
	today := utils.DateOnly(now)

	t.Run("epic move carries the new epic's product", func(t *testing.T) {
		cur := baseTask()
		cur.EpicCode = int64p(7)
		cur.ProductCode = strp("PRD001")
		n := &normalized{EpicCode: int64p(9), ProductCode: strp("PRD002")}
		next, set, _ := apply(cur, n, now, "EMP010")
		require.NotNil(t, next.EpicCode)
		assert.Equal(t, int64(9), *next.EpicCode)
		assert.Equal(t, int64(9), set["epic_code"])
		require.NotNil(t, next.ProductCode)
		assert.Equal(t, "PRD002", *next.ProductCode)
		assert.Equal(t, "PRD002", set["product_code"])
	})

	t.Run("explicit closed_on is persisted", func(t *testing.T) {
		n := &normalized{ClosedOn: datep("05-03-2024")}
		next, set, _ := apply(baseTask(), n, now, "EMP010")
		require.NotNil(t, next.ClosedOn)
		assert.Equal(t, *datep("05-03-2024"), *next.ClosedOn)
		assert.Equal(t, *datep("05-03-2024"), set["closed_on"])
	})

	t.Run("completed transition overrides explicit closed_on", func(t *testing.T) {
		n := &normalized{StatusCode: strp(models.StatusCompleted), ClosedOn: datep("05-03-2024")}
		next, set, _ := apply(baseTask(), n, now, "EMP010")
		require.NotNil(t, next.ClosedOn)
		assert.Equal(t, today, *next.ClosedOn)
		assert.Equal(t, today, set["closed_on"])
	})

	t.Run("reporter and billability updates", func(t *testing.T) {
		n := &normalized{Reporter: strp("EMP020"), IsBillable: boolp(false)}
		next, set, _ := apply(baseTask(), n, now, "EMP010")
		assert.Equal(t, "EMP020", next.Reporter)
		assert.Equal(t, "EMP020", set["reporter"])
		assert.False(t, next.IsBillable)
		assert.Equal(t, false, set["is_billable"])
	})
}

func TestPatchNormalizeOwnershipFields(t *testing.T) {
	t.Run("zero epic_code is a placeholder", func(t *testing.T) {
		_, err := (&Patch{EpicCode: int64p(0)}).normalize()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "At least one field must be provided")
	})

	t.Run("closed_on parses both date layouts", func(t *testing.T) {
		n, err := (&Patch{ClosedOn: strp("2024-03-05")}).normalize()
		require.NoError(t, err)
		require.NotNil(t, n.ClosedOn)
		assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, utils.IST), *n.ClosedOn)
	})

	t.Run("is_billable false is a real value", func(t *testing.T) {
		n, err := (&Patch{IsBillable: boolp(false)}).normalize()
		require.NoError(t, err)
		require.NotNil(t, n.IsBillable)
		assert.False(t, *n.IsBillable)
	})
}
