package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goatkit/timeflow/internal/models"
	"github.com/goatkit/timeflow/internal/utils"
)

func boundedEpic() *models.Epic {
	return &models.Epic{
		ID:          7,
		EpicTitle:   "Billing revamp",
		ProductCode: "PRD001",
		StatusCode:  models.StatusInProgress,
		CreatedAt:   time.Date(2024, 1, 10, 11, 0, 0, 0, utils.IST),
		StartDate:   datep("15-01-2024"),
		DueDate:     datep("31-03-2024"),
	}
}

func TestResolveDatesWithinEpic(t *testing.T) {
	now := time.Date(2024, 2, 1, 10, 0, 0, 0, utils.IST)

	tests := []struct {
		name      string
		epic      *models.Epic
		status    string
		start     *string
		due       *string
		wantErr   string
		wantStart *time.Time
		wantDue   *time.Time
	}{
		{
			name: "omitted dates stay unset",
			epic: boundedEpic(),
		},
		{
			name:      "dates inside the epic bounds accepted",
			epic:      boundedEpic(),
			start:     strp("01-02-2024"),
			due:       strp("15-03-2024"),
			wantStart: datep("01-02-2024"),
			wantDue:   datep("15-03-2024"),
		},
		{
			name:    "start before epic creation rejected",
			epic:    boundedEpic(),
			start:   strp("31-12-2023"),
			wantErr: "cannot be before the epic creation date",
		},
		{
			name:    "due before epic creation rejected",
			epic:    boundedEpic(),
			due:     strp("05-01-2024"),
			wantErr: "cannot be before the epic creation date",
		},
		{
			name:    "start before epic start rejected",
			epic:    boundedEpic(),
			start:   strp("12-01-2024"),
			wantErr: "cannot be before the epic start date",
		},
		{
			name:    "due after epic due rejected",
			epic:    boundedEpic(),
			due:     strp("30-04-2024"),
			wantErr: "cannot be after the epic end date",
		},
		{
			name:    "due before start rejected",
			epic:    boundedEpic(),
			start:   strp("01-03-2024"),
			due:     strp("01-02-2024"),
			wantErr: "cannot be after the task due date",
		},
		{
			name:      "in progress without start date gets today",
			epic:      boundedEpic(),
			status:    models.StatusInProgress,
			wantStart: datep("01-02-2024"),
		},
		{
			name: "closed epic caps due at closed_on",
			epic: func() *models.Epic {
				e := boundedEpic()
				e.ClosedOn = datep("20-02-2024")
				return e
			}(),
			due:     strp("15-03-2024"),
			wantErr: "cannot be after the epic end date",
		},
		{
			name: "due within closed epic accepted",
			epic: func() *models.Epic {
				e := boundedEpic()
				e.ClosedOn = datep("20-02-2024")
				return e
			}(),
			due:     strp("10-02-2024"),
			wantDue: datep("10-02-2024"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := &models.Task{StatusCode: models.StatusNotStarted}
			if tt.status != "" {
				target.StatusCode = tt.status
			}
			err := ResolveDatesWithinEpic(tt.epic, tt.start, tt.due, target, now)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.wantStart == nil {
				assert.Nil(t, target.StartDate)
			} else {
				require.NotNil(t, target.StartDate)
				assert.Equal(t, *tt.wantStart, *target.StartDate)
			}
			if tt.wantDue == nil {
				assert.Nil(t, target.DueDate)
			} else {
				require.NotNil(t, target.DueDate)
				assert.Equal(t, *tt.wantDue, *target.DueDate)
			}
		})
	}
}
