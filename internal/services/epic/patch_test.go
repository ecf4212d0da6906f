package epic

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goatkit/timeflow/internal/models"
	"github.com/goatkit/timeflow/internal/utils"
)

func strp(s string) *string { return &s }

func TestEpicPatchNormalize(t *testing.T) {
	_, err := (&Patch{Title: strp(" "), StatusCode: strp("string")}).normalize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "At least one field")

	n, err := (&Patch{Title: strp("  Q2 rollout  "), DueDate: strp("30-06-2024")}).normalize()
	require.NoError(t, err)
	require.NotNil(t, n.Title)
	assert.Equal(t, "Q2 rollout", *n.Title)
	require.NotNil(t, n.DueDate)
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, utils.IST), *n.DueDate)
}

func TestEpicApplyCancelRoundTrip(t *testing.T) {
	now := time.Date(2024, 4, 2, 16, 0, 0, 0, utils.IST)
	cur := &models.Epic{
		ID:          3,
		EpicTitle:   "Data migration",
		ProductCode: "PRD002",
		Reporter:    "EMP020",
		StatusCode:  models.StatusInProgress,
	}

	next, set, reason := apply(cur, &normalized{
		StatusCode:         strp(models.StatusCancelled),
		CancellationReason: strp("Customer pulled out"),
	}, now, "EMP020")
	assert.Equal(t, models.StatusCancelled, next.StatusCode)
	assert.Equal(t, "EMP020", *next.CancelledBy)
	assert.Equal(t, "Customer pulled out", set["cancellation_reason"])
	require.NotNil(t, reason)
	assert.Equal(t, "Customer pulled out", *reason)

	reopened, set2, _ := apply(next, &normalized{StatusCode: strp(models.StatusInProgress)}, now, "EMP020")
	assert.Nil(t, reopened.CancelledBy)
	assert.Nil(t, reopened.CancellationReason)
	assert.Nil(t, set2["cancelled_by"])
	require.NotNil(t, reopened.StartDate)
	assert.Equal(t, utils.DateOnly(now), *reopened.StartDate)
}

func TestEpicApplyCompletedStampsClosedOn(t *testing.T) {
	now := time.Date(2024, 4, 2, 16, 0, 0, 0, utils.IST)
	cur := &models.Epic{ID: 4, StatusCode: models.StatusInProgress, ProductCode: "PRD001", Reporter: "EMP020"}
	next, set, _ := apply(cur, &normalized{StatusCode: strp(models.StatusCompleted)}, now, "EMP020")
	require.NotNil(t, next.ClosedOn)
	assert.Equal(t, utils.DateOnly(now), *next.ClosedOn)
	assert.Equal(t, utils.DateOnly(now), set["closed_on"])
}
