package task

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/history"
	"github.com/goatkit/timeflow/internal/models"
	"github.com/goatkit/timeflow/internal/refdata"
	"github.com/goatkit/timeflow/internal/repository"
	"github.com/goatkit/timeflow/internal/testutil"
	"github.com/goatkit/timeflow/internal/utils"
)

var storeNow = time.Date(2024, 2, 1, 11, 0, 0, 0, utils.IST)

type storeFixture struct {
	svc   *Service
	db    *sqlx.DB
	epics repository.EpicRepository
}

func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()
	db := testutil.OpenDB(t)

	masters := repository.NewMasterRepository(db)
	svc := NewService(db,
		repository.NewTaskRepository(db),
		repository.NewEpicRepository(db),
		repository.NewTemplateRepository(db),
		refdata.NewValidator(masters),
		history.NewRecorder(),
		WithLogger(log.New(io.Discard, "", 0)),
		WithClock(func() time.Time { return storeNow }))

	return &storeFixture{svc: svc, db: db, epics: repository.NewEpicRepository(db)}
}

// seedEpic stores a live epic bounded 15-01-2024 .. 31-03-2024.
func (f *storeFixture) seedEpic(t *testing.T, title, productCode string) int64 {
	t.Helper()
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, utils.IST)
	due := time.Date(2024, 3, 31, 0, 0, 0, 0, utils.IST)
	id, err := f.epics.Insert(context.Background(), f.db, &models.Epic{
		EpicTitle:    title,
		ProductCode:  productCode,
		Reporter:     "LEAD01",
		StatusCode:   models.StatusInProgress,
		PriorityCode: 2,
		StartDate:    &start,
		DueDate:      &due,
		CreatedBy:    "LEAD01",
		CreatedAt:    time.Date(2024, 1, 10, 9, 0, 0, 0, utils.IST),
	})
	require.NoError(t, err)
	return id
}

func (f *storeFixture) histCount(t *testing.T, taskID int64) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.Get(&n,
		"SELECT COUNT(*) FROM task_hist WHERE task_code = ?", taskID))
	return n
}

func TestUpdateEnforcesEpicBounds(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	epicID := f.seedEpic(t, "Billing revamp", "PRD001")

	created, err := f.svc.Create(ctx, &CreateRequest{
		EpicCode:       epicID,
		Title:          "Invoice export",
		PriorityCode:   3,
		EstimatedHours: 20,
		StartDate:      strp("20-01-2024"),
		DueDate:        strp("15-02-2024"),
	}, "LEAD01")
	require.NoError(t, err)
	require.Equal(t, 1, f.histCount(t, created.ID))

	t.Run("due date beyond the epic is rejected", func(t *testing.T) {
		_, err := f.svc.Update(ctx, created.ID, &Patch{DueDate: strp("30-04-2024")}, "LEAD01")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be after the epic end date")

		stored, err := f.svc.Get(ctx, created.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.DueDate)
		assert.Equal(t, time.Date(2024, 2, 15, 0, 0, 0, 0, utils.IST), stored.DueDate.In(utils.IST))
		assert.Equal(t, 1, f.histCount(t, created.ID))
	})

	t.Run("start date before the epic is rejected", func(t *testing.T) {
		_, err := f.svc.Update(ctx, created.ID, &Patch{StartDate: strp("05-01-2024")}, "LEAD01")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be before the epic creation date")
	})

	t.Run("in-bounds update passes and appends one snapshot", func(t *testing.T) {
		updated, err := f.svc.Update(ctx, created.ID, &Patch{DueDate: strp("20-03-2024")}, "LEAD01")
		require.NoError(t, err)
		require.NotNil(t, updated.DueDate)
		assert.Equal(t, time.Date(2024, 3, 20, 0, 0, 0, 0, utils.IST), updated.DueDate.In(utils.IST))
		assert.Equal(t, 2, f.histCount(t, created.ID))
	})
}

func TestUpdateMovesTaskBetweenEpics(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	epicA := f.seedEpic(t, "Billing revamp", "PRD001")
	epicB := f.seedEpic(t, "Portal rewrite", "PRD002")

	created, err := f.svc.Create(ctx, &CreateRequest{
		EpicCode:       epicA,
		Title:          "Invoice export",
		PriorityCode:   3,
		EstimatedHours: 20,
		StartDate:      strp("20-01-2024"),
		DueDate:        strp("15-02-2024"),
	}, "LEAD01")
	require.NoError(t, err)
	require.NotNil(t, created.ProductCode)
	assert.Equal(t, "PRD001", *created.ProductCode)

	moved, err := f.svc.Update(ctx, created.ID, &Patch{EpicCode: int64p(epicB)}, "LEAD01")
	require.NoError(t, err)
	require.NotNil(t, moved.EpicCode)
	assert.Equal(t, epicB, *moved.EpicCode)
	require.NotNil(t, moved.ProductCode)
	assert.Equal(t, "PRD002", *moved.ProductCode)

	// The stored row carries the move too.
	stored, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.EpicCode)
	assert.Equal(t, epicB, *stored.EpicCode)
	require.NotNil(t, stored.ProductCode)
	assert.Equal(t, "PRD002", *stored.ProductCode)

	t.Run("dates are checked against the destination epic", func(t *testing.T) {
		tight := f.seedEpic(t, "Hotfix window", "PRD001")
		_, err := f.db.Exec("UPDATE epics SET due_date = ? WHERE id = ?",
			time.Date(2024, 2, 10, 0, 0, 0, 0, utils.IST), tight)
		require.NoError(t, err)

		// The task's existing due date (15-02) overruns the tight epic.
		_, err = f.svc.Update(ctx, created.ID, &Patch{EpicCode: int64p(tight)}, "LEAD01")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be after the epic end date")
	})
}

func TestUpdateReporterMustExist(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	epicID := f.seedEpic(t, "Billing revamp", "PRD001")

	created, err := f.svc.Create(ctx, &CreateRequest{
		EpicCode:       epicID,
		Title:          "Invoice export",
		PriorityCode:   3,
		EstimatedHours: 20,
	}, "LEAD01")
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, created.ID, &Patch{Reporter: strp("GHOST9")}, "LEAD01")
	require.Error(t, err)
	assert.Equal(t, apierrors.CodeReferenceNotFound, apierrors.AsError(err).Code)

	updated, err := f.svc.Update(ctx, created.ID, &Patch{Reporter: strp("EMP002")}, "LEAD01")
	require.NoError(t, err)
	assert.Equal(t, "EMP002", updated.Reporter)
}
