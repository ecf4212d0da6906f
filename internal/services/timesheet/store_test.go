package timesheet

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
	"github.com/goatkit/timeflow/internal/config"
	"github.com/goatkit/timeflow/internal/history"
	"github.com/goatkit/timeflow/internal/models"
	"github.com/goatkit/timeflow/internal/refdata"
	"github.com/goatkit/timeflow/internal/repository"
	"github.com/goatkit/timeflow/internal/services/approval"
	"github.com/goatkit/timeflow/internal/testutil"
	"github.com/goatkit/timeflow/internal/utils"
)

var storeNow = time.Date(2024, 5, 20, 12, 0, 0, 0, utils.IST)

type storeFixture struct {
	svc   *Service
	db    *sqlx.DB
	tasks repository.TaskRepository
	epics repository.EpicRepository
}

func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()
	db := testutil.OpenDB(t)
	cfg, err := config.Load("")
	require.NoError(t, err)

	masters := repository.NewMasterRepository(db)
	entries := repository.NewTimesheetRepository(db)
	tasks := repository.NewTaskRepository(db)
	svc := NewService(db, entries, tasks,
		refdata.NewValidator(masters),
		approval.NewResolver(masters, cfg),
		history.NewRecorder(),
		WithLogger(log.New(io.Discard, "", 0)),
		WithClock(func() time.Time { return storeNow }))

	return &storeFixture{svc: svc, db: db, tasks: tasks, epics: repository.NewEpicRepository(db)}
}

// seedTask writes a live epic plus one task under it and returns the task id.
func (f *storeFixture) seedTask(t *testing.T) int64 {
	t.Helper()
	ctx := context.Background()

	start := time.Date(2024, 5, 1, 0, 0, 0, 0, utils.IST)
	due := time.Date(2024, 6, 30, 0, 0, 0, 0, utils.IST)
	epicID, err := f.epics.Insert(ctx, f.db, &models.Epic{
		EpicTitle:    "Billing revamp",
		ProductCode:  "PRD001",
		Reporter:     "LEAD01",
		StatusCode:   models.StatusInProgress,
		PriorityCode: 2,
		StartDate:    &start,
		DueDate:      &due,
		CreatedBy:    "LEAD01",
		CreatedAt:    time.Date(2024, 4, 20, 9, 0, 0, 0, utils.IST),
	})
	require.NoError(t, err)

	tt := "TT002"
	taskID, err := f.tasks.Insert(ctx, f.db, &models.Task{
		TaskTitle:      "Invoice export",
		EpicCode:       &epicID,
		Reporter:       "LEAD01",
		StatusCode:     models.StatusInProgress,
		PriorityCode:   3,
		TaskTypeCode:   &tt,
		EstimatedHours: 20,
		MaxHours:       30,
		IsBillable:     true,
		CreatedBy:      "LEAD01",
		CreatedAt:      time.Date(2024, 4, 21, 9, 0, 0, 0, utils.IST),
	})
	require.NoError(t, err)
	return taskID
}

func (f *storeFixture) histCount(t *testing.T, entryID int64) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.Get(&n,
		"SELECT COUNT(*) FROM timesheet_entry_hist WHERE entry_code = ?", entryID))
	return n
}

func (f *storeFixture) histStatuses(t *testing.T, entryID int64) []string {
	t.Helper()
	var statuses []string
	require.NoError(t, f.db.Select(&statuses,
		"SELECT approval_status FROM timesheet_entry_hist WHERE entry_code = ? ORDER BY id", entryID))
	return statuses
}

func TestCreateDraftPartialSave(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	taskID := f.seedTask(t)

	t.Run("bare draft with only a parent", func(t *testing.T) {
		e, err := f.svc.CreateDraft(ctx, &CreateRequest{
			UserCode: "EMP001",
			TaskCode: &taskID,
		}, "EMP001")
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalDraft, e.ApprovalStatus)
		assert.Nil(t, e.EntryDate)
		assert.Zero(t, e.ActualHours)
		require.NotNil(t, e.EpicCode)
		assert.Equal(t, 1, f.histCount(t, e.ID))
	})

	t.Run("draft with no parent at all", func(t *testing.T) {
		e, err := f.svc.CreateDraft(ctx, &CreateRequest{UserCode: "EMP001"}, "EMP001")
		require.NoError(t, err)
		assert.Nil(t, e.TaskCode)
		assert.Nil(t, e.ActivityCode)
		assert.Nil(t, e.TicketCode)
	})

	t.Run("two parents still rejected", func(t *testing.T) {
		ticket := int64(9001)
		_, err := f.svc.CreateDraft(ctx, &CreateRequest{
			UserCode:   "EMP001",
			TaskCode:   &taskID,
			TicketCode: &ticket,
		}, "EMP001")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "At most one")
	})

	t.Run("provided entry date is still window checked", func(t *testing.T) {
		_, err := f.svc.CreateDraft(ctx, &CreateRequest{
			UserCode:  "EMP001",
			TaskCode:  &taskID,
			EntryDate: "01-04-2024",
		}, "EMP001")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "more than 7 days")
	})
}

func TestSubmitRequiresCompleteEntry(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	taskID := f.seedTask(t)

	e, err := f.svc.CreateDraft(ctx, &CreateRequest{
		UserCode: "EMP001",
		TaskCode: &taskID,
	}, "EMP001")
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, e.ID, "EMP001")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing required fields")
	assert.Contains(t, err.Error(), "entry_date")
	assert.Contains(t, err.Error(), "work_location")
	assert.Contains(t, err.Error(), "actual_hours_worked")

	// The failed submission must not have advanced the row or its trail.
	stored, err := f.svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalDraft, stored.ApprovalStatus)
	assert.Equal(t, 1, f.histCount(t, e.ID))

	// Completing the draft makes the same entry submittable.
	_, err = f.db.Exec(`UPDATE timesheet_entry
		SET entry_date = ?, actual_hours_worked = ?, total_hours = ?, work_location = ?, description = ?
		WHERE id = ?`,
		utils.DateOnly(storeNow), 6.0, 6.0, "OFFICE", "Built the export job", e.ID)
	require.NoError(t, err)

	submitted, err := f.svc.Submit(ctx, e.ID, "EMP001")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalSubmitted, submitted.ApprovalStatus)
	assert.Equal(t, 2, f.histCount(t, e.ID))
}

// submitEntry drafts and submits a complete task entry for owner.
func (f *storeFixture) submitEntry(t *testing.T, owner string, taskID int64) *models.TimesheetEntry {
	t.Helper()
	ctx := context.Background()

	e, err := f.svc.CreateDraft(ctx, &CreateRequest{
		UserCode:     owner,
		EntryDate:    "20-05-2024",
		TaskCode:     &taskID,
		ActualHours:  6,
		WorkLocation: strp("OFFICE"),
		Description:  strp("Built the export job"),
	}, owner)
	require.NoError(t, err)

	submitted, err := f.svc.Submit(ctx, e.ID, owner)
	require.NoError(t, err)
	return submitted
}

func TestSubmitOwnerOnly(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	taskID := f.seedTask(t)

	e, err := f.svc.CreateDraft(ctx, &CreateRequest{
		UserCode:     "EMP001",
		EntryDate:    "20-05-2024",
		TaskCode:     &taskID,
		ActualHours:  6,
		WorkLocation: strp("OFFICE"),
		Description:  strp("Built the export job"),
	}, "EMP001")
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, e.ID, "EMP002")
	require.Error(t, err)
	assert.Equal(t, apierrors.CodeForbidden, apierrors.AsError(err).Code)
}

func TestDecideAuthority(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	taskID := f.seedTask(t)

	t.Run("owner cannot decide their own entry", func(t *testing.T) {
		e := f.submitEntry(t, "EMP001", taskID)
		_, err := f.svc.Decide(ctx, e.ID, Decision{Approve: true}, "EMP001")
		require.Error(t, err)
		assert.Equal(t, apierrors.CodeForbidden, apierrors.AsError(err).Code)
	})

	t.Run("unrelated user cannot decide", func(t *testing.T) {
		e := f.submitEntry(t, "EMP001", taskID)
		_, err := f.svc.Decide(ctx, e.ID, Decision{Approve: true}, "OUT01")
		require.Error(t, err)
		assert.Equal(t, apierrors.CodeForbidden, apierrors.AsError(err).Code)
	})

	t.Run("team lead approves", func(t *testing.T) {
		e := f.submitEntry(t, "EMP001", taskID)
		decided, err := f.svc.Decide(ctx, e.ID, Decision{Approve: true}, "LEAD01")
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalApproved, decided.ApprovalStatus)
		assert.Equal(t, []string{models.ApprovalDraft, models.ApprovalSubmitted, models.ApprovalApproved}, f.histStatuses(t, e.ID))
	})

	t.Run("admin rejects with a reason", func(t *testing.T) {
		e := f.submitEntry(t, "EMP002", taskID)
		decided, err := f.svc.Decide(ctx, e.ID, Decision{Approve: false, Reason: "Wrong task"}, "ADM01")
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalRejected, decided.ApprovalStatus)
		require.NotNil(t, decided.RejectionReason)
		assert.Equal(t, "Wrong task", *decided.RejectionReason)
	})

	t.Run("admin-owned entry needs the team reporter", func(t *testing.T) {
		e := f.submitEntry(t, "REP01", taskID)
		_, err := f.svc.Decide(ctx, e.ID, Decision{Approve: true}, "LEAD01")
		require.Error(t, err)
		assert.Equal(t, apierrors.CodeForbidden, apierrors.AsError(err).Code)

		decided, err := f.svc.Decide(ctx, e.ID, Decision{Approve: true}, "REP01")
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalApproved, decided.ApprovalStatus)
	})
}

func TestDecideStateBeforeReason(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	taskID := f.seedTask(t)

	e, err := f.svc.CreateDraft(ctx, &CreateRequest{
		UserCode: "EMP001",
		TaskCode: &taskID,
	}, "EMP001")
	require.NoError(t, err)

	// A reasonless rejection of a non-SUBMITTED entry reports the state
	// problem, not the missing reason.
	_, err = f.svc.Decide(ctx, e.ID, Decision{Approve: false}, "LEAD01")
	require.Error(t, err)
	assert.Equal(t, apierrors.CodeStateConflict, apierrors.AsError(err).Code)

	stored, err := f.svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalDraft, stored.ApprovalStatus)
	assert.Equal(t, 1, f.histCount(t, e.ID))
}

func TestDecidedEntryIsTerminal(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	taskID := f.seedTask(t)

	e := f.submitEntry(t, "EMP001", taskID)
	_, err := f.svc.Decide(ctx, e.ID, Decision{Approve: true}, "LEAD01")
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, e.ID, "EMP001")
	require.Error(t, err)
	assert.Equal(t, apierrors.CodeStateConflict, apierrors.AsError(err).Code)

	_, err = f.svc.Decide(ctx, e.ID, Decision{Approve: false, Reason: "changed my mind"}, "LEAD01")
	require.Error(t, err)
	assert.Equal(t, apierrors.CodeStateConflict, apierrors.AsError(err).Code)

	assert.Equal(t, []string{models.ApprovalDraft, models.ApprovalSubmitted, models.ApprovalApproved}, f.histStatuses(t, e.ID))
}
