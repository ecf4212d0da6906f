package leave

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
	"github.com/goatkit/timeflow/internal/models"
	"github.com/goatkit/timeflow/internal/refdata"
	"github.com/goatkit/timeflow/internal/repository"
	"github.com/goatkit/timeflow/internal/services/approval"
	"github.com/goatkit/timeflow/internal/testutil"
	"github.com/goatkit/timeflow/internal/utils"
)

var storeNow = time.Date(2024, 5, 20, 12, 0, 0, 0, utils.IST)

func newStoreService(t *testing.T) (*Service, *sqlx.DB) {
	t.Helper()
	db := testutil.OpenDB(t)
	cfg, err := config.Load("")
	require.NoError(t, err)

	masters := repository.NewMasterRepository(db)
	svc := NewService(db,
		repository.NewLeaveRepository(db),
		refdata.NewValidator(masters),
		approval.NewResolver(masters, cfg),
		WithLogger(log.New(io.Discard, "", 0)),
		WithClock(func() time.Time { return storeNow }))
	return svc, db
}

func strp(s string) *string { return &s }

func TestApplyStoresDraft(t *testing.T) {
	svc, db := newStoreService(t)
	ctx := context.Background()

	app, err := svc.Apply(ctx, &ApplyRequest{
		UserCode:      "EMP001",
		LeaveTypeCode: "LT001",
		FromDate:      "03-06-2024",
		ToDate:        strp("05-06-2024"),
		Status:        strp(models.ApprovalDraft),
	}, "EMP001")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalDraft, app.ApprovalStatus)
	assert.Equal(t, 3.0, app.DurationDays)

	var stored string
	require.NoError(t, db.Get(&stored,
		"SELECT approval_status FROM leave_applications WHERE id = ?", app.ID))
	assert.Equal(t, models.ApprovalDraft, stored)
}

func TestApplyReworksDraftInPlace(t *testing.T) {
	svc, db := newStoreService(t)
	ctx := context.Background()

	draft, err := svc.Apply(ctx, &ApplyRequest{
		UserCode:      "EMP001",
		LeaveTypeCode: "LT001",
		FromDate:      "03-06-2024",
		ToDate:        strp("05-06-2024"),
		Status:        strp(models.ApprovalDraft),
	}, "EMP001")
	require.NoError(t, err)

	t.Run("rework promotes the draft without a second row", func(t *testing.T) {
		reworked, err := svc.Apply(ctx, &ApplyRequest{
			UserCode:      "EMP001",
			LeaveTypeCode: "LT006",
			FromDate:      "04-06-2024",
			Reason:        strp("Doctor visit"),
			ApplicationID: &draft.ID,
		}, "EMP001")
		require.NoError(t, err)
		assert.Equal(t, draft.ID, reworked.ID)
		assert.Equal(t, models.ApprovalSubmitted, reworked.ApprovalStatus)
		assert.Equal(t, "LT006", reworked.LeaveTypeCode)
		assert.Equal(t, 0.5, reworked.DurationDays)

		var n int
		require.NoError(t, db.Get(&n, "SELECT COUNT(*) FROM leave_applications"))
		assert.Equal(t, 1, n)
	})

	t.Run("submitted applications cannot be reworked", func(t *testing.T) {
		_, err := svc.Apply(ctx, &ApplyRequest{
			UserCode:      "EMP001",
			LeaveTypeCode: "LT001",
			FromDate:      "10-06-2024",
			ApplicationID: &draft.ID,
		}, "EMP001")
		require.Error(t, err)
		assert.Equal(t, apierrors.CodeStateConflict, apierrors.AsError(err).Code)
	})
}

func TestApplyReworkOwnerOnly(t *testing.T) {
	svc, _ := newStoreService(t)
	ctx := context.Background()

	draft, err := svc.Apply(ctx, &ApplyRequest{
		UserCode:      "EMP001",
		LeaveTypeCode: "LT001",
		FromDate:      "03-06-2024",
		Status:        strp(models.ApprovalDraft),
	}, "EMP001")
	require.NoError(t, err)

	_, err = svc.Apply(ctx, &ApplyRequest{
		UserCode:      "EMP002",
		LeaveTypeCode: "LT001",
		FromDate:      "04-06-2024",
		ApplicationID: &draft.ID,
	}, "EMP002")
	require.Error(t, err)
	assert.Equal(t, apierrors.CodeNotFound, apierrors.AsError(err).Code)
}

func TestDecideRequiresAdmin(t *testing.T) {
	svc, _ := newStoreService(t)
	ctx := context.Background()

	app, err := svc.Apply(ctx, &ApplyRequest{
		UserCode:      "EMP001",
		LeaveTypeCode: "LT001",
		FromDate:      "03-06-2024",
	}, "EMP001")
	require.NoError(t, err)
	require.Equal(t, models.ApprovalSubmitted, app.ApprovalStatus)

	t.Run("non-admin is refused", func(t *testing.T) {
		_, err := svc.Decide(ctx, app.ID, true, "", "EMP002")
		require.Error(t, err)
		assert.Equal(t, apierrors.CodeForbidden, apierrors.AsError(err).Code)
	})

	t.Run("draft cannot be decided", func(t *testing.T) {
		draft, err := svc.Apply(ctx, &ApplyRequest{
			UserCode:      "EMP002",
			LeaveTypeCode: "LT001",
			FromDate:      "03-06-2024",
			Status:        strp(models.ApprovalDraft),
		}, "EMP002")
		require.NoError(t, err)

		_, err = svc.Decide(ctx, draft.ID, true, "", "ADM01")
		require.Error(t, err)
		assert.Equal(t, apierrors.CodeStateConflict, apierrors.AsError(err).Code)
	})

	t.Run("admin approves", func(t *testing.T) {
		decided, err := svc.Decide(ctx, app.ID, true, "", "ADM01")
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalApproved, decided.ApprovalStatus)
		require.NotNil(t, decided.ApprovedBy)
		assert.Equal(t, "ADM01", *decided.ApprovedBy)
	})
}
