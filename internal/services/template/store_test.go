package template

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goatkit/timeflow/internal/history"
	"github.com/goatkit/timeflow/internal/refdata"
	"github.com/goatkit/timeflow/internal/repository"
	"github.com/goatkit/timeflow/internal/testutil"
	"github.com/goatkit/timeflow/internal/utils"
)

var storeNow = time.Date(2024, 5, 20, 12, 0, 0, 0, utils.IST)

func newStoreService(t *testing.T) (*Service, *sqlx.DB) {
	t.Helper()
	db := testutil.OpenDB(t)

	masters := repository.NewMasterRepository(db)
	svc := NewService(db,
		repository.NewTemplateRepository(db),
		repository.NewEpicRepository(db),
		repository.NewTaskRepository(db),
		refdata.NewValidator(masters),
		history.NewRecorder(),
		WithLogger(log.New(io.Discard, "", 0)),
		WithClock(func() time.Time { return storeNow }))
	return svc, db
}

func count(t *testing.T, db *sqlx.DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, query, args...))
	return n
}

func TestExpandEpicRefreshesInsteadOfDuplicating(t *testing.T) {
	svc, db := newStoreService(t)
	ctx := context.Background()

	saved, err := svc.Save(ctx, &SaveRequest{
		TemplateType:   TypeEpic,
		Title:          "Client onboarding",
		PriorityCode:   2,
		EstimatedHours: 40,
		Tasks:          json.RawMessage(`[{"task_title":"Kickoff call","estimated_hours":8}]`),
	}, "LEAD01")
	require.NoError(t, err)
	require.Len(t, saved.TaskIDs, 1)

	company := "CMP001"
	first, err := svc.ExpandEpic(ctx, &ExpandEpicRequest{
		PredefinedEpicID: saved.TemplateID,
		ProductCode:      "PRD001",
		CompanyCode:      &company,
	}, "LEAD01")
	require.NoError(t, err)
	assert.True(t, first.Created)
	require.Len(t, first.Tasks, 1)

	// The same (template, company) pair expanded again refreshes the live
	// rows in place.
	second, err := svc.ExpandEpic(ctx, &ExpandEpicRequest{
		PredefinedEpicID: saved.TemplateID,
		ProductCode:      "PRD002",
		CompanyCode:      &company,
	}, "EMP001")
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Epic.ID, second.Epic.ID)
	assert.Equal(t, "PRD002", second.Epic.ProductCode)
	require.Len(t, second.Tasks, 1)
	assert.Equal(t, first.Tasks[0].ID, second.Tasks[0].ID)

	assert.Equal(t, 1, count(t, db, "SELECT COUNT(*) FROM epics"))
	assert.Equal(t, 1, count(t, db, "SELECT COUNT(*) FROM tasks"))
	assert.Equal(t, 2, count(t, db, "SELECT COUNT(*) FROM epic_hist WHERE epic_code = ?", first.Epic.ID))
	assert.Equal(t, 2, count(t, db, "SELECT COUNT(*) FROM task_hist WHERE task_code = ?", first.Tasks[0].ID))

	// The refresh preserved original authorship.
	var createdBy string
	require.NoError(t, db.Get(&createdBy, "SELECT created_by FROM epics WHERE id = ?", first.Epic.ID))
	assert.Equal(t, "LEAD01", createdBy)
	var productCode string
	require.NoError(t, db.Get(&productCode, "SELECT product_code FROM epics WHERE id = ?", first.Epic.ID))
	assert.Equal(t, "PRD002", productCode)

	t.Run("another company gets its own epic", func(t *testing.T) {
		third, err := svc.ExpandEpic(ctx, &ExpandEpicRequest{
			PredefinedEpicID: saved.TemplateID,
			ProductCode:      "PRD001",
		}, "LEAD01")
		require.NoError(t, err)
		assert.True(t, third.Created)
		assert.NotEqual(t, first.Epic.ID, third.Epic.ID)
		assert.Equal(t, 2, count(t, db, "SELECT COUNT(*) FROM epics"))

		// A companyless expansion keys on the NULL company, so repeating it
		// refreshes the second epic rather than creating a third.
		fourth, err := svc.ExpandEpic(ctx, &ExpandEpicRequest{
			PredefinedEpicID: saved.TemplateID,
			ProductCode:      "PRD001",
		}, "LEAD01")
		require.NoError(t, err)
		assert.False(t, fourth.Created)
		assert.Equal(t, third.Epic.ID, fourth.Epic.ID)
		assert.Equal(t, 2, count(t, db, "SELECT COUNT(*) FROM epics"))
	})
}
