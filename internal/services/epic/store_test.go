package epic

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goatkit/timeflow/internal/config"
	"github.com/goatkit/timeflow/internal/history"
	"github.com/goatkit/timeflow/internal/models"
	"github.com/goatkit/timeflow/internal/refdata"
	"github.com/goatkit/timeflow/internal/repository"
	"github.com/goatkit/timeflow/internal/testutil"
	"github.com/goatkit/timeflow/internal/utils"
)

func newStoreService(t *testing.T) *Service {
	t.Helper()
	db := testutil.OpenDB(t)
	cfg, err := config.Load("")
	require.NoError(t, err)

	masters := repository.NewMasterRepository(db)
	return NewService(db,
		repository.NewEpicRepository(db),
		masters,
		refdata.NewValidator(masters),
		history.NewRecorder(),
		cfg,
		WithLogger(log.New(io.Discard, "", 0)),
		WithClock(func() time.Time { return time.Date(2024, 5, 20, 12, 0, 0, 0, utils.IST) }))
}

func TestResolveReporter(t *testing.T) {
	svc := newStoreService(t)
	ctx := context.Background()

	teamWithLead := "TM001"
	teamWithoutLead := "TM002"
	adminRole := "Director"
	devRole := "Developer"

	t.Run("admin reports to themselves", func(t *testing.T) {
		reporter, err := svc.resolveReporter(ctx, &models.User{
			UserCode: "ADM01", Designation: &adminRole,
		})
		require.NoError(t, err)
		assert.Equal(t, "ADM01", reporter)
	})

	t.Run("team member reports to the lead", func(t *testing.T) {
		reporter, err := svc.resolveReporter(ctx, &models.User{
			UserCode: "EMP001", Designation: &devRole, TeamCode: &teamWithLead,
		})
		require.NoError(t, err)
		assert.Equal(t, "LEAD01", reporter)
	})

	t.Run("leadless team falls back to the caller", func(t *testing.T) {
		reporter, err := svc.resolveReporter(ctx, &models.User{
			UserCode: "OUT01", Designation: &devRole, TeamCode: &teamWithoutLead,
		})
		require.NoError(t, err)
		assert.Equal(t, "OUT01", reporter)
	})

	t.Run("lookup failure surfaces instead of falling back", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := svc.resolveReporter(cancelled, &models.User{
			UserCode: "EMP001", Designation: &devRole, TeamCode: &teamWithLead,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "resolve reporter for EMP001")
	})
}
