package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/goatkit/timeflow/internal/database"
	"github.com/goatkit/timeflow/internal/models"
)

const entryColumns = `id, user_code, entry_date, task_code, epic_code,
	activity_code, ticket_code, task_type_code, actual_hours_worked,
	travel_time, waiting_time, total_hours, work_location, description,
	approval_status, submitted_by, submitted_at, approved_by, approved_at,
	rejected_by, rejected_at, rejection_reason, created_by, created_at,
	updated_by, updated_at`

// TimesheetRepository is data access for timesheet entries.
type TimesheetRepository interface {
	GetByID(ctx context.Context, ext sqlx.ExtContext, id int64) (*models.TimesheetEntry, error)
	GetByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) (*models.TimesheetEntry, error)
	Insert(ctx context.Context, ext sqlx.ExtContext, e *models.TimesheetEntry) (int64, error)
	UpdateFields(ctx context.Context, ext sqlx.ExtContext, id int64, set map[string]any) error
	ListForUserRange(ctx context.Context, userCode string, from, to time.Time) ([]models.TimesheetEntry, error)

	ActivityExists(ctx context.Context, ext sqlx.ExtContext, id int64) (bool, error)
	InsertActivity(ctx context.Context, ext sqlx.ExtContext, a *models.Activity, createdAt time.Time) (int64, error)
}

// SQLTimesheetRepository is the sqlx implementation of TimesheetRepository.
type SQLTimesheetRepository struct {
	db *sqlx.DB
}

// NewTimesheetRepository creates a timesheet repository over db.
func NewTimesheetRepository(db *sqlx.DB) *SQLTimesheetRepository {
	return &SQLTimesheetRepository{db: db}
}

// DB exposes the underlying handle for transaction begin.
func (r *SQLTimesheetRepository) DB() *sqlx.DB { return r.db }

func (r *SQLTimesheetRepository) getBy(ctx context.Context, ext sqlx.ExtContext, query string, args ...any) (*models.TimesheetEntry, error) {
	var e models.TimesheetEntry
	if err := sqlx.GetContext(ctx, ext, &e, database.ConvertPlaceholders(query), args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get timesheet entry: %w", err)
	}
	return &e, nil
}

func (r *SQLTimesheetRepository) GetByID(ctx context.Context, ext sqlx.ExtContext, id int64) (*models.TimesheetEntry, error) {
	return r.getBy(ctx, ext, "SELECT "+entryColumns+" FROM timesheet_entry WHERE id = ?", id)
}

func (r *SQLTimesheetRepository) GetByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) (*models.TimesheetEntry, error) {
	return r.getBy(ctx, tx, forUpdate("SELECT "+entryColumns+" FROM timesheet_entry WHERE id = ?"), id)
}

func (r *SQLTimesheetRepository) Insert(ctx context.Context, ext sqlx.ExtContext, e *models.TimesheetEntry) (int64, error) {
	cols := []string{
		"user_code", "entry_date", "task_code", "epic_code", "activity_code",
		"ticket_code", "task_type_code", "actual_hours_worked", "travel_time",
		"waiting_time", "total_hours", "work_location", "description",
		"approval_status", "created_by", "created_at",
	}
	vals := []any{
		e.UserCode, e.EntryDate, e.TaskCode, e.EpicCode, e.ActivityCode,
		e.TicketCode, e.TaskTypeCode, e.ActualHours, e.TravelTime,
		e.WaitingTime, e.TotalHours, e.WorkLocation, e.Description,
		e.ApprovalStatus, e.CreatedBy, e.CreatedAt,
	}
	return insertReturningID(ctx, ext, "timesheet_entry", cols, vals)
}

func (r *SQLTimesheetRepository) UpdateFields(ctx context.Context, ext sqlx.ExtContext, id int64, set map[string]any) error {
	return updateByID(ctx, ext, "timesheet_entry", set, id)
}

func (r *SQLTimesheetRepository) ListForUserRange(ctx context.Context, userCode string, from, to time.Time) ([]models.TimesheetEntry, error) {
	var out []models.TimesheetEntry
	query := database.ConvertPlaceholders(
		"SELECT " + entryColumns + " FROM timesheet_entry WHERE user_code = ? AND entry_date >= ? AND entry_date <= ? ORDER BY entry_date, id")
	if err := r.db.SelectContext(ctx, &out, query, userCode, from, to); err != nil {
		return nil, fmt.Errorf("list timesheet entries: %w", err)
	}
	return out, nil
}

func (r *SQLTimesheetRepository) ActivityExists(ctx context.Context, ext sqlx.ExtContext, id int64) (bool, error) {
	return exists(ctx, ext, "SELECT 1 FROM activities WHERE id = ?", id)
}

func (r *SQLTimesheetRepository) InsertActivity(ctx context.Context, ext sqlx.ExtContext, a *models.Activity, createdAt time.Time) (int64, error) {
	cols := []string{"activity_title", "activity_description", "product_code", "is_billable", "created_by", "created_at"}
	vals := []any{a.Title, a.Description, a.ProductCode, a.IsBillable, a.CreatedBy, createdAt}
	return insertReturningID(ctx, ext, "activities", cols, vals)
}
