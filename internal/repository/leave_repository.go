package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/goatkit/timeflow/internal/database"
	"github.com/goatkit/timeflow/internal/models"
)

const leaveColumns = `id, user_code, leave_type_code, from_date, to_date,
	duration_days, duration_hours, reason, approval_status, approved_by,
	approved_at, rejected_by, rejected_at, rejection_reason, created_by,
	created_at, updated_by, updated_at`

// LeaveRepository is data access for leave applications.
type LeaveRepository interface {
	GetByID(ctx context.Context, ext sqlx.ExtContext, id int64) (*models.LeaveApplication, error)
	GetByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) (*models.LeaveApplication, error)
	Insert(ctx context.Context, ext sqlx.ExtContext, l *models.LeaveApplication) (int64, error)
	UpdateFields(ctx context.Context, ext sqlx.ExtContext, id int64, set map[string]any) error
}

// SQLLeaveRepository is the sqlx implementation of LeaveRepository.
type SQLLeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository creates a leave repository over db.
func NewLeaveRepository(db *sqlx.DB) *SQLLeaveRepository {
	return &SQLLeaveRepository{db: db}
}

// DB exposes the underlying handle for transaction begin.
func (r *SQLLeaveRepository) DB() *sqlx.DB { return r.db }

func (r *SQLLeaveRepository) getBy(ctx context.Context, ext sqlx.ExtContext, query string, args ...any) (*models.LeaveApplication, error) {
	var l models.LeaveApplication
	if err := sqlx.GetContext(ctx, ext, &l, database.ConvertPlaceholders(query), args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get leave application: %w", err)
	}
	return &l, nil
}

func (r *SQLLeaveRepository) GetByID(ctx context.Context, ext sqlx.ExtContext, id int64) (*models.LeaveApplication, error) {
	return r.getBy(ctx, ext, "SELECT "+leaveColumns+" FROM leave_applications WHERE id = ?", id)
}

func (r *SQLLeaveRepository) GetByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) (*models.LeaveApplication, error) {
	return r.getBy(ctx, tx, forUpdate("SELECT "+leaveColumns+" FROM leave_applications WHERE id = ?"), id)
}

func (r *SQLLeaveRepository) Insert(ctx context.Context, ext sqlx.ExtContext, l *models.LeaveApplication) (int64, error) {
	cols := []string{
		"user_code", "leave_type_code", "from_date", "to_date", "duration_days",
		"duration_hours", "reason", "approval_status", "created_by", "created_at",
	}
	vals := []any{
		l.UserCode, l.LeaveTypeCode, l.FromDate, l.ToDate, l.DurationDays,
		l.DurationHours, l.Reason, l.ApprovalStatus, l.CreatedBy, l.CreatedAt,
	}
	return insertReturningID(ctx, ext, "leave_applications", cols, vals)
}

func (r *SQLLeaveRepository) UpdateFields(ctx context.Context, ext sqlx.ExtContext, id int64, set map[string]any) error {
	return updateByID(ctx, ext, "leave_applications", set, id)
}
