package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/goatkit/timeflow/internal/database"
	"github.com/goatkit/timeflow/internal/models"
)

const taskColumns = `id, task_title, description, epic_code, assignee, reporter,
	assigned_team_code, team_code, status_code, priority_code, task_type_code,
	work_mode, assigned_on, start_date, due_date, closed_on, estimated_hours,
	max_hours, is_billable, product_code, cancelled_by, cancelled_at,
	cancellation_reason, predefined_task_id, created_by, created_at, updated_by, updated_at`

// TaskRepository is data access for tasks and their template rows.
type TaskRepository interface {
	GetByID(ctx context.Context, ext sqlx.ExtContext, id int64) (*models.Task, error)
	GetByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) (*models.Task, error)
	Insert(ctx context.Context, ext sqlx.ExtContext, t *models.Task) (int64, error)
	UpdateFields(ctx context.Context, ext sqlx.ExtContext, id int64, set map[string]any) error
	FindByTemplateAndEpic(ctx context.Context, ext sqlx.ExtContext, templateID, epicID int64) (*models.Task, error)

	DetachTimesheetEntries(ctx context.Context, tx *sqlx.Tx, taskID int64, actor string) (int64, error)
	DeleteChildren(ctx context.Context, tx *sqlx.Tx, taskID int64) (comments, attachments int64, err error)
	Delete(ctx context.Context, tx *sqlx.Tx, taskID int64) error
}

// SQLTaskRepository is the sqlx implementation of TaskRepository.
type SQLTaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository creates a task repository over db.
func NewTaskRepository(db *sqlx.DB) *SQLTaskRepository {
	return &SQLTaskRepository{db: db}
}

// DB exposes the underlying handle for transaction begin.
func (r *SQLTaskRepository) DB() *sqlx.DB { return r.db }

func (r *SQLTaskRepository) getBy(ctx context.Context, ext sqlx.ExtContext, query string, args ...any) (*models.Task, error) {
	var t models.Task
	if err := sqlx.GetContext(ctx, ext, &t, database.ConvertPlaceholders(query), args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &t, nil
}

func (r *SQLTaskRepository) GetByID(ctx context.Context, ext sqlx.ExtContext, id int64) (*models.Task, error) {
	return r.getBy(ctx, ext, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
}

func (r *SQLTaskRepository) GetByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) (*models.Task, error) {
	return r.getBy(ctx, tx, forUpdate("SELECT "+taskColumns+" FROM tasks WHERE id = ?"), id)
}

func (r *SQLTaskRepository) FindByTemplateAndEpic(ctx context.Context, ext sqlx.ExtContext, templateID, epicID int64) (*models.Task, error) {
	return r.getBy(ctx, ext,
		"SELECT "+taskColumns+" FROM tasks WHERE predefined_task_id = ? AND epic_code = ? ORDER BY created_at DESC LIMIT 1",
		templateID, epicID)
}

func (r *SQLTaskRepository) Insert(ctx context.Context, ext sqlx.ExtContext, t *models.Task) (int64, error) {
	cols := []string{
		"task_title", "description", "epic_code", "assignee", "reporter",
		"assigned_team_code", "team_code", "status_code", "priority_code",
		"task_type_code", "work_mode", "assigned_on", "start_date", "due_date",
		"closed_on", "estimated_hours", "max_hours", "is_billable", "product_code",
		"predefined_task_id", "created_by", "created_at",
	}
	vals := []any{
		t.TaskTitle, t.Description, t.EpicCode, t.Assignee, t.Reporter,
		t.AssignedTeamCode, t.TeamCode, t.StatusCode, t.PriorityCode,
		t.TaskTypeCode, t.WorkMode, t.AssignedOn, t.StartDate, t.DueDate,
		t.ClosedOn, t.EstimatedHours, t.MaxHours, t.IsBillable, t.ProductCode,
		t.PredefinedTaskID, t.CreatedBy, t.CreatedAt,
	}
	return insertReturningID(ctx, ext, "tasks", cols, vals)
}

func (r *SQLTaskRepository) UpdateFields(ctx context.Context, ext sqlx.ExtContext, id int64, set map[string]any) error {
	return updateByID(ctx, ext, "tasks", set, id)
}

// DetachTimesheetEntries clears task_code on entries logged against the task
// so they survive the delete. Returns the number of detached rows.
func (r *SQLTaskRepository) DetachTimesheetEntries(ctx context.Context, tx *sqlx.Tx, taskID int64, actor string) (int64, error) {
	query := database.ConvertPlaceholders(
		"UPDATE timesheet_entry SET task_code = NULL, updated_by = ?, updated_at = ? WHERE task_code = ?")
	res, err := tx.ExecContext(ctx, query, actor, nowIST(), taskID)
	if err != nil {
		return 0, fmt.Errorf("detach timesheet entries: %w", err)
	}
	return res.RowsAffected()
}

// DeleteChildren removes comments and attachments owned by the task.
func (r *SQLTaskRepository) DeleteChildren(ctx context.Context, tx *sqlx.Tx, taskID int64) (int64, int64, error) {
	res, err := tx.ExecContext(ctx, database.ConvertPlaceholders(
		"DELETE FROM comments WHERE parent_type = ? AND parent_code = ?"), models.ParentTask, taskID)
	if err != nil {
		return 0, 0, fmt.Errorf("delete task comments: %w", err)
	}
	comments, _ := res.RowsAffected()

	res, err = tx.ExecContext(ctx, database.ConvertPlaceholders(
		"DELETE FROM attachments WHERE parent_type = ? AND parent_code = ?"), models.ParentTask, taskID)
	if err != nil {
		return 0, 0, fmt.Errorf("delete task attachments: %w", err)
	}
	attachments, _ := res.RowsAffected()
	return comments, attachments, nil
}

// Delete removes the task row and its history.
func (r *SQLTaskRepository) Delete(ctx context.Context, tx *sqlx.Tx, taskID int64) error {
	if _, err := tx.ExecContext(ctx, database.ConvertPlaceholders(
		"DELETE FROM task_hist WHERE task_code = ?"), taskID); err != nil {
		return fmt.Errorf("delete task history: %w", err)
	}
	res, err := tx.ExecContext(ctx, database.ConvertPlaceholders(
		"DELETE FROM tasks WHERE id = ?"), taskID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
