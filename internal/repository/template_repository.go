package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/goatkit/timeflow/internal/database"
	"github.com/goatkit/timeflow/internal/models"
)

const predefinedEpicColumns = `id, title, description, contact_person_code,
	priority_code, estimated_hours, max_hours, is_billable, is_active,
	created_by, created_at, updated_by, updated_at`

const predefinedTaskColumns = `id, task_title, task_description, status_code,
	priority_code, task_type_code, work_mode, team_code, estimated_hours,
	max_hours, is_billable, predefined_epic_id, created_by, created_at,
	updated_by, updated_at`

// TemplateRepository is data access for predefined epic/task templates.
type TemplateRepository interface {
	GetEpicTemplate(ctx context.Context, ext sqlx.ExtContext, id int64) (*models.PredefinedEpic, error)
	FindEpicTemplateByTitle(ctx context.Context, ext sqlx.ExtContext, title string, excludeID int64) (*models.PredefinedEpic, error)
	InsertEpicTemplate(ctx context.Context, ext sqlx.ExtContext, t *models.PredefinedEpic) (int64, error)
	UpdateEpicTemplateFields(ctx context.Context, ext sqlx.ExtContext, id int64, set map[string]any) error

	GetTaskTemplate(ctx context.Context, ext sqlx.ExtContext, id int64) (*models.PredefinedTask, error)
	ListTaskTemplatesOfEpic(ctx context.Context, ext sqlx.ExtContext, epicTemplateID int64) ([]models.PredefinedTask, error)
	InsertTaskTemplate(ctx context.Context, ext sqlx.ExtContext, t *models.PredefinedTask) (int64, error)
	UpdateTaskTemplateFields(ctx context.Context, ext sqlx.ExtContext, id int64, set map[string]any) error
	DeleteTaskTemplate(ctx context.Context, ext sqlx.ExtContext, id int64) error

	EpicTemplateExists(ctx context.Context, ext sqlx.ExtContext, id int64) (bool, error)
}

// SQLTemplateRepository is the sqlx implementation of TemplateRepository.
type SQLTemplateRepository struct {
	db *sqlx.DB
}

// NewTemplateRepository creates a template repository over db.
func NewTemplateRepository(db *sqlx.DB) *SQLTemplateRepository {
	return &SQLTemplateRepository{db: db}
}

// DB exposes the underlying handle for transaction begin.
func (r *SQLTemplateRepository) DB() *sqlx.DB { return r.db }

func (r *SQLTemplateRepository) GetEpicTemplate(ctx context.Context, ext sqlx.ExtContext, id int64) (*models.PredefinedEpic, error) {
	var t models.PredefinedEpic
	query := database.ConvertPlaceholders("SELECT " + predefinedEpicColumns + " FROM predefined_epics WHERE id = ?")
	if err := sqlx.GetContext(ctx, ext, &t, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get predefined epic: %w", err)
	}
	return &t, nil
}

func (r *SQLTemplateRepository) FindEpicTemplateByTitle(ctx context.Context, ext sqlx.ExtContext, title string, excludeID int64) (*models.PredefinedEpic, error) {
	var t models.PredefinedEpic
	query := database.ConvertPlaceholders("SELECT " + predefinedEpicColumns + " FROM predefined_epics WHERE title = ? AND id != ?")
	if err := sqlx.GetContext(ctx, ext, &t, query, title, excludeID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find predefined epic by title: %w", err)
	}
	return &t, nil
}

func (r *SQLTemplateRepository) InsertEpicTemplate(ctx context.Context, ext sqlx.ExtContext, t *models.PredefinedEpic) (int64, error) {
	cols := []string{
		"title", "description", "contact_person_code", "priority_code",
		"estimated_hours", "max_hours", "is_billable", "is_active",
		"created_by", "created_at",
	}
	vals := []any{
		t.Title, t.Description, t.ContactPersonCode, t.PriorityCode,
		t.EstimatedHours, t.MaxHours, t.IsBillable, t.IsActive,
		t.CreatedBy, t.CreatedAt,
	}
	return insertReturningID(ctx, ext, "predefined_epics", cols, vals)
}

func (r *SQLTemplateRepository) UpdateEpicTemplateFields(ctx context.Context, ext sqlx.ExtContext, id int64, set map[string]any) error {
	return updateByID(ctx, ext, "predefined_epics", set, id)
}

func (r *SQLTemplateRepository) GetTaskTemplate(ctx context.Context, ext sqlx.ExtContext, id int64) (*models.PredefinedTask, error) {
	var t models.PredefinedTask
	query := database.ConvertPlaceholders("SELECT " + predefinedTaskColumns + " FROM predefined_tasks WHERE id = ?")
	if err := sqlx.GetContext(ctx, ext, &t, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get predefined task: %w", err)
	}
	return &t, nil
}

func (r *SQLTemplateRepository) ListTaskTemplatesOfEpic(ctx context.Context, ext sqlx.ExtContext, epicTemplateID int64) ([]models.PredefinedTask, error) {
	var out []models.PredefinedTask
	query := database.ConvertPlaceholders(
		"SELECT " + predefinedTaskColumns + " FROM predefined_tasks WHERE predefined_epic_id = ? ORDER BY id")
	if err := sqlx.SelectContext(ctx, ext, &out, query, epicTemplateID); err != nil {
		return nil, fmt.Errorf("list predefined tasks: %w", err)
	}
	return out, nil
}

func (r *SQLTemplateRepository) InsertTaskTemplate(ctx context.Context, ext sqlx.ExtContext, t *models.PredefinedTask) (int64, error) {
	cols := []string{
		"task_title", "task_description", "status_code", "priority_code",
		"task_type_code", "work_mode", "team_code", "estimated_hours",
		"max_hours", "is_billable", "predefined_epic_id", "created_by", "created_at",
	}
	vals := []any{
		t.TaskTitle, t.TaskDescription, t.StatusCode, t.PriorityCode,
		t.TaskTypeCode, t.WorkMode, t.TeamCode, t.EstimatedHours,
		t.MaxHours, t.IsBillable, t.PredefinedEpicID, t.CreatedBy, t.CreatedAt,
	}
	return insertReturningID(ctx, ext, "predefined_tasks", cols, vals)
}

func (r *SQLTemplateRepository) UpdateTaskTemplateFields(ctx context.Context, ext sqlx.ExtContext, id int64, set map[string]any) error {
	return updateByID(ctx, ext, "predefined_tasks", set, id)
}

func (r *SQLTemplateRepository) DeleteTaskTemplate(ctx context.Context, ext sqlx.ExtContext, id int64) error {
	res, err := ext.ExecContext(ctx, database.ConvertPlaceholders("DELETE FROM predefined_tasks WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete predefined task: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *SQLTemplateRepository) EpicTemplateExists(ctx context.Context, ext sqlx.ExtContext, id int64) (bool, error) {
	return exists(ctx, ext, "SELECT 1 FROM predefined_epics WHERE id = ?", id)
}
