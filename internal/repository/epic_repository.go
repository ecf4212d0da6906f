package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/goatkit/timeflow/internal/database"
	"github.com/goatkit/timeflow/internal/models"
)

const epicColumns = `id, epic_title, description, product_code, company_code,
	contact_person_code, reporter, status_code, priority_code, start_date,
	due_date, closed_on, estimated_hours, max_hours, is_billable, cancelled_by,
	cancelled_at, cancellation_reason, predefined_epic_id, created_by,
	created_at, updated_by, updated_at`

// EpicRepository is data access for epics.
type EpicRepository interface {
	GetByID(ctx context.Context, ext sqlx.ExtContext, id int64) (*models.Epic, error)
	GetByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) (*models.Epic, error)
	Insert(ctx context.Context, ext sqlx.ExtContext, e *models.Epic) (int64, error)
	UpdateFields(ctx context.Context, ext sqlx.ExtContext, id int64, set map[string]any) error
	FindByTemplateAndCompany(ctx context.Context, ext sqlx.ExtContext, templateID int64, companyCode *string) (*models.Epic, error)
}

// SQLEpicRepository is the sqlx implementation of EpicRepository.
type SQLEpicRepository struct {
	db *sqlx.DB
}

// NewEpicRepository creates an epic repository over db.
func NewEpicRepository(db *sqlx.DB) *SQLEpicRepository {
	return &SQLEpicRepository{db: db}
}

// DB exposes the underlying handle for transaction begin.
func (r *SQLEpicRepository) DB() *sqlx.DB { return r.db }

func (r *SQLEpicRepository) getBy(ctx context.Context, ext sqlx.ExtContext, query string, args ...any) (*models.Epic, error) {
	var e models.Epic
	if err := sqlx.GetContext(ctx, ext, &e, database.ConvertPlaceholders(query), args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get epic: %w", err)
	}
	return &e, nil
}

func (r *SQLEpicRepository) GetByID(ctx context.Context, ext sqlx.ExtContext, id int64) (*models.Epic, error) {
	return r.getBy(ctx, ext, "SELECT "+epicColumns+" FROM epics WHERE id = ?", id)
}

func (r *SQLEpicRepository) GetByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id int64) (*models.Epic, error) {
	return r.getBy(ctx, tx, forUpdate("SELECT "+epicColumns+" FROM epics WHERE id = ?"), id)
}

func (r *SQLEpicRepository) FindByTemplateAndCompany(ctx context.Context, ext sqlx.ExtContext, templateID int64, companyCode *string) (*models.Epic, error) {
	return r.getBy(ctx, ext,
		"SELECT "+epicColumns+" FROM epics WHERE predefined_epic_id = ?"+
			" AND (company_code = ? OR (company_code IS NULL AND ? IS NULL))"+
			" ORDER BY created_at DESC LIMIT 1",
		templateID, companyCode, companyCode)
}

func (r *SQLEpicRepository) Insert(ctx context.Context, ext sqlx.ExtContext, e *models.Epic) (int64, error) {
	cols := []string{
		"epic_title", "description", "product_code", "company_code",
		"contact_person_code", "reporter", "status_code", "priority_code",
		"start_date", "due_date", "closed_on", "estimated_hours", "max_hours",
		"is_billable", "predefined_epic_id", "created_by", "created_at",
	}
	vals := []any{
		e.EpicTitle, e.Description, e.ProductCode, e.CompanyCode,
		e.ContactPersonCode, e.Reporter, e.StatusCode, e.PriorityCode,
		e.StartDate, e.DueDate, e.ClosedOn, e.EstimatedHours, e.MaxHours,
		e.IsBillable, e.PredefinedEpicID, e.CreatedBy, e.CreatedAt,
	}
	return insertReturningID(ctx, ext, "epics", cols, vals)
}

func (r *SQLEpicRepository) UpdateFields(ctx context.Context, ext sqlx.ExtContext, id int64, set map[string]any) error {
	return updateByID(ctx, ext, "epics", set, id)
}
