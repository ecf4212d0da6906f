package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/goatkit/timeflow/internal/database"
	"github.com/goatkit/timeflow/internal/models"
)

// MasterRepository answers lookups against the read-only master tables.
type MasterRepository interface {
	StatusExists(ctx context.Context, code string) (bool, error)
	PriorityExists(ctx context.Context, code int) (bool, error)
	TaskTypeActive(ctx context.Context, code string) (bool, error)
	TeamActive(ctx context.Context, code string) (bool, error)
	ProductExists(ctx context.Context, code string) (bool, error)
	CompanyExists(ctx context.Context, code string) (bool, error)
	LeaveTypeActive(ctx context.Context, code string) (bool, error)

	GetUser(ctx context.Context, code string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetPasswordHash(ctx context.Context, code string) (string, error)
	GetTeam(ctx context.Context, code string) (*models.Team, error)
	GetContact(ctx context.Context, code string) (*models.Contact, error)

	ListStatuses(ctx context.Context) ([]models.Status, error)
	ListPriorities(ctx context.Context) ([]models.Priority, error)
	ListTaskTypes(ctx context.Context) ([]models.TaskType, error)
	ListLeaveTypes(ctx context.Context) ([]models.LeaveType, error)
	ListTeams(ctx context.Context) ([]models.Team, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListCompanies(ctx context.Context) ([]models.Company, error)
	ListContacts(ctx context.Context) ([]models.Contact, error)
}

// SQLMasterRepository is the sqlx implementation of MasterRepository.
type SQLMasterRepository struct {
	db *sqlx.DB
}

// NewMasterRepository creates a master repository over db.
func NewMasterRepository(db *sqlx.DB) *SQLMasterRepository {
	return &SQLMasterRepository{db: db}
}

func (r *SQLMasterRepository) StatusExists(ctx context.Context, code string) (bool, error) {
	return exists(ctx, r.db, "SELECT 1 FROM status_master WHERE status_code = ?", code)
}

func (r *SQLMasterRepository) PriorityExists(ctx context.Context, code int) (bool, error) {
	return exists(ctx, r.db, "SELECT 1 FROM priority_master WHERE priority_code = ?", code)
}

func (r *SQLMasterRepository) TaskTypeActive(ctx context.Context, code string) (bool, error) {
	return exists(ctx, r.db, "SELECT 1 FROM task_type_master WHERE type_code = ? AND is_active = ?", code, true)
}

func (r *SQLMasterRepository) TeamActive(ctx context.Context, code string) (bool, error) {
	return exists(ctx, r.db, "SELECT 1 FROM team_master WHERE team_code = ? AND is_active = ?", code, true)
}

func (r *SQLMasterRepository) ProductExists(ctx context.Context, code string) (bool, error) {
	return exists(ctx, r.db, "SELECT 1 FROM product_master WHERE product_code = ?", code)
}

func (r *SQLMasterRepository) CompanyExists(ctx context.Context, code string) (bool, error) {
	return exists(ctx, r.db, "SELECT 1 FROM company_master WHERE company_code = ?", code)
}

func (r *SQLMasterRepository) LeaveTypeActive(ctx context.Context, code string) (bool, error) {
	return exists(ctx, r.db, "SELECT 1 FROM leave_type_master WHERE leave_type_code = ? AND is_active = ?", code, true)
}

func (r *SQLMasterRepository) GetUser(ctx context.Context, code string) (*models.User, error) {
	var u models.User
	query := database.ConvertPlaceholders(
		"SELECT user_code, user_name, email, team_code, designation, user_type_code, is_inactive FROM user_master WHERE user_code = ?")
	if err := r.db.GetContext(ctx, &u, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user %s: %w", code, err)
	}
	return &u, nil
}

func (r *SQLMasterRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	query := database.ConvertPlaceholders(
		"SELECT user_code, user_name, email, team_code, designation, user_type_code, is_inactive FROM user_master WHERE LOWER(email) = LOWER(?)")
	if err := r.db.GetContext(ctx, &u, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// GetPasswordHash returns the stored bcrypt hash, or empty when the user has
// none set.
func (r *SQLMasterRepository) GetPasswordHash(ctx context.Context, code string) (string, error) {
	var hash sql.NullString
	query := database.ConvertPlaceholders(
		"SELECT password_hash FROM user_master WHERE user_code = ?")
	if err := r.db.GetContext(ctx, &hash, query, code); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("get password hash: %w", err)
	}
	return hash.String, nil
}

func (r *SQLMasterRepository) GetTeam(ctx context.Context, code string) (*models.Team, error) {
	var t models.Team
	query := database.ConvertPlaceholders(
		"SELECT team_code, team_name, team_lead, reporter, is_active FROM team_master WHERE team_code = ?")
	if err := r.db.GetContext(ctx, &t, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get team %s: %w", code, err)
	}
	return &t, nil
}

func (r *SQLMasterRepository) GetContact(ctx context.Context, code string) (*models.Contact, error) {
	var c models.Contact
	query := database.ConvertPlaceholders(
		"SELECT contact_person_code, contact_person_name, company_code, is_inactive FROM contact_master WHERE contact_person_code = ?")
	if err := r.db.GetContext(ctx, &c, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get contact %s: %w", code, err)
	}
	return &c, nil
}

func (r *SQLMasterRepository) ListStatuses(ctx context.Context) ([]models.Status, error) {
	var out []models.Status
	err := r.db.SelectContext(ctx, &out, "SELECT status_code, status_desc FROM status_master ORDER BY status_code")
	return out, err
}

func (r *SQLMasterRepository) ListPriorities(ctx context.Context) ([]models.Priority, error) {
	var out []models.Priority
	err := r.db.SelectContext(ctx, &out, "SELECT priority_code, priority_desc FROM priority_master ORDER BY priority_code")
	return out, err
}

func (r *SQLMasterRepository) ListTaskTypes(ctx context.Context) ([]models.TaskType, error) {
	var out []models.TaskType
	err := r.db.SelectContext(ctx, &out, "SELECT type_code, type_desc, is_active FROM task_type_master ORDER BY type_code")
	return out, err
}

func (r *SQLMasterRepository) ListLeaveTypes(ctx context.Context) ([]models.LeaveType, error) {
	var out []models.LeaveType
	err := r.db.SelectContext(ctx, &out, "SELECT leave_type_code, leave_type_desc, is_active FROM leave_type_master ORDER BY leave_type_code")
	return out, err
}

func (r *SQLMasterRepository) ListTeams(ctx context.Context) ([]models.Team, error) {
	var out []models.Team
	err := r.db.SelectContext(ctx, &out, "SELECT team_code, team_name, team_lead, reporter, is_active FROM team_master ORDER BY team_code")
	return out, err
}

func (r *SQLMasterRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	var out []models.User
	query := database.ConvertPlaceholders(
		"SELECT user_code, user_name, email, team_code, designation, user_type_code, is_inactive FROM user_master WHERE is_inactive = ? ORDER BY user_code")
	err := r.db.SelectContext(ctx, &out, query, false)
	return out, err
}

func (r *SQLMasterRepository) ListProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := r.db.SelectContext(ctx, &out, "SELECT product_code, product_name FROM product_master ORDER BY product_code")
	return out, err
}

func (r *SQLMasterRepository) ListCompanies(ctx context.Context) ([]models.Company, error) {
	var out []models.Company
	err := r.db.SelectContext(ctx, &out, "SELECT company_code, company_name FROM company_master ORDER BY company_code")
	return out, err
}

func (r *SQLMasterRepository) ListContacts(ctx context.Context) ([]models.Contact, error) {
	var out []models.Contact
	query := database.ConvertPlaceholders(
		"SELECT contact_person_code, contact_person_name, company_code, is_inactive FROM contact_master WHERE is_inactive = ? ORDER BY contact_person_code")
	err := r.db.SelectContext(ctx, &out, query, false)
	return out, err
}
