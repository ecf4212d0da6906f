// Package epic implements the epic lifecycle. Creation is restricted to
// administrative designations and deliberately writes no initial history
// row; the audit trail for an epic starts at its first update.
package epic

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/config"
	"github.com/goatkit/timeflow/internal/history"
	"github.com/goatkit/timeflow/internal/models"
	"github.com/goatkit/timeflow/internal/refdata"
	"github.com/goatkit/timeflow/internal/repository"
	"github.com/goatkit/timeflow/internal/utils"
)

// Service is the epic lifecycle component.
type Service struct {
	db        *sqlx.DB
	epics     repository.EpicRepository
	masters   repository.MasterRepository
	validator *refdata.Validator
	recorder  *history.Recorder
	cfg       *config.Config
	logger    *log.Logger
	now       func() time.Time
}

// Option configures the service.
type Option func(*Service)

// WithLogger sets a custom logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an epic lifecycle service.
func NewService(db *sqlx.DB, epics repository.EpicRepository, masters repository.MasterRepository,
	validator *refdata.Validator, recorder *history.Recorder, cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		db:        db,
		epics:     epics,
		masters:   masters,
		validator: validator,
		recorder:  recorder,
		cfg:       cfg,
		logger:    log.Default(),
		now:       utils.NowIST,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest carries the fields accepted when creating an epic.
type CreateRequest struct {
	Title             string   `json:"epic_title"`
	Description       *string  `json:"description"`
	ProductCode       string   `json:"product_code"`
	CompanyCode       *string  `json:"company_code"`
	ContactPersonCode *string  `json:"contact_person_code"`
	StatusCode        *string  `json:"status_code"`
	PriorityCode      int      `json:"priority_code"`
	StartDate         *string  `json:"start_date"`
	DueDate           *string  `json:"due_date"`
	EstimatedHours    float64  `json:"estimated_hours"`
	MaxHours          *float64 `json:"max_hours"`
	IsBillable        *bool    `json:"is_billable"`
}

// Create validates the request and inserts the epic row. Only users holding
// an administrative designation may create epics. No history row is written
// here.
func (s *Service) Create(ctx context.Context, req *CreateRequest, actor string) (*models.Epic, error) {
	caller, err := s.validator.ActiveUser(ctx, actor)
	if err != nil {
		return nil, err
	}
	if !s.isAdmin(caller) {
		return nil, apierrors.Forbidden("Only administrators can create epics")
	}

	if req.Title == "" {
		return nil, apierrors.Validation("epic_title is required")
	}
	if req.ProductCode == "" {
		return nil, apierrors.Validation("product_code is required")
	}
	if req.EstimatedHours <= 0 {
		return nil, apierrors.Validation("Estimated hours must be greater than 0")
	}
	if err := s.validator.Product(ctx, req.ProductCode); err != nil {
		return nil, err
	}
	if err := s.validator.Priority(ctx, req.PriorityCode); err != nil {
		return nil, err
	}

	reporter, err := s.resolveReporter(ctx, caller)
	if err != nil {
		return nil, err
	}

	now := s.now()
	e := &models.Epic{
		EpicTitle:      req.Title,
		ProductCode:    req.ProductCode,
		Reporter:       reporter,
		StatusCode:     models.StatusNotStarted,
		PriorityCode:   req.PriorityCode,
		EstimatedHours: req.EstimatedHours,
		MaxHours:       req.EstimatedHours,
		IsBillable:     true,
		CreatedBy:      actor,
		CreatedAt:      now,
	}
	if utils.Provided(req.Description) {
		e.Description = utils.StrPtr(utils.Trimmed(req.Description))
	}
	if req.MaxHours != nil {
		if *req.MaxHours < req.EstimatedHours {
			return nil, apierrors.Validation("Max hours cannot be less than estimated hours")
		}
		e.MaxHours = *req.MaxHours
	}
	if req.IsBillable != nil {
		e.IsBillable = *req.IsBillable
	}

	if utils.Provided(req.StatusCode) {
		code := utils.Trimmed(req.StatusCode)
		if err := s.validator.TaskStatus(ctx, code); err != nil {
			return nil, err
		}
		e.StatusCode = code
	}
	if utils.Provided(req.CompanyCode) {
		code := utils.Trimmed(req.CompanyCode)
		if err := s.validator.Company(ctx, code); err != nil {
			return nil, err
		}
		e.CompanyCode = &code
	}
	if utils.Provided(req.ContactPersonCode) {
		if e.CompanyCode == nil {
			return nil, apierrors.Validation("contact_person_code requires a company_code")
		}
		contact, err := s.validator.ContactOfCompany(ctx, utils.Trimmed(req.ContactPersonCode), *e.CompanyCode)
		if err != nil {
			return nil, err
		}
		e.ContactPersonCode = &contact.ContactPersonCode
	}

	if utils.Provided(req.StartDate) {
		d, err := utils.ParseDate(*req.StartDate)
		if err != nil {
			return nil, apierrors.Validation("Invalid start_date: %v", err)
		}
		e.StartDate = &d
	}
	if e.StatusCode == models.StatusInProgress && e.StartDate == nil {
		today := utils.DateOnly(now)
		e.StartDate = &today
	}
	if utils.Provided(req.DueDate) {
		d, err := utils.ParseDate(*req.DueDate)
		if err != nil {
			return nil, apierrors.Validation("Invalid due_date: %v", err)
		}
		e.DueDate = &d
	}
	if e.StartDate != nil && e.DueDate != nil && e.DueDate.Before(*e.StartDate) {
		return nil, apierrors.Validation("Due date cannot be before start date")
	}

	id, err := s.epics.Insert(ctx, s.db, e)
	if err != nil {
		return nil, err
	}
	e.ID = id

	s.logger.Printf("[epic] created id=%d product=%s by=%s", id, req.ProductCode, actor)
	return e, nil
}

// isAdmin reports whether the user's designation is administrative.
func (s *Service) isAdmin(u *models.User) bool {
	return u.Designation != nil && s.cfg.IsAdminDesignation(*u.Designation)
}

// resolveReporter picks the epic's reporter: admins report to themselves,
// everyone else to their team lead. A team without a lead falls back to the
// caller; a lookup failure is an error, not a fallback.
func (s *Service) resolveReporter(ctx context.Context, caller *models.User) (string, error) {
	if s.isAdmin(caller) || caller.TeamCode == nil {
		return caller.UserCode, nil
	}
	team, err := s.masters.GetTeam(ctx, *caller.TeamCode)
	if err != nil {
		return "", fmt.Errorf("resolve reporter for %s: %w", caller.UserCode, err)
	}
	if team == nil || team.TeamLead == nil {
		s.logger.Printf("[epic] team %s has no lead, reporter falls back to %s", *caller.TeamCode, caller.UserCode)
		return caller.UserCode, nil
	}
	return *team.TeamLead, nil
}

// Update applies a partial patch to the epic and appends one history
// snapshot with the post-update state.
func (s *Service) Update(ctx context.Context, epicID int64, patch *Patch, actor string) (*models.Epic, error) {
	n, err := patch.normalize()
	if err != nil {
		return nil, err
	}

	if n.StatusCode != nil {
		if err := s.validator.TaskStatus(ctx, *n.StatusCode); err != nil {
			return nil, err
		}
	}
	if n.PriorityCode != nil {
		if err := s.validator.Priority(ctx, *n.PriorityCode); err != nil {
			return nil, err
		}
	}
	if n.ProductCode != nil {
		if err := s.validator.Product(ctx, *n.ProductCode); err != nil {
			return nil, err
		}
	}
	if n.CompanyCode != nil {
		if err := s.validator.Company(ctx, *n.CompanyCode); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	current, err := s.epics.GetByIDForUpdate(ctx, tx, epicID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apierrors.NotFound("Epic with ID %d does not exist", epicID)
	}

	if n.ContactPersonCode != nil {
		company := current.CompanyCode
		if n.CompanyCode != nil {
			company = n.CompanyCode
		}
		if company == nil {
			return nil, apierrors.Validation("contact_person_code requires a company_code")
		}
		if _, err := s.validator.ContactOfCompany(ctx, *n.ContactPersonCode, *company); err != nil {
			return nil, err
		}
	}

	now := s.now()
	next, set, statusReason := apply(current, n, now, actor)

	if next.StartDate != nil && next.DueDate != nil && next.DueDate.Before(*next.StartDate) {
		return nil, apierrors.Validation("Due date cannot be before start date")
	}

	if err := s.epics.UpdateFields(ctx, tx, epicID, set); err != nil {
		return nil, err
	}
	if err := s.recorder.RecordEpic(ctx, tx, snapshot(next, statusReason, actor, now)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.logger.Printf("[epic] updated id=%d status=%s by=%s", epicID, next.StatusCode, actor)
	return next, nil
}

// Get returns an epic by id.
func (s *Service) Get(ctx context.Context, epicID int64) (*models.Epic, error) {
	e, err := s.epics.GetByID(ctx, s.db, epicID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, apierrors.NotFound("Epic with ID %d does not exist", epicID)
	}
	return e, nil
}

// snapshot builds the history row for an epic's current state.
func snapshot(e *models.Epic, statusReason *string, actor string, at time.Time) *models.EpicHist {
	return &models.EpicHist{
		EpicCode:          e.ID,
		StatusCode:        e.StatusCode,
		StatusReason:      statusReason,
		PriorityCode:      e.PriorityCode,
		ProductCode:       e.ProductCode,
		CompanyCode:       e.CompanyCode,
		ContactPersonCode: e.ContactPersonCode,
		Reporter:          e.Reporter,
		StartDate:         e.StartDate,
		DueDate:           e.DueDate,
		ClosedOn:          e.ClosedOn,
		EstimatedHours:    e.EstimatedHours,
		MaxHours:          e.MaxHours,
		CreatedBy:         actor,
		CreatedAt:         at,
	}
}
