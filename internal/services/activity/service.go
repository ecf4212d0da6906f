// Package activity implements product-scoped activities: buckets of
// non-task work that timesheet hours can be logged against.
package activity

import (
	"context"
	"log"
	"mime/multipart"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/models"
	"github.com/goatkit/timeflow/internal/refdata"
	"github.com/goatkit/timeflow/internal/repository"
	"github.com/goatkit/timeflow/internal/services/attachment"
	"github.com/goatkit/timeflow/internal/utils"
)

// Service is the activity component.
type Service struct {
	db        *sqlx.DB
	entries   repository.TimesheetRepository
	validator *refdata.Validator
	store     *attachment.Store
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

// NewService creates an activity service.
func NewService(db *sqlx.DB, entries repository.TimesheetRepository, validator *refdata.Validator, store *attachment.Store, opts ...Option) *Service {
	s := &Service{
		db:        db,
		entries:   entries,
		validator: validator,
		store:     store,
		logger:    log.Default(),
		now:       utils.NowIST,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest carries a new activity.
type CreateRequest struct {
	Title       string  `json:"activity_title"`
	Description *string `json:"activity_description"`
	ProductCode string  `json:"product_code"`
	IsBillable  *bool   `json:"is_billable"`
}

// CreateResult is the stored activity plus any attachments saved with it.
type CreateResult struct {
	Activity    models.Activity     `json:"activity"`
	Attachments []models.Attachment `json:"attachments,omitempty"`
}

// Create validates and stores an activity, then saves any uploaded files
// against it.
func (s *Service) Create(ctx context.Context, req *CreateRequest, files []*multipart.FileHeader, actor string) (*CreateResult, error) {
	if req.Title == "" {
		return nil, apierrors.Validation("activity_title is required")
	}
	if req.ProductCode == "" {
		return nil, apierrors.Validation("product_code is required")
	}
	if err := s.validator.Product(ctx, req.ProductCode); err != nil {
		return nil, err
	}
	if _, err := s.validator.ActiveUser(ctx, actor); err != nil {
		return nil, err
	}

	a := models.Activity{
		Title:       req.Title,
		ProductCode: req.ProductCode,
		IsBillable:  true,
		CreatedBy:   actor,
	}
	if utils.Provided(req.Description) {
		a.Description = utils.StrPtr(utils.Trimmed(req.Description))
	}
	if req.IsBillable != nil {
		a.IsBillable = *req.IsBillable
	}

	id, err := s.entries.InsertActivity(ctx, s.db, &a, s.now())
	if err != nil {
		return nil, err
	}
	a.ID = id

	result := &CreateResult{Activity: a}
	if len(files) > 0 {
		stored, err := s.store.SaveAll(ctx, models.ParentActivity, id, files, actor)
		if err != nil {
			return nil, err
		}
		result.Attachments = stored
	}

	s.logger.Printf("[activity] created id=%d product=%s by=%s", id, req.ProductCode, actor)
	return result, nil
}
