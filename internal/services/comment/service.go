// Package comment implements free-text comments on tasks, epics, timesheet
// entries, and activities. Comment text is stored as markdown and rendered
// to sanitized HTML on read.
package comment

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/models"
	"github.com/goatkit/timeflow/internal/refdata"
	"github.com/goatkit/timeflow/internal/repository"
	"github.com/goatkit/timeflow/internal/utils"
)

// maxCommentLength caps a single comment.
const maxCommentLength = 4000

// Service is the comment component.
type Service struct {
	db        *sqlx.DB
	comments  repository.CommentRepository
	validator *refdata.Validator
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
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

// NewService creates a comment service.
func NewService(db *sqlx.DB, comments repository.CommentRepository, validator *refdata.Validator, opts ...Option) *Service {
	s := &Service{
		db:        db,
		comments:  comments,
		validator: validator,
		markdown:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
		sanitizer: bluemonday.UGCPolicy(),
		logger:    log.Default(),
		now:       utils.NowIST,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddRequest carries a new comment.
type AddRequest struct {
	ParentType string `json:"parent_type"`
	ParentCode int64  `json:"parent_code"`
	Text       string `json:"comment_text"`
}

// Add validates the parent and author and stores the comment.
func (s *Service) Add(ctx context.Context, req *AddRequest, actor string) (*models.Comment, error) {
	switch req.ParentType {
	case models.ParentTask, models.ParentEpic, models.ParentTimesheetEntry, models.ParentActivity:
	default:
		return nil, apierrors.Validation(
			"parent_type must be one of TASK, EPIC, TIMESHEET_ENTRY, ACTIVITY")
	}
	text := utils.Trimmed(&req.Text)
	if text == "" {
		return nil, apierrors.Validation("comment_text is required")
	}
	if len(text) > maxCommentLength {
		return nil, apierrors.Validation("comment_text exceeds %d characters", maxCommentLength)
	}
	if _, err := s.validator.ActiveUser(ctx, actor); err != nil {
		return nil, err
	}
	ok, err := s.comments.ParentExists(ctx, req.ParentType, req.ParentCode)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apierrors.ReferenceNotFound(
			"%s with ID %d does not exist", req.ParentType, req.ParentCode)
	}

	c := &models.Comment{
		ParentType:  req.ParentType,
		ParentCode:  req.ParentCode,
		CommentText: text,
		CommentedBy: actor,
		CommentedAt: s.now(),
	}
	id, err := s.comments.InsertComment(ctx, s.db, c)
	if err != nil {
		return nil, err
	}
	c.ID = id
	c.RenderedHTML, err = s.render(text)
	if err != nil {
		return nil, err
	}

	s.logger.Printf("[comment] added id=%d parent=%s/%d by=%s", id, req.ParentType, req.ParentCode, actor)
	return c, nil
}

// List returns a parent's comments oldest first, each with its rendered
// HTML.
func (s *Service) List(ctx context.Context, parentType string, parentCode int64) ([]models.Comment, error) {
	ok, err := s.comments.ParentExists(ctx, parentType, parentCode)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apierrors.NotFound("%s with ID %d does not exist", parentType, parentCode)
	}
	out, err := s.comments.ListComments(ctx, parentType, parentCode)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].RenderedHTML, err = s.render(out[i].CommentText)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// render converts markdown to sanitized HTML.
func (s *Service) render(text string) (string, error) {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("render comment: %w", err)
	}
	return s.sanitizer.Sanitize(buf.String()), nil
}
