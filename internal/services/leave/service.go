// Package leave implements leave applications: duration derivation from the
// leave type, submission, and admin approval. Unlike the other lifecycles
// there is no history table; the application row itself is the record.
package leave

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rickar/cal/v2"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/models"
	"github.com/goatkit/timeflow/internal/refdata"
	"github.com/goatkit/timeflow/internal/repository"
	"github.com/goatkit/timeflow/internal/services/approval"
	"github.com/goatkit/timeflow/internal/utils"
)

// workdayHours converts leave days to hours for the fractional types.
const workdayHours = 8

// Service is the leave application component.
type Service struct {
	db        *sqlx.DB
	leaves    repository.LeaveRepository
	validator *refdata.Validator
	resolver  *approval.Resolver
	calendar  *cal.BusinessCalendar
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

// WithCalendar replaces the business calendar used for the working-day
// figure reported alongside the calendar-day duration.
func WithCalendar(c *cal.BusinessCalendar) Option {
	return func(s *Service) { s.calendar = c }
}

// NewService creates a leave application service.
func NewService(db *sqlx.DB, leaves repository.LeaveRepository, validator *refdata.Validator,
	resolver *approval.Resolver, opts ...Option) *Service {
	s := &Service{
		db:        db,
		leaves:    leaves,
		validator: validator,
		resolver:  resolver,
		calendar:  cal.NewBusinessCalendar(),
		logger:    log.Default(),
		now:       utils.NowIST,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApplyRequest carries a new leave application, or a rework of an existing
// draft when ApplicationID is set.
type ApplyRequest struct {
	UserCode      string  `json:"user_code"`
	LeaveTypeCode string  `json:"leave_type_code"`
	FromDate      string  `json:"from_date"`
	ToDate        *string `json:"to_date"`
	Reason        *string `json:"reason"`
	// ApplicationID targets an existing DRAFT belonging to the same user;
	// the application is rewritten in place instead of inserted.
	ApplicationID *int64 `json:"leave_application_id"`
	// Status accepts DRAFT, SUBMITTED, or PENDING as an alias for SUBMITTED;
	// anything else is rejected. Absent means SUBMITTED.
	Status *string `json:"approval_status"`
}

// Application is a stored application plus the informational working-day
// count for its span.
type Application struct {
	models.LeaveApplication
	WorkingDays float64 `json:"working_days"`
}

// Apply validates and stores a leave application, in SUBMITTED state unless
// the request asks for a DRAFT. Duration comes from the leave type:
// permission leave is a quarter day, half-day leave half a day, both confined
// to a single date; everything else spans whole calendar days. With
// ApplicationID set, an existing draft of the same user is rewritten in place
// and may be promoted to SUBMITTED in the same call.
func (s *Service) Apply(ctx context.Context, req *ApplyRequest, actor string) (*Application, error) {
	owner, err := s.validator.ActiveUser(ctx, req.UserCode)
	if err != nil {
		return nil, err
	}
	if req.LeaveTypeCode == "" {
		return nil, apierrors.Validation("leave_type_code is required")
	}
	if err := s.validator.LeaveType(ctx, req.LeaveTypeCode); err != nil {
		return nil, err
	}
	if req.FromDate == "" {
		return nil, apierrors.Validation("from_date is required")
	}

	from, err := utils.ParseDate(req.FromDate)
	if err != nil {
		return nil, apierrors.Validation("Invalid from_date: %v", err)
	}
	now := s.now()
	if from.Before(utils.DateOnly(now)) {
		return nil, apierrors.Validation("from_date cannot be in the past")
	}

	to := from
	if utils.Provided(req.ToDate) {
		to, err = utils.ParseDate(*req.ToDate)
		if err != nil {
			return nil, apierrors.Validation("Invalid to_date: %v", err)
		}
	}
	if to.Before(from) {
		return nil, apierrors.Validation("to_date cannot be before from_date")
	}

	status := models.ApprovalSubmitted
	if utils.Provided(req.Status) {
		switch utils.Trimmed(req.Status) {
		case models.ApprovalPending, models.ApprovalSubmitted:
		case models.ApprovalDraft:
			status = models.ApprovalDraft
		default:
			return nil, apierrors.Validation("approval_status must be DRAFT, PENDING, or SUBMITTED on application")
		}
	}

	days, hours, err := duration(req.LeaveTypeCode, from, to)
	if err != nil {
		return nil, err
	}

	if req.ApplicationID != nil {
		return s.reworkDraft(ctx, *req.ApplicationID, owner.UserCode, req, from, to, days, hours, status, actor, now)
	}

	l := &models.LeaveApplication{
		UserCode:       owner.UserCode,
		LeaveTypeCode:  req.LeaveTypeCode,
		FromDate:       from,
		ToDate:         to,
		DurationDays:   days,
		DurationHours:  hours,
		ApprovalStatus: status,
		CreatedBy:      actor,
		CreatedAt:      now,
	}
	if utils.Provided(req.Reason) {
		l.Reason = utils.StrPtr(utils.Trimmed(req.Reason))
	}

	id, err := s.leaves.Insert(ctx, s.db, l)
	if err != nil {
		return nil, err
	}
	l.ID = id

	s.logger.Printf("[leave] applied id=%d user=%s type=%s status=%s days=%.2f", id, l.UserCode, l.LeaveTypeCode, status, days)
	return &Application{LeaveApplication: *l, WorkingDays: s.workingDays(from, to)}, nil
}

// reworkDraft overwrites an existing draft of the same user with the new
// request, optionally promoting it to SUBMITTED.
func (s *Service) reworkDraft(ctx context.Context, leaveID int64, userCode string, req *ApplyRequest,
	from, to time.Time, days float64, hours *float64, status, actor string, now time.Time) (*Application, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	l, err := s.leaves.GetByIDForUpdate(ctx, tx, leaveID)
	if err != nil {
		return nil, err
	}
	if l == nil || l.UserCode != userCode {
		return nil, apierrors.NotFound(
			"Leave application with ID %d not found or does not belong to you", leaveID)
	}
	if l.ApprovalStatus != models.ApprovalDraft {
		return nil, apierrors.StateConflict(
			"Cannot update leave application with status %s. Only DRAFT applications can be updated", l.ApprovalStatus)
	}

	l.LeaveTypeCode = req.LeaveTypeCode
	l.FromDate = from
	l.ToDate = to
	l.DurationDays = days
	l.DurationHours = hours
	l.ApprovalStatus = status
	l.Reason = nil
	if utils.Provided(req.Reason) {
		l.Reason = utils.StrPtr(utils.Trimmed(req.Reason))
	}
	l.UpdatedBy = &actor
	l.UpdatedAt = &now

	set := map[string]any{
		"leave_type_code": l.LeaveTypeCode,
		"from_date":       from,
		"to_date":         to,
		"duration_days":   days,
		"approval_status": status,
		"updated_by":      actor,
		"updated_at":      now,
	}
	if hours != nil {
		set["duration_hours"] = *hours
	} else {
		set["duration_hours"] = nil
	}
	if l.Reason != nil {
		set["reason"] = *l.Reason
	} else {
		set["reason"] = nil
	}

	if err := s.leaves.UpdateFields(ctx, tx, leaveID, set); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.logger.Printf("[leave] reworked id=%d user=%s status=%s", leaveID, userCode, status)
	return &Application{LeaveApplication: *l, WorkingDays: s.workingDays(from, to)}, nil
}

// duration derives the day and hour figures from the leave type.
func duration(leaveType string, from, to time.Time) (float64, *float64, error) {
	switch leaveType {
	case models.LeaveTypePermission:
		if !utils.SameDay(from, to) {
			return 0, nil, apierrors.Validation("Permission leave must be for a single day")
		}
		h := 2.0
		return 0.25, &h, nil
	case models.LeaveTypeHalfDay:
		if !utils.SameDay(from, to) {
			return 0, nil, apierrors.Validation("Half-day leave must be for a single day")
		}
		h := 4.0
		return 0.5, &h, nil
	}
	days := float64(utils.DaysBetween(from, to))
	h := days * workdayHours
	return days, &h, nil
}

// workingDays counts business days in the span.
func (s *Service) workingDays(from, to time.Time) float64 {
	days := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if s.calendar.IsWorkday(d) {
			days++
		}
	}
	return float64(days)
}

// Decide moves a SUBMITTED application to APPROVED or REJECTED. Only users
// with an administrative designation may decide, and never on their own
// application.
func (s *Service) Decide(ctx context.Context, leaveID int64, approve bool, reason, caller string) (*models.LeaveApplication, error) {
	if !approve && reason == "" {
		return nil, apierrors.Validation("A reason is required when rejecting")
	}

	isAdmin, err := s.resolver.IsAdmin(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !isAdmin {
		return nil, apierrors.Forbidden("Only administrators may approve or reject leave")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	l, err := s.leaves.GetByIDForUpdate(ctx, tx, leaveID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, apierrors.NotFound("Leave application with ID %d does not exist", leaveID)
	}
	if l.UserCode == caller {
		return nil, apierrors.Forbidden("You cannot approve or reject your own leave application")
	}
	if l.ApprovalStatus != models.ApprovalSubmitted {
		return nil, apierrors.StateConflict(
			"Application is %s; only SUBMITTED applications can be decided", l.ApprovalStatus)
	}

	now := s.now()
	set := map[string]any{
		"updated_by": caller,
		"updated_at": now,
	}
	l.UpdatedBy = &caller
	l.UpdatedAt = &now

	if approve {
		l.ApprovalStatus = models.ApprovalApproved
		l.ApprovedBy = &caller
		l.ApprovedAt = &now
		l.RejectedBy = nil
		l.RejectedAt = nil
		l.RejectionReason = nil
		set["approval_status"] = models.ApprovalApproved
		set["approved_by"] = caller
		set["approved_at"] = now
		set["rejected_by"] = nil
		set["rejected_at"] = nil
		set["rejection_reason"] = nil
	} else {
		l.ApprovalStatus = models.ApprovalRejected
		l.RejectedBy = &caller
		l.RejectedAt = &now
		l.RejectionReason = &reason
		l.ApprovedBy = nil
		l.ApprovedAt = nil
		set["approval_status"] = models.ApprovalRejected
		set["rejected_by"] = caller
		set["rejected_at"] = now
		set["rejection_reason"] = reason
		set["approved_by"] = nil
		set["approved_at"] = nil
	}

	if err := s.leaves.UpdateFields(ctx, tx, leaveID, set); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.logger.Printf("[leave] decided id=%d status=%s by=%s", leaveID, l.ApprovalStatus, caller)
	return l, nil
}

// Get returns a leave application by id.
func (s *Service) Get(ctx context.Context, leaveID int64) (*models.LeaveApplication, error) {
	l, err := s.leaves.GetByID(ctx, s.db, leaveID)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, apierrors.NotFound("Leave application with ID %d does not exist", leaveID)
	}
	return l, nil
}
