// Package timesheet implements the timesheet entry lifecycle:
// DRAFT -> SUBMITTED -> APPROVED or REJECTED. An entry is logged against
// exactly one parent (task, activity, or ticket) and every lifecycle step
// appends a history snapshot.
package timesheet

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/history"
	"github.com/goatkit/timeflow/internal/models"
	"github.com/goatkit/timeflow/internal/refdata"
	"github.com/goatkit/timeflow/internal/repository"
	"github.com/goatkit/timeflow/internal/services/approval"
	"github.com/goatkit/timeflow/internal/utils"
)

// Entries may be backdated at most this many days.
const backdateWindowDays = 7

// hoursTolerance absorbs float drift when the client sends its own total.
const hoursTolerance = 0.01

// maxDailyHours caps a single entry's total.
const maxDailyHours = 24

// Service is the timesheet entry lifecycle component.
type Service struct {
	db        *sqlx.DB
	entries   repository.TimesheetRepository
	tasks     repository.TaskRepository
	validator *refdata.Validator
	resolver  *approval.Resolver
	recorder  *history.Recorder
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

// NewService creates a timesheet lifecycle service.
func NewService(db *sqlx.DB, entries repository.TimesheetRepository, tasks repository.TaskRepository,
	validator *refdata.Validator, resolver *approval.Resolver, recorder *history.Recorder, opts ...Option) *Service {
	s := &Service{
		db:        db,
		entries:   entries,
		tasks:     tasks,
		validator: validator,
		resolver:  resolver,
		recorder:  recorder,
		logger:    log.Default(),
		now:       utils.NowIST,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest carries the fields accepted when drafting an entry. A draft
// is a partial save: every field may be omitted and completed later, and at
// most one of TaskCode, ActivityCode, TicketCode may be set; zero values are
// placeholders.
type CreateRequest struct {
	UserCode     string   `json:"user_code"`
	EntryDate    string   `json:"entry_date"`
	TaskCode     *int64   `json:"task_code"`
	ActivityCode *int64   `json:"activity_code"`
	TicketCode   *int64   `json:"ticket_code"`
	TaskTypeCode *string  `json:"task_type_code"`
	ActualHours  float64  `json:"actual_hours_worked"`
	TravelTime   float64  `json:"travel_time"`
	WaitingTime  float64  `json:"waiting_time"`
	TotalHours   *float64 `json:"total_hours"`
	WorkLocation *string  `json:"work_location"`
	Description  *string  `json:"description"`
}

// parentRefs filters the placeholder zeros and returns the real parent
// references carried by the request.
func (r *CreateRequest) parentRefs() (task, activity, ticket *int64, count int) {
	if utils.ProvidedInt64(r.TaskCode) {
		task = r.TaskCode
		count++
	}
	if utils.ProvidedInt64(r.ActivityCode) {
		activity = r.ActivityCode
		count++
	}
	if utils.ProvidedInt64(r.TicketCode) {
		ticket = r.TicketCode
		count++
	}
	return task, activity, ticket, count
}

// CreateDraft validates the request and inserts the entry in DRAFT, with its
// first history snapshot.
func (s *Service) CreateDraft(ctx context.Context, req *CreateRequest, actor string) (*models.TimesheetEntry, error) {
	owner, err := s.validator.ActiveUser(ctx, req.UserCode)
	if err != nil {
		return nil, err
	}

	taskCode, activityCode, ticketCode, refs := req.parentRefs()
	if refs > 1 {
		return nil, apierrors.Validation(
			"At most one of task_code, activity_code, or ticket_code may be provided")
	}

	now := s.now()
	var entryDate *time.Time
	if req.EntryDate != "" {
		d, err := s.checkEntryDate(req.EntryDate, now)
		if err != nil {
			return nil, err
		}
		entryDate = &d
	}

	total, err := draftHours(req.ActualHours, req.TravelTime, req.WaitingTime, req.TotalHours)
	if err != nil {
		return nil, err
	}

	e := &models.TimesheetEntry{
		UserCode:       owner.UserCode,
		EntryDate:      entryDate,
		TaskCode:       taskCode,
		ActivityCode:   activityCode,
		TicketCode:     ticketCode,
		ActualHours:    req.ActualHours,
		TravelTime:     req.TravelTime,
		WaitingTime:    req.WaitingTime,
		TotalHours:     total,
		ApprovalStatus: models.ApprovalDraft,
		CreatedBy:      actor,
		CreatedAt:      now,
	}
	if utils.Provided(req.Description) {
		e.Description = utils.StrPtr(utils.Trimmed(req.Description))
	}
	if utils.Provided(req.WorkLocation) {
		loc := utils.Trimmed(req.WorkLocation)
		if err := s.validator.WorkMode(loc); err != nil {
			return nil, err
		}
		e.WorkLocation = &loc
	}

	switch {
	case taskCode != nil:
		t, err := s.tasks.GetByID(ctx, s.db, *taskCode)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, apierrors.ReferenceNotFound("Task with ID %d does not exist", *taskCode)
		}
		if t.IsCancelled() {
			return nil, apierrors.StateConflict("Cannot log hours against a cancelled task")
		}
		e.EpicCode = t.EpicCode
		e.TaskTypeCode = t.TaskTypeCode
	case activityCode != nil:
		ok, err := s.entries.ActivityExists(ctx, s.db, *activityCode)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apierrors.ReferenceNotFound("Activity with ID %d does not exist", *activityCode)
		}
	case ticketCode != nil:
		// Ticket-backed work defaults to the support type.
		support := models.TaskTypeSupport
		e.TaskTypeCode = &support
	}

	// An explicit task type wins over the parent's default. Activity entries
	// carry no task type at all.
	if utils.Provided(req.TaskTypeCode) && activityCode == nil {
		code := utils.Trimmed(req.TaskTypeCode)
		if err := s.validator.TaskType(ctx, code); err != nil {
			return nil, err
		}
		e.TaskTypeCode = &code
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	id, err := s.entries.Insert(ctx, tx, e)
	if err != nil {
		return nil, err
	}
	e.ID = id

	if err := s.recorder.RecordTimesheet(ctx, tx, snapshot(e, nil, actor, now)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.logger.Printf("[timesheet] drafted id=%d user=%s parent=%s", id, e.UserCode, e.ParentKind())
	return e, nil
}

// checkEntryDate parses the date and enforces the backdating window: no
// future entries, nothing older than seven days.
func (s *Service) checkEntryDate(raw string, now time.Time) (time.Time, error) {
	if raw == "" {
		return time.Time{}, apierrors.Validation("entry_date is required")
	}
	d, err := utils.ParseDate(raw)
	if err != nil {
		return time.Time{}, apierrors.Validation("Invalid entry_date: %v", err)
	}
	today := utils.DateOnly(now)
	if d.After(today) {
		return time.Time{}, apierrors.Validation("Entry date cannot be in the future")
	}
	if d.Before(today.AddDate(0, 0, -backdateWindowDays)) {
		return time.Time{}, apierrors.Validation(
			"Entry date cannot be more than %d days in the past", backdateWindowDays)
	}
	return d, nil
}

// draftHours validates the hour figures of a partial save and returns the
// effective total. Hours may all be zero at draft time; positive actual hours
// are only demanded at submission.
func draftHours(actual, travel, waiting float64, claimed *float64) (float64, error) {
	if actual < 0 || travel < 0 || waiting < 0 {
		return 0, apierrors.Validation("Hours cannot be negative")
	}
	total := actual + travel + waiting
	if claimed != nil {
		if total > 0 && math.Abs(*claimed-total) > hoursTolerance {
			return 0, apierrors.Validation(
				"total_hours %.2f does not match actual + travel + waiting (%.2f)", *claimed, total)
		}
		total = *claimed
	}
	if total > maxDailyHours {
		return 0, apierrors.Validation("Total hours cannot exceed %d for a single entry", maxDailyHours)
	}
	return total, nil
}

// checkSubmittable enforces the completeness checklist a draft must satisfy
// before it can go to SUBMITTED. What is required depends on the parent kind:
// a task entry needs its epic, a work location, and a description; activity
// and ticket entries stay outside the epic hierarchy, and an activity entry
// carries no task type.
func checkSubmittable(e *models.TimesheetEntry) error {
	var missing []string
	if e.EntryDate == nil {
		missing = append(missing, "entry_date")
	}

	refs := 0
	for _, code := range []*int64{e.TaskCode, e.ActivityCode, e.TicketCode} {
		if code != nil {
			refs++
		}
	}
	switch {
	case refs == 0:
		missing = append(missing, "task_code OR activity_code OR ticket_code (exactly one required)")
	case refs > 1:
		return apierrors.Validation(
			"Timesheet entry cannot have multiple parent codes. Please fix the entry before submission")
	case e.TaskCode != nil:
		if e.EpicCode == nil {
			missing = append(missing, "epic_code (required when task_code is provided)")
		}
		if e.WorkLocation == nil || *e.WorkLocation == "" {
			missing = append(missing, "work_location (required for task entries)")
		}
		if e.Description == nil || utils.Trimmed(e.Description) == "" {
			missing = append(missing, "description (required for task entries)")
		}
	case e.ActivityCode != nil:
		if e.EpicCode != nil {
			return apierrors.Validation(
				"Timesheet entry with activity_code cannot have epic_code. Please fix the entry before submission")
		}
		if e.TaskTypeCode != nil {
			return apierrors.Validation(
				"Timesheet entry with activity_code cannot have task_type_code. Please fix the entry before submission")
		}
	case e.TicketCode != nil:
		if e.EpicCode != nil {
			return apierrors.Validation(
				"Timesheet entry with ticket_code cannot have epic_code. Please fix the entry before submission")
		}
	}

	if e.ActualHours <= 0 {
		missing = append(missing, "actual_hours_worked (must be > 0)")
	}

	if len(missing) > 0 {
		return apierrors.Validation(
			"Cannot submit timesheet entry. Missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Submit moves a DRAFT entry to SUBMITTED. Only the entry's owner may
// submit, and the parent is re-checked at submission time.
func (s *Service) Submit(ctx context.Context, entryID int64, caller string) (*models.TimesheetEntry, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	e, err := s.entries.GetByIDForUpdate(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, apierrors.NotFound("Timesheet entry with ID %d does not exist", entryID)
	}
	if e.UserCode != caller {
		return nil, apierrors.Forbidden("Only the entry owner may submit it")
	}
	if e.ApprovalStatus != models.ApprovalDraft {
		return nil, apierrors.StateConflict(
			"Entry is %s; only DRAFT entries can be submitted", e.ApprovalStatus)
	}
	if err := checkSubmittable(e); err != nil {
		return nil, err
	}

	if e.TaskCode != nil {
		t, err := s.tasks.GetByID(ctx, tx, *e.TaskCode)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, apierrors.StateConflict("The task this entry was logged against no longer exists")
		}
		if t.IsCancelled() {
			return nil, apierrors.StateConflict("The task this entry was logged against has been cancelled")
		}
	}
	if e.ActivityCode != nil {
		ok, err := s.entries.ActivityExists(ctx, tx, *e.ActivityCode)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apierrors.StateConflict("The activity this entry was logged against no longer exists")
		}
	}

	now := s.now()
	e.ApprovalStatus = models.ApprovalSubmitted
	e.SubmittedBy = &caller
	e.SubmittedAt = &now
	e.UpdatedBy = &caller
	e.UpdatedAt = &now

	set := map[string]any{
		"approval_status": models.ApprovalSubmitted,
		"submitted_by":    caller,
		"submitted_at":    now,
		"updated_by":      caller,
		"updated_at":      now,
	}
	if err := s.entries.UpdateFields(ctx, tx, entryID, set); err != nil {
		return nil, err
	}
	if err := s.recorder.RecordTimesheet(ctx, tx, snapshot(e, nil, caller, now)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.logger.Printf("[timesheet] submitted id=%d by=%s", entryID, caller)
	return e, nil
}

// Decision is an approve or reject request.
type Decision struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

// Decide moves a SUBMITTED entry to APPROVED or REJECTED. Who may decide is
// governed by the approval hierarchy; the losing branch's columns and the
// submission markers are cleared so a terminal row carries exactly one
// outcome.
func (s *Service) Decide(ctx context.Context, entryID int64, d Decision, caller string) (*models.TimesheetEntry, error) {
	callerIsAdmin, err := s.resolver.IsAdmin(ctx, caller)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	e, err := s.entries.GetByIDForUpdate(ctx, tx, entryID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, apierrors.NotFound("Timesheet entry with ID %d does not exist", entryID)
	}
	if e.ApprovalStatus != models.ApprovalSubmitted {
		return nil, apierrors.StateConflict(
			"Entry is %s; only SUBMITTED entries can be approved or rejected", e.ApprovalStatus)
	}
	if !d.Approve && utils.Trimmed(&d.Reason) == "" {
		return nil, apierrors.Validation("A reason is required when rejecting")
	}

	authority, err := s.resolver.Resolve(ctx, e.UserCode)
	if err != nil {
		return nil, err
	}
	note, err := authority.CanAct(caller, callerIsAdmin)
	if err != nil {
		return nil, err
	}

	now := s.now()
	set := map[string]any{
		"submitted_by": nil,
		"submitted_at": nil,
		"updated_by":   caller,
		"updated_at":   now,
	}
	e.SubmittedBy = nil
	e.SubmittedAt = nil
	e.UpdatedBy = &caller
	e.UpdatedAt = &now

	var statusReason *string
	if d.Approve {
		e.ApprovalStatus = models.ApprovalApproved
		e.ApprovedBy = &caller
		e.ApprovedAt = &now
		e.RejectedBy = nil
		e.RejectedAt = nil
		e.RejectionReason = nil
		set["approval_status"] = models.ApprovalApproved
		set["approved_by"] = caller
		set["approved_at"] = now
		set["rejected_by"] = nil
		set["rejected_at"] = nil
		set["rejection_reason"] = nil
		if note != "" {
			statusReason = &note
		}
	} else {
		reason := utils.Trimmed(&d.Reason)
		e.ApprovalStatus = models.ApprovalRejected
		e.RejectedBy = &caller
		e.RejectedAt = &now
		e.RejectionReason = &reason
		e.ApprovedBy = nil
		e.ApprovedAt = nil
		set["approval_status"] = models.ApprovalRejected
		set["rejected_by"] = caller
		set["rejected_at"] = now
		set["rejection_reason"] = reason
		set["approved_by"] = nil
		set["approved_at"] = nil
		statusReason = &reason
	}

	if err := s.entries.UpdateFields(ctx, tx, entryID, set); err != nil {
		return nil, err
	}
	if err := s.recorder.RecordTimesheet(ctx, tx, snapshot(e, statusReason, caller, now)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	if note != "" {
		s.logger.Printf("[timesheet] id=%d %s", entryID, note)
	}
	s.logger.Printf("[timesheet] decided id=%d status=%s by=%s", entryID, e.ApprovalStatus, caller)
	return e, nil
}

// Get returns an entry by id.
func (s *Service) Get(ctx context.Context, entryID int64) (*models.TimesheetEntry, error) {
	e, err := s.entries.GetByID(ctx, s.db, entryID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, apierrors.NotFound("Timesheet entry with ID %d does not exist", entryID)
	}
	return e, nil
}

// ListForUserRange returns a user's entries between two dates inclusive.
func (s *Service) ListForUserRange(ctx context.Context, userCode string, from, to time.Time) ([]models.TimesheetEntry, error) {
	if to.Before(from) {
		return nil, apierrors.Validation("to date cannot be before from date")
	}
	return s.entries.ListForUserRange(ctx, userCode, from, to)
}

// snapshot builds the history row for an entry's current state.
func snapshot(e *models.TimesheetEntry, statusReason *string, actor string, at time.Time) *models.TimesheetEntryHist {
	return &models.TimesheetEntryHist{
		EntryCode:      e.ID,
		ApprovalStatus: e.ApprovalStatus,
		StatusReason:   statusReason,
		EntryDate:      e.EntryDate,
		TaskCode:       e.TaskCode,
		EpicCode:       e.EpicCode,
		ActivityCode:   e.ActivityCode,
		TicketCode:     e.TicketCode,
		ActualHours:    e.ActualHours,
		TravelTime:     e.TravelTime,
		WaitingTime:    e.WaitingTime,
		TotalHours:     e.TotalHours,
		CreatedBy:      actor,
		CreatedAt:      at,
	}
}
