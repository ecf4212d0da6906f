// Package task implements the task lifecycle: create, partial update with
// status side effects, assign-to-self, and delete. Every successful mutation
// appends exactly one task history snapshot in the same transaction.
package task

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/history"
	"github.com/goatkit/timeflow/internal/models"
	"github.com/goatkit/timeflow/internal/refdata"
	"github.com/goatkit/timeflow/internal/repository"
	"github.com/goatkit/timeflow/internal/utils"
)

// Service is the task lifecycle component.
type Service struct {
	db        *sqlx.DB
	tasks     repository.TaskRepository
	epics     repository.EpicRepository
	templates repository.TemplateRepository
	validator *refdata.Validator
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

// NewService creates a task lifecycle service.
func NewService(db *sqlx.DB, tasks repository.TaskRepository, epics repository.EpicRepository,
	templates repository.TemplateRepository, validator *refdata.Validator, recorder *history.Recorder, opts ...Option) *Service {
	s := &Service{
		db:        db,
		tasks:     tasks,
		epics:     epics,
		templates: templates,
		validator: validator,
		recorder:  recorder,
		logger:    log.Default(),
		now:       utils.NowIST,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequest carries the fields accepted when creating a task.
type CreateRequest struct {
	EpicCode       int64    `json:"epic_code"`
	Title          string   `json:"task_title"`
	Description    *string  `json:"description"`
	Assignee       *string  `json:"assignee"`
	TeamCode       *string  `json:"assigned_team_code"`
	StatusCode     *string  `json:"status_code"`
	PriorityCode   int      `json:"priority_code"`
	TaskTypeCode   *string  `json:"task_type_code"`
	WorkMode       *string  `json:"work_mode"`
	StartDate      *string  `json:"start_date"`
	DueDate        *string  `json:"due_date"`
	EstimatedHours float64  `json:"estimated_hours"`
	MaxHours       *float64 `json:"max_hours"`
	IsBillable     *bool    `json:"is_billable"`
}

// Create validates the request against the epic's bounds and the master
// tables, writes the task row plus its initial history snapshot, and returns
// the stored task.
func (s *Service) Create(ctx context.Context, req *CreateRequest, actor string) (*models.Task, error) {
	if req.Title == "" {
		return nil, apierrors.Validation("task_title is required")
	}
	if req.EstimatedHours <= 0 {
		return nil, apierrors.Validation("Estimated hours must be greater than 0")
	}

	epic, err := s.epics.GetByID(ctx, s.db, req.EpicCode)
	if err != nil {
		return nil, err
	}
	if epic == nil {
		return nil, apierrors.NotFound("Epic with ID %d does not exist", req.EpicCode)
	}

	now := s.now()
	t := &models.Task{
		TaskTitle:      req.Title,
		EpicCode:       &req.EpicCode,
		Reporter:       actor,
		StatusCode:     models.StatusNotStarted,
		PriorityCode:   req.PriorityCode,
		EstimatedHours: req.EstimatedHours,
		MaxHours:       req.EstimatedHours,
		IsBillable:     true,
		ProductCode:    utils.StrPtr(epic.ProductCode),
		CreatedBy:      actor,
		CreatedAt:      now,
	}
	if utils.Provided(req.Description) {
		t.Description = utils.StrPtr(utils.Trimmed(req.Description))
	}
	if req.MaxHours != nil {
		if *req.MaxHours < req.EstimatedHours {
			return nil, apierrors.Validation("Max hours cannot be less than estimated hours")
		}
		t.MaxHours = *req.MaxHours
	}
	if req.IsBillable != nil {
		t.IsBillable = *req.IsBillable
	}

	if utils.Provided(req.StatusCode) {
		code := utils.Trimmed(req.StatusCode)
		if err := s.validator.TaskStatus(ctx, code); err != nil {
			return nil, err
		}
		t.StatusCode = code
	}
	if err := s.validator.Priority(ctx, req.PriorityCode); err != nil {
		return nil, err
	}
	if utils.Provided(req.TaskTypeCode) {
		code := utils.Trimmed(req.TaskTypeCode)
		if err := s.validator.TaskType(ctx, code); err != nil {
			return nil, err
		}
		t.TaskTypeCode = &code
	}
	if utils.Provided(req.WorkMode) {
		mode := utils.Trimmed(req.WorkMode)
		if err := s.validator.WorkMode(mode); err != nil {
			return nil, err
		}
		t.WorkMode = &mode
	}

	// The assignee's team is authoritative: an explicitly supplied team code
	// is overridden whenever it disagrees.
	if utils.Provided(req.TeamCode) {
		code := utils.Trimmed(req.TeamCode)
		if err := s.validator.Team(ctx, code); err != nil {
			return nil, err
		}
		t.AssignedTeamCode = &code
		t.TeamCode = &code
	}
	if utils.Provided(req.Assignee) {
		assignee, err := s.validator.ActiveUser(ctx, utils.Trimmed(req.Assignee))
		if err != nil {
			return nil, err
		}
		t.Assignee = &assignee.UserCode
		if assignee.TeamCode != nil {
			t.AssignedTeamCode = assignee.TeamCode
			t.TeamCode = assignee.TeamCode
		}
		today := utils.DateOnly(now)
		t.AssignedOn = &today
	}

	if err := ResolveDatesWithinEpic(epic, req.StartDate, req.DueDate, t, now); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	id, err := s.tasks.Insert(ctx, tx, t)
	if err != nil {
		return nil, err
	}
	t.ID = id

	if err := s.recorder.RecordTask(ctx, tx, snapshot(t, nil, actor, now)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.logger.Printf("[task] created id=%d epic=%d by=%s", id, req.EpicCode, actor)
	return t, nil
}

// Update applies a partial patch to the task, triggering the status side
// effects, and appends one history snapshot with the post-update state.
func (s *Service) Update(ctx context.Context, taskID int64, patch *Patch, actor string) (*models.Task, error) {
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
	if n.TaskTypeCode != nil {
		if err := s.validator.TaskType(ctx, *n.TaskTypeCode); err != nil {
			return nil, err
		}
	}
	if n.WorkMode != nil {
		if err := s.validator.WorkMode(*n.WorkMode); err != nil {
			return nil, err
		}
	}
	if n.AssignedTeamCode != nil {
		if err := s.validator.Team(ctx, *n.AssignedTeamCode); err != nil {
			return nil, err
		}
	}
	if n.Assignee != nil {
		assignee, err := s.validator.ActiveUser(ctx, *n.Assignee)
		if err != nil {
			return nil, err
		}
		if n.AssignedTeamCode != nil && (assignee.TeamCode == nil || *assignee.TeamCode != *n.AssignedTeamCode) {
			return nil, apierrors.Validation(
				"Assignee %s does not belong to team %s", assignee.UserCode, *n.AssignedTeamCode)
		}
		// Assignee's own team wins regardless of what was supplied.
		n.AssignedTeamCode = assignee.TeamCode
	}
	if n.Reporter != nil {
		if _, err := s.validator.ActiveUser(ctx, *n.Reporter); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	current, err := s.tasks.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apierrors.NotFound("Task with ID %d does not exist", taskID)
	}

	// The epic whose bounds govern the dates: the new one when the patch
	// moves the task, otherwise the current owner. Moving also carries the
	// epic's product onto the task.
	var epic *models.Epic
	epicID := current.EpicCode
	if n.EpicCode != nil {
		epicID = n.EpicCode
	}
	if epicID != nil {
		epic, err = s.epics.GetByID(ctx, tx, *epicID)
		if err != nil {
			return nil, err
		}
		if epic == nil {
			return nil, apierrors.NotFound("Epic with ID %d does not exist", *epicID)
		}
		if n.EpicCode != nil {
			n.ProductCode = utils.StrPtr(epic.ProductCode)
		}
	}

	now := s.now()
	next, set, statusReason := apply(current, n, now, actor)

	if epic != nil {
		if err := ValidateDatesWithinEpic(epic, next.StartDate, next.DueDate); err != nil {
			return nil, err
		}
	}
	if next.StartDate != nil && next.DueDate != nil && next.DueDate.Before(*next.StartDate) {
		return nil, apierrors.Validation("Due date cannot be before start date")
	}

	if err := s.tasks.UpdateFields(ctx, tx, taskID, set); err != nil {
		return nil, err
	}

	hist := snapshot(next, statusReason, actor, now)
	if hist.TaskTypeCode == nil {
		// Preserve audit continuity: fall back to the last recorded type.
		last, err := s.recorder.LastTaskType(ctx, tx, taskID)
		if err != nil {
			return nil, err
		}
		hist.TaskTypeCode = last
	}
	if err := s.recorder.RecordTask(ctx, tx, hist); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.logger.Printf("[task] updated id=%d status=%s by=%s", taskID, next.StatusCode, actor)
	return next, nil
}

// AssignToSelf assigns the task to the caller. Already-assigned-to-caller is
// a no-op success; any other state moves assignee and team to the caller.
func (s *Service) AssignToSelf(ctx context.Context, taskID int64, caller string) (*models.Task, bool, error) {
	user, err := s.validator.ActiveUser(ctx, caller)
	if err != nil {
		return nil, false, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	current, err := s.tasks.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return nil, false, err
	}
	if current == nil {
		return nil, false, apierrors.NotFound("Task with ID %d does not exist", taskID)
	}
	if current.Assignee != nil && *current.Assignee == caller {
		return current, false, nil
	}

	now := s.now()
	today := utils.DateOnly(now)
	set := map[string]any{
		"assignee":    caller,
		"assigned_on": today,
		"updated_by":  caller,
		"updated_at":  now,
	}
	current.Assignee = &caller
	current.AssignedOn = &today
	if user.TeamCode != nil {
		set["assigned_team_code"] = *user.TeamCode
		set["team_code"] = *user.TeamCode
		current.AssignedTeamCode = user.TeamCode
		current.TeamCode = user.TeamCode
	}

	if err := s.tasks.UpdateFields(ctx, tx, taskID, set); err != nil {
		return nil, false, err
	}
	if err := s.recorder.RecordTask(ctx, tx, snapshot(current, nil, caller, now)); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}

	s.logger.Printf("[task] self-assigned id=%d to=%s", taskID, caller)
	return current, true, nil
}

// DeleteResult reports what a delete removed or preserved.
type DeleteResult struct {
	TaskTitle          string `json:"task_title"`
	Predefined         bool   `json:"is_predefined"`
	EntriesPreserved   int64  `json:"timesheet_entries_preserved"`
	CommentsDeleted    int64  `json:"comments_deleted"`
	AttachmentsDeleted int64  `json:"attachments_deleted"`
}

// Delete removes a task. The epic reference decides the variant once: a
// predefined epic means the task id names a template row (simple delete); a
// live epic means a real task whose timesheet entries are preserved by
// nulling their task_code while comments, attachments, and history go away.
func (s *Service) Delete(ctx context.Context, epicID, taskID int64, actor string) (*DeleteResult, error) {
	ref, err := s.resolveEpicRef(ctx, epicID)
	if err != nil {
		return nil, err
	}

	if ref.Predefined {
		tpl, err := s.templates.GetTaskTemplate(ctx, s.db, taskID)
		if err != nil {
			return nil, err
		}
		if tpl == nil {
			return nil, apierrors.NotFound("Predefined task with ID %d does not exist", taskID)
		}
		if err := s.templates.DeleteTaskTemplate(ctx, s.db, taskID); err != nil {
			return nil, err
		}
		s.logger.Printf("[task] deleted predefined id=%d by=%s", taskID, actor)
		return &DeleteResult{TaskTitle: tpl.TaskTitle, Predefined: true}, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	t, err := s.tasks.GetByIDForUpdate(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil || t.EpicCode == nil || *t.EpicCode != epicID {
		return nil, apierrors.NotFound("Task with ID %d does not exist or does not belong to epic %d", taskID, epicID)
	}

	preserved, err := s.tasks.DetachTimesheetEntries(ctx, tx, taskID, actor)
	if err != nil {
		return nil, err
	}
	comments, attachments, err := s.tasks.DeleteChildren(ctx, tx, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.tasks.Delete(ctx, tx, taskID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.logger.Printf("[task] deleted id=%d epic=%d preserved_entries=%d by=%s", taskID, epicID, preserved, actor)
	return &DeleteResult{
		TaskTitle:          t.TaskTitle,
		EntriesPreserved:   preserved,
		CommentsDeleted:    comments,
		AttachmentsDeleted: attachments,
	}, nil
}

// resolveEpicRef decides once whether epicID names a predefined template or
// a live epic.
func (s *Service) resolveEpicRef(ctx context.Context, epicID int64) (models.EntityRef, error) {
	predefined, err := s.templates.EpicTemplateExists(ctx, s.db, epicID)
	if err != nil {
		return models.EntityRef{}, err
	}
	return models.EntityRef{ID: epicID, Predefined: predefined}, nil
}

// History returns the task's audit trail, newest first.
func (s *Service) History(ctx context.Context, taskID int64) ([]history.Event, error) {
	t, err := s.tasks.GetByID(ctx, s.db, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apierrors.NotFound("Task with ID %d does not exist", taskID)
	}
	rows, err := s.recorder.ListTask(ctx, s.db, taskID)
	if err != nil {
		return nil, err
	}
	return history.FormatTask(rows), nil
}

// Get returns a task by id.
func (s *Service) Get(ctx context.Context, taskID int64) (*models.Task, error) {
	t, err := s.tasks.GetByID(ctx, s.db, taskID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apierrors.NotFound("Task with ID %d does not exist", taskID)
	}
	return t, nil
}

// snapshot builds the history row for a task's current state.
func snapshot(t *models.Task, statusReason *string, actor string, at time.Time) *models.TaskHist {
	return &models.TaskHist{
		TaskCode:         t.ID,
		StatusCode:       t.StatusCode,
		StatusReason:     statusReason,
		PriorityCode:     t.PriorityCode,
		TaskTypeCode:     t.TaskTypeCode,
		ProductCode:      t.ProductCode,
		AssignedTeamCode: t.AssignedTeamCode,
		Assignee:         t.Assignee,
		Reporter:         t.Reporter,
		WorkMode:         t.WorkMode,
		AssignedOn:       t.AssignedOn,
		StartDate:        t.StartDate,
		DueDate:          t.DueDate,
		ClosedOn:         t.ClosedOn,
		EstimatedHours:   t.EstimatedHours,
		MaxHours:         t.MaxHours,
		CreatedBy:        actor,
		CreatedAt:        at,
	}
}
