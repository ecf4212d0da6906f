// Package template implements predefined epic/task templates: saving them,
// and expanding them into live epics and tasks. Expansion merges template
// defaults with caller overrides and rejects task dates outside the target
// epic's bounds. Expanding the same template again refreshes the earlier
// live rows instead of duplicating them.
package template

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/xeipuuv/gojsonschema"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/history"
	"github.com/goatkit/timeflow/internal/models"
	"github.com/goatkit/timeflow/internal/refdata"
	"github.com/goatkit/timeflow/internal/repository"
	"github.com/goatkit/timeflow/internal/services/task"
	"github.com/goatkit/timeflow/internal/utils"
)

// Template types accepted by Save.
const (
	TypeEpic = "EPIC"
	TypeTask = "TASK"
)

// tasksSchema validates the tasks array on an epic template save. Each
// element either links an existing task template by template_id or defines a
// new one inline.
const tasksSchema = `{
	"type": "array",
	"items": {
		"type": "object",
		"properties": {
			"template_id":     {"type": "integer", "minimum": 1},
			"task_title":      {"type": "string", "minLength": 1},
			"task_description":{"type": "string"},
			"status_code":     {"type": "string"},
			"priority_code":   {"type": "integer", "minimum": 1},
			"task_type_code":  {"type": "string"},
			"work_mode":       {"type": "string", "enum": ["REMOTE", "ON_SITE", "OFFICE"]},
			"team_code":       {"type": "string"},
			"estimated_hours": {"type": "number", "exclusiveMinimum": 0},
			"max_hours":       {"type": "number", "exclusiveMinimum": 0},
			"is_billable":     {"type": "boolean"}
		},
		"anyOf": [
			{"required": ["template_id"]},
			{"required": ["task_title", "estimated_hours"]}
		]
	}
}`

var compiledTasksSchema = gojsonschema.NewStringLoader(tasksSchema)

// Service is the template component.
type Service struct {
	db        *sqlx.DB
	templates repository.TemplateRepository
	epics     repository.EpicRepository
	tasks     repository.TaskRepository
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

// NewService creates a template service.
func NewService(db *sqlx.DB, templates repository.TemplateRepository, epics repository.EpicRepository,
	tasks repository.TaskRepository, validator *refdata.Validator, recorder *history.Recorder, opts ...Option) *Service {
	s := &Service{
		db:        db,
		templates: templates,
		epics:     epics,
		tasks:     tasks,
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

// ExpandTaskRequest instantiates one task template into a live epic.
// Override fields, when provided, win over the template's defaults.
type ExpandTaskRequest struct {
	PredefinedTaskID int64   `json:"predefined_task_id"`
	EpicCode         int64   `json:"epic_code"`
	Assignee         *string `json:"assignee"`
	StatusCode       *string `json:"status_code"`
	WorkMode         *string `json:"work_mode"`
	StartDate        *string `json:"start_date"`
	DueDate          *string `json:"due_date"`
	Description      *string `json:"description"`
}

// ExpandTask creates or refreshes the live task for (template, epic). The
// same pair expanded twice updates the earlier task instead of duplicating
// it. Either way one history snapshot is appended.
func (s *Service) ExpandTask(ctx context.Context, req *ExpandTaskRequest, actor string) (*models.Task, bool, error) {
	tpl, err := s.templates.GetTaskTemplate(ctx, s.db, req.PredefinedTaskID)
	if err != nil {
		return nil, false, err
	}
	if tpl == nil {
		return nil, false, apierrors.NotFound("Predefined task with ID %d does not exist", req.PredefinedTaskID)
	}
	epic, err := s.epics.GetByID(ctx, s.db, req.EpicCode)
	if err != nil {
		return nil, false, err
	}
	if epic == nil {
		return nil, false, apierrors.NotFound("Epic with ID %d does not exist", req.EpicCode)
	}

	now := s.now()
	t := &models.Task{
		TaskTitle:        tpl.TaskTitle,
		Description:      tpl.TaskDescription,
		EpicCode:         &req.EpicCode,
		Reporter:         actor,
		StatusCode:       tpl.StatusCode,
		PriorityCode:     tpl.PriorityCode,
		TaskTypeCode:     tpl.TaskTypeCode,
		WorkMode:         tpl.WorkMode,
		AssignedTeamCode: tpl.TeamCode,
		TeamCode:         tpl.TeamCode,
		EstimatedHours:   tpl.EstimatedHours,
		MaxHours:         tpl.MaxHours,
		IsBillable:       tpl.IsBillable,
		ProductCode:      utils.StrPtr(epic.ProductCode),
		PredefinedTaskID: &tpl.ID,
		CreatedBy:        actor,
		CreatedAt:        now,
	}

	if utils.Provided(req.Description) {
		t.Description = utils.StrPtr(utils.Trimmed(req.Description))
	}
	if utils.Provided(req.StatusCode) {
		code := utils.Trimmed(req.StatusCode)
		if err := s.validator.TaskStatus(ctx, code); err != nil {
			return nil, false, err
		}
		t.StatusCode = code
	}
	if utils.Provided(req.WorkMode) {
		mode := utils.Trimmed(req.WorkMode)
		if err := s.validator.WorkMode(mode); err != nil {
			return nil, false, err
		}
		t.WorkMode = &mode
	}
	if utils.Provided(req.Assignee) {
		assignee, err := s.validator.ActiveUser(ctx, utils.Trimmed(req.Assignee))
		if err != nil {
			return nil, false, err
		}
		t.Assignee = &assignee.UserCode
		if assignee.TeamCode != nil {
			t.AssignedTeamCode = assignee.TeamCode
			t.TeamCode = assignee.TeamCode
		}
		today := utils.DateOnly(now)
		t.AssignedOn = &today
	}

	if err := task.ResolveDatesWithinEpic(epic, req.StartDate, req.DueDate, t, now); err != nil {
		return nil, false, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	existing, err := s.tasks.FindByTemplateAndEpic(ctx, tx, req.PredefinedTaskID, req.EpicCode)
	if err != nil {
		return nil, false, err
	}

	created := existing == nil
	if created {
		id, err := s.tasks.Insert(ctx, tx, t)
		if err != nil {
			return nil, false, err
		}
		t.ID = id
	} else {
		t.ID = existing.ID
		t.Reporter = existing.Reporter
		t.CreatedBy = existing.CreatedBy
		t.CreatedAt = existing.CreatedAt
		set := map[string]any{
			"task_title":      t.TaskTitle,
			"status_code":     t.StatusCode,
			"priority_code":   t.PriorityCode,
			"estimated_hours": t.EstimatedHours,
			"max_hours":       t.MaxHours,
			"is_billable":     t.IsBillable,
			"updated_by":      actor,
			"updated_at":      now,
		}
		if t.Description != nil {
			set["description"] = *t.Description
		}
		if t.TaskTypeCode != nil {
			set["task_type_code"] = *t.TaskTypeCode
		}
		if t.WorkMode != nil {
			set["work_mode"] = *t.WorkMode
		}
		if t.Assignee != nil {
			set["assignee"] = *t.Assignee
			set["assigned_on"] = *t.AssignedOn
		}
		if t.AssignedTeamCode != nil {
			set["assigned_team_code"] = *t.AssignedTeamCode
			set["team_code"] = *t.AssignedTeamCode
		}
		if t.StartDate != nil {
			set["start_date"] = *t.StartDate
		}
		if t.DueDate != nil {
			set["due_date"] = *t.DueDate
		}
		if err := s.tasks.UpdateFields(ctx, tx, t.ID, set); err != nil {
			return nil, false, err
		}
	}

	if err := s.recorder.RecordTask(ctx, tx, taskSnapshot(t, actor, now)); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}

	s.logger.Printf("[template] expanded task template=%d epic=%d created=%t by=%s",
		req.PredefinedTaskID, req.EpicCode, created, actor)
	return t, created, nil
}

// ExpandEpicRequest instantiates an epic template into a live epic, along
// with every task template linked to it.
type ExpandEpicRequest struct {
	PredefinedEpicID int64   `json:"predefined_epic_id"`
	ProductCode      string  `json:"product_code"`
	CompanyCode      *string `json:"company_code"`
	StartDate        *string `json:"start_date"`
	DueDate          *string `json:"due_date"`
	// Tasks optionally carries extra task templates to create or link under
	// the epic template before it is expanded. Same shape as SaveRequest.Tasks.
	Tasks json.RawMessage `json:"tasks"`
}

// ExpandEpicResult reports the expanded epic and its instantiated tasks.
type ExpandEpicResult struct {
	Epic    *models.Epic  `json:"epic"`
	Created bool          `json:"created"`
	Tasks   []models.Task `json:"tasks"`
}

// ExpandEpic instantiates an epic template into a live epic along with every
// task template linked to it, first upserting any extra task templates
// carried in the request. The live epic is keyed by (template, company): a
// second expansion for the same pair refreshes the earlier epic and its
// tasks in place instead of duplicating them. Unlike direct epic creation
// this writes an epic history row, since the expansion is itself a recorded
// event.
func (s *Service) ExpandEpic(ctx context.Context, req *ExpandEpicRequest, actor string) (*ExpandEpicResult, error) {
	tpl, err := s.templates.GetEpicTemplate(ctx, s.db, req.PredefinedEpicID)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, apierrors.NotFound("Predefined epic with ID %d does not exist", req.PredefinedEpicID)
	}
	if !tpl.IsActive {
		return nil, apierrors.StateConflict("Predefined epic %d is inactive", req.PredefinedEpicID)
	}
	if req.ProductCode == "" {
		return nil, apierrors.Validation("product_code is required")
	}
	if err := s.validator.Product(ctx, req.ProductCode); err != nil {
		return nil, err
	}

	now := s.now()
	e := &models.Epic{
		EpicTitle:         tpl.Title,
		Description:       tpl.Description,
		ProductCode:       req.ProductCode,
		ContactPersonCode: tpl.ContactPersonCode,
		Reporter:          actor,
		StatusCode:        models.StatusNotStarted,
		PriorityCode:      tpl.PriorityCode,
		EstimatedHours:    tpl.EstimatedHours,
		MaxHours:          tpl.MaxHours,
		IsBillable:        tpl.IsBillable,
		PredefinedEpicID:  &tpl.ID,
		CreatedBy:         actor,
		CreatedAt:         now,
	}
	if utils.Provided(req.CompanyCode) {
		code := utils.Trimmed(req.CompanyCode)
		if err := s.validator.Company(ctx, code); err != nil {
			return nil, err
		}
		e.CompanyCode = &code
	}
	if utils.Provided(req.StartDate) {
		d, err := utils.ParseDate(*req.StartDate)
		if err != nil {
			return nil, apierrors.Validation("Invalid start_date: %v", err)
		}
		e.StartDate = &d
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

	extraEntries, err := parseTaskEntries(req.Tasks)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, entry := range extraEntries {
		if _, err := s.upsertLinkedTaskTemplate(ctx, tx, tpl.ID, entry, actor, now); err != nil {
			return nil, err
		}
	}

	taskTemplates, err := s.templates.ListTaskTemplatesOfEpic(ctx, tx, tpl.ID)
	if err != nil {
		return nil, err
	}

	existingEpic, err := s.epics.FindByTemplateAndCompany(ctx, tx, tpl.ID, e.CompanyCode)
	if err != nil {
		return nil, err
	}

	epicCreated := existingEpic == nil
	var epicID int64
	if epicCreated {
		epicID, err = s.epics.Insert(ctx, tx, e)
		if err != nil {
			return nil, err
		}
		e.ID = epicID
	} else {
		epicID = existingEpic.ID
		e.ID = epicID
		e.CreatedBy = existingEpic.CreatedBy
		e.CreatedAt = existingEpic.CreatedAt
		e.UpdatedBy = &actor
		e.UpdatedAt = &now
		set := map[string]any{
			"epic_title":      e.EpicTitle,
			"product_code":    e.ProductCode,
			"reporter":        e.Reporter,
			"status_code":     e.StatusCode,
			"priority_code":   e.PriorityCode,
			"estimated_hours": e.EstimatedHours,
			"max_hours":       e.MaxHours,
			"is_billable":     e.IsBillable,
			"updated_by":      actor,
			"updated_at":      now,
		}
		if e.Description != nil {
			set["description"] = *e.Description
		}
		if e.CompanyCode != nil {
			set["company_code"] = *e.CompanyCode
		}
		if e.ContactPersonCode != nil {
			set["contact_person_code"] = *e.ContactPersonCode
		}
		if e.StartDate != nil {
			set["start_date"] = *e.StartDate
		}
		if e.DueDate != nil {
			set["due_date"] = *e.DueDate
		}
		if err := s.epics.UpdateFields(ctx, tx, epicID, set); err != nil {
			return nil, err
		}
	}

	if err := s.recorder.RecordEpic(ctx, tx, &models.EpicHist{
		EpicCode:          epicID,
		StatusCode:        e.StatusCode,
		PriorityCode:      e.PriorityCode,
		ProductCode:       e.ProductCode,
		CompanyCode:       e.CompanyCode,
		ContactPersonCode: e.ContactPersonCode,
		Reporter:          e.Reporter,
		StartDate:         e.StartDate,
		DueDate:           e.DueDate,
		EstimatedHours:    e.EstimatedHours,
		MaxHours:          e.MaxHours,
		CreatedBy:         actor,
		CreatedAt:         now,
	}); err != nil {
		return nil, err
	}

	tasks := make([]models.Task, 0, len(taskTemplates))
	for i := range taskTemplates {
		tt := &taskTemplates[i]
		t := &models.Task{
			TaskTitle:        tt.TaskTitle,
			Description:      tt.TaskDescription,
			EpicCode:         &epicID,
			Reporter:         actor,
			StatusCode:       tt.StatusCode,
			PriorityCode:     tt.PriorityCode,
			TaskTypeCode:     tt.TaskTypeCode,
			WorkMode:         tt.WorkMode,
			AssignedTeamCode: tt.TeamCode,
			TeamCode:         tt.TeamCode,
			StartDate:        e.StartDate,
			DueDate:          e.DueDate,
			EstimatedHours:   tt.EstimatedHours,
			MaxHours:         tt.MaxHours,
			IsBillable:       tt.IsBillable,
			ProductCode:      utils.StrPtr(e.ProductCode),
			PredefinedTaskID: &tt.ID,
			CreatedBy:        actor,
			CreatedAt:        now,
		}
		existing, err := s.tasks.FindByTemplateAndEpic(ctx, tx, tt.ID, epicID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			id, err := s.tasks.Insert(ctx, tx, t)
			if err != nil {
				return nil, err
			}
			t.ID = id
		} else {
			t.ID = existing.ID
			t.Reporter = existing.Reporter
			t.CreatedBy = existing.CreatedBy
			t.CreatedAt = existing.CreatedAt
			set := map[string]any{
				"task_title":      t.TaskTitle,
				"status_code":     t.StatusCode,
				"priority_code":   t.PriorityCode,
				"estimated_hours": t.EstimatedHours,
				"max_hours":       t.MaxHours,
				"is_billable":     t.IsBillable,
				"product_code":    *t.ProductCode,
				"updated_by":      actor,
				"updated_at":      now,
			}
			if t.Description != nil {
				set["description"] = *t.Description
			}
			if t.TaskTypeCode != nil {
				set["task_type_code"] = *t.TaskTypeCode
			}
			if t.WorkMode != nil {
				set["work_mode"] = *t.WorkMode
			}
			if t.AssignedTeamCode != nil {
				set["assigned_team_code"] = *t.AssignedTeamCode
				set["team_code"] = *t.AssignedTeamCode
			}
			if t.StartDate != nil {
				set["start_date"] = *t.StartDate
			}
			if t.DueDate != nil {
				set["due_date"] = *t.DueDate
			}
			if err := s.tasks.UpdateFields(ctx, tx, t.ID, set); err != nil {
				return nil, err
			}
		}
		if err := s.recorder.RecordTask(ctx, tx, taskSnapshot(t, actor, now)); err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.logger.Printf("[template] expanded epic template=%d epic=%d created=%t tasks=%d by=%s",
		req.PredefinedEpicID, epicID, epicCreated, len(tasks), actor)
	return &ExpandEpicResult{Epic: e, Created: epicCreated, Tasks: tasks}, nil
}

// SaveRequest creates or updates a template. TemplateID set means update.
// For epic templates Tasks optionally carries an array of task templates to
// create or link.
type SaveRequest struct {
	TemplateType      string          `json:"template_type"`
	TemplateID        *int64          `json:"template_id"`
	Title             string          `json:"title"`
	Description       *string         `json:"description"`
	ContactPersonCode *string         `json:"contact_person_code"`
	StatusCode        *string         `json:"status_code"`
	PriorityCode      int             `json:"priority_code"`
	TaskTypeCode      *string         `json:"task_type_code"`
	WorkMode          *string         `json:"work_mode"`
	TeamCode          *string         `json:"team_code"`
	EstimatedHours    float64         `json:"estimated_hours"`
	MaxHours          *float64        `json:"max_hours"`
	IsBillable        *bool           `json:"is_billable"`
	Tasks             json.RawMessage `json:"tasks"`
}

// SaveResult reports the saved template and any linked task templates.
type SaveResult struct {
	TemplateID   int64   `json:"template_id"`
	TemplateType string  `json:"template_type"`
	Created      bool    `json:"created"`
	TaskIDs      []int64 `json:"task_template_ids,omitempty"`
}

// Save validates and upserts a template.
func (s *Service) Save(ctx context.Context, req *SaveRequest, actor string) (*SaveResult, error) {
	switch strings.ToUpper(req.TemplateType) {
	case TypeEpic:
		return s.saveEpicTemplate(ctx, req, actor)
	case TypeTask:
		return s.saveTaskTemplate(ctx, req, actor)
	}
	return nil, apierrors.Validation("template_type must be EPIC or TASK")
}

func checkTemplateHours(estimated float64, max *float64) (float64, error) {
	if estimated <= 0 {
		return 0, apierrors.Validation("Estimated hours must be greater than 0")
	}
	effective := estimated
	if max != nil {
		if *max < estimated {
			return 0, apierrors.Validation("Max hours cannot be less than estimated hours")
		}
		effective = *max
	}
	return effective, nil
}

func (s *Service) saveEpicTemplate(ctx context.Context, req *SaveRequest, actor string) (*SaveResult, error) {
	if req.Title == "" {
		return nil, apierrors.Validation("title is required")
	}
	maxHours, err := checkTemplateHours(req.EstimatedHours, req.MaxHours)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Priority(ctx, req.PriorityCode); err != nil {
		return nil, err
	}

	taskEntries, err := parseTaskEntries(req.Tasks)
	if err != nil {
		return nil, err
	}

	var excludeID int64
	if req.TemplateID != nil {
		excludeID = *req.TemplateID
	}
	dup, err := s.templates.FindEpicTemplateByTitle(ctx, s.db, req.Title, excludeID)
	if err != nil {
		return nil, err
	}
	if dup != nil {
		return nil, apierrors.StateConflict("An epic template titled %q already exists", req.Title)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := s.now()
	result := &SaveResult{TemplateType: TypeEpic}

	if req.TemplateID != nil {
		existing, err := s.templates.GetEpicTemplate(ctx, tx, *req.TemplateID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, apierrors.NotFound("Epic template with ID %d does not exist", *req.TemplateID)
		}
		set := map[string]any{
			"title":           req.Title,
			"priority_code":   req.PriorityCode,
			"estimated_hours": req.EstimatedHours,
			"max_hours":       maxHours,
			"updated_by":      actor,
			"updated_at":      now,
		}
		if utils.Provided(req.Description) {
			set["description"] = utils.Trimmed(req.Description)
		}
		if utils.Provided(req.ContactPersonCode) {
			set["contact_person_code"] = utils.Trimmed(req.ContactPersonCode)
		}
		if req.IsBillable != nil {
			set["is_billable"] = *req.IsBillable
		}
		if err := s.templates.UpdateEpicTemplateFields(ctx, tx, *req.TemplateID, set); err != nil {
			return nil, err
		}
		result.TemplateID = *req.TemplateID
	} else {
		tpl := &models.PredefinedEpic{
			Title:          req.Title,
			PriorityCode:   req.PriorityCode,
			EstimatedHours: req.EstimatedHours,
			MaxHours:       maxHours,
			IsBillable:     true,
			IsActive:       true,
			CreatedBy:      actor,
			CreatedAt:      now,
		}
		if utils.Provided(req.Description) {
			tpl.Description = utils.StrPtr(utils.Trimmed(req.Description))
		}
		if utils.Provided(req.ContactPersonCode) {
			tpl.ContactPersonCode = utils.StrPtr(utils.Trimmed(req.ContactPersonCode))
		}
		if req.IsBillable != nil {
			tpl.IsBillable = *req.IsBillable
		}
		id, err := s.templates.InsertEpicTemplate(ctx, tx, tpl)
		if err != nil {
			return nil, err
		}
		result.TemplateID = id
		result.Created = true
	}

	for _, entry := range taskEntries {
		id, err := s.upsertLinkedTaskTemplate(ctx, tx, result.TemplateID, entry, actor, now)
		if err != nil {
			return nil, err
		}
		result.TaskIDs = append(result.TaskIDs, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.logger.Printf("[template] saved epic template id=%d created=%t tasks=%d by=%s",
		result.TemplateID, result.Created, len(result.TaskIDs), actor)
	return result, nil
}

// taskEntry is one element of the tasks array on an epic template save.
type taskEntry struct {
	TemplateID      *int64   `json:"template_id"`
	TaskTitle       string   `json:"task_title"`
	TaskDescription *string  `json:"task_description"`
	StatusCode      *string  `json:"status_code"`
	PriorityCode    *int     `json:"priority_code"`
	TaskTypeCode    *string  `json:"task_type_code"`
	WorkMode        *string  `json:"work_mode"`
	TeamCode        *string  `json:"team_code"`
	EstimatedHours  float64  `json:"estimated_hours"`
	MaxHours        *float64 `json:"max_hours"`
	IsBillable      *bool    `json:"is_billable"`
}

// parseTaskEntries schema-validates and decodes the tasks array.
func parseTaskEntries(raw json.RawMessage) ([]taskEntry, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	res, err := gojsonschema.Validate(compiledTasksSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, apierrors.Validation("tasks is not valid JSON: %v", err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, apierrors.Validation("tasks failed validation: %s", strings.Join(msgs, "; "))
	}
	var entries []taskEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, apierrors.Validation("tasks is not valid JSON: %v", err)
	}
	return entries, nil
}

// upsertLinkedTaskTemplate links an existing task template to the epic
// template, or creates a new one inline from the entry.
func (s *Service) upsertLinkedTaskTemplate(ctx context.Context, tx *sqlx.Tx, epicTemplateID int64, entry taskEntry, actor string, now time.Time) (int64, error) {
	if entry.TemplateID != nil {
		existing, err := s.templates.GetTaskTemplate(ctx, tx, *entry.TemplateID)
		if err != nil {
			return 0, err
		}
		if existing == nil {
			return 0, apierrors.ReferenceNotFound("Task template with ID %d does not exist", *entry.TemplateID)
		}
		set := map[string]any{
			"predefined_epic_id": epicTemplateID,
			"updated_by":         actor,
			"updated_at":         now,
		}
		if err := s.templates.UpdateTaskTemplateFields(ctx, tx, existing.ID, set); err != nil {
			return 0, err
		}
		return existing.ID, nil
	}

	maxHours, err := checkTemplateHours(entry.EstimatedHours, entry.MaxHours)
	if err != nil {
		return 0, err
	}
	tpl := &models.PredefinedTask{
		TaskTitle:        entry.TaskTitle,
		TaskDescription:  entry.TaskDescription,
		StatusCode:       models.StatusNotStarted,
		PriorityCode:     3,
		EstimatedHours:   entry.EstimatedHours,
		MaxHours:         maxHours,
		IsBillable:       true,
		PredefinedEpicID: &epicTemplateID,
		CreatedBy:        actor,
		CreatedAt:        now,
	}
	if entry.StatusCode != nil {
		if err := s.validator.TaskStatus(ctx, *entry.StatusCode); err != nil {
			return 0, err
		}
		tpl.StatusCode = *entry.StatusCode
	}
	if entry.PriorityCode != nil {
		if err := s.validator.Priority(ctx, *entry.PriorityCode); err != nil {
			return 0, err
		}
		tpl.PriorityCode = *entry.PriorityCode
	}
	if entry.TaskTypeCode != nil {
		if err := s.validator.TaskType(ctx, *entry.TaskTypeCode); err != nil {
			return 0, err
		}
		tpl.TaskTypeCode = entry.TaskTypeCode
	}
	if entry.WorkMode != nil {
		if err := s.validator.WorkMode(*entry.WorkMode); err != nil {
			return 0, err
		}
		tpl.WorkMode = entry.WorkMode
	}
	if entry.TeamCode != nil {
		if err := s.validator.Team(ctx, *entry.TeamCode); err != nil {
			return 0, err
		}
		tpl.TeamCode = entry.TeamCode
	}
	if entry.IsBillable != nil {
		tpl.IsBillable = *entry.IsBillable
	}
	return s.templates.InsertTaskTemplate(ctx, tx, tpl)
}

func (s *Service) saveTaskTemplate(ctx context.Context, req *SaveRequest, actor string) (*SaveResult, error) {
	if req.Title == "" {
		return nil, apierrors.Validation("title is required")
	}
	maxHours, err := checkTemplateHours(req.EstimatedHours, req.MaxHours)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Priority(ctx, req.PriorityCode); err != nil {
		return nil, err
	}
	if utils.Provided(req.TaskTypeCode) {
		if err := s.validator.TaskType(ctx, utils.Trimmed(req.TaskTypeCode)); err != nil {
			return nil, err
		}
	}
	if utils.Provided(req.WorkMode) {
		if err := s.validator.WorkMode(utils.Trimmed(req.WorkMode)); err != nil {
			return nil, err
		}
	}
	if utils.Provided(req.TeamCode) {
		if err := s.validator.Team(ctx, utils.Trimmed(req.TeamCode)); err != nil {
			return nil, err
		}
	}

	now := s.now()
	if req.TemplateID != nil {
		existing, err := s.templates.GetTaskTemplate(ctx, s.db, *req.TemplateID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, apierrors.NotFound("Task template with ID %d does not exist", *req.TemplateID)
		}
		set := map[string]any{
			"task_title":      req.Title,
			"priority_code":   req.PriorityCode,
			"estimated_hours": req.EstimatedHours,
			"max_hours":       maxHours,
			"updated_by":      actor,
			"updated_at":      now,
		}
		if utils.Provided(req.Description) {
			set["task_description"] = utils.Trimmed(req.Description)
		}
		if utils.Provided(req.StatusCode) {
			code := utils.Trimmed(req.StatusCode)
			if err := s.validator.TaskStatus(ctx, code); err != nil {
				return nil, err
			}
			set["status_code"] = code
		}
		if utils.Provided(req.TaskTypeCode) {
			set["task_type_code"] = utils.Trimmed(req.TaskTypeCode)
		}
		if utils.Provided(req.WorkMode) {
			set["work_mode"] = utils.Trimmed(req.WorkMode)
		}
		if utils.Provided(req.TeamCode) {
			set["team_code"] = utils.Trimmed(req.TeamCode)
		}
		if req.IsBillable != nil {
			set["is_billable"] = *req.IsBillable
		}
		if err := s.templates.UpdateTaskTemplateFields(ctx, s.db, *req.TemplateID, set); err != nil {
			return nil, err
		}
		s.logger.Printf("[template] updated task template id=%d by=%s", *req.TemplateID, actor)
		return &SaveResult{TemplateID: *req.TemplateID, TemplateType: TypeTask}, nil
	}

	tpl := &models.PredefinedTask{
		TaskTitle:      req.Title,
		StatusCode:     models.StatusNotStarted,
		PriorityCode:   req.PriorityCode,
		EstimatedHours: req.EstimatedHours,
		MaxHours:       maxHours,
		IsBillable:     true,
		CreatedBy:      actor,
		CreatedAt:      now,
	}
	if utils.Provided(req.Description) {
		tpl.TaskDescription = utils.StrPtr(utils.Trimmed(req.Description))
	}
	if utils.Provided(req.StatusCode) {
		code := utils.Trimmed(req.StatusCode)
		if err := s.validator.TaskStatus(ctx, code); err != nil {
			return nil, err
		}
		tpl.StatusCode = code
	}
	if utils.Provided(req.TaskTypeCode) {
		tpl.TaskTypeCode = utils.StrPtr(utils.Trimmed(req.TaskTypeCode))
	}
	if utils.Provided(req.WorkMode) {
		tpl.WorkMode = utils.StrPtr(utils.Trimmed(req.WorkMode))
	}
	if utils.Provided(req.TeamCode) {
		tpl.TeamCode = utils.StrPtr(utils.Trimmed(req.TeamCode))
	}
	if req.IsBillable != nil {
		tpl.IsBillable = *req.IsBillable
	}

	id, err := s.templates.InsertTaskTemplate(ctx, s.db, tpl)
	if err != nil {
		return nil, err
	}
	s.logger.Printf("[template] created task template id=%d by=%s", id, actor)
	return &SaveResult{TemplateID: id, TemplateType: TypeTask, Created: true}, nil
}

// taskSnapshot builds the history row for a task produced by expansion.
func taskSnapshot(t *models.Task, actor string, at time.Time) *models.TaskHist {
	return &models.TaskHist{
		TaskCode:         t.ID,
		StatusCode:       t.StatusCode,
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
