package task

import (
	"time"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/models"
	"github.com/goatkit/timeflow/internal/utils"
)

// Patch is a partial update request as received from the client. Nil means
// the field was absent; blank strings, the literal "string", and zero code
// values are placeholders and read as absent too.
type Patch struct {
	Title              *string  `json:"task_title"`
	Description        *string  `json:"description"`
	StatusCode         *string  `json:"status_code"`
	EpicCode           *int64   `json:"epic_code"`
	PriorityCode       *int     `json:"priority_code"`
	TaskTypeCode       *string  `json:"task_type_code"`
	WorkMode           *string  `json:"work_mode"`
	Assignee           *string  `json:"assignee"`
	Reporter           *string  `json:"reporter"`
	AssignedTeamCode   *string  `json:"assigned_team_code"`
	StartDate          *string  `json:"start_date"`
	DueDate            *string  `json:"due_date"`
	ClosedOn           *string  `json:"closed_on"`
	EstimatedHours     *float64 `json:"estimated_hours"`
	MaxHours           *float64 `json:"max_hours"`
	IsBillable         *bool    `json:"is_billable"`
	CancellationReason *string  `json:"cancellation_reason"`
}

// normalized is the sentinel-filtered, parsed form of a Patch. A nil pointer
// here definitively means "leave untouched".
type normalized struct {
	Title              *string
	Description        *string
	StatusCode         *string
	EpicCode           *int64
	ProductCode        *string
	PriorityCode       *int
	TaskTypeCode       *string
	WorkMode           *string
	Assignee           *string
	Reporter           *string
	AssignedTeamCode   *string
	StartDate          *time.Time
	StartDateExplicit  bool
	DueDate            *time.Time
	ClosedOn           *time.Time
	EstimatedHours     *float64
	MaxHours           *float64
	IsBillable         *bool
	CancellationReason *string
}

// normalize filters placeholder values and parses dates. At least one real
// field must survive filtering.
func (p *Patch) normalize() (*normalized, error) {
	n := &normalized{}

	if utils.Provided(p.Title) {
		n.Title = utils.StrPtr(utils.Trimmed(p.Title))
	}
	if utils.Provided(p.Description) {
		n.Description = utils.StrPtr(utils.Trimmed(p.Description))
	}
	if utils.Provided(p.StatusCode) {
		n.StatusCode = utils.StrPtr(utils.Trimmed(p.StatusCode))
	}
	if p.EpicCode != nil && *p.EpicCode > 0 {
		n.EpicCode = p.EpicCode
	}
	if utils.ProvidedInt(p.PriorityCode) {
		n.PriorityCode = p.PriorityCode
	}
	if utils.Provided(p.TaskTypeCode) {
		n.TaskTypeCode = utils.StrPtr(utils.Trimmed(p.TaskTypeCode))
	}
	if utils.Provided(p.WorkMode) {
		n.WorkMode = utils.StrPtr(utils.Trimmed(p.WorkMode))
	}
	if utils.Provided(p.Assignee) {
		n.Assignee = utils.StrPtr(utils.Trimmed(p.Assignee))
	}
	if utils.Provided(p.Reporter) {
		n.Reporter = utils.StrPtr(utils.Trimmed(p.Reporter))
	}
	if utils.Provided(p.AssignedTeamCode) {
		n.AssignedTeamCode = utils.StrPtr(utils.Trimmed(p.AssignedTeamCode))
	}
	if utils.Provided(p.StartDate) {
		d, err := utils.ParseDate(*p.StartDate)
		if err != nil {
			return nil, apierrors.Validation("Invalid start_date: %v", err)
		}
		n.StartDate = &d
		n.StartDateExplicit = true
	}
	if utils.Provided(p.DueDate) {
		d, err := utils.ParseDate(*p.DueDate)
		if err != nil {
			return nil, apierrors.Validation("Invalid due_date: %v", err)
		}
		n.DueDate = &d
	}
	if utils.Provided(p.ClosedOn) {
		d, err := utils.ParseDate(*p.ClosedOn)
		if err != nil {
			return nil, apierrors.Validation("Invalid closed_on: %v", err)
		}
		n.ClosedOn = &d
	}
	if p.EstimatedHours != nil {
		n.EstimatedHours = p.EstimatedHours
	}
	if p.MaxHours != nil {
		n.MaxHours = p.MaxHours
	}
	if p.IsBillable != nil {
		n.IsBillable = p.IsBillable
	}
	if utils.Provided(p.CancellationReason) {
		n.CancellationReason = utils.StrPtr(utils.Trimmed(p.CancellationReason))
	}

	if n.isEmpty() {
		return nil, apierrors.Validation("At least one field must be provided to update")
	}
	return n, nil
}

func (n *normalized) isEmpty() bool {
	return n.Title == nil && n.Description == nil && n.StatusCode == nil &&
		n.EpicCode == nil && n.PriorityCode == nil && n.TaskTypeCode == nil &&
		n.WorkMode == nil && n.Assignee == nil && n.Reporter == nil &&
		n.AssignedTeamCode == nil && n.StartDate == nil && n.DueDate == nil &&
		n.ClosedOn == nil && n.EstimatedHours == nil && n.MaxHours == nil &&
		n.IsBillable == nil && n.CancellationReason == nil
}

// apply computes the task's next state and the column set to persist, given
// the current row and a normalized patch. Pure: all database-dependent
// resolution (assignee team, code existence) happens before this call.
//
// Status transition side effects:
//   - to In Progress: start_date = today unless the patch carried one
//   - to Completed: closed_on = today, always
//   - to Cancelled: cancelled_by/at stamped, reason recorded
//   - away from Cancelled: cancel markers cleared
//
// A team change without a matching assignee in the same patch clears the
// assignee; the old assignee no longer belongs to the new team.
func apply(current *models.Task, n *normalized, now time.Time, actor string) (*models.Task, map[string]any, *string) {
	next := *current
	set := map[string]any{}
	var statusReason *string

	today := utils.DateOnly(now)

	if n.Title != nil {
		next.TaskTitle = *n.Title
		set["task_title"] = *n.Title
	}
	if n.EpicCode != nil {
		next.EpicCode = n.EpicCode
		set["epic_code"] = *n.EpicCode
		// The product follows the epic; the caller resolved it from the
		// new epic's row.
		next.ProductCode = n.ProductCode
		if n.ProductCode != nil {
			set["product_code"] = *n.ProductCode
		} else {
			set["product_code"] = nil
		}
	}
	if n.Description != nil {
		next.Description = n.Description
		set["description"] = *n.Description
	}
	if n.PriorityCode != nil {
		next.PriorityCode = *n.PriorityCode
		set["priority_code"] = *n.PriorityCode
	}
	if n.TaskTypeCode != nil {
		next.TaskTypeCode = n.TaskTypeCode
		set["task_type_code"] = *n.TaskTypeCode
	}
	if n.WorkMode != nil {
		next.WorkMode = n.WorkMode
		set["work_mode"] = *n.WorkMode
	}
	if n.StartDate != nil {
		next.StartDate = n.StartDate
		set["start_date"] = *n.StartDate
	}
	if n.DueDate != nil {
		next.DueDate = n.DueDate
		set["due_date"] = *n.DueDate
	}
	if n.ClosedOn != nil {
		next.ClosedOn = n.ClosedOn
		set["closed_on"] = *n.ClosedOn
	}
	if n.EstimatedHours != nil {
		next.EstimatedHours = *n.EstimatedHours
		set["estimated_hours"] = *n.EstimatedHours
	}
	if n.MaxHours != nil {
		next.MaxHours = *n.MaxHours
		set["max_hours"] = *n.MaxHours
	}
	if n.IsBillable != nil {
		next.IsBillable = *n.IsBillable
		set["is_billable"] = *n.IsBillable
	}
	if n.Reporter != nil {
		next.Reporter = *n.Reporter
		set["reporter"] = *n.Reporter
	}

	// Assignee / team coherence. The assignee's team was already resolved
	// into n.AssignedTeamCode by the caller when an assignee was provided.
	if n.Assignee != nil {
		next.Assignee = n.Assignee
		set["assignee"] = *n.Assignee
		next.AssignedOn = &today
		set["assigned_on"] = today
		if n.AssignedTeamCode != nil {
			next.AssignedTeamCode = n.AssignedTeamCode
			next.TeamCode = n.AssignedTeamCode
			set["assigned_team_code"] = *n.AssignedTeamCode
			set["team_code"] = *n.AssignedTeamCode
		}
	} else if n.AssignedTeamCode != nil {
		teamChanged := current.AssignedTeamCode == nil || *current.AssignedTeamCode != *n.AssignedTeamCode
		next.AssignedTeamCode = n.AssignedTeamCode
		next.TeamCode = n.AssignedTeamCode
		set["assigned_team_code"] = *n.AssignedTeamCode
		set["team_code"] = *n.AssignedTeamCode
		if teamChanged && current.Assignee != nil {
			next.Assignee = nil
			next.AssignedOn = nil
			set["assignee"] = nil
			set["assigned_on"] = nil
		}
	}

	if n.StatusCode != nil && *n.StatusCode != current.StatusCode {
		status := *n.StatusCode
		next.StatusCode = status
		set["status_code"] = status

		switch status {
		case models.StatusInProgress:
			if !n.StartDateExplicit {
				next.StartDate = &today
				set["start_date"] = today
			}
		case models.StatusCompleted:
			next.ClosedOn = &today
			set["closed_on"] = today
		case models.StatusCancelled:
			next.CancelledBy = &actor
			next.CancelledAt = &now
			set["cancelled_by"] = actor
			set["cancelled_at"] = now
			if n.CancellationReason != nil {
				next.CancellationReason = n.CancellationReason
				set["cancellation_reason"] = *n.CancellationReason
				statusReason = n.CancellationReason
			}
		}

		if current.StatusCode == models.StatusCancelled && status != models.StatusCancelled {
			next.CancelledBy = nil
			next.CancelledAt = nil
			next.CancellationReason = nil
			set["cancelled_by"] = nil
			set["cancelled_at"] = nil
			set["cancellation_reason"] = nil
		}
	}

	set["updated_by"] = actor
	set["updated_at"] = now
	next.UpdatedBy = &actor
	next.UpdatedAt = &now

	return &next, set, statusReason
}
