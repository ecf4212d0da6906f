package models

import "time"

// Task is a unit of assignable work under an epic. Current-state row; every
// mutation also appends a TaskHist snapshot.
type Task struct {
	ID                 int64      `json:"id" db:"id"`
	TaskTitle          string     `json:"task_title" db:"task_title"`
	Description        *string    `json:"description,omitempty" db:"description"`
	EpicCode           *int64     `json:"epic_code,omitempty" db:"epic_code"`
	Assignee           *string    `json:"assignee,omitempty" db:"assignee"`
	Reporter           string     `json:"reporter" db:"reporter"`
	AssignedTeamCode   *string    `json:"assigned_team_code,omitempty" db:"assigned_team_code"`
	TeamCode           *string    `json:"team_code,omitempty" db:"team_code"`
	StatusCode         string     `json:"status_code" db:"status_code"`
	PriorityCode       int        `json:"priority_code" db:"priority_code"`
	TaskTypeCode       *string    `json:"task_type_code,omitempty" db:"task_type_code"`
	WorkMode           *string    `json:"work_mode,omitempty" db:"work_mode"`
	AssignedOn         *time.Time `json:"assigned_on,omitempty" db:"assigned_on"`
	StartDate          *time.Time `json:"start_date,omitempty" db:"start_date"`
	DueDate            *time.Time `json:"due_date,omitempty" db:"due_date"`
	ClosedOn           *time.Time `json:"closed_on,omitempty" db:"closed_on"`
	EstimatedHours     float64    `json:"estimated_hours" db:"estimated_hours"`
	MaxHours           float64    `json:"max_hours" db:"max_hours"`
	IsBillable         bool       `json:"is_billable" db:"is_billable"`
	ProductCode        *string    `json:"product_code,omitempty" db:"product_code"`
	CancelledBy        *string    `json:"cancelled_by,omitempty" db:"cancelled_by"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancellationReason *string    `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	PredefinedTaskID   *int64     `json:"predefined_task_id,omitempty" db:"predefined_task_id"`
	CreatedBy          string     `json:"created_by" db:"created_by"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedBy          *string    `json:"updated_by,omitempty" db:"updated_by"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// IsCancelled reports whether the task sits in the cancelled state.
func (t *Task) IsCancelled() bool { return t.StatusCode == StatusCancelled }

// TaskHist is an immutable full-field snapshot of a task taken at the moment
// of a mutation. Rows are appended, never updated.
type TaskHist struct {
	ID               int64      `json:"id" db:"id"`
	TaskCode         int64      `json:"task_code" db:"task_code"`
	StatusCode       string     `json:"status_code" db:"status_code"`
	StatusReason     *string    `json:"status_reason,omitempty" db:"status_reason"`
	PriorityCode     int        `json:"priority_code" db:"priority_code"`
	TaskTypeCode     *string    `json:"task_type_code,omitempty" db:"task_type_code"`
	ProductCode      *string    `json:"product_code,omitempty" db:"product_code"`
	AssignedTeamCode *string    `json:"assigned_team_code,omitempty" db:"assigned_team_code"`
	Assignee         *string    `json:"assignee,omitempty" db:"assignee"`
	Reporter         string     `json:"reporter" db:"reporter"`
	WorkMode         *string    `json:"work_mode,omitempty" db:"work_mode"`
	AssignedOn       *time.Time `json:"assigned_on,omitempty" db:"assigned_on"`
	StartDate        *time.Time `json:"start_date,omitempty" db:"start_date"`
	DueDate          *time.Time `json:"due_date,omitempty" db:"due_date"`
	ClosedOn         *time.Time `json:"closed_on,omitempty" db:"closed_on"`
	EstimatedHours   float64    `json:"estimated_hours" db:"estimated_hours"`
	MaxHours         float64    `json:"max_hours" db:"max_hours"`
	CreatedBy        string     `json:"created_by" db:"created_by"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// EntityRef distinguishes a predefined template row from a live entity row.
// Resolved once at the entry point instead of re-checking tables downstream.
type EntityRef struct {
	ID         int64
	Predefined bool
}
