package models

import "time"

// PredefinedEpic is a reusable epic template. Instantiated into a live Epic
// by the template expander.
type PredefinedEpic struct {
	ID                int64      `json:"id" db:"id"`
	Title             string     `json:"title" db:"title"`
	Description       *string    `json:"description,omitempty" db:"description"`
	ContactPersonCode *string    `json:"contact_person_code,omitempty" db:"contact_person_code"`
	PriorityCode      int        `json:"priority_code" db:"priority_code"`
	EstimatedHours    float64    `json:"estimated_hours" db:"estimated_hours"`
	MaxHours          float64    `json:"max_hours" db:"max_hours"`
	IsBillable        bool       `json:"is_billable" db:"is_billable"`
	IsActive          bool       `json:"is_active" db:"is_active"`
	CreatedBy         string     `json:"created_by" db:"created_by"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedBy         *string    `json:"updated_by,omitempty" db:"updated_by"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// PredefinedTask is a reusable task template. Independent of any epic
// template; linked to one optionally via PredefinedEpicID.
type PredefinedTask struct {
	ID               int64      `json:"id" db:"id"`
	TaskTitle        string     `json:"task_title" db:"task_title"`
	TaskDescription  *string    `json:"task_description,omitempty" db:"task_description"`
	StatusCode       string     `json:"status_code" db:"status_code"`
	PriorityCode     int        `json:"priority_code" db:"priority_code"`
	TaskTypeCode     *string    `json:"task_type_code,omitempty" db:"task_type_code"`
	WorkMode         *string    `json:"work_mode,omitempty" db:"work_mode"`
	TeamCode         *string    `json:"team_code,omitempty" db:"team_code"`
	EstimatedHours   float64    `json:"estimated_hours" db:"estimated_hours"`
	MaxHours         float64    `json:"max_hours" db:"max_hours"`
	IsBillable       bool       `json:"is_billable" db:"is_billable"`
	PredefinedEpicID *int64     `json:"predefined_epic_id,omitempty" db:"predefined_epic_id"`
	CreatedBy        string     `json:"created_by" db:"created_by"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedBy        *string    `json:"updated_by,omitempty" db:"updated_by"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}
