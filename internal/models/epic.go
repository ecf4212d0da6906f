package models

import "time"

// Epic is a top-level unit of work grouping tasks, scoped to a product and
// company.
type Epic struct {
	ID                 int64      `json:"id" db:"id"`
	EpicTitle          string     `json:"epic_title" db:"epic_title"`
	Description        *string    `json:"description,omitempty" db:"description"`
	ProductCode        string     `json:"product_code" db:"product_code"`
	CompanyCode        *string    `json:"company_code,omitempty" db:"company_code"`
	ContactPersonCode  *string    `json:"contact_person_code,omitempty" db:"contact_person_code"`
	Reporter           string     `json:"reporter" db:"reporter"`
	StatusCode         string     `json:"status_code" db:"status_code"`
	PriorityCode       int        `json:"priority_code" db:"priority_code"`
	StartDate          *time.Time `json:"start_date,omitempty" db:"start_date"`
	DueDate            *time.Time `json:"due_date,omitempty" db:"due_date"`
	ClosedOn           *time.Time `json:"closed_on,omitempty" db:"closed_on"`
	EstimatedHours     float64    `json:"estimated_hours" db:"estimated_hours"`
	MaxHours           float64    `json:"max_hours" db:"max_hours"`
	IsBillable         bool       `json:"is_billable" db:"is_billable"`
	CancelledBy        *string    `json:"cancelled_by,omitempty" db:"cancelled_by"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancellationReason *string    `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	PredefinedEpicID   *int64     `json:"predefined_epic_id,omitempty" db:"predefined_epic_id"`
	CreatedBy          string     `json:"created_by" db:"created_by"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedBy          *string    `json:"updated_by,omitempty" db:"updated_by"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// EndDate returns the effective upper bound for child task dates: closed_on
// when the epic is closed, otherwise due_date. Nil when neither is set.
func (e *Epic) EndDate() *time.Time {
	if e.ClosedOn != nil {
		return e.ClosedOn
	}
	return e.DueDate
}

// EpicHist is the append-only snapshot row for epic mutations. Epic creation
// deliberately does not write an initial row; history begins at the first
// update.
type EpicHist struct {
	ID                int64      `json:"id" db:"id"`
	EpicCode          int64      `json:"epic_code" db:"epic_code"`
	StatusCode        string     `json:"status_code" db:"status_code"`
	StatusReason      *string    `json:"status_reason,omitempty" db:"status_reason"`
	PriorityCode      int        `json:"priority_code" db:"priority_code"`
	ProductCode       string     `json:"product_code" db:"product_code"`
	CompanyCode       *string    `json:"company_code,omitempty" db:"company_code"`
	ContactPersonCode *string    `json:"contact_person_code,omitempty" db:"contact_person_code"`
	Reporter          string     `json:"reporter" db:"reporter"`
	StartDate         *time.Time `json:"start_date,omitempty" db:"start_date"`
	DueDate           *time.Time `json:"due_date,omitempty" db:"due_date"`
	ClosedOn          *time.Time `json:"closed_on,omitempty" db:"closed_on"`
	EstimatedHours    float64    `json:"estimated_hours" db:"estimated_hours"`
	MaxHours          float64    `json:"max_hours" db:"max_hours"`
	CreatedBy         string     `json:"created_by" db:"created_by"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
}
