package models

import "time"

// TimesheetEntry records hours a user logged against exactly one of a task,
// an activity, or a ticket. The approval_status field walks
// DRAFT -> SUBMITTED -> APPROVED|REJECTED and never leaves a terminal state.
type TimesheetEntry struct {
	ID              int64      `json:"id" db:"id"`
	UserCode        string     `json:"user_code" db:"user_code"`
	EntryDate       *time.Time `json:"entry_date,omitempty" db:"entry_date"`
	TaskCode        *int64     `json:"task_code,omitempty" db:"task_code"`
	EpicCode        *int64     `json:"epic_code,omitempty" db:"epic_code"`
	ActivityCode    *int64     `json:"activity_code,omitempty" db:"activity_code"`
	TicketCode      *int64     `json:"ticket_code,omitempty" db:"ticket_code"`
	TaskTypeCode    *string    `json:"task_type_code,omitempty" db:"task_type_code"`
	ActualHours     float64    `json:"actual_hours_worked" db:"actual_hours_worked"`
	TravelTime      float64    `json:"travel_time" db:"travel_time"`
	WaitingTime     float64    `json:"waiting_time" db:"waiting_time"`
	TotalHours      float64    `json:"total_hours" db:"total_hours"`
	WorkLocation    *string    `json:"work_location,omitempty" db:"work_location"`
	Description     *string    `json:"description,omitempty" db:"description"`
	ApprovalStatus  string     `json:"approval_status" db:"approval_status"`
	SubmittedBy     *string    `json:"submitted_by,omitempty" db:"submitted_by"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty" db:"submitted_at"`
	ApprovedBy      *string    `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty" db:"approved_at"`
	RejectedBy      *string    `json:"rejected_by,omitempty" db:"rejected_by"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty" db:"rejected_at"`
	RejectionReason *string    `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CreatedBy       string     `json:"created_by" db:"created_by"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedBy       *string    `json:"updated_by,omitempty" db:"updated_by"`
	UpdatedAt       *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// ParentKind names the kind of work a timesheet entry is logged against.
func (e *TimesheetEntry) ParentKind() string {
	switch {
	case e.TaskCode != nil:
		return "task"
	case e.ActivityCode != nil:
		return "activity"
	case e.TicketCode != nil:
		return "ticket"
	}
	return ""
}

// IsTerminal reports whether the entry has reached APPROVED or REJECTED.
func (e *TimesheetEntry) IsTerminal() bool {
	return e.ApprovalStatus == ApprovalApproved || e.ApprovalStatus == ApprovalRejected
}

// TimesheetEntryHist snapshots an entry after each lifecycle mutation,
// including the parent references and the hour figures at that moment.
type TimesheetEntryHist struct {
	ID             int64      `json:"id" db:"id"`
	EntryCode      int64      `json:"entry_code" db:"entry_code"`
	ApprovalStatus string     `json:"approval_status" db:"approval_status"`
	StatusReason   *string    `json:"status_reason,omitempty" db:"status_reason"`
	EntryDate      *time.Time `json:"entry_date,omitempty" db:"entry_date"`
	TaskCode       *int64     `json:"task_code,omitempty" db:"task_code"`
	EpicCode       *int64     `json:"epic_code,omitempty" db:"epic_code"`
	ActivityCode   *int64     `json:"activity_code,omitempty" db:"activity_code"`
	TicketCode     *int64     `json:"ticket_code,omitempty" db:"ticket_code"`
	ActualHours    float64    `json:"actual_hours_worked" db:"actual_hours_worked"`
	TravelTime     float64    `json:"travel_time" db:"travel_time"`
	WaitingTime    float64    `json:"waiting_time" db:"waiting_time"`
	TotalHours     float64    `json:"total_hours" db:"total_hours"`
	CreatedBy      string     `json:"created_by" db:"created_by"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}
