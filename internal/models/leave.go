package models

import "time"

// LeaveApplication is the simpler sibling of TimesheetEntry: same approval
// walk, no task/activity/ticket parent, duration derived from the leave type.
type LeaveApplication struct {
	ID              int64      `json:"id" db:"id"`
	UserCode        string     `json:"user_code" db:"user_code"`
	LeaveTypeCode   string     `json:"leave_type_code" db:"leave_type_code"`
	FromDate        time.Time  `json:"from_date" db:"from_date"`
	ToDate          time.Time  `json:"to_date" db:"to_date"`
	DurationDays    float64    `json:"duration_days" db:"duration_days"`
	DurationHours   *float64   `json:"duration_hours,omitempty" db:"duration_hours"`
	Reason          *string    `json:"reason,omitempty" db:"reason"`
	ApprovalStatus  string     `json:"approval_status" db:"approval_status"`
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

// IsTerminal reports whether the application has been approved or rejected.
func (l *LeaveApplication) IsTerminal() bool {
	return l.ApprovalStatus == ApprovalApproved || l.ApprovalStatus == ApprovalRejected
}
