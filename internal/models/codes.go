package models

// Status codes shared by tasks and epics. The status master carries more
// codes than these, but the task/epic lifecycle accepts only this subset.
const (
	StatusNotStarted = "STS001" // Not Yet Started
	StatusCompleted  = "STS002" // Completed
	StatusOnHold     = "STS005" // legacy, rejected with a hint to use Cancelled
	StatusInProgress = "STS007" // In Progress
	StatusCancelled  = "STS010" // Cancelled
)

// TaskStatuses is the full set of status codes a task or epic may hold.
var TaskStatuses = []string{StatusNotStarted, StatusCompleted, StatusInProgress, StatusCancelled}

// IsTaskStatus reports whether code is one of the four accepted lifecycle
// statuses. STS005 in particular is not.
func IsTaskStatus(code string) bool {
	for _, s := range TaskStatuses {
		if s == code {
			return true
		}
	}
	return false
}

// Task type codes from task_type_master.
const (
	TaskTypeAccounts       = "TT001"
	TaskTypeDevelopment    = "TT002"
	TaskTypeQA             = "TT003"
	TaskTypeUAT            = "TT004"
	TaskTypeProdMove       = "TT005"
	TaskTypeDocumentation  = "TT006"
	TaskTypeDesign         = "TT007"
	TaskTypeCodeReview     = "TT008"
	TaskTypeMeeting        = "TT009"
	TaskTypeTraining       = "TT010"
	TaskTypeImplementation = "TT011"
	TaskTypeSupport        = "TT012" // default for ticket-backed timesheet entries
)

// TaskTypes lists every accepted task type code in master order.
var TaskTypes = []string{
	TaskTypeAccounts, TaskTypeDevelopment, TaskTypeQA, TaskTypeUAT,
	TaskTypeProdMove, TaskTypeDocumentation, TaskTypeDesign, TaskTypeCodeReview,
	TaskTypeMeeting, TaskTypeTraining, TaskTypeImplementation, TaskTypeSupport,
}

// IsTaskType reports whether code is in the TT001-TT012 range.
func IsTaskType(code string) bool {
	for _, t := range TaskTypes {
		if t == code {
			return true
		}
	}
	return false
}

// Approval statuses for timesheet entries and leave applications.
const (
	ApprovalDraft     = "DRAFT"
	ApprovalSubmitted = "SUBMITTED"
	ApprovalApproved  = "APPROVED"
	ApprovalRejected  = "REJECTED"

	// ApprovalPending is accepted on input and normalized to SUBMITTED.
	ApprovalPending = "PENDING"
)

// Leave type codes with special duration rules.
const (
	LeaveTypePermission = "LT005" // 0.25 days / 2 hours, single day only
	LeaveTypeHalfDay    = "LT006" // 0.5 days / 4 hours, single day only
)

// Work modes allowed on tasks.
const (
	WorkModeRemote = "REMOTE"
	WorkModeOnSite = "ON_SITE"
	WorkModeOffice = "OFFICE"
)

// WorkModes lists the accepted work modes.
var WorkModes = []string{WorkModeRemote, WorkModeOnSite, WorkModeOffice}

// IsWorkMode reports whether mode is an accepted work mode.
func IsWorkMode(mode string) bool {
	for _, m := range WorkModes {
		if m == mode {
			return true
		}
	}
	return false
}

// Parent types for comments and attachments.
const (
	ParentTask           = "TASK"
	ParentEpic           = "EPIC"
	ParentTimesheetEntry = "TIMESHEET_ENTRY"
	ParentActivity       = "ACTIVITY"
)
