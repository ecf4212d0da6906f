package models

// Master/reference rows. These tables are read-only from the lifecycle
// components' point of view; the ReferenceValidator treats them as an oracle
// answering "does code X exist and is it active".

// User is a row from user_master.
type User struct {
	UserCode    string  `json:"user_code" db:"user_code"`
	UserName    string  `json:"user_name" db:"user_name"`
	Email       *string `json:"email,omitempty" db:"email"`
	TeamCode    *string `json:"team_code,omitempty" db:"team_code"`
	Designation *string `json:"designation,omitempty" db:"designation"`
	UserType    *string `json:"user_type_code,omitempty" db:"user_type_code"`
	IsInactive  bool    `json:"is_inactive" db:"is_inactive"`
}

// Team is a row from team_master. TeamLead approves regular members' entries;
// Reporter is the super-approver for admin members.
type Team struct {
	TeamCode string  `json:"team_code" db:"team_code"`
	TeamName string  `json:"team_name" db:"team_name"`
	TeamLead *string `json:"team_lead,omitempty" db:"team_lead"`
	Reporter *string `json:"reporter,omitempty" db:"reporter"`
	IsActive bool    `json:"is_active" db:"is_active"`
}

// Status is a row from status_master.
type Status struct {
	StatusCode string `json:"status_code" db:"status_code"`
	StatusDesc string `json:"status_desc" db:"status_desc"`
}

// Priority is a row from priority_master.
type Priority struct {
	PriorityCode int    `json:"priority_code" db:"priority_code"`
	PriorityDesc string `json:"priority_desc" db:"priority_desc"`
}

// TaskType is a row from task_type_master.
type TaskType struct {
	TypeCode string `json:"type_code" db:"type_code"`
	TypeDesc string `json:"type_desc" db:"type_desc"`
	IsActive bool   `json:"is_active" db:"is_active"`
}

// Product is a row from product_master.
type Product struct {
	ProductCode string `json:"product_code" db:"product_code"`
	ProductName string `json:"product_name" db:"product_name"`
}

// Company is a row from company_master.
type Company struct {
	CompanyCode string `json:"company_code" db:"company_code"`
	CompanyName string `json:"company_name" db:"company_name"`
}

// Contact is a row from contact_master; a contact belongs to one company.
type Contact struct {
	ContactPersonCode string  `json:"contact_person_code" db:"contact_person_code"`
	ContactPersonName string  `json:"contact_person_name" db:"contact_person_name"`
	CompanyCode       *string `json:"company_code,omitempty" db:"company_code"`
	IsInactive        bool    `json:"is_inactive" db:"is_inactive"`
}

// LeaveType is a row from leave_type_master.
type LeaveType struct {
	LeaveTypeCode string `json:"leave_type_code" db:"leave_type_code"`
	LeaveTypeDesc string `json:"leave_type_desc" db:"leave_type_desc"`
	IsActive      bool   `json:"is_active" db:"is_active"`
}

// Activity is a product-scoped bucket of non-task work hours can be logged
// against.
type Activity struct {
	ID          int64   `json:"id" db:"id"`
	Title       string  `json:"activity_title" db:"activity_title"`
	Description *string `json:"activity_description,omitempty" db:"activity_description"`
	ProductCode string  `json:"product_code" db:"product_code"`
	IsBillable  bool    `json:"is_billable" db:"is_billable"`
	CreatedBy   string  `json:"created_by" db:"created_by"`
}
