package database

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Migrate creates the schema if it does not exist. Statements use ?-free
// portable DDL; the primary-key fragment is the only driver-specific piece.
func Migrate(db *sqlx.DB) error {
	for _, stmt := range schemaStatements() {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w\nstatement: %s", err, stmt)
		}
	}
	return nil
}

func pkColumn() string {
	switch {
	case IsPostgreSQL():
		return "id BIGSERIAL PRIMARY KEY"
	case IsMySQL():
		return "id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY"
	default: // sqlite
		return "id INTEGER PRIMARY KEY AUTOINCREMENT"
	}
}

func schemaStatements() []string {
	pk := pkColumn()
	tables := []string{
		`CREATE TABLE IF NOT EXISTS status_master (
			status_code VARCHAR(16) PRIMARY KEY,
			status_desc VARCHAR(128) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS priority_master (
			priority_code INTEGER PRIMARY KEY,
			priority_desc VARCHAR(128) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS task_type_master (
			type_code VARCHAR(16) PRIMARY KEY,
			type_desc VARCHAR(128) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS leave_type_master (
			leave_type_code VARCHAR(16) PRIMARY KEY,
			leave_type_desc VARCHAR(128) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS team_master (
			team_code VARCHAR(32) PRIMARY KEY,
			team_name VARCHAR(128) NOT NULL,
			team_lead VARCHAR(32),
			reporter VARCHAR(32),
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS user_master (
			user_code VARCHAR(32) PRIMARY KEY,
			user_name VARCHAR(128) NOT NULL,
			email VARCHAR(256),
			password_hash VARCHAR(128),
			team_code VARCHAR(32),
			designation VARCHAR(128),
			user_type_code VARCHAR(16),
			is_inactive BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS product_master (
			product_code VARCHAR(32) PRIMARY KEY,
			product_name VARCHAR(128) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS company_master (
			company_code VARCHAR(32) PRIMARY KEY,
			company_name VARCHAR(128) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS contact_master (
			contact_person_code VARCHAR(32) PRIMARY KEY,
			contact_person_name VARCHAR(128) NOT NULL,
			company_code VARCHAR(32),
			is_inactive BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS epics (
			%s,
			epic_title VARCHAR(256) NOT NULL,
			description TEXT,
			product_code VARCHAR(32) NOT NULL,
			company_code VARCHAR(32),
			contact_person_code VARCHAR(32),
			reporter VARCHAR(32) NOT NULL,
			status_code VARCHAR(16) NOT NULL,
			priority_code INTEGER NOT NULL,
			start_date DATE,
			due_date DATE,
			closed_on DATE,
			estimated_hours REAL NOT NULL DEFAULT 0,
			max_hours REAL NOT NULL DEFAULT 0,
			is_billable BOOLEAN NOT NULL DEFAULT TRUE,
			cancelled_by VARCHAR(32),
			cancelled_at TIMESTAMP,
			cancellation_reason TEXT,
			predefined_epic_id BIGINT,
			created_by VARCHAR(32) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_by VARCHAR(32),
			updated_at TIMESTAMP
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS epic_hist (
			%s,
			epic_code BIGINT NOT NULL,
			status_code VARCHAR(16) NOT NULL,
			status_reason TEXT,
			priority_code INTEGER NOT NULL,
			product_code VARCHAR(32) NOT NULL,
			company_code VARCHAR(32),
			contact_person_code VARCHAR(32),
			reporter VARCHAR(32) NOT NULL,
			start_date DATE,
			due_date DATE,
			closed_on DATE,
			estimated_hours REAL NOT NULL DEFAULT 0,
			max_hours REAL NOT NULL DEFAULT 0,
			created_by VARCHAR(32) NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS tasks (
			%s,
			task_title VARCHAR(256) NOT NULL,
			description TEXT,
			epic_code BIGINT,
			assignee VARCHAR(32),
			reporter VARCHAR(32) NOT NULL,
			assigned_team_code VARCHAR(32),
			team_code VARCHAR(32),
			status_code VARCHAR(16) NOT NULL,
			priority_code INTEGER NOT NULL,
			task_type_code VARCHAR(16),
			work_mode VARCHAR(16),
			assigned_on DATE,
			start_date DATE,
			due_date DATE,
			closed_on DATE,
			estimated_hours REAL NOT NULL DEFAULT 0,
			max_hours REAL NOT NULL DEFAULT 0,
			is_billable BOOLEAN NOT NULL DEFAULT TRUE,
			product_code VARCHAR(32),
			cancelled_by VARCHAR(32),
			cancelled_at TIMESTAMP,
			cancellation_reason TEXT,
			predefined_task_id BIGINT,
			created_by VARCHAR(32) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_by VARCHAR(32),
			updated_at TIMESTAMP
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS task_hist (
			%s,
			task_code BIGINT NOT NULL,
			status_code VARCHAR(16) NOT NULL,
			status_reason TEXT,
			priority_code INTEGER NOT NULL,
			task_type_code VARCHAR(16),
			product_code VARCHAR(32),
			assigned_team_code VARCHAR(32),
			assignee VARCHAR(32),
			reporter VARCHAR(32) NOT NULL,
			work_mode VARCHAR(16),
			assigned_on DATE,
			start_date DATE,
			due_date DATE,
			closed_on DATE,
			estimated_hours REAL NOT NULL DEFAULT 0,
			max_hours REAL NOT NULL DEFAULT 0,
			created_by VARCHAR(32) NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS activities (
			%s,
			activity_title VARCHAR(256) NOT NULL,
			activity_description TEXT,
			product_code VARCHAR(32) NOT NULL,
			is_billable BOOLEAN NOT NULL DEFAULT TRUE,
			created_by VARCHAR(32) NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS timesheet_entry (
			%s,
			user_code VARCHAR(32) NOT NULL,
			entry_date DATE,
			task_code BIGINT,
			epic_code BIGINT,
			activity_code BIGINT,
			ticket_code BIGINT,
			task_type_code VARCHAR(16),
			actual_hours_worked REAL NOT NULL DEFAULT 0,
			travel_time REAL NOT NULL DEFAULT 0,
			waiting_time REAL NOT NULL DEFAULT 0,
			total_hours REAL NOT NULL DEFAULT 0,
			work_location VARCHAR(64),
			description TEXT,
			approval_status VARCHAR(16) NOT NULL DEFAULT 'DRAFT',
			submitted_by VARCHAR(32),
			submitted_at TIMESTAMP,
			approved_by VARCHAR(32),
			approved_at TIMESTAMP,
			rejected_by VARCHAR(32),
			rejected_at TIMESTAMP,
			rejection_reason TEXT,
			created_by VARCHAR(32) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_by VARCHAR(32),
			updated_at TIMESTAMP
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS timesheet_entry_hist (
			%s,
			entry_code BIGINT NOT NULL,
			approval_status VARCHAR(16) NOT NULL,
			status_reason TEXT,
			entry_date DATE,
			task_code BIGINT,
			epic_code BIGINT,
			activity_code BIGINT,
			ticket_code BIGINT,
			actual_hours_worked REAL NOT NULL DEFAULT 0,
			travel_time REAL NOT NULL DEFAULT 0,
			waiting_time REAL NOT NULL DEFAULT 0,
			total_hours REAL NOT NULL DEFAULT 0,
			created_by VARCHAR(32) NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS leave_applications (
			%s,
			user_code VARCHAR(32) NOT NULL,
			leave_type_code VARCHAR(16) NOT NULL,
			from_date DATE NOT NULL,
			to_date DATE NOT NULL,
			duration_days REAL NOT NULL,
			duration_hours REAL,
			reason TEXT,
			approval_status VARCHAR(16) NOT NULL DEFAULT 'SUBMITTED',
			approved_by VARCHAR(32),
			approved_at TIMESTAMP,
			rejected_by VARCHAR(32),
			rejected_at TIMESTAMP,
			rejection_reason TEXT,
			created_by VARCHAR(32) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_by VARCHAR(32),
			updated_at TIMESTAMP
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS predefined_epics (
			%s,
			title VARCHAR(256) NOT NULL UNIQUE,
			description TEXT,
			contact_person_code VARCHAR(32),
			priority_code INTEGER NOT NULL,
			estimated_hours REAL NOT NULL DEFAULT 0,
			max_hours REAL NOT NULL DEFAULT 0,
			is_billable BOOLEAN NOT NULL DEFAULT TRUE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_by VARCHAR(32) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_by VARCHAR(32),
			updated_at TIMESTAMP
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS predefined_tasks (
			%s,
			task_title VARCHAR(256) NOT NULL,
			task_description TEXT,
			status_code VARCHAR(16) NOT NULL DEFAULT 'STS001',
			priority_code INTEGER NOT NULL,
			task_type_code VARCHAR(16),
			work_mode VARCHAR(16),
			team_code VARCHAR(32),
			estimated_hours REAL NOT NULL DEFAULT 0,
			max_hours REAL NOT NULL DEFAULT 0,
			is_billable BOOLEAN NOT NULL DEFAULT TRUE,
			predefined_epic_id BIGINT,
			created_by VARCHAR(32) NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_by VARCHAR(32),
			updated_at TIMESTAMP
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS comments (
			%s,
			parent_type VARCHAR(32) NOT NULL,
			parent_code BIGINT NOT NULL,
			comment_text TEXT NOT NULL,
			commented_by VARCHAR(32) NOT NULL,
			commented_at TIMESTAMP NOT NULL
		)`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS attachments (
			%s,
			parent_type VARCHAR(32) NOT NULL,
			parent_code BIGINT NOT NULL,
			file_name VARCHAR(256) NOT NULL,
			file_type VARCHAR(32) NOT NULL,
			file_size BIGINT NOT NULL,
			file_url VARCHAR(512) NOT NULL,
			uploaded_by VARCHAR(32) NOT NULL,
			uploaded_at TIMESTAMP NOT NULL
		)`, pk),
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_tasks_epic ON tasks(epic_code)",
		"CREATE INDEX IF NOT EXISTS idx_task_hist_task ON task_hist(task_code)",
		"CREATE INDEX IF NOT EXISTS idx_epic_hist_epic ON epic_hist(epic_code)",
		"CREATE INDEX IF NOT EXISTS idx_ts_entry_user ON timesheet_entry(user_code, entry_date)",
		"CREATE INDEX IF NOT EXISTS idx_ts_hist_entry ON timesheet_entry_hist(entry_code)",
		"CREATE INDEX IF NOT EXISTS idx_comments_parent ON comments(parent_type, parent_code)",
		"CREATE INDEX IF NOT EXISTS idx_attachments_parent ON attachments(parent_type, parent_code)",
	}

	stmts := make([]string, 0, len(tables)+len(indexes))
	for _, t := range tables {
		stmts = append(stmts, strings.TrimSpace(t))
	}
	stmts = append(stmts, indexes...)
	return stmts
}
