// Package testutil provides the shared sqlite fixture for store-backed
// service tests.
package testutil

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/goatkit/timeflow/internal/database"
)

// OpenDB returns an in-memory sqlite database with the full schema created
// and the master tables seeded. The pool is pinned to one connection so
// every statement, transactional or not, lands on the same sqlite handle.
func OpenDB(t *testing.T) *sqlx.DB {
	t.Helper()
	database.SetDriver("sqlite3")

	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db))
	seedMasters(t, db)
	return db
}

// seedMasters loads the reference rows the services validate against.
//
// The user roster mirrors one team plus an outsider:
//
//	EMP001  developer on TM001
//	EMP002  developer on TM001
//	LEAD01  lead of TM001
//	REP01   reporter (super-approver) of TM001, admin designation
//	ADM01   admin with no team
//	OUT01   developer on TM002, no relation to TM001
func seedMasters(t *testing.T, db *sqlx.DB) {
	t.Helper()

	stmts := []struct {
		query string
		args  [][]any
	}{
		{
			"INSERT INTO status_master (status_code, status_desc) VALUES (?, ?)",
			[][]any{
				{"STS001", "Not Yet Started"},
				{"STS002", "Completed"},
				{"STS005", "On Hold"},
				{"STS007", "In Progress"},
				{"STS010", "Cancelled"},
			},
		},
		{
			"INSERT INTO priority_master (priority_code, priority_desc) VALUES (?, ?)",
			[][]any{{1, "Critical"}, {2, "High"}, {3, "Medium"}, {4, "Low"}, {5, "Trivial"}},
		},
		{
			"INSERT INTO task_type_master (type_code, type_desc, is_active) VALUES (?, ?, ?)",
			[][]any{
				{"TT002", "Development", true},
				{"TT003", "Quality Assurance", true},
				{"TT012", "Support", true},
			},
		},
		{
			"INSERT INTO leave_type_master (leave_type_code, leave_type_desc, is_active) VALUES (?, ?, ?)",
			[][]any{
				{"LT001", "Casual Leave", true},
				{"LT005", "Permission (2 Hours)", true},
				{"LT006", "Half Day Leave", true},
			},
		},
		{
			"INSERT INTO team_master (team_code, team_name, team_lead, reporter, is_active) VALUES (?, ?, ?, ?, ?)",
			[][]any{
				{"TM001", "Platform", "LEAD01", "REP01", true},
				{"TM002", "Support Desk", nil, nil, true},
			},
		},
		{
			"INSERT INTO user_master (user_code, user_name, email, team_code, designation, is_inactive) VALUES (?, ?, ?, ?, ?, ?)",
			[][]any{
				{"EMP001", "Asha Nair", "asha@example.com", "TM001", "Developer", false},
				{"EMP002", "Vikram Rao", "vikram@example.com", "TM001", "Developer", false},
				{"LEAD01", "Meera Pillai", "meera@example.com", "TM001", "Team Lead", false},
				{"REP01", "Suresh Iyer", "suresh@example.com", "TM001", "Project Manager", false},
				{"ADM01", "Divya Menon", "divya@example.com", nil, "Director", false},
				{"OUT01", "Rahul Das", "rahul@example.com", "TM002", "Developer", false},
			},
		},
		{
			"INSERT INTO product_master (product_code, product_name) VALUES (?, ?)",
			[][]any{{"PRD001", "Billing"}, {"PRD002", "Inventory"}},
		},
		{
			"INSERT INTO company_master (company_code, company_name) VALUES (?, ?)",
			[][]any{{"CMP001", "Acme Traders"}},
		},
		{
			"INSERT INTO contact_master (contact_person_code, contact_person_name, company_code, is_inactive) VALUES (?, ?, ?, ?)",
			[][]any{{"CNT001", "Nitin Shah", "CMP001", false}},
		},
	}

	for _, s := range stmts {
		for _, args := range s.args {
			_, err := db.Exec(s.query, args...)
			require.NoError(t, err)
		}
	}
}
