// Package history writes the append-only audit snapshots that accompany every
// lifecycle mutation, and formats them for display.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/goatkit/timeflow/internal/database"
	"github.com/goatkit/timeflow/internal/models"
)

// Recorder appends snapshot rows inside the caller's transaction. Rows are
// never updated or deleted here; a snapshot reflects the entity as it looked
// immediately after the mutation that produced it.
type Recorder struct{}

// NewRecorder creates a Recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func insertHist(ctx context.Context, ext sqlx.ExtContext, table string, cols []string, vals []any) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := database.ConvertPlaceholders(fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), placeholders))
	if _, err := ext.ExecContext(ctx, query, vals...); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

// RecordTask snapshots a task after a mutation. statusReason carries the
// cancellation reason when the mutation cancelled the task, otherwise nil.
func (r *Recorder) RecordTask(ctx context.Context, ext sqlx.ExtContext, h *models.TaskHist) error {
	cols := []string{
		"task_code", "status_code", "status_reason", "priority_code",
		"task_type_code", "product_code", "assigned_team_code", "assignee",
		"reporter", "work_mode", "assigned_on", "start_date", "due_date",
		"closed_on", "estimated_hours", "max_hours", "created_by", "created_at",
	}
	vals := []any{
		h.TaskCode, h.StatusCode, h.StatusReason, h.PriorityCode,
		h.TaskTypeCode, h.ProductCode, h.AssignedTeamCode, h.Assignee,
		h.Reporter, h.WorkMode, h.AssignedOn, h.StartDate, h.DueDate,
		h.ClosedOn, h.EstimatedHours, h.MaxHours, h.CreatedBy, h.CreatedAt,
	}
	return insertHist(ctx, ext, "task_hist", cols, vals)
}

// RecordEpic snapshots an epic after an update. Epic creation writes no
// initial row; epic history begins at the first update.
func (r *Recorder) RecordEpic(ctx context.Context, ext sqlx.ExtContext, h *models.EpicHist) error {
	cols := []string{
		"epic_code", "status_code", "status_reason", "priority_code",
		"product_code", "company_code", "contact_person_code", "reporter",
		"start_date", "due_date", "closed_on", "estimated_hours", "max_hours",
		"created_by", "created_at",
	}
	vals := []any{
		h.EpicCode, h.StatusCode, h.StatusReason, h.PriorityCode,
		h.ProductCode, h.CompanyCode, h.ContactPersonCode, h.Reporter,
		h.StartDate, h.DueDate, h.ClosedOn, h.EstimatedHours, h.MaxHours,
		h.CreatedBy, h.CreatedAt,
	}
	return insertHist(ctx, ext, "epic_hist", cols, vals)
}

// RecordTimesheet snapshots a timesheet entry after a lifecycle transition.
func (r *Recorder) RecordTimesheet(ctx context.Context, ext sqlx.ExtContext, h *models.TimesheetEntryHist) error {
	cols := []string{
		"entry_code", "approval_status", "status_reason", "entry_date",
		"task_code", "epic_code", "activity_code", "ticket_code",
		"actual_hours_worked", "travel_time", "waiting_time", "total_hours",
		"created_by", "created_at",
	}
	vals := []any{
		h.EntryCode, h.ApprovalStatus, h.StatusReason, h.EntryDate,
		h.TaskCode, h.EpicCode, h.ActivityCode, h.TicketCode,
		h.ActualHours, h.TravelTime, h.WaitingTime, h.TotalHours,
		h.CreatedBy, h.CreatedAt,
	}
	return insertHist(ctx, ext, "timesheet_entry_hist", cols, vals)
}

// LastTaskType returns the most recent non-null task_type_code from a task's
// history. Used to keep audit continuity when the current value is null.
func (r *Recorder) LastTaskType(ctx context.Context, ext sqlx.ExtContext, taskID int64) (*string, error) {
	var code string
	query := database.ConvertPlaceholders(
		"SELECT task_type_code FROM task_hist WHERE task_code = ? AND task_type_code IS NOT NULL ORDER BY created_at DESC LIMIT 1")
	err := sqlx.GetContext(ctx, ext, &code, query, taskID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last task type: %w", err)
	}
	return &code, nil
}

// ListTask returns a task's history, newest first.
func (r *Recorder) ListTask(ctx context.Context, ext sqlx.ExtContext, taskID int64) ([]models.TaskHist, error) {
	var out []models.TaskHist
	query := database.ConvertPlaceholders(
		`SELECT id, task_code, status_code, status_reason, priority_code,
			task_type_code, product_code, assigned_team_code, assignee, reporter,
			work_mode, assigned_on, start_date, due_date, closed_on,
			estimated_hours, max_hours, created_by, created_at
		FROM task_hist WHERE task_code = ? ORDER BY created_at DESC, id DESC`)
	if err := sqlx.SelectContext(ctx, ext, &out, query, taskID); err != nil {
		return nil, fmt.Errorf("list task history: %w", err)
	}
	return out, nil
}
