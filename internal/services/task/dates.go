package task

import (
	"time"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/models"
	"github.com/goatkit/timeflow/internal/utils"
)

// ResolveDatesWithinEpic parses the supplied start/due strings onto the task
// and enforces the epic bounds. Omitted dates stay unset; the only default is
// a task going In Progress without an explicit start date, which gets today.
func ResolveDatesWithinEpic(epic *models.Epic, startStr, dueStr *string, t *models.Task, now time.Time) error {
	today := utils.DateOnly(now)

	var start, due *time.Time
	if utils.Provided(startStr) {
		d, err := utils.ParseDate(*startStr)
		if err != nil {
			return apierrors.Validation("Invalid start_date: %v", err)
		}
		start = &d
	}
	if t.StatusCode == models.StatusInProgress && start == nil {
		start = &today
	}
	if utils.Provided(dueStr) {
		d, err := utils.ParseDate(*dueStr)
		if err != nil {
			return apierrors.Validation("Invalid due_date: %v", err)
		}
		due = &d
	}

	if err := ValidateDatesWithinEpic(epic, start, due); err != nil {
		return err
	}

	t.StartDate = start
	t.DueDate = due
	return nil
}

// ValidateDatesWithinEpic enforces the epic-bounds invariant on a task's
// dates: neither date may precede the epic's creation, the start may not
// precede the epic's start, the due may not pass the epic's end (closed_on
// when completed, else due date), and start may not be after due. Dates
// outside the bounds are rejected, never adjusted.
func ValidateDatesWithinEpic(epic *models.Epic, start, due *time.Time) error {
	epicCreated := utils.DateOnly(epic.CreatedAt)

	if start != nil && start.Before(epicCreated) {
		return apierrors.Validation(
			"Task start date (%s) cannot be before the epic creation date (%s)",
			start.Format("2006-01-02"), epicCreated.Format("2006-01-02"))
	}
	if due != nil && due.Before(epicCreated) {
		return apierrors.Validation(
			"Task due date (%s) cannot be before the epic creation date (%s)",
			due.Format("2006-01-02"), epicCreated.Format("2006-01-02"))
	}
	if start != nil && epic.StartDate != nil && start.Before(*epic.StartDate) {
		return apierrors.Validation(
			"Task start date (%s) cannot be before the epic start date (%s)",
			start.Format("2006-01-02"), epic.StartDate.Format("2006-01-02"))
	}
	if due != nil {
		if end := epic.EndDate(); end != nil && due.After(*end) {
			return apierrors.Validation(
				"Task due date (%s) cannot be after the epic end date (%s)",
				due.Format("2006-01-02"), end.Format("2006-01-02"))
		}
	}
	if start != nil && due != nil && due.Before(*start) {
		return apierrors.Validation(
			"Task start date (%s) cannot be after the task due date (%s)",
			start.Format("2006-01-02"), due.Format("2006-01-02"))
	}
	return nil
}
