package epic

import (
	"time"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/models"
	"github.com/goatkit/timeflow/internal/utils"
)

// Patch is a partial epic update as received from the client. Nil means
// absent; placeholder values (blank, the literal "string", zero codes) read
// as absent too.
type Patch struct {
	Title              *string  `json:"epic_title"`
	Description        *string  `json:"description"`
	StatusCode         *string  `json:"status_code"`
	PriorityCode       *int     `json:"priority_code"`
	ProductCode        *string  `json:"product_code"`
	CompanyCode        *string  `json:"company_code"`
	ContactPersonCode  *string  `json:"contact_person_code"`
	StartDate          *string  `json:"start_date"`
	DueDate            *string  `json:"due_date"`
	EstimatedHours     *float64 `json:"estimated_hours"`
	MaxHours           *float64 `json:"max_hours"`
	CancellationReason *string  `json:"cancellation_reason"`
}

type normalized struct {
	Title              *string
	Description        *string
	StatusCode         *string
	PriorityCode       *int
	ProductCode        *string
	CompanyCode        *string
	ContactPersonCode  *string
	StartDate          *time.Time
	StartDateExplicit  bool
	DueDate            *time.Time
	EstimatedHours     *float64
	MaxHours           *float64
	CancellationReason *string
}

func (p *Patch) normalize() (*normalized, error) {
	n := &normalized{}

	if utils.Provided(p.Title) {
		n.Title = utils.StrPtr(utils.Trimmed(p.Title))
	}
	if utils.Provided(p.Description) {
		n.Description = utils.StrPtr(utils.Trimmed(p.Description))
	}
	if utils.Provided(p.StatusCode) {
		n.StatusCode = utils.StrPtr(utils.Trimmed(p.StatusCode))
	}
	if utils.ProvidedInt(p.PriorityCode) {
		n.PriorityCode = p.PriorityCode
	}
	if utils.Provided(p.ProductCode) {
		n.ProductCode = utils.StrPtr(utils.Trimmed(p.ProductCode))
	}
	if utils.Provided(p.CompanyCode) {
		n.CompanyCode = utils.StrPtr(utils.Trimmed(p.CompanyCode))
	}
	if utils.Provided(p.ContactPersonCode) {
		n.ContactPersonCode = utils.StrPtr(utils.Trimmed(p.ContactPersonCode))
	}
	if utils.Provided(p.StartDate) {
		d, err := utils.ParseDate(*p.StartDate)
		if err != nil {
			return nil, apierrors.Validation("Invalid start_date: %v", err)
		}
		n.StartDate = &d
		n.StartDateExplicit = true
	}
	if utils.Provided(p.DueDate) {
		d, err := utils.ParseDate(*p.DueDate)
		if err != nil {
			return nil, apierrors.Validation("Invalid due_date: %v", err)
		}
		n.DueDate = &d
	}
	if p.EstimatedHours != nil {
		n.EstimatedHours = p.EstimatedHours
	}
	if p.MaxHours != nil {
		n.MaxHours = p.MaxHours
	}
	if utils.Provided(p.CancellationReason) {
		n.CancellationReason = utils.StrPtr(utils.Trimmed(p.CancellationReason))
	}

	if n.isEmpty() {
		return nil, apierrors.Validation("At least one field must be provided to update")
	}
	return n, nil
}

func (n *normalized) isEmpty() bool {
	return n.Title == nil && n.Description == nil && n.StatusCode == nil &&
		n.PriorityCode == nil && n.ProductCode == nil && n.CompanyCode == nil &&
		n.ContactPersonCode == nil && n.StartDate == nil && n.DueDate == nil &&
		n.EstimatedHours == nil && n.MaxHours == nil && n.CancellationReason == nil
}

// apply computes the epic's next state and column set. Same status side
// effects as tasks: In Progress defaults start_date, Completed stamps
// closed_on, Cancelled stamps the cancel markers, leaving Cancelled clears
// them.
func apply(current *models.Epic, n *normalized, now time.Time, actor string) (*models.Epic, map[string]any, *string) {
	next := *current
	set := map[string]any{}
	var statusReason *string

	today := utils.DateOnly(now)

	if n.Title != nil {
		next.EpicTitle = *n.Title
		set["epic_title"] = *n.Title
	}
	if n.Description != nil {
		next.Description = n.Description
		set["description"] = *n.Description
	}
	if n.PriorityCode != nil {
		next.PriorityCode = *n.PriorityCode
		set["priority_code"] = *n.PriorityCode
	}
	if n.ProductCode != nil {
		next.ProductCode = *n.ProductCode
		set["product_code"] = *n.ProductCode
	}
	if n.CompanyCode != nil {
		next.CompanyCode = n.CompanyCode
		set["company_code"] = *n.CompanyCode
	}
	if n.ContactPersonCode != nil {
		next.ContactPersonCode = n.ContactPersonCode
		set["contact_person_code"] = *n.ContactPersonCode
	}
	if n.StartDate != nil {
		next.StartDate = n.StartDate
		set["start_date"] = *n.StartDate
	}
	if n.DueDate != nil {
		next.DueDate = n.DueDate
		set["due_date"] = *n.DueDate
	}
	if n.EstimatedHours != nil {
		next.EstimatedHours = *n.EstimatedHours
		set["estimated_hours"] = *n.EstimatedHours
	}
	if n.MaxHours != nil {
		next.MaxHours = *n.MaxHours
		set["max_hours"] = *n.MaxHours
	}

	if n.StatusCode != nil && *n.StatusCode != current.StatusCode {
		status := *n.StatusCode
		next.StatusCode = status
		set["status_code"] = status

		switch status {
		case models.StatusInProgress:
			if !n.StartDateExplicit {
				next.StartDate = &today
				set["start_date"] = today
			}
		case models.StatusCompleted:
			next.ClosedOn = &today
			set["closed_on"] = today
		case models.StatusCancelled:
			next.CancelledBy = &actor
			next.CancelledAt = &now
			set["cancelled_by"] = actor
			set["cancelled_at"] = now
			if n.CancellationReason != nil {
				next.CancellationReason = n.CancellationReason
				set["cancellation_reason"] = *n.CancellationReason
				statusReason = n.CancellationReason
			}
		}

		if current.StatusCode == models.StatusCancelled && status != models.StatusCancelled {
			next.CancelledBy = nil
			next.CancelledAt = nil
			next.CancellationReason = nil
			set["cancelled_by"] = nil
			set["cancelled_at"] = nil
			set["cancellation_reason"] = nil
		}
	}

	set["updated_by"] = actor
	set["updated_at"] = now
	next.UpdatedBy = &actor
	next.UpdatedAt = &now

	return &next, set, statusReason
}
