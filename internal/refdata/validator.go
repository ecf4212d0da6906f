// Package refdata validates client-supplied codes against the master tables
// before any write. The master store is treated as an oracle answering "does
// code X exist and is it active"; every lifecycle component consults it.
package refdata

import (
	"context"
	"fmt"
	"strings"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/models"
	"github.com/goatkit/timeflow/internal/repository"
)

// Validator checks reference codes. Never trust a client-supplied code.
type Validator struct {
	masters repository.MasterRepository
}

// NewValidator creates a Validator over the master repository.
func NewValidator(masters repository.MasterRepository) *Validator {
	return &Validator{masters: masters}
}

// Status verifies a status code exists in the status master.
func (v *Validator) Status(ctx context.Context, code string) error {
	ok, err := v.masters.StatusExists(ctx, code)
	if err != nil {
		return fmt.Errorf("validate status: %w", err)
	}
	if !ok {
		return apierrors.ReferenceNotFound("Status code %s does not exist", code)
	}
	return nil
}

// TaskStatus verifies a status code is one of the four codes the task/epic
// lifecycle accepts. The legacy On Hold code gets a redirect hint.
func (v *Validator) TaskStatus(ctx context.Context, code string) error {
	if code == models.StatusOnHold {
		return apierrors.Validation(
			"Status code %s (On Hold) is not allowed. Use %s (Cancelled) instead", models.StatusOnHold, models.StatusCancelled)
	}
	if !models.IsTaskStatus(code) {
		return apierrors.Validation(
			"Status code %s is not allowed. Allowed values: %s", code, strings.Join(models.TaskStatuses, ", "))
	}
	return v.Status(ctx, code)
}

// Priority verifies a priority code exists.
func (v *Validator) Priority(ctx context.Context, code int) error {
	ok, err := v.masters.PriorityExists(ctx, code)
	if err != nil {
		return fmt.Errorf("validate priority: %w", err)
	}
	if !ok {
		return apierrors.ReferenceNotFound("Priority code %d does not exist", code)
	}
	return nil
}

// TaskType verifies a task type code is in the accepted range and active.
func (v *Validator) TaskType(ctx context.Context, code string) error {
	if !models.IsTaskType(code) {
		return apierrors.Validation(
			"Task type code %s is not allowed. Allowed values are %s through %s",
			code, models.TaskTypes[0], models.TaskTypes[len(models.TaskTypes)-1])
	}
	ok, err := v.masters.TaskTypeActive(ctx, code)
	if err != nil {
		return fmt.Errorf("validate task type: %w", err)
	}
	if !ok {
		return apierrors.ReferenceNotFound("Task type code %s does not exist or is not active", code)
	}
	return nil
}

// WorkMode verifies a work mode value.
func (v *Validator) WorkMode(mode string) error {
	if !models.IsWorkMode(mode) {
		return apierrors.Validation("Invalid work_mode %q. Allowed values: REMOTE, ON_SITE, OFFICE", mode)
	}
	return nil
}

// Team verifies a team code exists and is active.
func (v *Validator) Team(ctx context.Context, code string) error {
	ok, err := v.masters.TeamActive(ctx, code)
	if err != nil {
		return fmt.Errorf("validate team: %w", err)
	}
	if !ok {
		return apierrors.ReferenceNotFound("Team code %s does not exist or is not active", code)
	}
	return nil
}

// Product verifies a product code exists.
func (v *Validator) Product(ctx context.Context, code string) error {
	ok, err := v.masters.ProductExists(ctx, code)
	if err != nil {
		return fmt.Errorf("validate product: %w", err)
	}
	if !ok {
		return apierrors.ReferenceNotFound("Product with code %s does not exist", code)
	}
	return nil
}

// Company verifies a company code exists.
func (v *Validator) Company(ctx context.Context, code string) error {
	ok, err := v.masters.CompanyExists(ctx, code)
	if err != nil {
		return fmt.Errorf("validate company: %w", err)
	}
	if !ok {
		return apierrors.ReferenceNotFound("Company with code %s does not exist", code)
	}
	return nil
}

// LeaveType verifies a leave type code exists and is active.
func (v *Validator) LeaveType(ctx context.Context, code string) error {
	ok, err := v.masters.LeaveTypeActive(ctx, code)
	if err != nil {
		return fmt.Errorf("validate leave type: %w", err)
	}
	if !ok {
		return apierrors.ReferenceNotFound("Leave type code %s does not exist or is not active", code)
	}
	return nil
}

// ActiveUser returns the user row for code, rejecting unknown or inactive
// users.
func (v *Validator) ActiveUser(ctx context.Context, code string) (*models.User, error) {
	u, err := v.masters.GetUser(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("validate user: %w", err)
	}
	if u == nil || u.IsInactive {
		return nil, apierrors.ReferenceNotFound("User %s does not exist or is inactive", code)
	}
	return u, nil
}

// ContactOfCompany returns the contact row, ensuring it is active and, when
// companyCode is non-empty, belongs to that company.
func (v *Validator) ContactOfCompany(ctx context.Context, contactCode, companyCode string) (*models.Contact, error) {
	c, err := v.masters.GetContact(ctx, contactCode)
	if err != nil {
		return nil, fmt.Errorf("validate contact: %w", err)
	}
	if c == nil || c.IsInactive {
		return nil, apierrors.ReferenceNotFound("Contact person %s does not exist or is inactive", contactCode)
	}
	if companyCode != "" {
		if c.CompanyCode == nil || *c.CompanyCode != companyCode {
			return nil, apierrors.Validation(
				"Contact person %s does not belong to company %s", contactCode, companyCode)
		}
	}
	return c, nil
}
