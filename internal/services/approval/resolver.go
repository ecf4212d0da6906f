// Package approval resolves who may approve a given user's submissions. The
// same hierarchy feeds the timesheet and leave lifecycles and the epic
// creation gate.
package approval

import (
	"context"
	"fmt"

	"github.com/goatkit/timeflow/internal/apierrors"
	"github.com/goatkit/timeflow/internal/config"
	"github.com/goatkit/timeflow/internal/repository"
)

// Authority describes the approval chain for one owner.
type Authority struct {
	OwnerCode    string
	OwnerIsAdmin bool
	TeamCode     string
	// TeamLead approves a regular member's submissions.
	TeamLead string
	// Reporter is the team's super-approver; the only one who may act on an
	// admin member's submissions, including their own.
	Reporter string
}

// Resolver looks up approval authority from the user/team masters and the
// admin-designation allow-list.
type Resolver struct {
	masters repository.MasterRepository
	cfg     *config.Config
}

// NewResolver creates a Resolver.
func NewResolver(masters repository.MasterRepository, cfg *config.Config) *Resolver {
	return &Resolver{masters: masters, cfg: cfg}
}

// IsAdmin reports whether the user's designation is on the admin allow-list.
func (r *Resolver) IsAdmin(ctx context.Context, userCode string) (bool, error) {
	u, err := r.masters.GetUser(ctx, userCode)
	if err != nil {
		return false, fmt.Errorf("resolve admin: %w", err)
	}
	if u == nil || u.Designation == nil {
		return false, nil
	}
	return r.cfg.IsAdminDesignation(*u.Designation), nil
}

// Resolve returns the approval authority for owner.
func (r *Resolver) Resolve(ctx context.Context, ownerCode string) (*Authority, error) {
	owner, err := r.masters.GetUser(ctx, ownerCode)
	if err != nil {
		return nil, fmt.Errorf("resolve authority: %w", err)
	}
	if owner == nil {
		return nil, apierrors.ReferenceNotFound("User %s does not exist", ownerCode)
	}

	a := &Authority{OwnerCode: ownerCode}
	if owner.Designation != nil {
		a.OwnerIsAdmin = r.cfg.IsAdminDesignation(*owner.Designation)
	}
	if owner.TeamCode == nil {
		return a, nil
	}
	a.TeamCode = *owner.TeamCode

	team, err := r.masters.GetTeam(ctx, *owner.TeamCode)
	if err != nil {
		return nil, fmt.Errorf("resolve authority: %w", err)
	}
	if team != nil {
		if team.TeamLead != nil {
			a.TeamLead = *team.TeamLead
		}
		if team.Reporter != nil {
			a.Reporter = *team.Reporter
		}
	}
	return a, nil
}

// SelfApprovalNote is the audit reason recorded when a team's reporter
// approves their own submission.
const SelfApprovalNote = "Self-approved by super approver"

// CanAct decides whether caller may approve or reject the owner's
// submission. Returns the audit note to record (empty unless self-approval)
// or an authorization error.
func (a *Authority) CanAct(callerCode string, callerIsAdmin bool) (string, error) {
	if a.OwnerIsAdmin {
		// Admin-owned submissions: only the team's configured reporter may
		// act, including on their own entries.
		if a.Reporter == "" {
			return "", apierrors.Forbidden("No reporter configured for team %s; admin submissions need the team reporter", a.TeamCode)
		}
		if callerCode != a.Reporter {
			return "", apierrors.Forbidden("Only the team reporter %s may approve or reject this submission", a.Reporter)
		}
		if callerCode == a.OwnerCode {
			return SelfApprovalNote, nil
		}
		return "", nil
	}

	// Regular owners can never act on their own submissions.
	if callerCode == a.OwnerCode {
		return "", apierrors.Forbidden("You cannot approve or reject your own submission")
	}
	if callerCode == a.TeamLead || callerIsAdmin {
		return "", nil
	}
	return "", apierrors.Forbidden("Only the team lead or an admin may approve or reject this submission")
}
