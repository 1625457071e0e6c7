// Package scope decides what a principal may do with a feedback record.
// Decisions are pure reads over directory membership; the resolver never
// mutates anything and reports false rather than erroring on a plain "no".
// Callers translate false into forbidden or not-found responses.
package scope

import (
	"context"

	"teampulse/internal/directory"
	"teampulse/internal/feedback/models"
	"teampulse/pkg/domain"
)

// Resolver answers authorization questions for the feedback lifecycle.
type Resolver struct {
	directory directory.Directory
}

func NewResolver(dir directory.Directory) *Resolver {
	return &Resolver{directory: dir}
}

// CanAuthor reports whether managerID currently manages an active team that
// contains employeeID. The error return only signals directory I/O failure,
// never a denied decision.
func (r *Resolver) CanAuthor(ctx context.Context, managerID, employeeID domain.UserID) (bool, error) {
	teams, err := r.directory.TeamsManagedBy(ctx, managerID)
	if err != nil {
		return false, err
	}
	for _, team := range teams {
		member, err := r.directory.IsTeamMember(ctx, team.ID, employeeID)
		if err != nil {
			return false, err
		}
		if member {
			return true, nil
		}
	}
	return false, nil
}

// IsActiveEmployee reports whether id resolves to an active employee in the
// directory. Bulk creation uses it to reject batches naming departed users.
func (r *Resolver) IsActiveEmployee(ctx context.Context, id domain.UserID) (bool, error) {
	return r.directory.IsActiveEmployee(ctx, id)
}

// CanRead reports whether the principal may see the record at all: admins see
// everything, the authoring manager and the target employee see their own.
func (r *Resolver) CanRead(principal domain.Principal, record *models.Record) bool {
	if principal.IsAdmin() {
		return true
	}
	if principal.IsManager() && record.ManagerID == principal.ID {
		return true
	}
	if principal.IsEmployee() && record.EmployeeID == principal.ID {
		return true
	}
	return false
}

// CanModify reports whether the principal may run a content edit against the
// record. Only the authoring manager may, and only while the record is not
// soft-deleted; delete/restore have their own state guards on the record.
func (r *Resolver) CanModify(principal domain.Principal, record *models.Record) bool {
	if !principal.IsManager() || record.ManagerID != principal.ID {
		return false
	}
	return !record.Deleted
}

// IsOwner reports whether the principal is the authoring manager, regardless
// of record state. Delete and restore use this plus the record's own guards.
func (r *Resolver) IsOwner(principal domain.Principal, record *models.Record) bool {
	return principal.IsManager() && record.ManagerID == principal.ID
}
