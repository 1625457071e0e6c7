// Package directory is the read-only port onto the user/team directory.
// Membership management lives in another system; this backend only ever asks
// membership questions, never mutates the answers.
package directory

import (
	"context"

	"teampulse/pkg/domain"
)

// Team is a managed team as the directory reports it.
type Team struct {
	ID          domain.TeamID
	ManagerID   domain.UserID
	EmployeeIDs []domain.UserID
	Active      bool
}

// Directory answers membership questions for authorization decisions.
type Directory interface {
	// IsActiveEmployee reports whether id resolves to an active employee.
	IsActiveEmployee(ctx context.Context, id domain.UserID) (bool, error)

	// TeamsManagedBy returns the active teams managed by managerID.
	TeamsManagedBy(ctx context.Context, managerID domain.UserID) ([]Team, error)

	// IsTeamMember reports whether employeeID belongs to teamID.
	IsTeamMember(ctx context.Context, teamID domain.TeamID, employeeID domain.UserID) (bool, error)
}
