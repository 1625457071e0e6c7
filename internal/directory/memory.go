package directory

import (
	"context"
	"sync"

	"teampulse/pkg/domain"
)

// InMemoryDirectory is a concurrency-safe directory stand-in for tests and
// single-process deployments where the real directory is seeded at startup.
type InMemoryDirectory struct {
	mu        sync.RWMutex
	teams     map[domain.TeamID]Team
	employees map[domain.UserID]bool // id -> active
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{
		teams:     make(map[domain.TeamID]Team),
		employees: make(map[domain.UserID]bool),
	}
}

// AddEmployee registers an employee; active controls IsActiveEmployee.
func (d *InMemoryDirectory) AddEmployee(id domain.UserID, active bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.employees[id] = active
}

// AddTeam registers a team and marks its members as active employees.
func (d *InMemoryDirectory) AddTeam(team Team) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.teams[team.ID] = team
	for _, employeeID := range team.EmployeeIDs {
		if _, known := d.employees[employeeID]; !known {
			d.employees[employeeID] = true
		}
	}
}

func (d *InMemoryDirectory) IsActiveEmployee(_ context.Context, id domain.UserID) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.employees[id], nil
}

func (d *InMemoryDirectory) TeamsManagedBy(_ context.Context, managerID domain.UserID) ([]Team, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var teams []Team
	for _, team := range d.teams {
		if team.ManagerID == managerID && team.Active {
			teams = append(teams, team)
		}
	}
	return teams, nil
}

func (d *InMemoryDirectory) IsTeamMember(_ context.Context, teamID domain.TeamID, employeeID domain.UserID) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	team, ok := d.teams[teamID]
	if !ok {
		return false, nil
	}
	for _, member := range team.EmployeeIDs {
		if member == employeeID {
			return true, nil
		}
	}
	return false, nil
}
