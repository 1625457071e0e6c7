package directory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"teampulse/pkg/domain"
)

// PostgresDirectory answers membership questions from the directory tables,
// which an upstream HR sync owns and this service only reads.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) IsActiveEmployee(ctx context.Context, id domain.UserID) (bool, error) {
	var active bool
	err := d.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1 AND active)`,
		uuid.UUID(id),
	).Scan(&active)
	if err != nil {
		return false, fmt.Errorf("check active employee: %w", err)
	}
	return active, nil
}

func (d *PostgresDirectory) TeamsManagedBy(ctx context.Context, managerID domain.UserID) ([]Team, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, manager_id FROM teams WHERE manager_id = $1 AND active`,
		uuid.UUID(managerID),
	)
	if err != nil {
		return nil, fmt.Errorf("query managed teams: %w", err)
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		var teamID, mgrID uuid.UUID
		if err := rows.Scan(&teamID, &mgrID); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, Team{
			ID:        domain.TeamID(teamID),
			ManagerID: domain.UserID(mgrID),
			Active:    true,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}
	return teams, nil
}

func (d *PostgresDirectory) IsTeamMember(ctx context.Context, teamID domain.TeamID, employeeID domain.UserID) (bool, error) {
	var member bool
	err := d.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM team_members WHERE team_id = $1 AND employee_id = $2)`,
		uuid.UUID(teamID), uuid.UUID(employeeID),
	).Scan(&member)
	if err != nil {
		return false, fmt.Errorf("check team membership: %w", err)
	}
	return member, nil
}
