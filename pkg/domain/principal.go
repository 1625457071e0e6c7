package domain

// Role is the coarse authorization role carried by an authenticated request.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// IsValid reports whether the role is one of the three known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// Principal is the already-authenticated caller. Authentication (token
// issuance, sessions) happens upstream; services receive the resolved
// principal and never inspect credentials. Centralizing role/id here keeps
// role branching out of individual handlers.
type Principal struct {
	ID   UserID
	Role Role
}

func (p Principal) IsAdmin() bool    { return p.Role == RoleAdmin }
func (p Principal) IsManager() bool  { return p.Role == RoleManager }
func (p Principal) IsEmployee() bool { return p.Role == RoleEmployee }
