package domain

import "time"

type Organization struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
}

type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleFinance Role = "finance"
	RoleStaff   Role = "staff"
)

// Valid reports whether r is one of the known membership roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleFinance, RoleStaff:
		return true
	}
	return false
}

type Membership struct {
	OrgID     string
	UserID    string
	Role      Role
	CreatedAt time.Time
	// Populated by listing queries.
	Email string
	Name  string
}
