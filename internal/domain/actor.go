package domain

// Role classifies who is performing an operation.
type Role string

const (
	RoleResident   Role = "resident"
	RoleAdmin      Role = "admin"
	RoleTechnician Role = "technician"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleResident, RoleAdmin, RoleTechnician:
		return true
	}
	return false
}

// Actor is the resident, administrator or technician behind a call.
// It is supplied by the presentation layer; the core never authenticates it.
type Actor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
	Avatar      string `json:"avatar,omitempty"`
}

// IsAdmin reports whether the actor holds the administrator role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// System is the actor recorded for system-generated events.
var System = Actor{ID: "system", DisplayName: "System", Role: RoleAdmin}
