package domain

// Role distinguishes the kinds of actors that call the studio API.
type Role string

const (
	RoleStaff Role = "staff" // Front desk and physiotherapists
	RoleKiosk Role = "kiosk" // Walk-up check-in terminal
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleStaff || r == RoleKiosk
}
