package domain

// Role determines which route sets a subject may use.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor:
		return true
	}
	return false
}

// ParseRole converts raw input into a Role.
func ParseRole(raw string) (Role, bool) {
	r := Role(raw)
	return r, r.Valid()
}
