package models

// Role is the coarse authorization level of an account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// ParseRole accepts only the known role names.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.IsValid()
}
