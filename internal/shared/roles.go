package shared

import "fmt"

// Role is the closed set of authorization scopes.
type Role string

// All roles known to the platform.
const (
	RoleEmployee       Role = "employee"
	RoleHROfficer      Role = "hr_officer"
	RolePayrollOfficer Role = "payroll_officer"
	RoleAdmin          Role = "admin"
)

// AllRoles lists every member of the closed role set.
func AllRoles() []Role {
	return []Role{RoleEmployee, RoleHROfficer, RolePayrollOfficer, RoleAdmin}
}

// ParseRole validates a raw role value against the closed set.
func ParseRole(raw string) (Role, error) {
	role := Role(raw)
	switch role {
	case RoleEmployee, RoleHROfficer, RolePayrollOfficer, RoleAdmin:
		return role, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrInvalidRole, raw)
}

// In reports whether the role is a member of the allowed set.
func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}
