package auth

import "fmt"

// Role is the typed account role. The wire values match the original API
// ("client" for patients).
type Role string

const (
	RolePatient Role = "client"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// ParseRole validates a wire role value.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RolePatient, RoleDoctor, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("auth: unknown role %q", s)
}

// Valid reports whether the role is one of the three known variants.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}
