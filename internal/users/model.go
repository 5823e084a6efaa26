package users

import (
	"strings"
	"time"

	"github.com/curatime/curatime/internal/auth"
)

// User is an account: a patient ("client" on the wire), a doctor, or an
// administrator.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Address      string    `json:"adresse"`
	Gender       string    `json:"gender"`
	Role         auth.Role `json:"user_role"`
	IsActive     bool      `json:"is_active"`
	IsStaff      bool      `json:"is_staff"`
	DateJoined   time.Time `json:"date_joined"`
	PasswordHash string    `json:"-"`
}

// FullName returns "First Last", falling back to the email when both names
// are blank.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// RegisterRequest is the signup payload. Role defaults to patient when
// omitted; doctor accounts are only created through the admin flow.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"adresse"`
	Gender    string `json:"gender"`
	Role      string `json:"user_role"`
}

// Validate checks the signup payload and resolves the role.
func (r *RegisterRequest) Validate() (auth.Role, error) {
	r.Email = strings.TrimSpace(strings.ToLower(r.Email))
	if r.Email == "" || !strings.Contains(r.Email, "@") {
		return "", ErrInvalidEmail
	}
	if r.Password == "" {
		return "", ErrMissingPassword
	}
	if r.Role == "" {
		return auth.RolePatient, nil
	}
	role, err := auth.ParseRole(r.Role)
	if err != nil {
		return "", ErrInvalidRole
	}
	if role == auth.RoleDoctor {
		return "", ErrInvalidRole
	}
	return role, nil
}

// LoginRequest is the credentials payload shared by the per-role logins.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest is a partial profile update. Empty strings are
// ignored rather than wiping stored values.
type UpdateProfileRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"adresse"`
	Gender    string `json:"gender"`
	Password  string `json:"password"`
}

// ApplyTo copies the non-empty fields onto the user. The password is handled
// separately by the caller since it needs hashing.
func (r *UpdateProfileRequest) ApplyTo(u *User) {
	if v := strings.TrimSpace(r.Email); v != "" {
		u.Email = strings.ToLower(v)
	}
	if r.FirstName != "" {
		u.FirstName = r.FirstName
	}
	if r.LastName != "" {
		u.LastName = r.LastName
	}
	if r.Address != "" {
		u.Address = r.Address
	}
	if r.Gender != "" {
		u.Gender = r.Gender
	}
}
