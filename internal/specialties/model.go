package specialties

import "strings"

// Specialty is a medical specialty doctors are grouped under.
type Specialty struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`

	// DoctorsCount is populated on admin listings only.
	DoctorsCount int64 `json:"doctors_count,omitempty"`
}

// UpsertRequest is the create/update payload.
type UpsertRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate checks the payload.
func (r *UpsertRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return ErrMissingName
	}
	return nil
}
