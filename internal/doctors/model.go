package doctors

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/curatime/curatime/internal/availability"
)

// Doctor is a practitioner profile patients browse and book against. The
// linked account (UserID) carries credentials and the active flag; the
// profile carries everything patients see, including the availability
// schedule.
type Doctor struct {
	ID              int64                 `json:"id"`
	UserID          *int64                `json:"user,omitempty"`
	FirstName       string                `json:"first_name"`
	LastName        string                `json:"last_name"`
	Email           string                `json:"email"`
	Phone           string                `json:"phone"`
	Address         string                `json:"address"`
	City            string                `json:"city"`
	State           string                `json:"state"`
	ZipCode         string                `json:"zip_code"`
	SpecialtyID     int64                 `json:"specialization"`
	SpecialtyName   string                `json:"specialization_name,omitempty"`
	Availability    availability.Schedule `json:"availability"`
	Bio             string                `json:"bio"`
	ConsultationFee *float64              `json:"consultation_fee"`
}

// FullName returns "First Last".
func (d *Doctor) FullName() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

// AdminDoctor is the admin listing row: profile plus account state.
type AdminDoctor struct {
	ID              int64      `json:"id"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	Specialization  string     `json:"specialization"`
	IsActive        bool       `json:"is_active"`
	DateJoined      *time.Time `json:"date_joined"`
	ConsultationFee *float64   `json:"consultation_fee"`
	Bio             string     `json:"bio"`
}

// UpdateSelfRequest is the doctor self-service patch: contact fields, fee,
// and the availability schedule (full overwrite). Empty strings leave the
// stored value untouched; availability is only replaced when present.
type UpdateSelfRequest struct {
	Phone           string          `json:"phone"`
	Address         string          `json:"address"`
	City            string          `json:"city"`
	State           string          `json:"state"`
	ZipCode         string          `json:"zip_code"`
	Bio             string          `json:"bio"`
	ConsultationFee json.RawMessage `json:"consultation_fee"`
	Availability    json.RawMessage `json:"availability"`
}

type availabilityItem struct {
	Date  string   `json:"date"`
	Times []string `json:"times"`
	Slots []string `json:"slots"`
}

// DecodeAvailability accepts the schedule either as the canonical
// {date: [times]} mapping or as a list of {date, times|slots} items, and
// validates the result. Malformed payloads are rejected, never defaulted.
func DecodeAvailability(raw json.RawMessage) (availability.Schedule, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var items []availabilityItem
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("doctors: availability list form: %w", err)
		}
		sched := availability.NewSchedule()
		for _, item := range items {
			times := item.Times
			if times == nil {
				times = item.Slots
			}
			if item.Date == "" || times == nil {
				return nil, fmt.Errorf("doctors: availability items need 'date' and 'times': %w", ErrInvalidAvailability)
			}
			for _, tm := range times {
				if err := sched.Add(item.Date, tm); err != nil {
					return nil, err
				}
			}
			if len(times) == 0 {
				if err := availability.ValidateDate(item.Date); err != nil {
					return nil, err
				}
				sched[item.Date] = []string{}
			}
		}
		return sched, nil
	}
	return availability.ParseSchedule(raw)
}

// ApplyTo copies the non-empty scalar fields onto the doctor. Availability
// and fee are handled by the caller, which needs their error paths.
func (r *UpdateSelfRequest) ApplyTo(d *Doctor) {
	if r.Phone != "" {
		d.Phone = r.Phone
	}
	if r.Address != "" {
		d.Address = r.Address
	}
	if r.City != "" {
		d.City = r.City
	}
	if r.State != "" {
		d.State = r.State
	}
	if r.ZipCode != "" {
		d.ZipCode = r.ZipCode
	}
	if r.Bio != "" {
		d.Bio = r.Bio
	}
}

// ScheduleOnly reports whether the patch carries nothing but the
// availability schedule, so storage can overwrite that one column instead
// of the whole row.
func (r *UpdateSelfRequest) ScheduleOnly() bool {
	return len(r.Availability) > 0 &&
		r.Phone == "" && r.Address == "" && r.City == "" &&
		r.State == "" && r.ZipCode == "" && r.Bio == "" &&
		len(r.ConsultationFee) == 0
}

// ParseFee interprets the consultation_fee field, which clients send as a
// number, a numeric string, empty string, or null (the last two clear it).
func ParseFee(raw json.RawMessage) (fee *float64, clear bool, err error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, false, nil
	}
	if trimmed == "null" || trimmed == `""` {
		return nil, true, nil
	}
	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return &asNumber, false, nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		var parsed float64
		if _, err := fmt.Sscanf(strings.TrimSpace(asString), "%f", &parsed); err == nil {
			return &parsed, false, nil
		}
	}
	return nil, false, fmt.Errorf("doctors: %w", ErrInvalidFee)
}

// AdminUpsertRequest is the admin create/update payload. On create a linked
// doctor account is provisioned with the given password; specialization is
// referenced by name, as the admin forms submit it.
type AdminUpsertRequest struct {
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	Email           string          `json:"email"`
	Password        string          `json:"password"`
	Phone           string          `json:"phone"`
	Specialization  string          `json:"specialization"`
	Bio             string          `json:"bio"`
	ConsultationFee json.RawMessage `json:"consultation_fee"`
}

// Validate checks required fields; password is only required on create.
func (r *AdminUpsertRequest) Validate(creating bool) error {
	for field, value := range map[string]string{
		"first_name":     r.FirstName,
		"last_name":      r.LastName,
		"email":          r.Email,
		"specialization": r.Specialization,
	} {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, field)
		}
	}
	if creating && r.Password == "" {
		return fmt.Errorf("%w: password", ErrMissingField)
	}
	return nil
}
