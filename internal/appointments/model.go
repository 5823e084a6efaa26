package appointments

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/curatime/curatime/internal/availability"
)

// Status is an appointment's lifecycle state. Transitions only move
// forward; there is no cancelled state, cancellation deletes the row.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmé"
	StatusCompleted Status = "terminé"
)

// ParseStatus validates a wire status value.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusCompleted:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusConfirmed:
		return 1
	case StatusCompleted:
		return 2
	}
	return -1
}

// CanTransitionTo reports whether the lifecycle allows moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	return s.rank() >= 0 && next.rank() > s.rank()
}

// Cancellable reports whether the appointment may still be cancelled.
// Completed appointments are history and stay put.
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

// wireLayout is the date_time format the frontend sends and expects back:
// local wall-clock, no zone designator.
const wireLayout = "2006-01-02T15:04:05"

// WireTime is a time.Time that crosses the wire in the frontend's
// zone-less local format.
type WireTime struct {
	time.Time
}

func (t WireTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(wireLayout))
}

func (t *WireTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := parseWireTime(s, time.Local)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func parseWireTime(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{wireLayout, "2006-01-02T15:04"} {
		if parsed, err := time.ParseInLocation(layout, s, loc); err == nil {
			// Slots are minute-granular. Dropping the seconds keeps every
			// wire form of the same slot on one conflict key.
			return time.Date(parsed.Year(), parsed.Month(), parsed.Day(),
				parsed.Hour(), parsed.Minute(), 0, 0, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateTime, s)
}

// Appointment binds one patient and one doctor to one date-time. The
// *_name fields are denormalized from joins for list views.
type Appointment struct {
	ID            int64    `json:"id"`
	ClientID      int64    `json:"client"`
	DoctorID      int64    `json:"doctor"`
	ClientName    string   `json:"client_name,omitempty"`
	DoctorName    string   `json:"doctor_name,omitempty"`
	SpecialtyName string   `json:"specialization,omitempty"`
	DateTime      WireTime `json:"date_time"`
	Status        Status   `json:"status"`
	Notes         string   `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateRequest is the booking payload. The slot arrives either combined
// ("date_time": "YYYY-MM-DDTHH:MM:00") or split ("date" + "time").
type CreateRequest struct {
	DoctorID int64  `json:"doctor"`
	DateTime string `json:"date_time"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Notes    string `json:"notes"`
}

// Resolve validates the request and builds the structured instant. A
// request with neither form present is rejected before anything is sent
// to storage.
func (r *CreateRequest) Resolve(loc *time.Location) (time.Time, error) {
	if r.DoctorID <= 0 {
		return time.Time{}, ErrMissingDoctor
	}
	if strings.TrimSpace(r.DateTime) != "" {
		return parseWireTime(strings.TrimSpace(r.DateTime), loc)
	}
	if r.Date == "" || r.Time == "" {
		return time.Time{}, ErrMissingDateTime
	}
	return availability.Slot{Date: r.Date, Time: r.Time}.At(loc)
}
