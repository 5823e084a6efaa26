package availability

import "errors"

var (
	// ErrInvalidDate is returned when a date key is not YYYY-MM-DD
	ErrInvalidDate = errors.New("date must be formatted YYYY-MM-DD")

	// ErrInvalidTime is returned when a slot is not HH:MM (24-hour)
	ErrInvalidTime = errors.New("time must be formatted HH:MM")

	// ErrDuplicateTime is returned when a date lists the same slot twice
	ErrDuplicateTime = errors.New("duplicate time slot for date")
)
