package appointments

import "errors"

var (
	// ErrNotFound means no appointment matches the given id.
	ErrNotFound = errors.New("appointments: appointment not found")
	// ErrSlotTaken means another non-cancelled appointment already holds
	// the (doctor, date_time) pair.
	ErrSlotTaken = errors.New("appointments: slot already booked")
	// ErrSlotNotOffered means the doctor's schedule does not list the slot.
	ErrSlotNotOffered = errors.New("appointments: slot not in the doctor's availability")
	// ErrPastDateTime means the requested instant is not in the future.
	ErrPastDateTime = errors.New("appointments: date_time must be in the future")
	// ErrMissingDateTime means neither a combined date_time nor a date and
	// time pair was supplied.
	ErrMissingDateTime = errors.New("appointments: select date and time")
	// ErrMissingDoctor means no doctor id was supplied.
	ErrMissingDoctor = errors.New("appointments: doctor is required")
	// ErrInvalidDateTime means the date_time string did not parse.
	ErrInvalidDateTime = errors.New("appointments: invalid date_time")
	// ErrInvalidStatus means the wire status value is not in the lifecycle.
	ErrInvalidStatus = errors.New("appointments: invalid status")
	// ErrBadTransition means the status change would move backwards.
	ErrBadTransition = errors.New("appointments: status can only move forward")
	// ErrNotCancellable means the appointment is completed and kept.
	ErrNotCancellable = errors.New("appointments: completed appointments cannot be cancelled")
	// ErrForbidden means the session user does not own the appointment.
	ErrForbidden = errors.New("appointments: not allowed")
)
