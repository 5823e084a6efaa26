package doctors

import "errors"

var (
	// ErrNotFound means no doctor profile matches the given id or email.
	ErrNotFound = errors.New("doctors: doctor not found")
	// ErrEmailTaken means a doctor profile already uses the email.
	ErrEmailTaken = errors.New("doctors: email already in use")
	// ErrMissingField means a required admin form field was blank.
	ErrMissingField = errors.New("doctors: missing required field")
	// ErrUnknownSpecialty means the named specialty does not exist.
	ErrUnknownSpecialty = errors.New("doctors: unknown specialty")
	// ErrInvalidAvailability means the availability payload had neither the
	// mapping nor the list shape.
	ErrInvalidAvailability = errors.New("doctors: invalid availability payload")
	// ErrInvalidFee means consultation_fee was not a number.
	ErrInvalidFee = errors.New("doctors: invalid consultation fee")
)
