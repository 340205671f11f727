package model

import "errors"

// Validation errors returned by constructors. Callers match them with errors.Is.
var (
	ErrEmptyCycle        = errors.New("cycle has no samples")
	ErrLengthMismatch    = errors.New("series length mismatch")
	ErrNonIncreasingTime = errors.New("cycle time must be strictly increasing")
	ErrNonMonotonicCurve = errors.New("curve x values must be strictly increasing")
	ErrInvalidParams     = errors.New("invalid simulation parameters")
	ErrInvalidVehicle    = errors.New("invalid vehicle")
)
