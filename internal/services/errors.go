package services

import "errors"

// ErrValidation is returned when input fails a business rule (missing field,
// negative odometer, unknown role). Handlers map it to 400.
var ErrValidation = errors.New("validation error")

// ErrForbidden is returned when the caller's role does not permit the
// operation, e.g. a driver acting for another driver. Handlers map it to 403.
var ErrForbidden = errors.New("forbidden")
