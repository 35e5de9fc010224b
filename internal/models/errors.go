package models

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrFlightNotFound   = errors.New("flight not found")
	ErrConflict         = errors.New("concurrent update conflict")
	ErrFatalPersistence = errors.New("flight was not saved")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrRecordNotFound   = errors.New("record not found")
)

// Validationf wraps ErrValidation with a user-facing message.
func Validationf(format string, args ...any) error {
	return errors.Wrap(ErrValidation, fmt.Sprintf(format, args...))
}

// NotFoundError is returned when every resolver source came back empty.
type NotFoundError struct {
	FlightNumber string
	Date         string
}

func (e *NotFoundError) Error() string {
	if e.Date != "" {
		return fmt.Sprintf("flight %s on %s not found: check the flight number (e.g. QP1457) or try a different date", e.FlightNumber, e.Date)
	}
	return fmt.Sprintf("flight %s not found: check the flight number (e.g. QP1457) or add the flight date", e.FlightNumber)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrFlightNotFound }
