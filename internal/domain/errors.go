package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the service layer wraps one of these so
// transports can map it without string matching.
var (
	ErrValidation            = errors.New("validation failed")
	ErrInvalidState          = errors.New("invalid state")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrNotFound              = errors.New("not found")
	ErrInsufficientCapacity  = errors.New("insufficient capacity")
	ErrMinimumQuantityNotMet = errors.New("minimum quantity not met")
	ErrConflict              = errors.New("conflict")
	ErrExternal              = errors.New("external dependency failed")
)

func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func StateError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

func UnauthorizedError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnauthorized, fmt.Sprintf(format, args...))
}

func NotFoundError(entity string, id any) error {
	return fmt.Errorf("%w: %s %v", ErrNotFound, entity, id)
}

func CapacityError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInsufficientCapacity, fmt.Sprintf(format, args...))
}

func ExternalError(service string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrExternal, service, err)
}

func MinimumQuantityError(required, requested int32) error {
	return fmt.Errorf("%w: minimum is %d, requested %d", ErrMinimumQuantityNotMet, required, requested)
}
