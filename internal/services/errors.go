package services

import (
	"errors"
	"fmt"

	"warehouse_flow_backend/internal/repositories"
)

// --- Workflow Service Errors ---
var (
	ErrItemNotFound     error = &notFoundError{what: "item"}
	ErrLocationNotFound error = &notFoundError{what: "location"}
	ErrUserNotFound     error = &notFoundError{what: "user"}
	ErrInvalidPlacement = errors.New("invalid placement")
	ErrNoCompatibleSlot = errors.New("no compatible free slot")
	ErrValidation       = errors.New("validation error")

	// ErrOccupancyRace means a concurrent move took the target first. It
	// matches ErrInvalidPlacement too; callers may retry.
	ErrOccupancyRace = &raceError{}
)

// notFoundError also matches repositories.ErrNotFound.
type notFoundError struct{ what string }

func (e *notFoundError) Error() string { return e.what + " not found" }

func (e *notFoundError) Is(target error) bool { return target == repositories.ErrNotFound }

type raceError struct{}

func (*raceError) Error() string { return "location was taken by a concurrent move" }

func (*raceError) Is(target error) bool { return target == ErrInvalidPlacement }

// IsRetryable reports whether err is worth retrying unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrOccupancyRace)
}

// IsNotFound reports whether err refers to a missing item, location or user.
func IsNotFound(err error) bool {
	return errors.Is(err, repositories.ErrNotFound)
}

func placementError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidPlacement, reason)
}
