package service

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/pathways/internal/repository"
)

var (
	// ErrValidation marks input rejected before any write is attempted.
	ErrValidation = errors.New("invalid request")

	// ErrBusy is returned when the same milestone is already being updated.
	ErrBusy = errors.New("milestone update already in progress")

	// ErrRemoteWrite wraps a failed store write. The optimistic change has
	// been rolled back when it is returned.
	ErrRemoteWrite = errors.New("saving change failed")

	ErrNotFound = repository.ErrNotFound
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
