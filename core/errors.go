package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNameInUse is returned by Allocate when the requested explicit name
	// is already live or reserved.
	ErrNameInUse = fmt.Errorf("name already in use")

	// ErrNotFound is returned when an operation names an entity that is not
	// currently live.
	ErrNotFound = fmt.Errorf("entity not found")

	// ErrCreationFailed wraps a surface failure during Create.
	ErrCreationFailed = fmt.Errorf("entity creation failed")

	// ErrDestructionFailed wraps a surface failure during Destroy. The
	// entity stays live; a retry is expected to succeed or require manual
	// intervention.
	ErrDestructionFailed = fmt.Errorf("entity destruction failed")

	// ErrInvalidPayload is returned when a request fails validation before
	// any registry or surface call.
	ErrInvalidPayload = fmt.Errorf("invalid request payload")

	// ErrTimeout is a caller-side error: no response arrived within the
	// client's waiting window. The broker itself never emits it.
	ErrTimeout = fmt.Errorf("request timed out")
)

// ErrFor is the inverse of StatusFor: it maps a response status back to the
// taxonomy error clients surface to their callers. StatusOK maps to nil.
func ErrFor(status Status) error {
	switch status {
	case StatusOK:
		return nil
	case StatusNameInUse:
		return ErrNameInUse
	case StatusNotFound:
		return ErrNotFound
	case StatusCreationFailed:
		return ErrCreationFailed
	case StatusDestructionFailed:
		return ErrDestructionFailed
	case StatusInvalidPayload:
		return ErrInvalidPayload
	default:
		return fmt.Errorf("unrecognized status %q", status)
	}
}

// StatusFor maps an error from the registry / supervisor layers to the
// response status surfaced to the caller. Unrecognized errors fold into the
// given fallback so no failure path escapes without a response.
func StatusFor(err error, fallback Status) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrNameInUse):
		return StatusNameInUse
	case errors.Is(err, ErrNotFound):
		return StatusNotFound
	case errors.Is(err, ErrCreationFailed):
		return StatusCreationFailed
	case errors.Is(err, ErrDestructionFailed):
		return StatusDestructionFailed
	case errors.Is(err, ErrInvalidPayload):
		return StatusInvalidPayload
	default:
		return fallback
	}
}
