package core

import "context"

// Supervisor is the broker's view of the entity lifecycle layer. It mirrors
// Surface but returns taxonomy errors (ErrCreationFailed,
// ErrDestructionFailed) instead of raw surface failures, so the broker can
// map outcomes straight to response statuses.
type Supervisor interface {
	Create(ctx context.Context, name string, params SpawnParams) (Handle, error)
	Destroy(ctx context.Context, handle Handle) error
}
