package core

import "context"

// Surface is the underlying simulation the supervisor drives. Create and
// Destroy are the only places externally observable simulation state
// changes occur; both may block until the simulation confirms, and both may
// fail.
//
// Destroy is not assumed idempotent. Callers guarantee at most one Destroy
// per handle; the registry's per-name claim provides that guarantee for the
// broker's kill path.
type Surface interface {
	Create(ctx context.Context, name string, params SpawnParams) (Handle, error)
	Destroy(ctx context.Context, handle Handle) error
}
