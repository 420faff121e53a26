package supervisor

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hupe1980/turtleherd/core"
	"github.com/hupe1980/turtleherd/logging"
)

// Options holds configuration overrides passed to New.
type Options struct {
	// Logger receives per-call diagnostics.
	Logger logging.Logger
}

// Supervisor drives Create and Destroy calls against a core.Surface,
// wrapping failures into the broker's error taxonomy and keeping call
// counters for diagnostics. It performs no registry bookkeeping of its own:
// callers guarantee at most one Destroy per handle (the registry's claim
// step provides that for the kill path).
type Supervisor struct {
	surface core.Surface
	logger  logging.Logger

	creates  atomic.Int64
	destroys atomic.Int64
}

// New constructs a Supervisor over the given surface.
func New(surface core.Surface, optFns ...func(o *Options)) *Supervisor {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Supervisor{surface: surface, logger: opts.Logger}
}

// Create instantiates a backing object for the named entity. On failure the
// caller must roll back any registry allocation already made for the name.
func (s *Supervisor) Create(ctx context.Context, name string, params core.SpawnParams) (core.Handle, error) {
	start := time.Now()
	handle, err := s.surface.Create(ctx, name, params)
	s.creates.Add(1)
	if err != nil {
		s.logger.Warn("surface create failed", "entity", name, "duration", time.Since(start), "error", err)
		return "", fmt.Errorf("%w: %v", core.ErrCreationFailed, err)
	}
	s.logger.Debug("surface create ok", "entity", name, "duration", time.Since(start))
	return handle, nil
}

// Destroy tears down the backing object behind a handle. Not idempotent:
// callers must not pass the same handle twice.
func (s *Supervisor) Destroy(ctx context.Context, handle core.Handle) error {
	start := time.Now()
	err := s.surface.Destroy(ctx, handle)
	s.destroys.Add(1)
	if err != nil {
		s.logger.Warn("surface destroy failed", "duration", time.Since(start), "error", err)
		return fmt.Errorf("%w: %v", core.ErrDestructionFailed, err)
	}
	s.logger.Debug("surface destroy ok", "duration", time.Since(start))
	return nil
}

// CreateCalls returns how many Create calls have been issued.
func (s *Supervisor) CreateCalls() int64 { return s.creates.Load() }

// DestroyCalls returns how many Destroy calls have been issued.
func (s *Supervisor) DestroyCalls() int64 { return s.destroys.Load() }
