// Package turtleherd provides a high-level façade over the lifecycle
// broker and its collaborators (registry, supervisor, logging), enabling
// rapid construction of a herder service for dynamically named simulated
// entities. Most applications interact with this package by:
//  1. Creating a Herd via New() over a simulation surface (optionally
//     overriding the default in-memory registry)
//  2. Running Serve to process the spawn/kill channel pairs, or calling
//     Spawn/Kill synchronously
//  3. Calling Shutdown to sweep every remaining entity off the surface
//
// The façade delegates request handling to broker.Broker while keeping
// setup and usage ergonomics concise. All defaults are safe for local
// development and testing; production deployments typically supply a
// durable registry and a structured logger.
package turtleherd

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/turtleherd/broker"
	"github.com/hupe1980/turtleherd/core"
	"github.com/hupe1980/turtleherd/logging"
	"github.com/hupe1980/turtleherd/registry"
	"github.com/hupe1980/turtleherd/supervisor"
)

// Options configures the Herd instance.
type Options struct {
	// BaseName prefixes generated entity names.
	BaseName string

	// MaxConcurrentRequests limits simultaneously handled requests.
	// Set to 0 for unlimited (not recommended).
	MaxConcurrentRequests int

	// BufferSize sets channel buffering for the request/response pairs.
	BufferSize int

	// Registry overrides the default in-memory registry.
	Registry core.Registry

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Herd is the high-level façade aggregating the registry, supervisor and
// broker behind one construction call.
type Herd struct {
	registry core.Registry
	sup      *supervisor.Supervisor
	broker   *broker.Broker
	logger   logging.Logger
}

// New creates a new Herd over the given simulation surface with optional
// overrides. Any unset service is initialized with an in-memory
// implementation.
func New(surface core.Surface, optFns ...func(o *Options)) *Herd {
	opts := Options{
		BaseName:              "turtle",
		MaxConcurrentRequests: 16,
		BufferSize:            32,
		Logger:                logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	reg := opts.Registry
	if reg == nil {
		reg = registry.NewInMemory(func(o *registry.Options) { o.BaseName = opts.BaseName })
	}

	sup := supervisor.New(surface, func(o *supervisor.Options) { o.Logger = opts.Logger })
	b := broker.New(reg, sup, func(o *broker.Options) {
		o.MaxConcurrentRequests = opts.MaxConcurrentRequests
		o.BufferSize = opts.BufferSize
		o.Logger = opts.Logger
	})

	return &Herd{registry: reg, sup: sup, broker: b, logger: opts.Logger}
}

// Broker returns the underlying broker, whose channel pairs transports
// bind to.
func (h *Herd) Broker() *broker.Broker { return h.broker }

// Serve processes the channel pairs until ctx is cancelled.
func (h *Herd) Serve(ctx context.Context) error { return h.broker.Serve(ctx) }

// Spawn is a synchronous helper around the broker's spawn handling.
func (h *Herd) Spawn(ctx context.Context, req core.SpawnRequest) core.SpawnResponse {
	return h.broker.HandleSpawn(ctx, req)
}

// Kill is a synchronous helper around the broker's kill handling.
func (h *Herd) Kill(ctx context.Context, req core.KillRequest) core.KillResponse {
	return h.broker.HandleKill(ctx, req)
}

// Names returns a snapshot of all live entity names.
func (h *Herd) Names() []string { return h.registry.Names() }

// Shutdown kills every remaining live entity, tolerating individual
// failures so one wedged entity does not strand the rest. The collected
// failures are returned joined.
func (h *Herd) Shutdown(ctx context.Context) error {
	var errs []error
	for _, name := range h.registry.Names() {
		resp := h.broker.HandleKill(ctx, core.KillRequest{RequestID: core.NewID(), Name: name})
		if resp.Status != core.StatusOK {
			h.logger.Warn("shutdown kill failed", "entity", name, "status", string(resp.Status))
			errs = append(errs, fmt.Errorf("kill %s: %w", name, core.ErrFor(resp.Status)))
		}
	}
	return errors.Join(errs...)
}
