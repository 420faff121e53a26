package broker

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/hupe1980/turtleherd/core"
	"github.com/hupe1980/turtleherd/logging"
)

// Entity names must stay safe for downstream channel remapping (the concert
// fabric builds per-entity channel names from them).
var nameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Options holds dependency + configuration overrides passed to New.
type Options struct {
	// MaxConcurrentRequests limits simultaneously handled requests.
	// Set to 0 for unlimited (not recommended).
	MaxConcurrentRequests int
	// BufferSize sets channel buffering for the request/response pairs.
	BufferSize int
	// Logger receives broker diagnostics.
	Logger logging.Logger
}

// Broker receives spawn and kill requests on dedicated channels, dispatches
// them to the registry and supervisor, and emits correlated responses on
// the paired response channels. Construct with New, then run Serve in its
// own goroutine; the synchronous HandleSpawn/HandleKill entry points are
// also safe for concurrent direct use by transports and the façade.
type Broker struct {
	registry core.Registry
	sup      core.Supervisor
	logger   logging.Logger
	limiter  *requestLimiter

	spawnReqs  chan core.SpawnRequest
	spawnResps chan core.SpawnResponse
	killReqs   chan core.KillRequest
	killResps  chan core.KillResponse

	wg sync.WaitGroup
}

// New constructs a Broker with optional overrides. Registry and supervisor
// are explicit dependencies so isolated test instances are trivial to
// build.
func New(reg core.Registry, sup core.Supervisor, optFns ...func(o *Options)) *Broker {
	opts := Options{
		MaxConcurrentRequests: 16,
		BufferSize:            32,
		Logger:                logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Broker{
		registry:   reg,
		sup:        sup,
		logger:     opts.Logger,
		limiter:    newRequestLimiter(opts.MaxConcurrentRequests),
		spawnReqs:  make(chan core.SpawnRequest, opts.BufferSize),
		spawnResps: make(chan core.SpawnResponse, opts.BufferSize),
		killReqs:   make(chan core.KillRequest, opts.BufferSize),
		killResps:  make(chan core.KillResponse, opts.BufferSize),
	}
}

// SpawnRequests returns the spawn arrival channel.
func (b *Broker) SpawnRequests() chan<- core.SpawnRequest { return b.spawnReqs }

// SpawnResponses returns the response channel paired with SpawnRequests.
// It is closed when Serve returns.
func (b *Broker) SpawnResponses() <-chan core.SpawnResponse { return b.spawnResps }

// KillRequests returns the kill arrival channel.
func (b *Broker) KillRequests() chan<- core.KillRequest { return b.killReqs }

// KillResponses returns the response channel paired with KillRequests.
// It is closed when Serve returns.
func (b *Broker) KillResponses() <-chan core.KillResponse { return b.killResps }

// Serve consumes both request channels until ctx is cancelled, handling
// each request in its own goroutine subject to the concurrency limit. On
// shutdown it waits for in-flight requests and then closes both response
// channels. Responses that cannot be delivered after cancellation are
// dropped; callers treat a missing response as a timeout.
func (b *Broker) Serve(ctx context.Context) error {
	b.logger.Info("broker serving")
	defer func() {
		b.wg.Wait()
		close(b.spawnResps)
		close(b.killResps)
		b.logger.Info("broker stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-b.spawnReqs:
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				resp := b.HandleSpawn(ctx, req)
				select {
				case b.spawnResps <- resp:
				case <-ctx.Done():
					b.logger.Warn("dropping spawn response on shutdown", "request_id", resp.RequestID)
				}
			}()
		case req := <-b.killReqs:
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				resp := b.HandleKill(ctx, req)
				select {
				case b.killResps <- resp:
				case <-ctx.Done():
					b.logger.Warn("dropping kill response on shutdown", "request_id", resp.RequestID)
				}
			}()
		}
	}
}

// Dispatch handles a tagged request, branching exhaustively on its kind.
// A malformed union answers a spawn-shaped InvalidPayload carrying
// whatever correlation token the envelope had, so callers still hear back.
func (b *Broker) Dispatch(ctx context.Context, req core.Request) core.Response {
	switch req.Kind {
	case core.KindSpawn:
		if req.Spawn != nil {
			resp := b.HandleSpawn(ctx, *req.Spawn)
			return core.Response{Kind: core.KindSpawn, Spawn: &resp}
		}
	case core.KindKill:
		if req.Kill != nil {
			resp := b.HandleKill(ctx, *req.Kill)
			return core.Response{Kind: core.KindKill, Kill: &resp}
		}
	}
	b.logger.Warn("rejecting malformed request envelope", "kind", string(req.Kind), "request_id", req.ID())
	resp := core.SpawnResponse{RequestID: req.ID(), Status: core.StatusInvalidPayload}
	return core.Response{Kind: core.KindSpawn, Spawn: &resp}
}

// HandleSpawn validates a spawn request, allocates a name, creates the
// backing object and binds the record, rolling back the allocation when
// creation fails. It always returns exactly one response.
func (b *Broker) HandleSpawn(ctx context.Context, req core.SpawnRequest) core.SpawnResponse {
	// Admission is the single choke point shared by every transport: the
	// Serve loop, the websocket gateway and direct façade calls all pass
	// through here.
	if err := b.limiter.Acquire(ctx); err != nil {
		b.logger.Warn("spawn not admitted", "request_id", req.RequestID, "error", err)
		return core.SpawnResponse{RequestID: req.RequestID, Status: core.StatusCreationFailed}
	}
	defer b.limiter.Release()

	p := newPending(req.RequestID, core.KindSpawn, b.logger)
	start := time.Now()

	p.advance(phaseValidating)
	if err := validateSpawn(req); err != nil {
		b.logger.Warn("rejecting spawn", "request_id", req.RequestID, "error", err)
		p.finish(core.StatusInvalidPayload)
		return core.SpawnResponse{RequestID: req.RequestID, Status: core.StatusInvalidPayload}
	}

	p.advance(phaseExecuting)
	name, err := b.allocate(req)
	if err != nil {
		status := core.StatusFor(err, core.StatusNameInUse)
		p.finish(status)
		return core.SpawnResponse{RequestID: req.RequestID, Status: status}
	}

	handle, err := b.sup.Create(ctx, name, req.Params)
	if err != nil {
		// Compensating rollback: the reservation must not outlive the
		// failed create.
		if relErr := b.registry.Release(name); relErr != nil {
			b.logger.Error("rollback release failed", "entity", name, "error", relErr)
		}
		b.logger.Warn("spawn create failed", "entity", name, "request_id", req.RequestID, "error", err)
		p.finish(core.StatusCreationFailed)
		return core.SpawnResponse{RequestID: req.RequestID, Status: core.StatusCreationFailed}
	}

	if err := b.registry.Bind(name, handle, req.Params); err != nil {
		// The reservation vanished under us; tear the fresh backing object
		// down again so nothing dangles.
		b.logger.Error("bind failed after create", "entity", name, "error", err)
		if destroyErr := b.sup.Destroy(ctx, handle); destroyErr != nil {
			b.logger.Error("orphan cleanup failed", "entity", name, "error", destroyErr)
		}
		p.finish(core.StatusCreationFailed)
		return core.SpawnResponse{RequestID: req.RequestID, Status: core.StatusCreationFailed}
	}

	p.advance(phaseResponding)
	b.logger.Info("spawned entity", "entity", name, "request_id", req.RequestID, "duration", time.Since(start))
	p.finish(core.StatusOK)
	return core.SpawnResponse{RequestID: req.RequestID, Status: core.StatusOK, Name: name}
}

// allocate reserves a name for the request. With AllowAlias set and an
// explicit name taken, suffixed aliases are tried in order (t1, t1_0,
// t1_1, ...) until one reserves. Each attempt is a single atomic registry
// step, so racing aliasers simply land on different suffixes.
func (b *Broker) allocate(req core.SpawnRequest) (string, error) {
	name, err := b.registry.Allocate(req.Name)
	if err == nil || req.Name == "" || !req.AllowAlias || !errors.Is(err, core.ErrNameInUse) {
		return name, err
	}
	for i := 0; ; i++ {
		alias := fmt.Sprintf("%s_%d", req.Name, i)
		name, err = b.registry.Allocate(alias)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, core.ErrNameInUse) {
			return "", err
		}
	}
}

// HandleKill validates a kill request, claims the entry, destroys the
// backing object and releases the name. A failed destroy restores the entry
// to live. It always returns exactly one response.
func (b *Broker) HandleKill(ctx context.Context, req core.KillRequest) core.KillResponse {
	if err := b.limiter.Acquire(ctx); err != nil {
		b.logger.Warn("kill not admitted", "request_id", req.RequestID, "error", err)
		return core.KillResponse{RequestID: req.RequestID, Status: core.StatusDestructionFailed}
	}
	defer b.limiter.Release()

	p := newPending(req.RequestID, core.KindKill, b.logger)
	start := time.Now()

	p.advance(phaseValidating)
	if err := validateKill(req); err != nil {
		b.logger.Warn("rejecting kill", "request_id", req.RequestID, "error", err)
		p.finish(core.StatusInvalidPayload)
		return core.KillResponse{RequestID: req.RequestID, Status: core.StatusInvalidPayload}
	}

	p.advance(phaseExecuting)
	// Claim is the atomic liveness check: absent, reserved and
	// already-claimed entries all answer NotFound, and no supervisor call
	// is made for them.
	rec, err := b.registry.Claim(req.Name)
	if err != nil {
		p.finish(core.StatusNotFound)
		return core.KillResponse{RequestID: req.RequestID, Status: core.StatusNotFound}
	}

	if err := b.sup.Destroy(ctx, rec.Handle); err != nil {
		// The entity is considered still live; a retry is expected to
		// succeed or require manual intervention.
		if unclaimErr := b.registry.Unclaim(req.Name); unclaimErr != nil {
			b.logger.Error("unclaim after failed destroy", "entity", req.Name, "error", unclaimErr)
		}
		b.logger.Warn("kill destroy failed", "entity", req.Name, "request_id", req.RequestID, "error", err)
		p.finish(core.StatusDestructionFailed)
		return core.KillResponse{RequestID: req.RequestID, Status: core.StatusDestructionFailed}
	}

	if err := b.registry.Release(req.Name); err != nil {
		b.logger.Error("release after destroy", "entity", req.Name, "error", err)
	}

	p.advance(phaseResponding)
	b.logger.Info("killed entity", "entity", req.Name, "request_id", req.RequestID, "duration", time.Since(start))
	p.finish(core.StatusOK)
	return core.KillResponse{RequestID: req.RequestID, Status: core.StatusOK}
}

func validateSpawn(req core.SpawnRequest) error {
	if req.RequestID == "" {
		return fmt.Errorf("%w: missing request_id", core.ErrInvalidPayload)
	}
	if req.Name != "" && !nameRe.MatchString(req.Name) {
		return fmt.Errorf("%w: bad entity name %q", core.ErrInvalidPayload, req.Name)
	}
	return nil
}

func validateKill(req core.KillRequest) error {
	if req.RequestID == "" {
		return fmt.Errorf("%w: missing request_id", core.ErrInvalidPayload)
	}
	if req.Name == "" || !nameRe.MatchString(req.Name) {
		return fmt.Errorf("%w: bad entity name %q", core.ErrInvalidPayload, req.Name)
	}
	return nil
}
