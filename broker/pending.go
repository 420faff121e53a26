package broker

import (
	"time"

	"github.com/hupe1980/turtleherd/core"
	"github.com/hupe1980/turtleherd/logging"
)

// phase is the per-request state machine:
//
//	received -> validating -> executing -> responding -> done
//
// with failed reachable from any state. Transitions are linear within one
// handler goroutine; the type exists for tracing, not for coordination.
type phase string

const (
	phaseReceived   phase = "received"
	phaseValidating phase = "validating"
	phaseExecuting  phase = "executing"
	phaseResponding phase = "responding"
	phaseDone       phase = "done"
	phaseFailed     phase = "failed"
)

// pending tracks one in-flight request for the duration of its
// request/response cycle. Owned by the handler goroutine.
type pending struct {
	id      string
	kind    core.RequestKind
	arrived time.Time
	phase   phase
	logger  logging.Logger
}

func newPending(id string, kind core.RequestKind, logger logging.Logger) *pending {
	return &pending{id: id, kind: kind, arrived: time.Now(), phase: phaseReceived, logger: logger}
}

// advance moves the request to the next phase, tracing the transition.
func (p *pending) advance(next phase) {
	p.logger.Debug("request phase", "request_id", p.id, "kind", string(p.kind), "from", string(p.phase), "to", string(next))
	p.phase = next
}

// finish marks the terminal phase based on the response status.
func (p *pending) finish(status core.Status) {
	terminal := phaseDone
	if status != core.StatusOK {
		terminal = phaseFailed
	}
	p.advance(terminal)
	p.logger.Debug("request finished", "request_id", p.id, "kind", string(p.kind), "status", string(status), "elapsed", time.Since(p.arrived))
}
