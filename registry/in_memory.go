package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/turtleherd/core"
)

// phase tracks where an entry sits in its lifecycle. All transitions happen
// under the store mutex, which is the single-writer discipline the broker
// relies on.
type phase int

const (
	phaseReserved phase = iota // name taken, backing object not yet confirmed
	phaseLive                  // backing object confirmed created
	phaseClaimed               // kill in flight, at most one per entry
)

type entry struct {
	phase  phase
	record core.Record
}

// Options holds configuration overrides passed to NewInMemory.
type Options struct {
	// BaseName is the prefix used for generated names ("turtle" yields
	// turtle0, turtle1, ...).
	BaseName string
}

// InMemory is a process-local core.Registry implementation storing entries
// in a mutex-guarded map. It is safe for concurrent access. Generated names
// use a monotonic counter, so a freed generated name is never reissued by
// the generator (explicit requests may still re-take it).
type InMemory struct {
	mu       sync.Mutex
	entries  map[string]*entry
	baseName string
	next     int
}

var _ core.Registry = (*InMemory)(nil)

// NewInMemory constructs an empty registry with optional overrides.
func NewInMemory(optFns ...func(o *Options)) *InMemory {
	opts := Options{BaseName: "turtle"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &InMemory{entries: make(map[string]*entry), baseName: opts.BaseName}
}

// Allocate reserves the requested name, or generates a fresh one when the
// request is empty. Reservation and presence-check are a single atomic
// step under the store mutex.
func (r *InMemory) Allocate(requested string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := requested
	if name == "" {
		name = r.generateLocked()
	} else if _, taken := r.entries[name]; taken {
		return "", fmt.Errorf("allocate %q: %w", name, core.ErrNameInUse)
	}

	r.entries[name] = &entry{phase: phaseReserved, record: core.Record{Name: name}}
	return name, nil
}

// generateLocked returns the next free generated name. Caller holds the
// mutex. The counter only moves forward, but generated names can still
// collide with explicitly requested ones, so each candidate is checked.
func (r *InMemory) generateLocked() string {
	for {
		name := fmt.Sprintf("%s%d", r.baseName, r.next)
		r.next++
		if _, taken := r.entries[name]; !taken {
			return name
		}
	}
}

// Bind promotes a reservation to live once the backing object is confirmed.
func (r *InMemory) Bind(name string, handle core.Handle, params core.SpawnParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok || e.phase != phaseReserved {
		return fmt.Errorf("bind %q: no reservation: %w", name, core.ErrNotFound)
	}
	e.phase = phaseLive
	e.record = core.Record{Name: name, Params: params.Clone(), Handle: handle, Created: time.Now().UTC()}
	return nil
}

// Claim marks a live entry as having a kill in flight and returns a copy of
// its record. Reserved or already-claimed entries read as absent, which is
// what makes the identical-kill-twice race resolve to one Ok and one
// NotFound.
func (r *InMemory) Claim(name string) (*core.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok || e.phase != phaseLive {
		return nil, fmt.Errorf("claim %q: %w", name, core.ErrNotFound)
	}
	e.phase = phaseClaimed
	rec := e.record
	rec.Params = e.record.Params.Clone()
	return &rec, nil
}

// Unclaim restores a claimed entry to live after a failed destroy.
func (r *InMemory) Unclaim(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok || e.phase != phaseClaimed {
		return fmt.Errorf("unclaim %q: %w", name, core.ErrNotFound)
	}
	e.phase = phaseLive
	return nil
}

// Release removes an entry. It accepts claimed entries (confirmed destroy)
// and reservations (creation rollback); releasing a live entry would let a
// destroy race past the claim step, so that is rejected too.
func (r *InMemory) Release(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok || e.phase == phaseLive {
		return fmt.Errorf("release %q: %w", name, core.ErrNotFound)
	}
	delete(r.entries, name)
	return nil
}

// Exists reports whether the name is currently live. Reservations and
// claimed entries are not visible here.
func (r *InMemory) Exists(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	return ok && e.phase == phaseLive
}

// Names returns a snapshot of all live names. The slice is safe for caller
// mutation.
func (r *InMemory) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.entries))
	for name, e := range r.entries {
		if e.phase == phaseLive {
			names = append(names, name)
		}
	}
	return names
}

// Len returns the number of live entries.
func (r *InMemory) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.phase == phaseLive {
			n++
		}
	}
	return n
}
