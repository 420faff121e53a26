package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/turtleherd/core"
)

// FakeSurface is a scripted core.Surface for tests. It issues sequential
// handles, tracks every call, and can be told to fail specific names or all
// destroys. The optional Gate channel lets a test hold create calls open to
// provoke races.
type FakeSurface struct {
	mu sync.Mutex

	next     int
	live     map[core.Handle]string // handle -> entity name
	creates  int
	destroys int

	failCreate  map[string]error // entity name -> forced create error
	failDestroy error            // forced error for every destroy

	// Gate, when non-nil, is received from inside Create after the call is
	// counted, so tests can line up concurrent requests.
	Gate chan struct{}
}

// NewFakeSurface returns an empty fake surface.
func NewFakeSurface() *FakeSurface {
	return &FakeSurface{live: make(map[core.Handle]string), failCreate: make(map[string]error)}
}

// FailCreate forces Create for the named entity to fail with err.
func (f *FakeSurface) FailCreate(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failCreate[name] = err
}

// PassCreate removes a previously forced create failure.
func (f *FakeSurface) PassCreate(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failCreate, name)
}

// FailDestroy forces every Destroy to fail with err (nil restores success).
func (f *FakeSurface) FailDestroy(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failDestroy = err
}

// Create implements core.Surface.
func (f *FakeSurface) Create(ctx context.Context, name string, params core.SpawnParams) (core.Handle, error) {
	f.mu.Lock()
	f.creates++
	forced := f.failCreate[name]
	gate := f.Gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if forced != nil {
		return "", forced
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	handle := core.Handle(fmt.Sprintf("handle-%d", f.next))
	f.live[handle] = name
	return handle, nil
}

// Destroy implements core.Surface.
func (f *FakeSurface) Destroy(ctx context.Context, handle core.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroys++
	if f.failDestroy != nil {
		return f.failDestroy
	}
	if _, ok := f.live[handle]; !ok {
		return fmt.Errorf("destroy of unknown handle %q", handle)
	}
	delete(f.live, handle)
	return nil
}

// CreateCalls returns how many Create calls were made.
func (f *FakeSurface) CreateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creates
}

// DestroyCalls returns how many Destroy calls were made.
func (f *FakeSurface) DestroyCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.destroys
}

// LiveCount returns how many backing objects currently exist.
func (f *FakeSurface) LiveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

// LiveNames returns the names of all currently backed entities.
func (f *FakeSurface) LiveNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.live))
	for _, name := range f.live {
		names = append(names, name)
	}
	return names
}
