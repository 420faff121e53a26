package hatchling

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/turtleherd/broker"
	"github.com/hupe1980/turtleherd/core"
	"github.com/hupe1980/turtleherd/internal/testutil"
	"github.com/hupe1980/turtleherd/registry"
	"github.com/hupe1980/turtleherd/supervisor"
)

// Conn compliance of the in-process broker (compile-time assertion)
var _ Conn = (*broker.Broker)(nil)

func startBroker(t *testing.T) (*broker.Broker, *testutil.FakeSurface) {
	t.Helper()
	surface := testutil.NewFakeSurface()
	b := broker.New(registry.NewInMemory(), supervisor.New(surface))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return b, surface
}

func TestClient_SpawnKillRoundTrip(t *testing.T) {
	b, surface := startBroker(t)
	c := New(b)
	ctx := context.Background()

	name, err := c.Spawn(ctx, core.SpawnRequest{Name: "kobuki"})
	require.NoError(t, err)
	assert.Equal(t, "kobuki", name)
	assert.Equal(t, 1, surface.LiveCount())

	require.NoError(t, c.Kill(ctx, "kobuki"))
	assert.Zero(t, surface.LiveCount())
}

func TestClient_StatusMapsToTaxonomyError(t *testing.T) {
	b, _ := startBroker(t)
	c := New(b)
	ctx := context.Background()

	_, err := c.Spawn(ctx, core.SpawnRequest{Name: "guimul"})
	require.NoError(t, err)

	_, err = c.Spawn(ctx, core.SpawnRequest{Name: "guimul"})
	assert.ErrorIs(t, err, core.ErrNameInUse)

	err = c.Kill(ctx, "nobody")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestClient_Timeout(t *testing.T) {
	surface := testutil.NewFakeSurface()
	surface.Gate = make(chan struct{}) // never opened: create hangs
	b := broker.New(registry.NewInMemory(), supervisor.New(surface))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = b.Serve(ctx) }()

	c := New(b, func(o *Options) { o.Timeout = 50 * time.Millisecond })

	_, err := c.Spawn(context.Background(), core.SpawnRequest{Name: "stuck"})
	assert.ErrorIs(t, err, core.ErrTimeout)
}

func TestClient_ConcurrentCallersGetTheirOwnResponses(t *testing.T) {
	b, _ := startBroker(t)
	c := New(b)

	const callers = 8
	names := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			names[i], errs[i] = c.Spawn(context.Background(), core.SpawnRequest{})
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, callers)
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[names[i]], "caller %d received duplicate name %q", i, names[i])
		seen[names[i]] = true
	}
}

func TestClient_SelfRegistrationLifecycle(t *testing.T) {
	b, surface := startBroker(t)
	c := New(b)
	ctx := context.Background()

	// A hatchling spawns itself under its own name, then kills itself when
	// its controller detaches.
	name, err := c.Spawn(ctx, core.SpawnRequest{Name: "hatchling_01"})
	require.NoError(t, err)
	require.Equal(t, "hatchling_01", name)

	require.NoError(t, c.Kill(ctx, name))
	assert.ErrorIs(t, c.Kill(ctx, name), core.ErrNotFound)
	assert.Zero(t, surface.LiveCount())
}
