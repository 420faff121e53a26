package wsbridge

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/turtleherd/broker"
	"github.com/hupe1980/turtleherd/core"
	"github.com/hupe1980/turtleherd/hatchling"
	"github.com/hupe1980/turtleherd/internal/testutil"
	"github.com/hupe1980/turtleherd/registry"
	"github.com/hupe1980/turtleherd/supervisor"
)

// Interface compliance (compile-time assertions)
var (
	_ Handler        = (*broker.Broker)(nil)
	_ hatchling.Conn = (*Client)(nil)
)

func startGateway(t *testing.T) (*httptest.Server, *testutil.FakeSurface) {
	t.Helper()
	surface := testutil.NewFakeSurface()
	b := broker.New(registry.NewInMemory(), supervisor.New(surface))
	srv := httptest.NewServer(NewGateway(b).Routes())
	t.Cleanup(srv.Close)
	return srv, surface
}

func dial(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := Dial(context.Background(), srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBridge_RoundTrip(t *testing.T) {
	srv, surface := startGateway(t)
	bridge := dial(t, srv)

	client := hatchling.New(bridge)
	ctx := context.Background()

	name, err := client.Spawn(ctx, core.SpawnRequest{Name: "remote1"})
	require.NoError(t, err)
	assert.Equal(t, "remote1", name)
	assert.Equal(t, 1, surface.LiveCount())

	require.NoError(t, client.Kill(ctx, "remote1"))
	assert.Zero(t, surface.LiveCount())
}

func TestBridge_StatusesCrossTheWire(t *testing.T) {
	srv, _ := startGateway(t)
	client := hatchling.New(dial(t, srv))
	ctx := context.Background()

	_, err := client.Spawn(ctx, core.SpawnRequest{Name: "dup"})
	require.NoError(t, err)
	_, err = client.Spawn(ctx, core.SpawnRequest{Name: "dup"})
	assert.ErrorIs(t, err, core.ErrNameInUse)

	assert.ErrorIs(t, client.Kill(ctx, "missing"), core.ErrNotFound)
}

func TestBridge_ConcurrentRequestsShareOneSocket(t *testing.T) {
	srv, _ := startGateway(t)
	client := hatchling.New(dial(t, srv))

	const callers = 8
	names := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			names[i], errs[i] = client.Spawn(context.Background(), core.SpawnRequest{})
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, callers)
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[names[i]], "duplicate name %q", names[i])
		seen[names[i]] = true
	}
}

func TestBridge_CloseShutsDownResponseChannels(t *testing.T) {
	srv, _ := startGateway(t)
	bridge := dial(t, srv)

	require.NoError(t, bridge.Close())

	select {
	case _, open := <-bridge.SpawnResponses():
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("spawn response channel did not close")
	}
	select {
	case _, open := <-bridge.KillResponses():
		assert.False(t, open)
	case <-time.After(2 * time.Second):
		t.Fatal("kill response channel did not close")
	}
}

func TestBridge_MixedEndpointDispatches(t *testing.T) {
	srv, surface := startGateway(t)

	conn, _, err := websocket.DefaultDialer.Dial(
		"ws"+strings.TrimPrefix(srv.URL, "http")+MixedPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	sreq := core.SpawnRequest{RequestID: core.NewID(), Name: "mixed1"}
	require.NoError(t, conn.WriteJSON(core.Request{Kind: core.KindSpawn, Spawn: &sreq}))

	var resp core.Response
	require.NoError(t, conn.ReadJSON(&resp))
	require.NotNil(t, resp.Spawn)
	assert.Equal(t, sreq.RequestID, resp.ID())
	assert.Equal(t, core.StatusOK, resp.Spawn.Status)
	assert.Equal(t, "mixed1", resp.Spawn.Name)
	assert.Equal(t, 1, surface.LiveCount())

	kreq := core.KillRequest{RequestID: core.NewID(), Name: "mixed1"}
	require.NoError(t, conn.WriteJSON(core.Request{Kind: core.KindKill, Kill: &kreq}))

	require.NoError(t, conn.ReadJSON(&resp))
	require.NotNil(t, resp.Kill)
	assert.Equal(t, kreq.RequestID, resp.ID())
	assert.Equal(t, core.StatusOK, resp.Kill.Status)
	assert.Zero(t, surface.LiveCount())
}

func TestBridge_GatewayHonorsBrokerAdmissionLimit(t *testing.T) {
	surface := testutil.NewFakeSurface()
	surface.Gate = make(chan struct{})
	b := broker.New(registry.NewInMemory(), supervisor.New(surface), func(o *broker.Options) {
		o.MaxConcurrentRequests = 1
	})
	srv := httptest.NewServer(NewGateway(b).Routes())
	t.Cleanup(srv.Close)
	bridge := dial(t, srv)

	bridge.SpawnRequests() <- core.SpawnRequest{RequestID: "g-1", Name: "first"}
	require.Eventually(t, func() bool { return surface.CreateCalls() == 1 }, 2*time.Second, 5*time.Millisecond)

	// The second frame arrives over the socket but must wait for
	// admission; it never touches the surface while the slot is held.
	bridge.SpawnRequests() <- core.SpawnRequest{RequestID: "g-2", Name: "second"}
	select {
	case resp := <-bridge.SpawnResponses():
		t.Fatalf("unexpected response %q past a saturated limiter", resp.RequestID)
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, 1, surface.CreateCalls())

	surface.Gate <- struct{}{}
	surface.Gate <- struct{}{}

	got := map[string]core.Status{}
	for i := 0; i < 2; i++ {
		select {
		case resp := <-bridge.SpawnResponses():
			got[resp.RequestID] = resp.Status
		case <-time.After(2 * time.Second):
			t.Fatal("missing spawn response after the slot freed")
		}
	}
	assert.Equal(t, map[string]core.Status{"g-1": core.StatusOK, "g-2": core.StatusOK}, got)
}
