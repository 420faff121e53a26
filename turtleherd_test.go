package turtleherd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/turtleherd/core"
	"github.com/hupe1980/turtleherd/internal/testutil"
)

func TestHerd_SpawnKillRoundTrip(t *testing.T) {
	surface := testutil.NewFakeSurface()
	herd := New(surface)

	resp := herd.Spawn(context.Background(), core.SpawnRequest{RequestID: core.NewID(), Name: "donatello"})
	require.Equal(t, core.StatusOK, resp.Status)
	assert.Equal(t, "donatello", resp.Name)
	assert.Equal(t, []string{"donatello"}, herd.Names())

	kill := herd.Kill(context.Background(), core.KillRequest{RequestID: core.NewID(), Name: "donatello"})
	assert.Equal(t, core.StatusOK, kill.Status)
	assert.Empty(t, herd.Names())
	assert.Equal(t, 0, surface.LiveCount())
}

func TestHerd_GeneratedNamesUseBaseName(t *testing.T) {
	herd := New(testutil.NewFakeSurface(), func(o *Options) {
		o.BaseName = "tortoise"
	})

	resp := herd.Spawn(context.Background(), core.SpawnRequest{RequestID: core.NewID()})
	require.Equal(t, core.StatusOK, resp.Status)
	assert.Equal(t, "tortoise0", resp.Name)
}

func TestHerd_ShutdownSweepsEverything(t *testing.T) {
	surface := testutil.NewFakeSurface()
	herd := New(surface)

	for _, name := range []string{"raphael", "leonardo", "michelangelo"} {
		resp := herd.Spawn(context.Background(), core.SpawnRequest{RequestID: core.NewID(), Name: name})
		require.Equal(t, core.StatusOK, resp.Status)
	}
	require.Equal(t, 3, surface.LiveCount())

	require.NoError(t, herd.Shutdown(context.Background()))
	assert.Empty(t, herd.Names())
	assert.Equal(t, 0, surface.LiveCount())
}

func TestHerd_ShutdownReportsStuckEntities(t *testing.T) {
	surface := testutil.NewFakeSurface()
	herd := New(surface)

	resp := herd.Spawn(context.Background(), core.SpawnRequest{RequestID: core.NewID(), Name: "splinter"})
	require.Equal(t, core.StatusOK, resp.Status)

	surface.FailDestroy(errors.New("sim wedged"))
	err := herd.Shutdown(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDestructionFailed)
	// The entity stays live and killable once the surface recovers.
	surface.FailDestroy(nil)
	assert.Equal(t, []string{"splinter"}, herd.Names())
	require.NoError(t, herd.Shutdown(context.Background()))
}

func TestHerd_ServeChannelPairs(t *testing.T) {
	herd := New(testutil.NewFakeSurface())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = herd.Serve(ctx)
	}()

	b := herd.Broker()
	b.SpawnRequests() <- core.SpawnRequest{RequestID: "r-1", Name: "april"}
	resp := <-b.SpawnResponses()
	assert.Equal(t, "r-1", resp.RequestID)
	assert.Equal(t, core.StatusOK, resp.Status)

	cancel()
	<-done
}
