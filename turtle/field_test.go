package turtle

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/turtleherd/core"
)

// Interface compliance (compile-time assertion)
var _ core.Surface = (*Field)(nil)

func TestField_CreateRandomPoseWithinHatchRegion(t *testing.T) {
	f := NewField(func(o *Options) { o.Seed = 42 })

	handle, err := f.Create(context.Background(), "t1", nil)
	require.NoError(t, err)

	pose, ok := f.PoseOf(handle)
	require.True(t, ok)
	assert.GreaterOrEqual(t, pose.X, hatchMin)
	assert.LessOrEqual(t, pose.X, hatchMax)
	assert.GreaterOrEqual(t, pose.Y, hatchMin)
	assert.LessOrEqual(t, pose.Y, hatchMax)
	assert.GreaterOrEqual(t, pose.Theta, 0.0)
	assert.Less(t, pose.Theta, 2*math.Pi)
}

func TestField_CreatePinnedPose(t *testing.T) {
	f := NewField()

	handle, err := f.Create(context.Background(), "t2", core.SpawnParams{"x": 1.5, "y": 2.5, "theta": 0.25})
	require.NoError(t, err)

	pose, ok := f.PoseOf(handle)
	require.True(t, ok)
	assert.Equal(t, Pose{X: 1.5, Y: 2.5, Theta: 0.25}, pose)
}

func TestField_CreateRejectsBadParams(t *testing.T) {
	f := NewField()
	ctx := context.Background()

	_, err := f.Create(ctx, "off", core.SpawnParams{"x": 99.0})
	assert.Error(t, err)

	_, err = f.Create(ctx, "typed", core.SpawnParams{"x": "east"})
	assert.Error(t, err)

	_, err = f.Create(ctx, "hue", core.SpawnParams{"r": 999})
	assert.Error(t, err)

	assert.Zero(t, f.Count(), "failed creates must not leave turtles behind")
}

func TestField_DestroyUnknownHandle(t *testing.T) {
	f := NewField()
	err := f.Destroy(context.Background(), "turtle-404")
	assert.Error(t, err)
}

func TestField_DestroyIsNotIdempotent(t *testing.T) {
	f := NewField()

	handle, err := f.Create(context.Background(), "t3", nil)
	require.NoError(t, err)

	require.NoError(t, f.Destroy(context.Background(), handle))
	assert.Error(t, f.Destroy(context.Background(), handle))
}

func TestField_DefaultTurtle(t *testing.T) {
	f := NewField(func(o *Options) { o.DefaultTurtle = true })

	turtles := f.Turtles()
	require.Len(t, turtles, 1)
	assert.Equal(t, DefaultTurtleName, turtles[0].Name)

	// The bootstrap sweep destroys it by handle, like the original herder
	// killing the simulator's starter turtle.
	require.NoError(t, f.Destroy(context.Background(), turtles[0].Handle))
	assert.Zero(t, f.Count())
}

func TestField_CancelledContext(t *testing.T) {
	f := NewField()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Create(ctx, "late", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
