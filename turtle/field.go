package turtle

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/turtleherd/core"
)

// Field dimensions in meters, matching the classic simulator canvas.
const (
	DefaultWidth  = 11.09
	DefaultHeight = 11.09
)

// Random start poses land in the central region of the field so freshly
// hatched turtles do not pile up against a wall.
const (
	hatchMin = 3.5
	hatchMax = 6.5
)

// DefaultTurtleName is the turtle the simulator starts with. Bootstraps
// typically sweep it away before herding begins.
const DefaultTurtleName = "turtle1"

// Pose is a turtle's position and heading on the field.
type Pose struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

// Turtle is one live turtle on the field.
type Turtle struct {
	Name   string
	Handle core.Handle
	Pose   Pose
	R      uint8
	G      uint8
	B      uint8
}

// Options holds configuration overrides passed to NewField.
type Options struct {
	// Width and Height bound valid poses.
	Width  float64
	Height float64
	// Seed fixes the random pose generator; 0 seeds from entropy.
	Seed int64
	// DefaultTurtle pre-populates the field with DefaultTurtleName, the way
	// the classic simulator starts.
	DefaultTurtle bool
}

// Field is an in-memory turtle simulator surface. It is safe for
// concurrent access.
type Field struct {
	mu       sync.Mutex
	width    float64
	height   float64
	rng      *rand.Rand
	next     int
	byHandle map[core.Handle]*Turtle
}

var _ core.Surface = (*Field)(nil)

// NewField constructs an empty field with optional overrides.
func NewField(optFns ...func(o *Options)) *Field {
	opts := Options{Width: DefaultWidth, Height: DefaultHeight}
	for _, fn := range optFns {
		fn(&opts)
	}

	var rng *rand.Rand
	if opts.Seed != 0 {
		rng = rand.New(rand.NewSource(opts.Seed))
	} else {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	f := &Field{
		width:    opts.Width,
		height:   opts.Height,
		rng:      rng,
		byHandle: make(map[core.Handle]*Turtle),
	}
	if opts.DefaultTurtle {
		center := Pose{X: opts.Width / 2, Y: opts.Height / 2}
		f.place(DefaultTurtleName, center, 0xb3, 0xb8, 0xff)
	}
	return f
}

// Create implements core.Surface. Params may pin "x", "y", "theta" (JSON
// numbers) and pen color "r", "g", "b"; anything omitted is randomized the
// way the original herder seeded start locations. Out-of-bounds poses are
// rejected.
func (f *Field) Create(ctx context.Context, name string, params core.SpawnParams) (core.Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	pose := Pose{
		X:     f.uniformLocked(hatchMin, hatchMax),
		Y:     f.uniformLocked(hatchMin, hatchMax),
		Theta: f.uniformLocked(0, 2*math.Pi),
	}
	var (
		r, g, b uint8 = 0x45, 0x8f, 0x3a
		err     error
	)
	if pose.X, err = floatParam(params, "x", pose.X); err != nil {
		return "", err
	}
	if pose.Y, err = floatParam(params, "y", pose.Y); err != nil {
		return "", err
	}
	if pose.Theta, err = floatParam(params, "theta", pose.Theta); err != nil {
		return "", err
	}
	if r, err = colorParam(params, "r", r); err != nil {
		return "", err
	}
	if g, err = colorParam(params, "g", g); err != nil {
		return "", err
	}
	if b, err = colorParam(params, "b", b); err != nil {
		return "", err
	}
	if pose.X < 0 || pose.X > f.width || pose.Y < 0 || pose.Y > f.height {
		return "", fmt.Errorf("pose (%.2f, %.2f) is off the field", pose.X, pose.Y)
	}

	return f.place(name, pose, r, g, b).Handle, nil
}

// place registers a turtle under a fresh handle. Caller holds the mutex
// (or is the constructor, before the field is shared).
func (f *Field) place(name string, pose Pose, r, g, b uint8) *Turtle {
	f.next++
	tu := &Turtle{
		Name:   name,
		Handle: core.Handle(fmt.Sprintf("turtle-%d", f.next)),
		Pose:   pose,
		R:      r, G: g, B: b,
	}
	f.byHandle[tu.Handle] = tu
	return tu
}

// Destroy implements core.Surface. Unknown handles fail; the field never
// guesses which turtle a stale handle meant.
func (f *Field) Destroy(ctx context.Context, handle core.Handle) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byHandle[handle]; !ok {
		return fmt.Errorf("no turtle behind handle %q", handle)
	}
	delete(f.byHandle, handle)
	return nil
}

// PoseOf returns the pose behind a handle.
func (f *Field) PoseOf(handle core.Handle) (Pose, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tu, ok := f.byHandle[handle]
	if !ok {
		return Pose{}, false
	}
	return tu.Pose, true
}

// Turtles returns a snapshot of all live turtles.
func (f *Field) Turtles() []Turtle {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Turtle, 0, len(f.byHandle))
	for _, tu := range f.byHandle {
		out = append(out, *tu)
	}
	return out
}

// Count returns the number of live turtles.
func (f *Field) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byHandle)
}

func (f *Field) uniformLocked(lo, hi float64) float64 {
	return lo + f.rng.Float64()*(hi-lo)
}

// colorParam reads a pen color channel, clamping nothing: values outside
// 0-255 are rejected.
func colorParam(params core.SpawnParams, key string, fallback uint8) (uint8, error) {
	v, err := floatParam(params, key, float64(fallback))
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 255 {
		return 0, fmt.Errorf("param %q: %v outside 0-255", key, v)
	}
	return uint8(v), nil
}

// floatParam reads a numeric param, tolerating the types JSON and YAML
// decoding produce.
func floatParam(params core.SpawnParams, key string, fallback float64) (float64, error) {
	v, ok := params[key]
	if !ok {
		return fallback, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("param %q: expected number, got %T", key, v)
	}
}
