package background

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/backdrop/internal/debounce"
	"github.com/jmylchreest/backdrop/internal/particle"
	"github.com/jmylchreest/backdrop/internal/signal"
	"github.com/jmylchreest/backdrop/internal/theme"
)

// fakeFrames runs requested frames only when Tick is called.
type fakeFrames struct {
	next    FrameID
	pending map[FrameID]func()
}

func newFakeFrames() *fakeFrames {
	return &fakeFrames{pending: make(map[FrameID]func())}
}

func (f *fakeFrames) RequestFrame(fn func()) FrameID {
	f.next++
	f.pending[f.next] = fn
	return f.next
}

func (f *fakeFrames) CancelFrame(id FrameID) {
	delete(f.pending, id)
}

// Tick runs the frames pending at the start of the tick.
func (f *fakeFrames) Tick() {
	due := f.pending
	f.pending = make(map[FrameID]func())
	for _, fn := range due {
		fn()
	}
}

type fakeViewport struct {
	w, h      int
	listeners map[int]func()
	nextID    int
}

func newFakeViewport(w, h int) *fakeViewport {
	return &fakeViewport{w: w, h: h, listeners: make(map[int]func())}
}

func (v *fakeViewport) Size() (int, int) { return v.w, v.h }

func (v *fakeViewport) OnResize(fn func()) func() {
	id := v.nextID
	v.nextID++
	v.listeners[id] = fn
	return func() { delete(v.listeners, id) }
}

func (v *fakeViewport) resize(w, h int) {
	v.w, v.h = w, h
	for _, fn := range v.listeners {
		fn()
	}
}

// recordingSurface counts draw calls since the last Clear.
type recordingSurface struct {
	width, height int
	resizes       int
	clears        int
	circles       []Color
	lines         []Color
}

func (s *recordingSurface) Resize(w, h int) {
	s.width, s.height = w, h
	s.resizes++
}

func (s *recordingSurface) Clear() {
	s.clears++
	s.circles = nil
	s.lines = nil
}

func (s *recordingSurface) FillCircle(_, _, _ float64, c Color) {
	s.circles = append(s.circles, c)
}

func (s *recordingSurface) Line(_, _, _, _ float64, c Color) {
	s.lines = append(s.lines, c)
}

type harness struct {
	surface  *recordingSurface
	viewport *fakeViewport
	frames   *fakeFrames
	clock    *debounce.ManualClock
	motion   *signal.Value
	themes   *theme.Store
	renderer *Renderer
}

func newHarness(t *testing.T, reduced bool) *harness {
	t.Helper()

	h := &harness{
		surface:  &recordingSurface{},
		viewport: newFakeViewport(800, 600),
		frames:   newFakeFrames(),
		clock:    debounce.NewManualClock(),
		motion:   signal.NewValue(reduced),
		themes:   theme.NewStore(nil, signal.NewValue(false)),
	}
	h.themes.Initialize()
	h.renderer = New(
		func() (Surface, error) { return h.surface, nil },
		h.viewport, h.frames, h.clock, h.motion, h.themes,
		WithField(particle.DefaultConfig(), rand.New(rand.NewPCG(1, 2))),
	)
	t.Cleanup(h.renderer.Stop)
	return h
}

func TestRenderer_StartRunsFirstFrame(t *testing.T) {
	h := newHarness(t, false)
	h.renderer.Start()

	assert.Equal(t, Running, h.renderer.State())
	assert.Equal(t, uint64(1), h.renderer.Frames())
	assert.Len(t, h.frames.pending, 1)
	assert.Equal(t, 800, h.surface.width)
	assert.Equal(t, 600, h.surface.height)
	assert.Len(t, h.surface.circles, particle.DefaultCount)

	for i := 0; i < 5; i++ {
		h.frames.Tick()
	}
	assert.Equal(t, uint64(6), h.renderer.Frames())
	assert.Len(t, h.frames.pending, 1, "exactly one frame outstanding")
}

func TestRenderer_ReducedMotionStaysIdle(t *testing.T) {
	h := newHarness(t, true)
	h.renderer.Start()
	h.frames.Tick()

	assert.Equal(t, Idle, h.renderer.State())
	assert.Empty(t, h.frames.pending)
	assert.Zero(t, h.renderer.Frames())
	assert.Positive(t, h.surface.clears, "surface cleared")
	assert.Empty(t, h.surface.circles)
	assert.Empty(t, h.viewport.listeners)
}

func TestRenderer_UnavailableMotionSignalStaysIdle(t *testing.T) {
	surface := &recordingSurface{}
	r := New(func() (Surface, error) { return surface, nil },
		newFakeViewport(100, 100), newFakeFrames(), debounce.NewManualClock(), signal.Unavailable{}, nil)
	r.Start()
	defer r.Stop()

	assert.Equal(t, Idle, r.State())
	assert.Zero(t, r.Frames())
}

func TestRenderer_MotionChangesSwitchState(t *testing.T) {
	h := newHarness(t, false)
	h.renderer.Start()
	require.Equal(t, Running, h.renderer.State())

	h.motion.Set(true)
	assert.Equal(t, Idle, h.renderer.State())
	assert.Empty(t, h.frames.pending, "pending frame cancelled")
	assert.Empty(t, h.viewport.listeners, "resize listener detached")
	assert.Empty(t, h.surface.circles, "surface cleared")

	frames := h.renderer.Frames()
	h.frames.Tick()
	assert.Equal(t, frames, h.renderer.Frames())

	h.motion.Set(false)
	assert.Equal(t, Running, h.renderer.State())
	assert.Len(t, h.frames.pending, 1)
	assert.Len(t, h.viewport.listeners, 1)
}

func TestRenderer_GoesIdleWhenMotionBecomesUnqueryable(t *testing.T) {
	surface := &recordingSurface{}
	frames := newFakeFrames()
	viewport := newFakeViewport(100, 100)
	motion := signal.NewOverride(signal.Unavailable{}, signal.ModeOff)
	r := New(func() (Surface, error) { return surface, nil },
		viewport, frames, debounce.NewManualClock(), motion, nil)
	r.Start()
	defer r.Stop()
	require.Equal(t, Running, r.State())

	motion.SetMode(signal.ModeAuto)
	assert.Equal(t, Idle, r.State())
	assert.Empty(t, frames.pending)
	assert.Empty(t, viewport.listeners)
}

func TestRenderer_ResizeIsDebounced(t *testing.T) {
	h := newHarness(t, false)
	h.renderer.Start()
	require.Equal(t, 1, h.surface.resizes)

	h.viewport.resize(1000, 700)
	h.clock.Advance(100 * time.Millisecond)
	h.viewport.resize(1200, 900)
	h.clock.Advance(200 * time.Millisecond)
	assert.Equal(t, 1, h.surface.resizes, "still inside the quiet period")

	h.clock.Advance(50 * time.Millisecond)
	assert.Equal(t, 2, h.surface.resizes)
	assert.Equal(t, 1200, h.surface.width)
	assert.Equal(t, 900, h.surface.height)

	w, hh := h.renderer.Field().Bounds()
	assert.Equal(t, 1200.0, w)
	assert.Equal(t, 900.0, hh)
	for _, p := range h.renderer.Field().Particles() {
		assert.LessOrEqual(t, p.X, 1200.0)
		assert.LessOrEqual(t, p.Y, 900.0)
	}
}

func TestRenderer_PendingResizeDroppedOnStop(t *testing.T) {
	h := newHarness(t, false)
	h.renderer.Start()

	h.viewport.resize(300, 300)
	h.renderer.Stop()
	h.clock.Advance(time.Second)

	assert.Equal(t, 1, h.surface.resizes)
	assert.Equal(t, Idle, h.renderer.State())
	assert.Equal(t, 0, h.motion.Subscribers())
}

func TestRenderer_SurfaceUnavailable(t *testing.T) {
	calls := 0
	frames := newFakeFrames()
	r := New(func() (Surface, error) {
		calls++
		return nil, errors.New("no tty")
	}, newFakeViewport(100, 100), frames, debounce.NewManualClock(), signal.NewValue(false), nil)

	assert.NotPanics(t, r.Start)
	assert.Equal(t, Idle, r.State())
	assert.Empty(t, frames.pending)
	assert.Positive(t, calls)
	assert.NotPanics(t, r.Stop)
}

func TestRenderer_SurfaceRetriedOnResize(t *testing.T) {
	var surface Surface
	calls := 0
	frames := newFakeFrames()
	viewport := newFakeViewport(100, 100)
	clock := debounce.NewManualClock()
	r := New(func() (Surface, error) {
		calls++
		if surface == nil {
			return nil, errors.New("no tty")
		}
		return surface, nil
	}, viewport, frames, clock, signal.NewValue(false), nil)
	r.Start()
	defer r.Stop()

	require.Equal(t, Idle, r.State())
	assert.Len(t, viewport.listeners, 1, "waiting for a resize to retry")

	rec := &recordingSurface{}
	surface = rec
	viewport.resize(200, 100)
	clock.Advance(DefaultResizeDebounce)

	assert.Equal(t, Running, r.State())
	assert.Equal(t, 200, rec.width)
	assert.Len(t, frames.pending, 1)
	assert.Len(t, viewport.listeners, 1)
}

func TestRenderer_FollowsTheme(t *testing.T) {
	h := newHarness(t, false)
	h.renderer.Start()

	require.NotEmpty(t, h.surface.circles)
	assert.Equal(t, particle.LightColor, h.surface.circles[0].RGB)

	require.NoError(t, h.themes.SetPreference(theme.Dark))
	assert.True(t, h.renderer.Dark())
	h.frames.Tick()
	assert.Equal(t, particle.DarkColor, h.surface.circles[0].RGB)
	for _, c := range h.surface.lines {
		assert.Equal(t, particle.DarkColor, c.RGB)
		assert.LessOrEqual(t, c.A, particle.DefaultConnectionOpacity)
	}
}

func TestRenderer_StopIsIdempotent(t *testing.T) {
	h := newHarness(t, false)
	assert.NotPanics(t, h.renderer.Stop, "stop before start")

	h.renderer.Start()
	h.renderer.Stop()
	assert.NotPanics(t, h.renderer.Stop)
	assert.Empty(t, h.frames.pending)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "State(7)", State(7).String())
}
