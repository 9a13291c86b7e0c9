// Package background renders the decorative particle field. The Renderer
// is a two-state machine (Idle, Running) driven by the reduced-motion
// signal; every collaborator it touches (surface, viewport, frame
// scheduler, clock) is injected so the TUI and tests can drive it.
package background

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/jmylchreest/backdrop/internal/debounce"
	"github.com/jmylchreest/backdrop/internal/particle"
	"github.com/jmylchreest/backdrop/internal/signal"
	"github.com/jmylchreest/backdrop/internal/theme"
)

// DefaultResizeDebounce coalesces drag-resizes before the field is rebuilt.
const DefaultResizeDebounce = 250 * time.Millisecond

// State is the renderer state.
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithField sets the particle configuration and random source.
func WithField(cfg particle.Config, rng *rand.Rand) Option {
	return func(r *Renderer) { r.field = particle.NewField(cfg, rng) }
}

// WithResizeDebounce overrides the resize quiet period.
func WithResizeDebounce(d time.Duration) Option {
	return func(r *Renderer) { r.resizeDelay = d }
}

// Renderer animates a particle field on a Surface.
//
// Start, Stop, frame callbacks, resize callbacks, debounce callbacks and
// reduced-motion callbacks must all run on one goroutine. The resolved
// theme is cached atomically and may be updated from any goroutine.
type Renderer struct {
	logger      *slog.Logger
	provider    SurfaceProvider
	surface     Surface
	viewport    Viewport
	frames      FrameScheduler
	clock       debounce.Clock
	motion      signal.Signal
	themes      *theme.Store
	field       *particle.Field
	resizeDelay time.Duration

	state       State
	started     bool
	frameID     FrameID
	hasFrame    bool
	resized     *debounce.Debouncer
	resizeOff   func()
	motionOff   func()
	themeOff    func()
	surfaceWarn bool

	dark      atomic.Bool
	drawCount uint64
}

// New creates an idle Renderer. A nil motion signal is treated as
// unavailable, which keeps the renderer idle.
func New(provider SurfaceProvider, viewport Viewport, frames FrameScheduler, clock debounce.Clock,
	motion signal.Signal, themes *theme.Store, opts ...Option) *Renderer {
	if motion == nil {
		motion = signal.Unavailable{}
	}

	r := &Renderer{
		logger:      slog.Default(),
		provider:    provider,
		viewport:    viewport,
		frames:      frames,
		clock:       clock,
		motion:      motion,
		themes:      themes,
		resizeDelay: DefaultResizeDebounce,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.field == nil {
		r.field = particle.NewField(particle.DefaultConfig(), nil)
	}
	r.resized = debounce.New(clock, r.resizeDelay, r.onResizeSettled)
	return r
}

// State returns the current state.
func (r *Renderer) State() State {
	return r.state
}

// Frames returns how many frames have been drawn.
func (r *Renderer) Frames() uint64 {
	return r.drawCount
}

// Field exposes the particle field.
func (r *Renderer) Field() *particle.Field {
	return r.field
}

// Dark reports the cached resolved theme.
func (r *Renderer) Dark() bool {
	return r.dark.Load()
}

// Start subscribes to the reduced-motion signal and the theme store, then
// enters Running unless reduced motion is requested or cannot be queried.
func (r *Renderer) Start() {
	if r.started {
		return
	}
	r.started = true

	if r.themes != nil {
		r.dark.Store(r.themes.Current().Resolved.IsDark())
		r.themeOff = r.themes.Subscribe(func(c theme.Change) {
			r.dark.Store(c.Resolved.IsDark())
		})
	}

	off, err := r.motion.Subscribe(r.onMotionChanged)
	if err != nil {
		r.logger.Debug("reduced motion changes unavailable", "error", err)
	}
	r.motionOff = off

	r.apply(r.reducedMotion())
}

// Stop returns to Idle and drops every subscription. It is safe to call
// repeatedly and with nothing pending.
func (r *Renderer) Stop() {
	if !r.started {
		return
	}
	r.started = false

	r.toIdle()

	if r.motionOff != nil {
		r.motionOff()
		r.motionOff = nil
	}
	if r.themeOff != nil {
		r.themeOff()
		r.themeOff = nil
	}
}

// onMotionChanged re-queries the signal: a change may leave it unqueryable,
// which the delivered value cannot express.
func (r *Renderer) onMotionChanged(bool) {
	if !r.started {
		return
	}
	reduced := r.reducedMotion()
	r.logger.Debug("reduced motion changed", "reduced", reduced)
	r.apply(reduced)
}

// reducedMotion fails safe: a signal that cannot be queried means reduced.
func (r *Renderer) reducedMotion() bool {
	reduced, err := r.motion.Current()
	if err != nil {
		r.logger.Debug("reduced motion unavailable, staying idle", "error", err)
		return true
	}
	return reduced
}

func (r *Renderer) apply(reduced bool) {
	if reduced {
		r.toIdle()
		return
	}
	r.toRunning()
}

// toRunning starts animating. Without a surface it stays Idle but keeps
// listening for resizes so the next settled resize retries.
func (r *Renderer) toRunning() {
	if r.state == Running {
		return
	}
	if r.resizeOff == nil {
		r.resizeOff = r.viewport.OnResize(r.resized.Trigger)
	}
	if r.acquire() == nil {
		return
	}

	r.state = Running
	r.resize()
	r.logger.Debug("background animation running")
	r.frame()
}

func (r *Renderer) toIdle() {
	if r.state == Running {
		if r.hasFrame {
			r.frames.CancelFrame(r.frameID)
			r.hasFrame = false
		}
		r.logger.Debug("background animation idle")
	}
	if r.resizeOff != nil {
		r.resizeOff()
		r.resizeOff = nil
	}
	r.resized.Cancel()
	r.state = Idle

	if s := r.acquire(); s != nil {
		s.Clear()
	}
}

// acquire returns the surface, asking the provider once per failure
// streak and logging only the first failure.
func (r *Renderer) acquire() Surface {
	if r.surface != nil {
		return r.surface
	}
	if r.provider == nil {
		r.warnSurface(ErrSurfaceUnavailable)
		return nil
	}

	s, err := r.provider()
	if err == nil && s == nil {
		err = ErrSurfaceUnavailable
	}
	if err != nil {
		r.warnSurface(err)
		return nil
	}
	r.surface = s
	r.surfaceWarn = false
	return s
}

func (r *Renderer) warnSurface(err error) {
	if r.surfaceWarn {
		return
	}
	r.surfaceWarn = true
	r.logger.Warn("background disabled", "error", err)
}

// resize applies the viewport size to the surface and rebuilds the field.
func (r *Renderer) resize() {
	w, h := r.viewport.Size()
	r.surface.Resize(w, h)
	r.field.Reset(float64(w), float64(h))
}

func (r *Renderer) onResizeSettled() {
	switch {
	case r.state == Running:
		r.resize()
	case r.started:
		r.apply(r.reducedMotion())
	}
}

// frame updates every particle before drawing any of them, so connection
// lines always see this frame's positions.
func (r *Renderer) frame() {
	r.hasFrame = false
	if r.state != Running {
		return
	}

	s := r.surface
	rgb := particle.Palette(r.dark.Load())

	s.Clear()
	r.field.Step()
	for _, p := range r.field.Particles() {
		s.FillCircle(p.X, p.Y, p.Radius, Color{RGB: rgb, A: p.Opacity})
	}
	r.field.Connections(func(a, b particle.Particle, opacity float64) {
		s.Line(a.X, a.Y, b.X, b.Y, Color{RGB: rgb, A: opacity})
	})
	r.drawCount++

	r.frameID = r.frames.RequestFrame(r.frame)
	r.hasFrame = true
}
