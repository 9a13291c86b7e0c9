package particle

import (
	"math"
	"math/rand/v2"
)

// Default field parameters.
const (
	DefaultCount              = 50
	DefaultConnectionDistance = 150.0
	DefaultMinRadius          = 1.0
	DefaultMaxRadius          = 3.0
	DefaultMinOpacity         = 0.1
	DefaultMaxOpacity         = 0.6
	DefaultSpeed              = 0.5
	DefaultConnectionOpacity  = 0.15
)

// Particle is a single moving dot. Radius and Opacity never change after
// creation.
type Particle struct {
	X, Y    float64
	VX, VY  float64
	Radius  float64
	Opacity float64
}

// Config controls how particles are created and connected.
type Config struct {
	Count              int
	ConnectionDistance float64
	MinRadius          float64
	MaxRadius          float64
	MinOpacity         float64
	MaxOpacity         float64
	Speed              float64 // total velocity range per axis, centred on zero
	ConnectionOpacity  float64 // line opacity at zero distance
}

// DefaultConfig returns the standard 50 particle configuration.
func DefaultConfig() Config {
	return Config{
		Count:              DefaultCount,
		ConnectionDistance: DefaultConnectionDistance,
		MinRadius:          DefaultMinRadius,
		MaxRadius:          DefaultMaxRadius,
		MinOpacity:         DefaultMinOpacity,
		MaxOpacity:         DefaultMaxOpacity,
		Speed:              DefaultSpeed,
		ConnectionOpacity:  DefaultConnectionOpacity,
	}
}

// Field is a fixed-size set of particles bounded by a viewport.
type Field struct {
	cfg       Config
	rng       *rand.Rand
	width     float64
	height    float64
	particles []Particle
}

// NewField creates an empty field. Call Reset to populate it.
// A nil rng uses a randomly seeded source.
func NewField(cfg Config, rng *rand.Rand) *Field {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Field{cfg: cfg, rng: rng}
}

// Config returns the field configuration.
func (f *Field) Config() Config {
	return f.cfg
}

// Bounds returns the current viewport extent.
func (f *Field) Bounds() (width, height float64) {
	return f.width, f.height
}

// Particles returns the live particle slice. Callers must not retain it
// across Reset.
func (f *Field) Particles() []Particle {
	return f.particles
}

// Reset discards every particle and creates Count new ones inside
// [0,width]x[0,height].
func (f *Field) Reset(width, height float64) {
	f.width = math.Max(width, 0)
	f.height = math.Max(height, 0)

	f.particles = make([]Particle, f.cfg.Count)
	for i := range f.particles {
		f.particles[i] = Particle{
			X:       f.rng.Float64() * f.width,
			Y:       f.rng.Float64() * f.height,
			VX:      (f.rng.Float64() - 0.5) * f.cfg.Speed,
			VY:      (f.rng.Float64() - 0.5) * f.cfg.Speed,
			Radius:  uniform(f.rng, f.cfg.MinRadius, f.cfg.MaxRadius),
			Opacity: uniform(f.rng, f.cfg.MinOpacity, f.cfg.MaxOpacity),
		}
	}
}

// Step advances every particle by one frame.
func (f *Field) Step() {
	for i := range f.particles {
		f.particles[i].Step(f.width, f.height)
	}
}

// Step integrates the particle and reflects it off the viewport edges.
// A component that leaves [0, extent] has its velocity inverted and its
// overshoot mirrored back inside.
func (p *Particle) Step(width, height float64) {
	p.X += p.VX
	p.Y += p.VY
	p.X, p.VX = reflect(p.X, p.VX, width)
	p.Y, p.VY = reflect(p.Y, p.VY, height)
}

func reflect(pos, vel, extent float64) (float64, float64) {
	switch {
	case pos < 0:
		pos, vel = -pos, -vel
	case pos > extent:
		pos, vel = 2*extent-pos, -vel
	default:
		return pos, vel
	}
	// Velocities larger than the extent (tiny viewports) can overshoot twice.
	return math.Min(math.Max(pos, 0), extent), vel
}

// Connections calls fn for every unordered pair of particles closer than
// the connection distance, with the line opacity for that distance.
func (f *Field) Connections(fn func(a, b Particle, opacity float64)) {
	ps := f.particles
	for i := 0; i < len(ps); i++ {
		for j := i + 1; j < len(ps); j++ {
			d := math.Hypot(ps[i].X-ps[j].X, ps[i].Y-ps[j].Y)
			if d < f.cfg.ConnectionDistance {
				fn(ps[i], ps[j], ConnectionOpacity(d, f.cfg.ConnectionDistance, f.cfg.ConnectionOpacity))
			}
		}
	}
}

// ConnectionOpacity falls off linearly from maxOpacity at distance 0 to 0
// at threshold.
func ConnectionOpacity(distance, threshold, maxOpacity float64) float64 {
	if threshold <= 0 || distance >= threshold {
		return 0
	}
	if distance <= 0 {
		return maxOpacity
	}
	return (1 - distance/threshold) * maxOpacity
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return rng.Float64()*(hi-lo) + lo
}
