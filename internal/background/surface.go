package background

import (
	"errors"

	"github.com/jmylchreest/backdrop/internal/particle"
)

// ErrSurfaceUnavailable is logged when no drawing surface can be acquired.
var ErrSurfaceUnavailable = errors.New("drawing surface unavailable")

// Color is an RGB colour with an opacity in [0,1].
type Color struct {
	particle.RGB
	A float64
}

// Surface is a drawing target measured in virtual pixels.
type Surface interface {
	Resize(width, height int)
	Clear()
	FillCircle(x, y, radius float64, c Color)
	Line(x0, y0, x1, y1 float64, c Color)
}

// SurfaceProvider acquires the drawing surface. It is called lazily the
// first time the renderer needs to draw or clear.
type SurfaceProvider func() (Surface, error)

// Viewport reports the drawable area in virtual pixels.
type Viewport interface {
	Size() (width, height int)

	// OnResize registers fn for size changes and returns a function that
	// removes it.
	OnResize(fn func()) (remove func())
}

// FrameID identifies a requested frame.
type FrameID uint64

// FrameScheduler runs a callback once on the next display refresh.
type FrameScheduler interface {
	RequestFrame(fn func()) FrameID

	// CancelFrame drops a pending frame. Unknown or already-run ids are
	// ignored.
	CancelFrame(id FrameID)
}
