package background

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/jmylchreest/backdrop/internal/particle"
)

// Default virtual pixel size of one terminal cell.
const (
	DefaultCellWidth  = 8
	DefaultCellHeight = 16
)

// Page backgrounds the particle colour is blended over.
var (
	LightBackground = particle.RGB{R: 255, G: 255, B: 255}
	DarkBackground  = particle.RGB{R: 15, G: 23, B: 42}
)

// braille dot bits indexed by [row][column] within a 2x4 cell.
var brailleBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

const brailleBase = 0x2800

type cell struct {
	dots  rune
	color Color
}

// Canvas is a Surface that rasterises onto a grid of braille cells. Each
// cell holds 2x4 dots; a cell takes the colour of its most opaque mark.
type Canvas struct {
	cellW, cellH int
	width        int
	height       int
	cols, rows   int
	cells        []cell
}

// NewCanvas creates an empty canvas. Non-positive cell sizes fall back to
// the defaults.
func NewCanvas(cellWidth, cellHeight int) *Canvas {
	if cellWidth <= 0 {
		cellWidth = DefaultCellWidth
	}
	if cellHeight <= 0 {
		cellHeight = DefaultCellHeight
	}
	return &Canvas{cellW: cellWidth, cellH: cellHeight}
}

// CellSize returns the virtual pixel size of one cell.
func (c *Canvas) CellSize() (width, height int) {
	return c.cellW, c.cellH
}

// Grid returns the canvas size in terminal cells.
func (c *Canvas) Grid() (cols, rows int) {
	return c.cols, c.rows
}

// Resize sets the canvas size in virtual pixels and clears it.
func (c *Canvas) Resize(width, height int) {
	c.width = max(width, 0)
	c.height = max(height, 0)
	c.cols = (c.width + c.cellW - 1) / c.cellW
	c.rows = (c.height + c.cellH - 1) / c.cellH
	c.cells = make([]cell, c.cols*c.rows)
}

// Clear removes every mark.
func (c *Canvas) Clear() {
	clear(c.cells)
}

// Blank reports whether nothing is drawn.
func (c *Canvas) Blank() bool {
	for _, cl := range c.cells {
		if cl.dots != 0 {
			return false
		}
	}
	return true
}

// FillCircle marks every dot whose centre lies within radius of (x, y).
// The dot under the centre is always marked.
func (c *Canvas) FillCircle(x, y, radius float64, col Color) {
	dw, dh := c.dotSize()
	c.plot(x, y, col)

	x0, x1 := int(math.Floor((x-radius)/dw)), int(math.Floor((x+radius)/dw))
	y0, y1 := int(math.Floor((y-radius)/dh)), int(math.Floor((y+radius)/dh))
	for dy := y0; dy <= y1; dy++ {
		for dx := x0; dx <= x1; dx++ {
			cx := (float64(dx) + 0.5) * dw
			cy := (float64(dy) + 0.5) * dh
			if math.Hypot(cx-x, cy-y) <= radius {
				c.set(dx, dy, col)
			}
		}
	}
}

// Line marks the dots along the segment from (x0, y0) to (x1, y1).
func (c *Canvas) Line(x0, y0, x1, y1 float64, col Color) {
	dw, dh := c.dotSize()
	steps := int(math.Ceil(max(math.Abs(x1-x0)/dw, math.Abs(y1-y0)/dh)))
	if steps == 0 {
		c.plot(x0, y0, col)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		c.plot(x0+(x1-x0)*t, y0+(y1-y0)*t, col)
	}
}

// Render draws the canvas as rows of braille runes. Marked cells take the
// mark colour blended over the page background; empty cells are spaces on
// the page background.
func (c *Canvas) Render(dark bool) string {
	bg := toColorful(LightBackground)
	if dark {
		bg = toColorful(DarkBackground)
	}
	bgHex := bg.Hex()

	var b strings.Builder
	for row := 0; row < c.rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}

		var run strings.Builder
		runHex := ""
		flush := func() {
			if run.Len() == 0 {
				return
			}
			style := lipgloss.NewStyle().Background(lipgloss.Color(bgHex))
			if runHex != "" {
				style = style.Foreground(lipgloss.Color(runHex))
			}
			b.WriteString(style.Render(run.String()))
			run.Reset()
		}

		for col := 0; col < c.cols; col++ {
			cl := c.cells[row*c.cols+col]
			r, hex := ' ', ""
			if cl.dots != 0 {
				r = brailleBase + cl.dots
				hex = bg.BlendRgb(toColorful(cl.color.RGB), clamp01(cl.color.A)).Clamped().Hex()
			}
			if hex != runHex {
				flush()
				runHex = hex
			}
			run.WriteRune(r)
		}
		flush()
	}
	return b.String()
}

func (c *Canvas) dotSize() (float64, float64) {
	return float64(c.cellW) / 2, float64(c.cellH) / 4
}

func (c *Canvas) plot(x, y float64, col Color) {
	dw, dh := c.dotSize()
	c.set(int(math.Floor(x/dw)), int(math.Floor(y/dh)), col)
}

// set marks dot (dx, dy); dots outside the grid are dropped.
func (c *Canvas) set(dx, dy int, col Color) {
	if dx < 0 || dy < 0 {
		return
	}
	cx, cy := dx/2, dy/4
	if cx >= c.cols || cy >= c.rows {
		return
	}
	cl := &c.cells[cy*c.cols+cx]
	cl.dots |= brailleBits[dy%4][dx%2]
	if col.A >= cl.color.A {
		cl.color = col
	}
}

func toColorful(rgb particle.RGB) colorful.Color {
	return colorful.Color{R: float64(rgb.R) / 255, G: float64(rgb.G) / 255, B: float64(rgb.B) / 255}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
