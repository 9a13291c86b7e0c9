package background

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/backdrop/internal/particle"
)

func TestCanvas_ResizeRoundsUpToCells(t *testing.T) {
	c := NewCanvas(0, 0)
	c.Resize(81, 33)

	cols, rows := c.Grid()
	assert.Equal(t, 11, cols)
	assert.Equal(t, 3, rows)
	assert.True(t, c.Blank())
}

func TestCanvas_FillCircleMarksCentre(t *testing.T) {
	c := NewCanvas(8, 16)
	c.Resize(16, 16)

	c.FillCircle(1, 1, 0.1, Color{RGB: particle.LightColor, A: 0.5})
	assert.False(t, c.Blank())
	assert.Equal(t, rune(0x01), c.cells[0].dots)
	assert.Zero(t, c.cells[1].dots)
}

func TestCanvas_LineSpansCells(t *testing.T) {
	c := NewCanvas(8, 16)
	c.Resize(32, 16)

	c.Line(0, 0, 31, 0, Color{RGB: particle.LightColor, A: 0.15})
	for i, cl := range c.cells {
		assert.NotZero(t, cl.dots, "cell %d", i)
	}
}

func TestCanvas_OutOfBoundsIgnored(t *testing.T) {
	c := NewCanvas(8, 16)
	c.Resize(16, 16)

	assert.NotPanics(t, func() {
		c.FillCircle(-50, -50, 3, Color{A: 1})
		c.Line(100, 100, 200, 200, Color{A: 1})
	})
	assert.True(t, c.Blank())
}

func TestCanvas_KeepsMostOpaqueColour(t *testing.T) {
	c := NewCanvas(8, 16)
	c.Resize(8, 16)

	c.FillCircle(1, 1, 0, Color{RGB: particle.DarkColor, A: 0.6})
	c.Line(0, 0, 7, 0, Color{RGB: particle.LightColor, A: 0.1})
	assert.Equal(t, particle.DarkColor, c.cells[0].color.RGB)
}

func TestCanvas_ClearAndRender(t *testing.T) {
	c := NewCanvas(8, 16)
	c.Resize(24, 32)

	out := c.Render(false)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	assert.NotContains(t, out, string(rune(brailleBase+1)))

	c.FillCircle(1, 1, 0, Color{RGB: particle.LightColor, A: 1})
	assert.Contains(t, c.Render(true), string(rune(brailleBase+1)))

	c.Clear()
	assert.True(t, c.Blank())
}
