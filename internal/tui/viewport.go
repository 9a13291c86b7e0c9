package tui

import (
	"maps"
	"slices"
)

// cellViewport exposes the canvas area of the terminal in virtual pixels.
type cellViewport struct {
	cols, rows   int
	cellW, cellH int

	nextID    int
	listeners map[int]func()
}

func newCellViewport(cellW, cellH int) *cellViewport {
	return &cellViewport{cellW: cellW, cellH: cellH, listeners: make(map[int]func())}
}

// Size implements background.Viewport.
func (v *cellViewport) Size() (int, int) {
	return v.cols * v.cellW, v.rows * v.cellH
}

// OnResize implements background.Viewport.
func (v *cellViewport) OnResize(fn func()) func() {
	id := v.nextID
	v.nextID++
	v.listeners[id] = fn
	return func() { delete(v.listeners, id) }
}

// setCells updates the canvas area and notifies listeners on change.
func (v *cellViewport) setCells(cols, rows int) {
	cols, rows = max(cols, 0), max(rows, 0)
	if cols == v.cols && rows == v.rows {
		return
	}
	v.cols, v.rows = cols, rows
	for _, id := range slices.Sorted(maps.Keys(v.listeners)) {
		if fn, ok := v.listeners[id]; ok {
			fn()
		}
	}
}
