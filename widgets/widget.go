// Package widgets implements the video display and playback control widgets.
package widgets

import (
	"image"
	"sync"
)

// Widget is a rectangular element of a widget tree. Geometry is in window
// coordinates.
type Widget interface {
	Geometry() image.Rectangle
	SetGeometry(r image.Rectangle)
	// SizeHint is the preferred size. A zero component means the widget
	// expands along that axis.
	SizeHint() image.Point
}

// Container is a widget with children.
type Container interface {
	Widget
	Children() []Widget
}

// base carries the geometry shared by all widgets.
type base struct {
	gmu  sync.RWMutex
	geom image.Rectangle
}

func (b *base) Geometry() image.Rectangle {
	b.gmu.RLock()
	defer b.gmu.RUnlock()
	return b.geom
}

func (b *base) SetGeometry(r image.Rectangle) {
	b.gmu.Lock()
	b.geom = r.Canon()
	b.gmu.Unlock()
}

func (b *base) Size() image.Point {
	return b.Geometry().Size()
}

// Walk visits w and its descendants depth first. fn returning false skips the
// children of that widget.
func Walk(w Widget, fn func(Widget) bool) {
	if w == nil || !fn(w) {
		return
	}
	if c, ok := w.(Container); ok {
		for _, child := range c.Children() {
			Walk(child, fn)
		}
	}
}
