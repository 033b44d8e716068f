package widgets

import "image"

type MouseButton int

const (
	NoButton MouseButton = iota
	LeftButton
	RightButton
	MiddleButton
)

type MouseEventType int

const (
	MousePress MouseEventType = iota
	MouseMove
	MouseRelease
)

// MouseEvent carries a position local to the receiving widget.
type MouseEvent struct {
	Type   MouseEventType
	Button MouseButton
	Pos    image.Point
}

// MouseHandler is implemented by widgets reacting to the mouse.
type MouseHandler interface {
	Widget
	HandleMouse(e MouseEvent)
}

// Dispatcher routes window mouse events to widgets. The widget receiving a
// press grabs the mouse until the release.
type Dispatcher struct {
	root Widget
	grab MouseHandler
}

func NewDispatcher(root Widget) *Dispatcher {
	return &Dispatcher{root: root}
}

// Dispatch takes an event with a window position.
func (d *Dispatcher) Dispatch(e MouseEvent) {
	target := d.grab
	if target == nil {
		target = HandlerAt(d.root, e.Pos)
	}
	if target == nil {
		return
	}

	switch e.Type {
	case MousePress:
		d.grab = target
	case MouseRelease:
		d.grab = nil
	}

	local := e
	local.Pos = e.Pos.Sub(target.Geometry().Min)
	target.HandleMouse(local)
}

// HandlerAt is the innermost mouse handler under pt.
func HandlerAt(root Widget, pt image.Point) MouseHandler {
	var found MouseHandler
	Walk(root, func(w Widget) bool {
		if !pt.In(w.Geometry()) {
			return false
		}
		if h, ok := w.(MouseHandler); ok {
			found = h
		}
		return true
	})
	return found
}
