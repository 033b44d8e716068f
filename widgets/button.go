package widgets

import (
	"image"
	"sync"

	"cvwidgets/util/signal"
)

// Icon is one of the standard media icons drawn by the painter.
type Icon int

const (
	NoIcon Icon = iota
	IconMediaPlay
	IconMediaPause
	IconMediaStop
)

func (i Icon) String() string {
	switch i {
	case IconMediaPlay:
		return "play"
	case IconMediaPause:
		return "pause"
	case IconMediaStop:
		return "stop"
	default:
		return "none"
	}
}

const defaultButtonSize = 32

// PushButton emits Clicked when pressed and released inside it.
type PushButton struct {
	base
	mu        sync.Mutex
	text      string
	icon      Icon
	checkable bool
	checked   bool
	down      bool

	// Clicked carries the checked state after the click.
	Clicked *signal.Signal[bool]
	Toggled *signal.Signal[bool]
}

func NewPushButton(text string) *PushButton {
	b := &PushButton{
		text:    text,
		Clicked: signal.New[bool](),
		Toggled: signal.New[bool](),
	}
	b.base.SetGeometry(image.Rect(0, 0, defaultButtonSize, defaultButtonSize))
	return b
}

func (b *PushButton) SizeHint() image.Point {
	b.mu.Lock()
	defer b.mu.Unlock()
	w := defaultButtonSize
	if b.text != "" {
		// rough width for the fallback face, 7px per glyph
		if tw := 7*len(b.text) + 16; tw > w {
			w = tw
		}
	}
	return image.Pt(w, defaultButtonSize)
}

func (b *PushButton) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

func (b *PushButton) SetText(text string) {
	b.mu.Lock()
	b.text = text
	b.mu.Unlock()
}

func (b *PushButton) Icon() Icon {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.icon
}

func (b *PushButton) SetIcon(icon Icon) {
	b.mu.Lock()
	b.icon = icon
	b.mu.Unlock()
}

func (b *PushButton) IsCheckable() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.checkable
}

func (b *PushButton) SetCheckable(on bool) {
	b.mu.Lock()
	b.checkable = on
	if !on {
		b.checked = false
	}
	b.mu.Unlock()
}

func (b *PushButton) IsChecked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.checked
}

// SetChecked emits Toggled when the state of a checkable button changes.
func (b *PushButton) SetChecked(on bool) {
	b.mu.Lock()
	if !b.checkable || b.checked == on {
		b.mu.Unlock()
		return
	}
	b.checked = on
	b.mu.Unlock()
	b.Toggled.Emit(on)
}

func (b *PushButton) IsDown() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.down
}

// Click toggles a checkable button, then emits Clicked.
func (b *PushButton) Click() {
	b.mu.Lock()
	checkable := b.checkable
	checked := b.checked
	b.mu.Unlock()

	if checkable {
		b.SetChecked(!checked)
		checked = !checked
	}
	b.Clicked.Emit(checked)
}

func (b *PushButton) HandleMouse(e MouseEvent) {
	if e.Button != LeftButton && e.Type != MouseMove {
		return
	}
	size := b.Size()
	inside := e.Pos.In(image.Rectangle{Max: size})

	switch e.Type {
	case MousePress:
		b.mu.Lock()
		b.down = true
		b.mu.Unlock()
	case MouseRelease:
		b.mu.Lock()
		wasDown := b.down
		b.down = false
		b.mu.Unlock()
		if wasDown && inside {
			b.Click()
		}
	}
}
