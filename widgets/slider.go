package widgets

import (
	"image"
	"math"
	"sync"

	"cvwidgets/util/signal"
)

// SliderValueFromPosition maps a pixel offset pos within span to a value in
// [min, max], rounding to the nearest value.
func SliderValueFromPosition(min, max, pos, span int, upsideDown bool) int {
	if span <= 0 || pos <= 0 {
		if upsideDown {
			return max
		}
		return min
	}
	if pos >= span {
		if upsideDown {
			return min
		}
		return max
	}

	rng := int64(max) - int64(min)
	p, s := int64(pos), int64(span)
	var tmp int64
	if s > rng {
		tmp = (2*p*rng + s) / (2 * s)
	} else {
		div := rng / s
		mod := rng % s
		tmp = p*div + (2*p*mod+s)/(2*s)
	}
	if upsideDown {
		return int(int64(max) - tmp)
	}
	return int(tmp + int64(min))
}

// SliderPositionFromValue is the pixel offset within span of value.
func SliderPositionFromValue(min, max, value, span int, upsideDown bool) int {
	if span <= 0 || value < min || max <= min {
		return 0
	}
	if value > max {
		if upsideDown {
			return span
		}
		return min
	}

	rng := int64(max) - int64(min)
	var p int64
	if upsideDown {
		p = int64(max) - int64(value)
	} else {
		p = int64(value) - int64(min)
	}
	s := int64(span)

	switch {
	case rng > math.MaxInt32/4096:
		return int(float64(p) / (float64(rng) / float64(s)))
	case rng > s:
		return int((2*p*s + rng) / (2 * rng))
	default:
		div := s / rng
		mod := s % rng
		return int(p*div + (2*p*mod+rng)/(2*rng))
	}
}

// Range of a slider.
type Range struct {
	Min, Max int
}

const (
	defaultHandleLength    = 12
	defaultGrooveThickness = 4
	defaultSliderThickness = 22
)

// Slider is a clickable slider: pressing anywhere on the groove moves the
// handle there before the drag starts.
type Slider struct {
	base
	mu       sync.Mutex
	min, max int
	value    int
	// position is where the handle is drawn; it leads value while an
	// untracked drag is in progress
	position    int
	orientation Orientation
	inverted    bool
	tracking    bool
	down        bool
	clickOffset int

	HandleLength    int
	GrooveThickness int

	ValueChanged   *signal.Signal[int]
	SliderPressed  *signal.Signal[struct{}]
	SliderMoved    *signal.Signal[int]
	SliderReleased *signal.Signal[struct{}]
	RangeChanged   *signal.Signal[Range]
}

func NewSlider(orientation Orientation) *Slider {
	s := &Slider{
		max:             99,
		orientation:     orientation,
		tracking:        true,
		HandleLength:    defaultHandleLength,
		GrooveThickness: defaultGrooveThickness,
		ValueChanged:    signal.New[int](),
		SliderPressed:   signal.New[struct{}](),
		SliderMoved:     signal.New[int](),
		SliderReleased:  signal.New[struct{}](),
		RangeChanged:    signal.New[Range](),
	}
	if orientation == Horizontal {
		s.base.SetGeometry(image.Rect(0, 0, 100, defaultSliderThickness))
	} else {
		s.base.SetGeometry(image.Rect(0, 0, defaultSliderThickness, 100))
	}
	return s
}

func (s *Slider) SizeHint() image.Point {
	if s.Orientation() == Horizontal {
		return image.Pt(0, defaultSliderThickness)
	}
	return image.Pt(defaultSliderThickness, 0)
}

func (s *Slider) Orientation() Orientation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orientation
}

func (s *Slider) SetOrientation(o Orientation) {
	s.mu.Lock()
	s.orientation = o
	s.mu.Unlock()
}

func (s *Slider) InvertedAppearance() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inverted
}

func (s *Slider) SetInvertedAppearance(inverted bool) {
	s.mu.Lock()
	s.inverted = inverted
	s.mu.Unlock()
}

// SetTracking controls whether dragging changes the value. With tracking off
// a drag only emits SliderMoved.
func (s *Slider) SetTracking(on bool) {
	s.mu.Lock()
	s.tracking = on
	s.mu.Unlock()
}

// UpsideDown reports whether the minimum sits at the far end of the groove:
// vertical sliders grow upwards unless inverted.
func (s *Slider) UpsideDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.upsideDownLocked()
}

func (s *Slider) upsideDownLocked() bool {
	if s.orientation == Horizontal {
		return s.inverted
	}
	return !s.inverted
}

func (s *Slider) Minimum() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.min
}

func (s *Slider) Maximum() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.max
}

func (s *Slider) Value() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// SliderPosition is the handle position in range units.
func (s *Slider) SliderPosition() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

func (s *Slider) IsSliderDown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.down
}

// SetRange sets the bounds, max is raised to min if lower. The value is
// clamped into the new range.
func (s *Slider) SetRange(min, max int) {
	if max < min {
		max = min
	}
	s.mu.Lock()
	changed := s.min != min || s.max != max
	s.min, s.max = min, max
	value := s.value
	s.mu.Unlock()

	if changed {
		s.RangeChanged.Emit(Range{Min: min, Max: max})
	}
	s.SetValue(value)
}

// SetValue clamps v to the range and emits ValueChanged if it changed.
func (s *Slider) SetValue(v int) {
	s.mu.Lock()
	if v < s.min {
		v = s.min
	}
	if v > s.max {
		v = s.max
	}
	changed := v != s.value
	s.value = v
	s.position = v
	s.mu.Unlock()

	if changed {
		s.ValueChanged.Emit(v)
	}
}

// GrooveRect in widget coordinates.
func (s *Slider) GrooveRect() image.Rectangle {
	size := s.Size()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grooveRectLocked(size)
}

func (s *Slider) grooveRectLocked(size image.Point) image.Rectangle {
	t := s.GrooveThickness
	if s.orientation == Horizontal {
		y := (size.Y - t) / 2
		return image.Rect(0, y, size.X, y+t)
	}
	x := (size.X - t) / 2
	return image.Rect(x, 0, x+t, size.Y)
}

// HandleRect in widget coordinates for the current slider position.
func (s *Slider) HandleRect() image.Rectangle {
	size := s.Size()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handleRectLocked(size)
}

func (s *Slider) handleRectLocked(size image.Point) image.Rectangle {
	gr := s.grooveRectLocked(size)
	l := s.HandleLength
	if s.orientation == Horizontal {
		pos := SliderPositionFromValue(s.min, s.max, s.position, gr.Dx()-l, s.upsideDownLocked())
		return image.Rect(gr.Min.X+pos, 0, gr.Min.X+pos+l, size.Y)
	}
	pos := SliderPositionFromValue(s.min, s.max, s.position, gr.Dy()-l, s.upsideDownLocked())
	return image.Rect(0, gr.Min.Y+pos, size.X, gr.Min.Y+pos+l)
}

// center follows the integer convention where the last pixel of r is
// Max-1.
func center(r image.Rectangle) image.Point {
	return image.Pt((r.Min.X+r.Max.X-1)/2, (r.Min.Y+r.Max.Y-1)/2)
}

// span returns the first and last pixel the handle's leading edge can take.
func (s *Slider) spanLocked(gr, sr image.Rectangle) (int, int) {
	if s.orientation == Horizontal {
		return gr.Min.X, (gr.Max.X - 1) - sr.Dx() + 1
	}
	return gr.Min.Y, (gr.Max.Y - 1) - sr.Dy() + 1
}

func (s *Slider) pick(p image.Point) int {
	if s.orientation == Horizontal {
		return p.X
	}
	return p.Y
}

// PixelPosToRangeValue maps a widget position to the value whose handle
// would be centred on it.
func (s *Slider) PixelPosToRangeValue(pos image.Point) int {
	size := s.Size()
	s.mu.Lock()
	defer s.mu.Unlock()

	gr := s.grooveRectLocked(size)
	sr := s.handleRectLocked(size)
	sliderMin, sliderMax := s.spanLocked(gr, sr)
	pr := pos.Sub(center(sr)).Add(sr.Min)
	return SliderValueFromPosition(s.min, s.max, s.pick(pr)-sliderMin, sliderMax-sliderMin, s.upsideDownLocked())
}

// valueAtLocked maps a leading handle edge coordinate to a value.
func (s *Slider) valueAtLocked(size image.Point, edge int) int {
	gr := s.grooveRectLocked(size)
	sr := s.handleRectLocked(size)
	sliderMin, sliderMax := s.spanLocked(gr, sr)
	return SliderValueFromPosition(s.min, s.max, edge-sliderMin, sliderMax-sliderMin, s.upsideDownLocked())
}

// HandleMouse takes a position local to the slider.
func (s *Slider) HandleMouse(e MouseEvent) {
	switch e.Type {
	case MousePress:
		s.MousePress(e.Button, e.Pos)
	case MouseMove:
		s.MouseMove(e.Pos)
	case MouseRelease:
		s.MouseRelease(e.Button, e.Pos)
	}
}

// MousePress with the left button jumps to the clicked value, then grabs
// the handle.
func (s *Slider) MousePress(button MouseButton, pos image.Point) {
	if button != LeftButton {
		return
	}
	s.SetValue(s.PixelPosToRangeValue(pos))

	size := s.Size()
	s.mu.Lock()
	sr := s.handleRectLocked(size)
	s.clickOffset = s.pick(pos.Sub(sr.Min))
	s.down = true
	s.mu.Unlock()

	s.SliderPressed.Emit(struct{}{})
}

func (s *Slider) MouseMove(pos image.Point) {
	size := s.Size()
	s.mu.Lock()
	if !s.down {
		s.mu.Unlock()
		return
	}
	v := s.valueAtLocked(size, s.pick(pos)-s.clickOffset)
	tracking := s.tracking
	moved := v != s.position
	s.position = v
	s.mu.Unlock()

	if !moved {
		return
	}
	s.SliderMoved.Emit(v)
	if tracking {
		s.SetValue(v)
	}
}

func (s *Slider) MouseRelease(button MouseButton, pos image.Point) {
	if button != LeftButton {
		return
	}
	s.mu.Lock()
	if !s.down {
		s.mu.Unlock()
		return
	}
	s.down = false
	position, commit := s.position, s.position != s.value
	s.mu.Unlock()

	s.SliderReleased.Emit(struct{}{})
	if commit {
		s.SetValue(position)
	}
}
