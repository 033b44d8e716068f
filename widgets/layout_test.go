package widgets

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVBoxLayout(t *testing.T) {
	label := NewArrayLabel()
	controller := NewMediaController()
	root := NewVBox(label, controller)

	assert.Equal(t, image.Pt(0, 32), controller.SizeHint())
	root.SetGeometry(image.Rect(0, 0, 640, 480))

	assert.Equal(t, image.Rect(0, 0, 640, 442), label.Geometry())
	assert.Equal(t, image.Rect(0, 448, 640, 480), controller.Geometry())
	assert.Equal(t, image.Rect(0, 448, 32, 480), controller.PlayButton().Geometry())
	assert.Equal(t, image.Rect(38, 448, 70, 480), controller.StopButton().Geometry())
	assert.Equal(t, image.Rect(76, 448, 640, 480), controller.Slider().Geometry())
}

func TestDispatcherGrabsOnPress(t *testing.T) {
	controller := NewMediaController()
	controller.SetGeometry(image.Rect(0, 0, 176, 32))
	slider := controller.Slider()
	assert.Equal(t, image.Rect(76, 0, 176, 32), slider.Geometry())

	d := NewDispatcher(controller)
	assert.Equal(t, MouseHandler(slider), HandlerAt(controller, image.Pt(80, 5)))

	var moved []int
	slider.SliderMoved.Connect(func(v int) { moved = append(moved, v) })

	d.Dispatch(MouseEvent{Type: MousePress, Button: LeftButton, Pos: image.Pt(86, 10)})
	assert.Equal(t, 6, slider.Value())
	// moving over the stop button still drags the slider
	d.Dispatch(MouseEvent{Type: MouseMove, Pos: image.Pt(50, 10)})
	assert.Equal(t, 0, slider.Value())
	d.Dispatch(MouseEvent{Type: MouseRelease, Button: LeftButton, Pos: image.Pt(50, 10)})
	assert.False(t, slider.IsSliderDown())
	assert.Equal(t, []int{0}, moved)
}
