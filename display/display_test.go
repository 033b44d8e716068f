package display

import (
	"context"
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvwidgets/media"
	"cvwidgets/widgets"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestPaintLabelAligned(t *testing.T) {
	red := color.RGBA{0xff, 0, 0, 0xff}
	label := widgets.NewScalableLabel()
	label.SetGeometry(image.Rect(0, 0, 20, 10))
	require.NoError(t, label.SetPixmap(solid(10, 10, red)))

	p := NewPainter("")
	img := p.Paint(label, image.Pt(20, 10))

	assert.Equal(t, red, img.RGBAAt(10, 5))
	assert.Equal(t, DefaultTheme.Background, img.RGBAAt(1, 5))
	assert.Equal(t, DefaultTheme.Background, img.RGBAAt(18, 5))

	label.SetAlignment(widgets.AlignLeft | widgets.AlignTop)
	img = p.Paint(label, image.Pt(20, 10))
	assert.Equal(t, red, img.RGBAAt(1, 5))
	assert.Equal(t, DefaultTheme.Background, img.RGBAAt(18, 5))
}

func TestPaintLabelClipped(t *testing.T) {
	blue := color.RGBA{0, 0, 0xff, 0xff}
	label := widgets.NewScalableLabel()
	require.NoError(t, label.SetPixmapScaleMode(widgets.NoScale))
	label.SetGeometry(image.Rect(10, 10, 20, 20))
	require.NoError(t, label.SetPixmap(solid(40, 40, blue)))

	img := NewPainter("").Paint(label, image.Pt(40, 40))
	assert.Equal(t, blue, img.RGBAAt(15, 15))
	assert.Equal(t, DefaultTheme.Background, img.RGBAAt(5, 5))
	assert.Equal(t, DefaultTheme.Background, img.RGBAAt(25, 25))
}

func TestPaintButtonIcons(t *testing.T) {
	p := NewPainter("")
	b := widgets.NewPushButton("")

	b.SetIcon(widgets.IconMediaPlay)
	img := p.Paint(b, image.Pt(32, 32))
	assert.Equal(t, DefaultTheme.Icon, img.RGBAAt(16, 16))
	assert.Equal(t, DefaultTheme.Button, img.RGBAAt(4, 16))

	b.SetIcon(widgets.IconMediaPause)
	img = p.Paint(b, image.Pt(32, 32))
	assert.Equal(t, DefaultTheme.Button, img.RGBAAt(16, 16))
	assert.Equal(t, DefaultTheme.Icon, img.RGBAAt(10, 16))
	assert.Equal(t, DefaultTheme.Icon, img.RGBAAt(22, 16))

	b.SetIcon(widgets.IconMediaStop)
	img = p.Paint(b, image.Pt(32, 32))
	assert.Equal(t, DefaultTheme.Icon, img.RGBAAt(16, 16))
	assert.Equal(t, DefaultTheme.Icon, img.RGBAAt(10, 10))
}

func TestPaintCheckedButton(t *testing.T) {
	b := widgets.NewPushButton("x")
	b.SetCheckable(true)
	b.SetChecked(true)
	img := NewPainter("").Paint(b, image.Pt(32, 32))
	assert.Equal(t, DefaultTheme.ButtonChecked, img.RGBAAt(2, 16))
}

func TestPaintSlider(t *testing.T) {
	s := widgets.NewSlider(widgets.Horizontal)
	img := NewPainter("").Paint(s, image.Pt(100, 22))

	// handle at the minimum
	assert.Equal(t, DefaultTheme.Handle, img.RGBAAt(6, 11))
	assert.Equal(t, DefaultTheme.Groove, img.RGBAAt(50, 11))
	assert.Equal(t, DefaultTheme.Background, img.RGBAAt(50, 2))

	s.SetValue(99)
	img = NewPainter("").Paint(s, image.Pt(100, 22))
	assert.Equal(t, DefaultTheme.Handle, img.RGBAAt(94, 11))
	assert.Equal(t, DefaultTheme.GrooveFilled, img.RGBAAt(50, 11))
}

func TestFormatStatus(t *testing.T) {
	assert.Equal(t, "playing 01:05 / 10:00", FormatStatus(media.PlayingState, 65000, 600000))
	assert.Equal(t, "stopped 00:00 / 00:00", FormatStatus(media.StoppedState, -1, 0))
}

type fakeWindow struct {
	mu     sync.Mutex
	size   image.Point
	events [][]Event
	shown  int
	osd    string
	last   *image.RGBA
}

func (w *fakeWindow) Show(img *image.RGBA, osd string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.shown++
	w.osd = osd
	w.last = img
	return nil
}

func (w *fakeWindow) PollEvents() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.events) == 0 {
		return nil
	}
	e := w.events[0]
	w.events = w.events[1:]
	return e
}

func (w *fakeWindow) push(events ...Event) {
	w.mu.Lock()
	w.events = append(w.events, events)
	w.mu.Unlock()
}

func (w *fakeWindow) Shown() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shown
}

func (w *fakeWindow) Size() image.Point { return w.size }
func (w *fakeWindow) Close() error      { return nil }
func (w *fakeWindow) GetType() string   { return "fake" }

func TestRunQuitsOnEvent(t *testing.T) {
	root := widgets.NewVBox(widgets.NewScalableLabel(), widgets.NewMediaController())
	win := &fakeWindow{size: image.Pt(640, 480)}
	win.push()
	win.push(Event{Type: EventQuit})

	app := NewApp(root, NewPainter(""))
	app.FPS = 200
	require.NoError(t, Run(context.Background(), win, app))

	assert.Equal(t, image.Rect(0, 0, 640, 480), root.Geometry())
	assert.GreaterOrEqual(t, win.Shown(), 1)
}

func TestRunResizeAndClick(t *testing.T) {
	controller := widgets.NewMediaController()
	root := widgets.NewVBox(widgets.NewScalableLabel(), controller)
	win := &fakeWindow{size: image.Pt(640, 480)}

	var clicks int
	controller.StopButton().Clicked.Connect(func(bool) { clicks++ })

	win.push(Event{Type: EventResize, Size: image.Pt(320, 240)})
	win.push(
		Event{Type: EventMouse, Mouse: widgets.MouseEvent{Type: widgets.MousePress, Button: widgets.LeftButton, Pos: image.Pt(50, 220)}},
		Event{Type: EventMouse, Mouse: widgets.MouseEvent{Type: widgets.MouseRelease, Button: widgets.LeftButton, Pos: image.Pt(50, 220)}},
	)
	win.push(Event{Type: EventKey, Key: KeyQuit})

	app := NewApp(root, NewPainter(""))
	app.Controller = controller
	app.FPS = 200
	require.NoError(t, Run(context.Background(), win, app))

	assert.Equal(t, image.Rect(0, 0, 320, 240), root.Geometry())
	assert.Equal(t, image.Rect(38, 208, 70, 240), controller.StopButton().Geometry())
	assert.Equal(t, 1, clicks)
	assert.Equal(t, image.Pt(320, 240), win.last.Bounds().Size())
}

func TestRunCommandsAndCancel(t *testing.T) {
	win := &fakeWindow{size: image.Pt(64, 48)}
	app := NewApp(widgets.NewScalableLabel(), NewPainter(""))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, win, app) }()

	ran := make(chan struct{})
	app.Do(func() { close(ran) })
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("command not executed")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}
