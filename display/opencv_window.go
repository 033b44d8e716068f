//go:build !sdl
// +build !sdl

package display

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

const WINDOW_OPENGL gocv.WindowFlag = 0x00001000

// OpencvWindow shows frames in a HighGUI window. HighGUI reports no mouse
// events through gocv, so only keyboard shortcuts are available.
type OpencvWindow struct {
	*gocv.Window
	width, height int
	bgr           gocv.Mat
}

func init() {
	log.Info("running in OPENCV mode")
}

func NewOpencvWindow(title string, width, height int) *OpencvWindow {
	window := gocv.NewWindow(title)
	// 硬件加速支持
	window.SetWindowProperty(gocv.WindowPropertyOpenGL, WINDOW_OPENGL)
	window.ResizeWindow(width, height)
	return &OpencvWindow{
		Window: window,
		width:  width,
		height: height,
		bgr:    gocv.NewMat(),
	}
}

func (cv *OpencvWindow) GetType() string {
	return "opencv"
}

func (cv *OpencvWindow) Size() image.Point {
	return image.Pt(cv.width, cv.height)
}

func (cv *OpencvWindow) Show(img *image.RGBA, osd string) error {
	mat, err := gocv.ImageToMatRGBA(img)
	if err != nil {
		return errors.Wrap(err, "image to mat")
	}
	defer mat.Close()

	gocv.CvtColor(mat, &cv.bgr, gocv.ColorRGBAToBGR)
	if osd != "" {
		gocv.PutText(&cv.bgr, osd, image.Pt(10, 24), gocv.FontHersheySimplex, 0.6, color.RGBA{0, 255, 0, 0}, 2)
	}
	cv.Window.IMShow(cv.bgr)
	return nil
}

func (cv *OpencvWindow) PollEvents() []Event {
	var events []Event
	if cv.Window.GetWindowProperty(gocv.WindowPropertyVisible) < 1 {
		return append(events, Event{Type: EventQuit})
	}
	switch key := cv.Window.WaitKey(1); key {
	case -1:
	case ' ':
		events = append(events, Event{Type: EventKey, Key: KeyPlayPause})
	case 's':
		events = append(events, Event{Type: EventKey, Key: KeyStop})
	case 'q', 27:
		events = append(events, Event{Type: EventKey, Key: KeyQuit})
	default:
		log.Debugf("ignore key %d", key)
	}
	return events
}

func (cv *OpencvWindow) Close() error {
	cv.bgr.Close()
	err := cv.Window.Close()
	cv.Window = nil
	return err
}

// NewWindow opens the window of the current build.
func NewWindow(title string, width, height int) (Window, error) {
	return NewOpencvWindow(title, width, height), nil
}

// Main runs fn; HighGUI needs no dedicated main thread loop.
func Main(fn func()) {
	fn()
}
