// Package app assembles the widget tree a program shows from the
// configuration.
package app

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"cvwidgets/capture"
	"cvwidgets/config"
	"cvwidgets/cvproc"
	"cvwidgets/frame"
	"cvwidgets/media"
	"cvwidgets/stream"
	"cvwidgets/util/datapath"
	"cvwidgets/widgets"
)

// DefaultSource is the sample video played when none is configured.
const DefaultSource = "hello.mp4"

// Deps are the media backends used by New.
type Deps struct {
	Open       media.Opener
	OpenRaw    media.Opener
	FirstFrame widgets.FirstFrameFunc
	NewCamera  func(device int) media.Camera
}

// DefaultDeps decode through OpenCV.
func DefaultDeps() Deps {
	return Deps{
		Open:       capture.Open,
		OpenRaw:    capture.OpenRaw,
		FirstFrame: capture.FirstFrame,
		NewCamera:  func(device int) media.Camera { return capture.NewCamera(device) },
	}
}

// App is a built widget tree with its player.
type App struct {
	Root       widgets.Widget
	Label      *widgets.ArrayLabel
	Controller *widgets.MediaController
	// Player is nil for camera apps.
	Player media.Controllable
	// Open loads media. nil for camera apps.
	Open func(url string) error

	closers []func() error
}

// Close stops playback or capture.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// New builds the camera, queued or plain player app selected by cfg and
// loads cfg.Source.
func New(cfg *config.Config, deps Deps) (*App, error) {
	mode, err := widgets.ParseScaleMode(cfg.ScaleMode)
	if err != nil {
		return nil, err
	}

	var a *App
	switch {
	case cfg.UseCamera:
		a, err = newCameraApp(cfg, deps)
	case cfg.UseQueue:
		a, err = newQueuedApp(cfg, deps)
	default:
		a, err = newPlayerApp(cfg, deps)
	}
	if err != nil {
		return nil, err
	}
	if err := a.Label.SetPixmapScaleMode(mode); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// SourceURL is cfg.Source, or the sample video when empty.
func SourceURL(cfg *config.Config) string {
	if cfg.Source != "" {
		return cfg.Source
	}
	return datapath.Get(DefaultSource)
}

// processors returns the configured processing steps in order.
func processors(cfg *config.Config) ([]frame.Processor, *cvproc.CannyEdgeDetector) {
	var steps []frame.Processor
	if cfg.Blur.Enabled {
		steps = append(steps, cvproc.GaussianBlur{Sigma: cfg.Blur.Sigma})
	}
	var canny *cvproc.CannyEdgeDetector
	if cfg.Canny.Enabled {
		canny = cvproc.NewCannyEdgeDetector(cfg.Canny.Low, cfg.Canny.High)
		steps = append(steps, canny)
	}
	return steps, canny
}

func arrayProcessor(steps []frame.Processor) *frame.ArrayProcessor {
	switch len(steps) {
	case 0:
		return nil
	case 1:
		return frame.NewArrayProcessor(steps[0])
	default:
		return frame.NewArrayProcessor(frame.Chain(steps...))
	}
}

func newPlayerApp(cfg *config.Config, deps Deps) (*App, error) {
	w := widgets.NewVideoPlayerWidget(deps.Open, deps.FirstFrame)
	w.VideoPlayer().SetPlaybackRate(cfg.PlaybackRate)

	steps, canny := processors(cfg)
	ap := arrayProcessor(steps)
	w.SetArrayProcessor(ap)
	if canny != nil {
		w.Add(NewToggleButton("Toggle edge detection", canny.Toggle, ap, w.VideoPlayer()))
	}

	a := &App{
		Root:       w,
		Label:      w.VideoLabel(),
		Controller: w.MediaController(),
		Player:     w.VideoPlayer(),
		Open:       w.Open,
	}
	a.closers = append(a.closers, func() error {
		w.Close()
		return w.VideoPlayer().Close()
	})

	if err := w.Open(SourceURL(cfg)); err != nil {
		log.Errorf("open source failed: %v", err)
	}
	return a, nil
}

func newQueuedApp(cfg *config.Config, deps Deps) (*App, error) {
	qp := stream.NewQueuedPlayer(deps.OpenRaw)
	w := widgets.NewVideoWidget(qp)

	steps, canny := processors(cfg)
	ap := arrayProcessor(append([]frame.Processor{cvproc.BGRToRGB}, steps...))
	w.SetArrayProcessor(ap)
	if canny != nil {
		w.Add(NewToggleButton("Toggle edge detection", canny.Toggle, ap, qp))
	}

	a := &App{
		Root:       w,
		Label:      w.VideoLabel(),
		Controller: w.MediaController(),
		Player:     qp,
		Open:       qp.SetSource,
	}
	a.closers = append(a.closers, func() error {
		w.Close()
		return qp.Close()
	})

	if err := qp.SetSource(SourceURL(cfg)); err != nil {
		log.Errorf("open source failed: %v", err)
		return a, nil
	}
	qp.Play()
	return a, nil
}

func newCameraApp(cfg *config.Config, deps Deps) (*App, error) {
	if deps.NewCamera == nil {
		return nil, errors.New("no camera backend")
	}
	w := widgets.NewCameraWidget()
	w.MediaCaptureSession().SetCamera(deps.NewCamera(cfg.Camera))

	steps, canny := processors(cfg)
	ap := arrayProcessor(steps)
	w.SetArrayProcessor(ap)
	if canny != nil {
		w.Add(NewToggleButton("Toggle edge detection", canny.Toggle, ap, nil))
	}

	if err := w.Start(); err != nil {
		return nil, err
	}
	a := &App{
		Root:  w,
		Label: w.VideoLabel(),
	}
	a.closers = append(a.closers, w.Close)
	return a, nil
}

// NewToggleButton returns a checkable button calling toggle with its state.
// While player is not playing, the last array is processed again so the
// change shows at once.
func NewToggleButton(text string, toggle func(on bool), ap *frame.ArrayProcessor, player media.Controllable) *widgets.PushButton {
	b := widgets.NewPushButton(text)
	b.SetCheckable(true)
	b.Toggled.Connect(func(on bool) {
		toggle(on)
		if ap == nil {
			return
		}
		if player == nil || player.PlaybackState() != media.PlayingState {
			ap.Refresh()
		}
	})
	return b
}
