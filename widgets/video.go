package widgets

import (
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"cvwidgets/frame"
	"cvwidgets/media"
	"cvwidgets/util/signal"
)

// FirstFrameFunc reads the first frame of a file for preview.
type FirstFrameFunc func(path string) (frame.Array, error)

// pipeline routes arrays from a source signal to a label, optionally
// through an ArrayProcessor.
type pipeline struct {
	mu        sync.Mutex
	source    *signal.Signal[frame.Array]
	label     *ArrayLabel
	processor *frame.ArrayProcessor
	in        signal.Connection
	out       signal.Connection
}

func newPipeline(source *signal.Signal[frame.Array], label *ArrayLabel) *pipeline {
	p := &pipeline{source: source, label: label}
	p.in = source.Connect(label.Receive)
	return p
}

func (p *pipeline) Processor() *frame.ArrayProcessor {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processor
}

func (p *pipeline) SetProcessor(ap *frame.ArrayProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.source.Disconnect(p.in)
	if p.processor != nil {
		p.processor.ArrayChanged.Disconnect(p.out)
	}
	p.processor = ap
	if ap == nil {
		p.in = p.source.Connect(p.label.Receive)
		return
	}
	p.in = p.source.Connect(ap.SetArray)
	p.out = ap.ArrayChanged.Connect(p.label.Receive)
}

// Push feeds a through the pipeline as if the source had emitted it.
func (p *pipeline) Push(a frame.Array) {
	if ap := p.Processor(); ap != nil {
		ap.SetArray(a)
		return
	}
	p.label.Receive(a)
}

// VideoPlayerWidget shows a media.Player on an ArrayLabel above a
// MediaController.
type VideoPlayerWidget struct {
	*Box
	player     *media.Player
	label      *ArrayLabel
	controller *MediaController
	pipeline   *pipeline
	firstFrame FirstFrameFunc
}

// NewVideoPlayerWidget opens media with opener. firstFrame may be nil, in
// which case Open shows nothing until playback starts.
func NewVideoPlayerWidget(opener media.Opener, firstFrame FirstFrameFunc) *VideoPlayerWidget {
	return NewVideoPlayerWidgetWithPlayer(media.NewPlayer(opener), firstFrame)
}

func NewVideoPlayerWidgetWithPlayer(player *media.Player, firstFrame FirstFrameFunc) *VideoPlayerWidget {
	w := &VideoPlayerWidget{
		player:     player,
		label:      NewArrayLabel(),
		controller: NewMediaController(),
		firstFrame: firstFrame,
	}
	w.label.SetAlignment(AlignCenter)
	w.pipeline = newPipeline(player.ArrayChanged, w.label)
	w.controller.SetPlayer(player)
	w.Box = NewVBox(w.label, w.controller)
	return w
}

func (w *VideoPlayerWidget) VideoPlayer() *media.Player        { return w.player }
func (w *VideoPlayerWidget) VideoLabel() *ArrayLabel           { return w.label }
func (w *VideoPlayerWidget) MediaController() *MediaController { return w.controller }
func (w *VideoPlayerWidget) PlayButton() *PushButton           { return w.controller.PlayButton() }

func (w *VideoPlayerWidget) ArrayProcessor() *frame.ArrayProcessor {
	return w.pipeline.Processor()
}

// SetArrayProcessor inserts ap between the player and the label. nil
// connects them directly.
func (w *VideoPlayerWidget) SetArrayProcessor(ap *frame.ArrayProcessor) {
	w.pipeline.SetProcessor(ap)
}

func (w *VideoPlayerWidget) ensureStopped() {
	if w.player.PlaybackState() != media.StoppedState {
		w.player.Stop()
	}
}

// Open stops playback, loads path and displays its first frame.
func (w *VideoPlayerWidget) Open(path string) error {
	w.ensureStopped()
	if err := w.player.SetSource(path); err != nil {
		return err
	}
	if w.firstFrame == nil {
		return nil
	}
	a, err := w.firstFrame(path)
	if err != nil {
		log.Warnf("no preview for %s: %v", path, err)
		return nil
	}
	w.pipeline.Push(a)
	return nil
}

// Close stops playback.
func (w *VideoPlayerWidget) Close() {
	w.ensureStopped()
}

// ArrayPlayer is a controllable player emitting the arrays it decodes.
type ArrayPlayer interface {
	media.Controllable
	ArraySignal() *signal.Signal[frame.Array]
}

// VideoWidget shows any ArrayPlayer above a MediaController. Loading media
// is left to the player.
type VideoWidget struct {
	*Box
	player     ArrayPlayer
	label      *ArrayLabel
	controller *MediaController
	pipeline   *pipeline
}

func NewVideoWidget(player ArrayPlayer) *VideoWidget {
	w := &VideoWidget{
		player:     player,
		label:      NewArrayLabel(),
		controller: NewMediaController(),
	}
	w.label.SetAlignment(AlignCenter)
	w.pipeline = newPipeline(player.ArraySignal(), w.label)
	w.controller.SetPlayer(player)
	w.Box = NewVBox(w.label, w.controller)
	return w
}

func (w *VideoWidget) Player() ArrayPlayer                   { return w.player }
func (w *VideoWidget) VideoLabel() *ArrayLabel               { return w.label }
func (w *VideoWidget) MediaController() *MediaController     { return w.controller }
func (w *VideoWidget) ArrayProcessor() *frame.ArrayProcessor { return w.pipeline.Processor() }

func (w *VideoWidget) SetArrayProcessor(ap *frame.ArrayProcessor) {
	w.pipeline.SetProcessor(ap)
}

// Close stops the player.
func (w *VideoWidget) Close() {
	if w.player.PlaybackState() != media.StoppedState {
		w.player.Stop()
	}
}

// CameraWidget shows a CaptureSession on an ArrayLabel.
type CameraWidget struct {
	*Box
	session  *media.CaptureSession
	label    *ArrayLabel
	pipeline *pipeline
}

func NewCameraWidget() *CameraWidget {
	w := &CameraWidget{
		session: media.NewCaptureSession(),
		label:   NewArrayLabel(),
	}
	w.label.SetAlignment(AlignCenter)
	w.pipeline = newPipeline(w.session.ArrayChanged, w.label)
	w.Box = NewVBox(w.label)
	return w
}

func (w *CameraWidget) MediaCaptureSession() *media.CaptureSession { return w.session }
func (w *CameraWidget) VideoLabel() *ArrayLabel                    { return w.label }

func (w *CameraWidget) ArrayProcessor() *frame.ArrayProcessor {
	return w.pipeline.Processor()
}

func (w *CameraWidget) SetArrayProcessor(ap *frame.ArrayProcessor) {
	w.pipeline.SetProcessor(ap)
}

// Start starts the session's camera.
func (w *CameraWidget) Start() error {
	return errors.Wrap(w.session.Start(), "camera widget")
}

func (w *CameraWidget) Close() error {
	return w.session.Stop()
}
