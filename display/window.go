package display

import (
	"context"
	"fmt"
	"image"
	"time"

	log "github.com/sirupsen/logrus"

	"cvwidgets/media"
	"cvwidgets/widgets"
)

// EventType 窗口事件类型
type EventType int

const (
	EventQuit EventType = iota
	EventMouse
	EventKey
	EventResize
)

// Key is a keyboard shortcut understood by Run.
type Key int

const (
	KeyNone Key = iota
	KeyPlayPause
	KeyStop
	KeyQuit
)

// Event is a window event. Mouse positions are window coordinates.
type Event struct {
	Type  EventType
	Mouse widgets.MouseEvent
	Key   Key
	Size  image.Point
}

// Window shows painted frames and reports user input.
type Window interface {
	// Show presents img with an optional one-line on-screen text.
	Show(img *image.RGBA, osd string) error
	// PollEvents returns the events queued since the last call.
	PollEvents() []Event
	Size() image.Point
	Close() error
	GetType() string
}

// App is what Run displays. Controller and Player are optional; they enable
// keyboard shortcuts and the status line.
type App struct {
	Root       widgets.Widget
	Controller *widgets.MediaController
	Player     media.Controllable
	Painter    *Painter
	// Commands are executed on the display goroutine.
	Commands chan func()
	FPS      int
}

func NewApp(root widgets.Widget, painter *Painter) *App {
	return &App{
		Root:     root,
		Painter:  painter,
		Commands: make(chan func(), 10),
		FPS:      30,
	}
}

// Do queues fn for the display goroutine. It blocks when the queue is full.
func (a *App) Do(fn func()) {
	a.Commands <- fn
}

// Run lays out app.Root to fill win and repaints it until ctx is done or the
// window is closed.
func Run(ctx context.Context, win Window, app *App) error {
	log.Infof("display running in %s window", win.GetType())
	defer log.Info("display stopped")

	fps := app.FPS
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	size := win.Size()
	app.Root.SetGeometry(image.Rectangle{Max: size})
	dispatcher := widgets.NewDispatcher(app.Root)
	canvas := image.NewRGBA(image.Rectangle{Max: size})

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-app.Commands:
			fn()
		case <-ticker.C:
			for _, e := range win.PollEvents() {
				switch e.Type {
				case EventQuit:
					return nil
				case EventResize:
					if e.Size.X <= 0 || e.Size.Y <= 0 || e.Size == size {
						continue
					}
					log.Debugf("window resized to %v", e.Size)
					size = e.Size
					app.Root.SetGeometry(image.Rectangle{Max: size})
					canvas = image.NewRGBA(image.Rectangle{Max: size})
				case EventMouse:
					dispatcher.Dispatch(e.Mouse)
				case EventKey:
					if app.handleKey(e.Key) {
						return nil
					}
				}
			}

			app.Painter.PaintInto(canvas, app.Root)
			if err := win.Show(canvas, app.osd()); err != nil {
				log.Errorf("show frame failed: %v", err)
			}
		}
	}
}

// handleKey reports whether the key asks to quit.
func (a *App) handleKey(k Key) bool {
	switch k {
	case KeyQuit:
		return true
	case KeyPlayPause:
		if a.Controller != nil {
			a.Controller.PlayButton().Click()
		}
	case KeyStop:
		if a.Controller != nil {
			a.Controller.StopButton().Click()
		}
	}
	return false
}

func (a *App) osd() string {
	if a.Player == nil {
		return ""
	}
	return FormatStatus(a.Player.PlaybackState(), a.Player.Position(), a.Player.Duration())
}

// FormatStatus renders "state mm:ss / mm:ss".
func FormatStatus(state media.PlaybackState, position, duration int64) string {
	return fmt.Sprintf("%s %s / %s", state, formatMillis(position), formatMillis(duration))
}

func formatMillis(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	s := ms / 1000
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
