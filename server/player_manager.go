package server

import (
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"cvwidgets/media"
)

var (
	// ErrUnsupported is returned for operations the player does not offer.
	ErrUnsupported = errors.New("operation not supported by player")
	// ErrClosed is returned for requests made after Close.
	ErrClosed = errors.New("player manager closed")
)

type sourceSetter interface {
	SetSource(url string) error
}

type rateSetter interface {
	SetPlaybackRate(rate float64)
	PlaybackRate() float64
}

type sourceGetter interface {
	Source() string
}

type statusGetter interface {
	MediaStatus() media.MediaStatus
}

// State is the snapshot returned by /state.
type State struct {
	State    string  `json:"state"`
	Status   string  `json:"status,omitempty"`
	Position int64   `json:"position"`
	Duration int64   `json:"duration"`
	Source   string  `json:"source,omitempty"`
	Rate     float64 `json:"rate,omitempty"`
}

// PlayerManager 串行化远程控制请求
type PlayerManager struct {
	player media.Controllable
	open   func(url string) error
	exec   chan<- func()

	done      chan struct{}
	closeOnce sync.Once
}

// NewPlayerManager 创建 PlayerManager 实例
func NewPlayerManager(player media.Controllable) *PlayerManager {
	m := &PlayerManager{player: player, done: make(chan struct{})}
	if ss, ok := player.(sourceSetter); ok {
		m.open = ss.SetSource
	}
	return m
}

// SetOpenFunc replaces how /source loads media, e.g. with a widget's Open
// that also previews the first frame.
func (m *PlayerManager) SetOpenFunc(open func(url string) error) {
	m.open = open
}

// SetExecutor makes every request run on the goroutine draining exec, and
// waits for it.
func (m *PlayerManager) SetExecutor(exec chan<- func()) {
	m.exec = exec
}

// Close fails pending and later requests with ErrClosed. It must be called
// once the executor stops draining.
func (m *PlayerManager) Close() {
	m.closeOnce.Do(func() { close(m.done) })
}

func (m *PlayerManager) do(fn func() error) error {
	select {
	case <-m.done:
		return ErrClosed
	default:
	}
	if m.exec == nil {
		return fn()
	}
	err := make(chan error, 1)
	select {
	case m.exec <- func() { err <- fn() }:
	case <-m.done:
		return ErrClosed
	}
	select {
	case e := <-err:
		return e
	case <-m.done:
		return ErrClosed
	}
}

func (m *PlayerManager) HandlePlay() error {
	return m.do(func() error {
		m.player.Play()
		return nil
	})
}

func (m *PlayerManager) HandlePause() error {
	return m.do(func() error {
		m.player.Pause()
		return nil
	})
}

func (m *PlayerManager) HandleStop() error {
	return m.do(func() error {
		m.player.Stop()
		return nil
	})
}

func (m *PlayerManager) HandleSeek(position int64) error {
	if position < 0 {
		return errors.Errorf("invalid position %d", position)
	}
	return m.do(func() error {
		m.player.SetPosition(position)
		return nil
	})
}

// HandleSource 处理打开视频的操作
func (m *PlayerManager) HandleSource(url string) error {
	if url == "" {
		return errors.New("empty url")
	}
	if m.open == nil {
		return errors.Wrap(ErrUnsupported, "set source")
	}
	log.WithFields(log.Fields{"url": url}).Debug("Received source request")
	return m.do(func() error {
		return m.open(url)
	})
}

func (m *PlayerManager) HandleRate(rate float64) error {
	rs, ok := m.player.(rateSetter)
	if !ok {
		return errors.Wrap(ErrUnsupported, "set rate")
	}
	if rate <= 0 {
		return errors.Errorf("invalid playback rate %v", rate)
	}
	return m.do(func() error {
		rs.SetPlaybackRate(rate)
		return nil
	})
}

// State reads the player without going through the executor.
func (m *PlayerManager) State() State {
	st := State{
		State:    m.player.PlaybackState().String(),
		Position: m.player.Position(),
		Duration: m.player.Duration(),
	}
	if sg, ok := m.player.(statusGetter); ok {
		st.Status = sg.MediaStatus().String()
	}
	if sg, ok := m.player.(sourceGetter); ok {
		st.Source = sg.Source()
	}
	if rs, ok := m.player.(rateSetter); ok {
		st.Rate = rs.PlaybackRate()
	}
	return st
}

// Handle runs a command by name, as sent over the websocket.
func (m *PlayerManager) Handle(params ControlParams) error {
	switch params.Command {
	case "play":
		return m.HandlePlay()
	case "pause":
		return m.HandlePause()
	case "stop":
		return m.HandleStop()
	case "seek":
		return m.HandleSeek(params.Position)
	case "source":
		return m.HandleSource(params.URL)
	case "rate":
		return m.HandleRate(params.Rate)
	case "state":
		return nil
	default:
		return errors.Errorf("unknown command %q", params.Command)
	}
}
