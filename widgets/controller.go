package widgets

import (
	"sync"

	"cvwidgets/media"
	"cvwidgets/util/signal"
)

// MediaController drives a media.Controllable with a play/pause button, a
// stop button and a position slider.
type MediaController struct {
	*Box
	playButton *PushButton
	stopButton *PushButton
	slider     *Slider

	mu                  sync.Mutex
	player              media.Controllable
	durationConn        signal.Connection
	positionConn        signal.Connection
	stateConn           signal.Connection
	pausedBySliderPress bool
}

func NewMediaController() *MediaController {
	c := &MediaController{
		playButton: NewPushButton(""),
		stopButton: NewPushButton(""),
		slider:     NewSlider(Horizontal),
	}
	c.playButton.SetIcon(IconMediaPlay)
	c.stopButton.SetIcon(IconMediaStop)
	c.Box = NewHBox(c.playButton, c.stopButton, c.slider)

	c.playButton.Clicked.Connect(func(bool) { c.onPlayButtonClicked() })
	c.stopButton.Clicked.Connect(func(bool) { c.onStopButtonClicked() })
	c.slider.SliderPressed.Connect(func(struct{}) { c.onSliderPress() })
	c.slider.SliderMoved.Connect(c.onSliderMove)
	c.slider.SliderReleased.Connect(func(struct{}) { c.onSliderRelease() })
	return c
}

func (c *MediaController) PlayButton() *PushButton { return c.playButton }
func (c *MediaController) StopButton() *PushButton { return c.stopButton }
func (c *MediaController) Slider() *Slider         { return c.slider }

func (c *MediaController) Player() media.Controllable {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.player
}

// PausedBySliderPress reports whether the slider press paused the player.
func (c *MediaController) PausedBySliderPress() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pausedBySliderPress
}

// SetPlayer disconnects the previous player and connects p. p may be nil.
func (c *MediaController) SetPlayer(p media.Controllable) {
	c.mu.Lock()
	old := c.player
	if old != nil {
		old.DurationSignal().Disconnect(c.durationConn)
		old.PositionSignal().Disconnect(c.positionConn)
		old.StateSignal().Disconnect(c.stateConn)
	}
	c.player = p
	c.pausedBySliderPress = false
	if p != nil {
		c.durationConn = p.DurationSignal().Connect(c.onMediaDurationChange)
		c.positionConn = p.PositionSignal().Connect(c.onMediaPositionChange)
		c.stateConn = p.StateSignal().Connect(c.onPlaybackStateChange)
	}
	c.mu.Unlock()
}

func (c *MediaController) onPlayButtonClicked() {
	p := c.Player()
	if p == nil {
		return
	}
	if p.PlaybackState() == media.PlayingState {
		p.Pause()
	} else {
		p.Play()
	}
}

func (c *MediaController) onStopButtonClicked() {
	if p := c.Player(); p != nil {
		p.Stop()
	}
}

// onSliderPress pauses a playing player and seeks to the pressed value.
func (c *MediaController) onSliderPress() {
	p := c.Player()
	if p == nil {
		return
	}
	if p.PlaybackState() == media.PlayingState {
		c.mu.Lock()
		c.pausedBySliderPress = true
		c.mu.Unlock()
		p.Pause()
	}
	p.SetPosition(int64(c.slider.Value()))
}

func (c *MediaController) onSliderMove(position int) {
	if p := c.Player(); p != nil {
		p.SetPosition(int64(position))
	}
}

func (c *MediaController) onSliderRelease() {
	p := c.Player()
	if p == nil {
		return
	}
	c.mu.Lock()
	resume := c.pausedBySliderPress
	c.pausedBySliderPress = false
	c.mu.Unlock()
	if resume {
		p.Play()
	}
}

func (c *MediaController) onMediaDurationChange(duration int64) {
	c.slider.SetRange(0, int(duration))
}

func (c *MediaController) onMediaPositionChange(position int64) {
	c.slider.SetValue(int(position))
}

func (c *MediaController) onPlaybackStateChange(state media.PlaybackState) {
	if state == media.PlayingState {
		c.playButton.SetIcon(IconMediaPause)
	} else {
		c.playButton.SetIcon(IconMediaPlay)
	}
}
