package media

import (
	"cvwidgets/frame"
	"cvwidgets/util/signal"
)

// PlaybackState 播放状态
type PlaybackState int

const (
	StoppedState PlaybackState = iota
	PlayingState
	PausedState
)

func (s PlaybackState) String() string {
	switch s {
	case StoppedState:
		return "stopped"
	case PlayingState:
		return "playing"
	case PausedState:
		return "paused"
	default:
		return "unknown"
	}
}

// MediaStatus describes the loaded media, independent of playback state.
type MediaStatus int

const (
	NoMedia MediaStatus = iota
	LoadedMedia
	BufferedMedia
	EndOfMedia
	InvalidMedia
)

func (s MediaStatus) String() string {
	switch s {
	case NoMedia:
		return "no-media"
	case LoadedMedia:
		return "loaded"
	case BufferedMedia:
		return "buffered"
	case EndOfMedia:
		return "end-of-media"
	case InvalidMedia:
		return "invalid"
	default:
		return "unknown"
	}
}

// Source is a decoder handing out frames in presentation order. Read returns
// io.EOF once the stream is exhausted.
type Source interface {
	Read() (*frame.VideoFrame, error)
	// Seek moves to position in milliseconds.
	Seek(position int64) error
	// Duration in milliseconds, 0 when unknown (live streams).
	Duration() int64
	FrameRate() float64
	Close() error
}

// Opener opens a Source for a file path or URL.
type Opener func(url string) (Source, error)

// Controllable is what a playback controller drives. *Player and
// *stream.QueuedPlayer both satisfy it.
type Controllable interface {
	PlaybackState() PlaybackState
	Play()
	Pause()
	Stop()
	SetPosition(position int64)
	Position() int64
	Duration() int64

	PositionSignal() *signal.Signal[int64]
	DurationSignal() *signal.Signal[int64]
	StateSignal() *signal.Signal[PlaybackState]
}

// Camera is a live frame source that can be started and stopped.
type Camera interface {
	Start() error
	Stop() error
	VideoFrameChanged() *signal.Signal[*frame.VideoFrame]
}
