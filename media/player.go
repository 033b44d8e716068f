package media

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"cvwidgets/frame"
	"cvwidgets/util/signal"
)

const defaultFrameRate = 25.0

// ErrNoSource is returned by operations that need loaded media.
var ErrNoSource = errors.New("no media source")

// Player decodes a Source on its own goroutine and emits each frame as an
// array on ArrayChanged. Setting a source does not start playback.
//
// ArrayChanged, FrameStartTimeChanged and PositionChanged slots may run on
// the playback goroutine. They must not call Stop, Pause, SetPosition or
// SetSource, which wait for that goroutine to finish emitting.
type Player struct {
	mu       sync.Mutex
	opener   Opener
	url      string
	source   Source
	state    PlaybackState
	status   MediaStatus
	position int64
	duration int64
	rate     float64
	gen      uint64
	cancel   context.CancelFunc

	// srcMu serializes decoder access between the playback goroutine and seeks.
	srcMu sync.Mutex
	// emitMu is held while a frame is emitted
	emitMu sync.Mutex

	converter *frame.FrameToArrayConverter

	ArrayChanged          *signal.Signal[frame.Array]
	FrameStartTimeChanged *signal.Signal[int64]
	PositionChanged       *signal.Signal[int64]
	DurationChanged       *signal.Signal[int64]
	PlaybackStateChanged  *signal.Signal[PlaybackState]
	MediaStatusChanged    *signal.Signal[MediaStatus]
	ErrorOccurred         *signal.Signal[error]
}

// NewPlayer 创建一个新的 Player 实例
func NewPlayer(opener Opener) *Player {
	p := &Player{
		opener:                opener,
		rate:                  1,
		converter:             frame.NewFrameToArrayConverter(),
		ArrayChanged:          signal.New[frame.Array](),
		FrameStartTimeChanged: signal.New[int64](),
		PositionChanged:       signal.New[int64](),
		DurationChanged:       signal.New[int64](),
		PlaybackStateChanged:  signal.New[PlaybackState](),
		MediaStatusChanged:    signal.New[MediaStatus](),
		ErrorOccurred:         signal.New[error](),
	}
	signal.Forward(p.converter.ArrayChanged, p.ArrayChanged)
	signal.Forward(p.converter.FrameStartTimeChanged, p.FrameStartTimeChanged)
	signal.Forward(p.converter.ErrorOccurred, p.ErrorOccurred)
	return p
}

// FrameToArrayConverter is the converter between the decoder and ArrayChanged.
func (p *Player) FrameToArrayConverter() *frame.FrameToArrayConverter {
	return p.converter
}

func (p *Player) Source() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Player) PlaybackState() PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Player) MediaStatus() MediaStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Position in milliseconds.
func (p *Player) Position() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

// Duration in milliseconds.
func (p *Player) Duration() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

func (p *Player) PlaybackRate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rate
}

// SetPlaybackRate scales the frame pacing. Non-positive rates are ignored.
func (p *Player) SetPlaybackRate(rate float64) {
	if rate <= 0 {
		log.Warnf("ignore invalid playback rate %v", rate)
		return
	}
	p.mu.Lock()
	p.rate = rate
	p.mu.Unlock()
}

func (p *Player) PositionSignal() *signal.Signal[int64]      { return p.PositionChanged }
func (p *Player) DurationSignal() *signal.Signal[int64]      { return p.DurationChanged }
func (p *Player) StateSignal() *signal.Signal[PlaybackState] { return p.PlaybackStateChanged }
func (p *Player) StatusSignal() *signal.Signal[MediaStatus]  { return p.MediaStatusChanged }
func (p *Player) ArraySignal() *signal.Signal[frame.Array]   { return p.ArrayChanged }

// stopLoopLocked invalidates the running playback goroutine. Callers that
// must not be followed by a stale frame call waitEmit after unlocking.
func (p *Player) stopLoopLocked() {
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// waitEmit returns once no frame of an invalidated generation is being
// emitted.
func (p *Player) waitEmit() {
	p.emitMu.Lock()
	p.emitMu.Unlock()
}

// SetSource stops playback, closes the current media and opens url. An
// empty url only unloads.
func (p *Player) SetSource(url string) error {
	p.mu.Lock()
	p.stopLoopLocked()
	old := p.source
	oldState := p.state
	p.source = nil
	p.url = url
	p.state = StoppedState
	p.position = 0
	p.duration = 0
	p.mu.Unlock()
	p.waitEmit()

	if old != nil {
		p.srcMu.Lock()
		if err := old.Close(); err != nil {
			log.Errorf("close source failed: %v", err)
		}
		p.srcMu.Unlock()
	}
	if oldState != StoppedState {
		p.PlaybackStateChanged.Emit(StoppedState)
	}

	if url == "" {
		p.setStatus(NoMedia)
		p.DurationChanged.Emit(0)
		p.PositionChanged.Emit(0)
		return nil
	}

	if p.opener == nil {
		err := errors.Wrap(ErrNoSource, "player has no opener")
		p.setStatus(InvalidMedia)
		p.ErrorOccurred.Emit(err)
		return err
	}

	src, err := p.opener(url)
	if err != nil {
		err = errors.Wrapf(err, "open %s", url)
		log.Errorf("set source failed: %v", err)
		p.setStatus(InvalidMedia)
		p.ErrorOccurred.Emit(err)
		return err
	}

	p.mu.Lock()
	p.source = src
	p.duration = src.Duration()
	duration := p.duration
	p.mu.Unlock()

	log.Infof("media loaded: %s, duration %dms, fps %.2f", url, duration, src.FrameRate())
	p.DurationChanged.Emit(duration)
	p.PositionChanged.Emit(0)
	p.setStatus(LoadedMedia)
	return nil
}

func (p *Player) setStatus(status MediaStatus) {
	p.mu.Lock()
	changed := p.status != status
	p.status = status
	p.mu.Unlock()
	if changed {
		p.MediaStatusChanged.Emit(status)
	}
}

// Play starts or resumes playback. After the end of media it restarts from
// the beginning.
func (p *Player) Play() {
	p.mu.Lock()
	if p.source == nil || p.state == PlayingState {
		p.mu.Unlock()
		return
	}
	src := p.source
	restart := p.status == EndOfMedia
	if restart {
		p.position = 0
	}
	p.stopLoopLocked()
	gen := p.gen
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.state = PlayingState
	p.mu.Unlock()

	if restart {
		p.srcMu.Lock()
		if err := src.Seek(0); err != nil {
			log.Errorf("rewind failed: %v", err)
		}
		p.srcMu.Unlock()
		p.PositionChanged.Emit(0)
	}

	p.PlaybackStateChanged.Emit(PlayingState)
	p.setStatus(BufferedMedia)
	go p.run(ctx, gen, src)
}

// Pause 暂停播放
func (p *Player) Pause() {
	p.mu.Lock()
	if p.source == nil || p.state == PausedState {
		p.mu.Unlock()
		return
	}
	p.stopLoopLocked()
	p.state = PausedState
	p.mu.Unlock()
	p.waitEmit()

	p.PlaybackStateChanged.Emit(PausedState)
}

// Stop halts playback and rewinds to the beginning.
func (p *Player) Stop() {
	p.mu.Lock()
	if p.source == nil {
		p.mu.Unlock()
		return
	}
	p.stopLoopLocked()
	src := p.source
	changed := p.state != StoppedState
	p.state = StoppedState
	p.position = 0
	p.mu.Unlock()
	p.waitEmit()

	p.srcMu.Lock()
	if err := src.Seek(0); err != nil {
		log.Errorf("rewind failed: %v", err)
	}
	p.srcMu.Unlock()

	if changed {
		p.PlaybackStateChanged.Emit(StoppedState)
	}
	p.PositionChanged.Emit(0)
	if p.MediaStatus() != LoadedMedia {
		p.setStatus(LoadedMedia)
	}
}

// SetPosition seeks to position (ms). When not playing, the frame at the
// new position is decoded and emitted so the display follows the seek. When
// playing, frames decoded before the seek are dropped.
func (p *Player) SetPosition(position int64) {
	p.mu.Lock()
	if p.source == nil {
		p.mu.Unlock()
		return
	}
	if position < 0 {
		position = 0
	}
	if p.duration > 0 && position > p.duration {
		position = p.duration
	}
	src := p.source
	p.stopLoopLocked()
	gen := p.gen
	p.position = position
	playing := p.state == PlayingState
	p.mu.Unlock()
	p.waitEmit()

	p.srcMu.Lock()
	err := src.Seek(position)
	var preview *frame.VideoFrame
	if err == nil && !playing {
		preview, err = src.Read()
		if err == io.EOF {
			preview, err = nil, nil
		}
	}
	p.srcMu.Unlock()

	if playing {
		defer p.resume(gen, src)
	}
	if err != nil {
		err = errors.Wrapf(err, "seek to %dms", position)
		log.Errorf("set position failed: %v", err)
		p.ErrorOccurred.Emit(err)
		return
	}

	p.PositionChanged.Emit(position)
	if p.MediaStatus() == EndOfMedia {
		p.setStatus(LoadedMedia)
	}
	if preview != nil {
		p.emitMu.Lock()
		p.converter.Publish(p.converter.ConvertFrame(preview), func() bool { return p.current(gen) })
		p.emitMu.Unlock()
	}
}

// resume restarts the playback goroutine after a seek unless the player
// changed in the meantime.
func (p *Player) resume(gen uint64, src Source) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen || p.source != src || p.state != PlayingState {
		return
	}
	p.stopLoopLocked()
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	go p.run(ctx, p.gen, src)
}

// Close stops playback and releases the source.
func (p *Player) Close() error {
	return p.SetSource("")
}

func (p *Player) current(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen == gen
}

func (p *Player) interval(src Source) time.Duration {
	fps := src.FrameRate()
	if fps <= 0 {
		fps = defaultFrameRate
	}
	return time.Duration(float64(time.Second) / (fps * p.PlaybackRate()))
}

func (p *Player) run(ctx context.Context, gen uint64, src Source) {
	log.Debugf("playback goroutine %d started", gen)
	defer log.Debugf("playback goroutine %d exited", gen)

	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		start := time.Now()

		p.srcMu.Lock()
		if !p.current(gen) {
			p.srcMu.Unlock()
			return
		}
		f, err := src.Read()
		p.srcMu.Unlock()

		if err == io.EOF {
			p.finish(gen)
			return
		}
		if err != nil {
			p.fail(gen, err)
			return
		}

		if !p.emitFrame(gen, f) {
			return
		}

		wait := p.interval(src) - time.Since(start)
		if wait < 0 {
			wait = 0
		}
		timer.Reset(wait)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// emitFrame converts f and emits it unless gen is invalidated first. The
// conversion runs outside emitMu.
func (p *Player) emitFrame(gen uint64, f *frame.VideoFrame) bool {
	cf := p.converter.ConvertFrame(f)
	pos := f.StartTime / 1000
	keep := func() bool { return p.current(gen) }

	p.emitMu.Lock()
	defer p.emitMu.Unlock()
	p.mu.Lock()
	if p.gen != gen {
		p.mu.Unlock()
		return false
	}
	p.position = pos
	p.mu.Unlock()

	if !p.converter.Publish(cf, keep) || !keep() {
		return false
	}
	p.PositionChanged.Emit(pos)
	return true
}

func (p *Player) finish(gen uint64) {
	p.mu.Lock()
	if p.gen != gen {
		p.mu.Unlock()
		return
	}
	p.stopLoopLocked()
	p.state = StoppedState
	p.mu.Unlock()

	log.Infof("end of media: %s", p.Source())
	p.PlaybackStateChanged.Emit(StoppedState)
	p.setStatus(EndOfMedia)
}

func (p *Player) fail(gen uint64, err error) {
	p.mu.Lock()
	if p.gen != gen {
		p.mu.Unlock()
		return
	}
	p.stopLoopLocked()
	p.state = StoppedState
	p.mu.Unlock()

	err = errors.Wrap(err, "decode failed")
	log.Errorf("playback stopped: %v", err)
	p.ErrorOccurred.Emit(err)
	p.PlaybackStateChanged.Emit(StoppedState)
}
