package stream

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"cvwidgets/config"
	"cvwidgets/frame"
	"cvwidgets/media"
	"cvwidgets/util/signal"
)

const defaultFrameRate = 25.0

// QueuedPlayer decodes on a producer goroutine into a FrameQueue and a
// ticker goroutine takes frames off the queue at the source frame rate.
// ArrayChanged and PositionChanged slots run on the ticker goroutine and must
// not call Stop, Pause, SetPosition or SetSource.
type QueuedPlayer struct {
	mu         sync.Mutex
	opener     media.Opener
	url        string
	source     media.Source
	state      media.PlaybackState
	position   int64
	duration   int64
	queue      *FrameQueue
	putTimeout time.Duration

	gen    uint64
	cancel context.CancelFunc
	// producer is waited for on every stop; it never emits signals
	producer sync.WaitGroup
	// emitMu is held by the ticker goroutine while it emits a frame
	emitMu  sync.Mutex
	eof     atomic.Bool
	readErr error

	converter *frame.FrameToArrayConverter

	ArrayChanged         *signal.Signal[frame.Array]
	PositionChanged      *signal.Signal[int64]
	DurationChanged      *signal.Signal[int64]
	PlaybackStateChanged *signal.Signal[media.PlaybackState]
	ErrorOccurred        *signal.Signal[error]
}

var _ media.Controllable = (*QueuedPlayer)(nil)

// NewQueuedPlayer sizes the queue from config.GlobalConfig.
func NewQueuedPlayer(opener media.Opener) *QueuedPlayer {
	cfg := config.GlobalConfig
	return NewQueuedPlayerSize(opener, cfg.QueueCapacity, cfg.QueuePutTimeout.Duration)
}

func NewQueuedPlayerSize(opener media.Opener, capacity int, putTimeout time.Duration) *QueuedPlayer {
	p := &QueuedPlayer{
		opener:               opener,
		queue:                NewFrameQueue(capacity),
		putTimeout:           putTimeout,
		converter:            frame.NewFrameToArrayConverter(),
		ArrayChanged:         signal.New[frame.Array](),
		PositionChanged:      signal.New[int64](),
		DurationChanged:      signal.New[int64](),
		PlaybackStateChanged: signal.New[media.PlaybackState](),
		ErrorOccurred:        signal.New[error](),
	}
	signal.Forward(p.converter.ArrayChanged, p.ArrayChanged)
	signal.Forward(p.converter.ErrorOccurred, p.ErrorOccurred)
	return p
}

func (p *QueuedPlayer) FrameToArrayConverter() *frame.FrameToArrayConverter {
	return p.converter
}

func (p *QueuedPlayer) Queue() *FrameQueue { return p.queue }

func (p *QueuedPlayer) Source() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *QueuedPlayer) PlaybackState() media.PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *QueuedPlayer) Position() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *QueuedPlayer) Duration() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

func (p *QueuedPlayer) PositionSignal() *signal.Signal[int64]            { return p.PositionChanged }
func (p *QueuedPlayer) DurationSignal() *signal.Signal[int64]            { return p.DurationChanged }
func (p *QueuedPlayer) StateSignal() *signal.Signal[media.PlaybackState] { return p.PlaybackStateChanged }
func (p *QueuedPlayer) ArraySignal() *signal.Signal[frame.Array]         { return p.ArrayChanged }

// halt cancels both goroutines, waits for the producer and for the ticker
// to finish any frame it is emitting. The caller must not hold p.mu.
func (p *QueuedPlayer) halt() {
	p.mu.Lock()
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()
	p.producer.Wait()
	p.emitMu.Lock()
	p.emitMu.Unlock()
}

func (p *QueuedPlayer) setState(state media.PlaybackState) {
	p.mu.Lock()
	changed := p.state != state
	p.state = state
	p.mu.Unlock()
	if changed {
		p.PlaybackStateChanged.Emit(state)
	}
}

// SetSource stops playback and opens url. It does not start playing.
func (p *QueuedPlayer) SetSource(url string) error {
	p.halt()
	p.queue.Drain()
	p.eof.Store(false)

	p.mu.Lock()
	old := p.source
	p.source = nil
	p.url = url
	p.position = 0
	p.duration = 0
	p.readErr = nil
	p.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			log.Errorf("close source failed: %v", err)
		}
	}
	p.setState(media.StoppedState)

	if url == "" {
		p.DurationChanged.Emit(0)
		return nil
	}
	if p.opener == nil {
		return errors.Wrap(media.ErrNoSource, "queued player has no opener")
	}
	src, err := p.opener(url)
	if err != nil {
		err = errors.Wrapf(err, "open %s", url)
		log.Errorf("set source failed: %v", err)
		p.ErrorOccurred.Emit(err)
		return err
	}

	p.mu.Lock()
	p.source = src
	p.duration = src.Duration()
	duration := p.duration
	p.mu.Unlock()

	p.DurationChanged.Emit(duration)
	p.PositionChanged.Emit(0)
	return nil
}

// Play starts the producer and the ticker. After the end of the stream it
// rewinds first.
func (p *QueuedPlayer) Play() {
	p.mu.Lock()
	src := p.source
	playing := p.state == media.PlayingState
	p.mu.Unlock()
	if src == nil || playing {
		return
	}

	if p.eof.Load() && p.queue.Len() == 0 {
		if err := src.Seek(0); err != nil {
			log.Errorf("rewind failed: %v", err)
		}
		p.eof.Store(false)
		p.mu.Lock()
		p.position = 0
		p.mu.Unlock()
	}

	p.mu.Lock()
	p.gen++
	gen := p.gen
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.mu.Unlock()

	p.setState(media.PlayingState)
	if !p.eof.Load() {
		p.producer.Add(1)
		go p.produce(ctx, src)
	}
	go p.consume(ctx, gen, src)
}

// Pause stops both goroutines; queued frames are kept for resume.
func (p *QueuedPlayer) Pause() {
	if p.sourceOrNil() == nil || p.PlaybackState() == media.PausedState {
		return
	}
	p.halt()
	p.setState(media.PausedState)
}

// Stop discards the queue and rewinds.
func (p *QueuedPlayer) Stop() {
	src := p.sourceOrNil()
	if src == nil {
		return
	}
	p.halt()
	p.queue.Drain()
	p.eof.Store(false)
	if err := src.Seek(0); err != nil {
		log.Errorf("rewind failed: %v", err)
	}
	p.mu.Lock()
	p.position = 0
	p.readErr = nil
	p.mu.Unlock()

	p.setState(media.StoppedState)
	p.PositionChanged.Emit(0)
}

// SetPosition discards the queue and seeks. Playback continues from the new
// position if it was running.
func (p *QueuedPlayer) SetPosition(position int64) {
	src := p.sourceOrNil()
	if src == nil {
		return
	}
	playing := p.PlaybackState() == media.PlayingState
	p.halt()
	p.queue.Drain()
	p.eof.Store(false)

	p.mu.Lock()
	if position < 0 {
		position = 0
	}
	if p.duration > 0 && position > p.duration {
		position = p.duration
	}
	p.position = position
	p.mu.Unlock()

	if err := src.Seek(position); err != nil {
		err = errors.Wrapf(err, "seek to %dms", position)
		log.Errorf("set position failed: %v", err)
		p.ErrorOccurred.Emit(err)
		return
	}
	p.PositionChanged.Emit(position)

	if playing {
		// force Play to restart the goroutines
		p.mu.Lock()
		p.state = media.PausedState
		p.mu.Unlock()
		p.Play()
	}
}

// Close stops playback, releases the source and closes the queue.
func (p *QueuedPlayer) Close() error {
	err := p.SetSource("")
	p.queue.Close()
	return err
}

func (p *QueuedPlayer) sourceOrNil() media.Source {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.source
}

func (p *QueuedPlayer) current(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen == gen
}

func (p *QueuedPlayer) produce(ctx context.Context, src media.Source) {
	defer p.producer.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		f, err := src.Read()
		if err == io.EOF {
			p.eof.Store(true)
			return
		}
		if err != nil {
			log.Errorf("queued player decode failed: %v", err)
			p.mu.Lock()
			p.readErr = errors.Wrap(err, "decode failed")
			p.mu.Unlock()
			p.eof.Store(true)
			return
		}

		switch err := p.queue.Put(ctx, f, p.putTimeout); {
		case err == nil:
		case errors.Is(err, ErrQueueFull):
			log.Debugf("frame at %dus dropped, %d drops", f.StartTime, p.queue.Drops())
		default:
			return
		}
	}
}

func (p *QueuedPlayer) consume(ctx context.Context, gen uint64, src media.Source) {
	fps := src.FrameRate()
	if fps <= 0 {
		fps = defaultFrameRate
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		f, ok := p.queue.TryGet()
		if !ok {
			if p.eof.Load() && p.queue.Len() == 0 {
				p.finish(gen)
				return
			}
			continue
		}

		if !p.emitFrame(gen, f) {
			return
		}
	}
}

// emitFrame converts f outside emitMu, then emits it while gen is current.
func (p *QueuedPlayer) emitFrame(gen uint64, f *frame.VideoFrame) bool {
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

func (p *QueuedPlayer) finish(gen uint64) {
	p.mu.Lock()
	if p.gen != gen {
		p.mu.Unlock()
		return
	}
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	err := p.readErr
	p.readErr = nil
	p.mu.Unlock()

	if err != nil {
		p.ErrorOccurred.Emit(err)
	} else {
		log.Infof("queued player reached end of %s", p.Source())
	}
	p.setState(media.StoppedState)
}
