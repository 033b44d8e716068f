package media_test

import (
	"image"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvwidgets/frame"
	"cvwidgets/media"
	"cvwidgets/media/mediatest"
)

type recorder struct {
	mu       sync.Mutex
	states   []media.PlaybackState
	statuses []media.MediaStatus
	arrays   []frame.Array
	errs     []error
}

func record(p *media.Player) *recorder {
	r := &recorder{}
	p.PlaybackStateChanged.Connect(func(s media.PlaybackState) {
		r.mu.Lock()
		r.states = append(r.states, s)
		r.mu.Unlock()
	})
	p.MediaStatusChanged.Connect(func(s media.MediaStatus) {
		r.mu.Lock()
		r.statuses = append(r.statuses, s)
		r.mu.Unlock()
	})
	p.ArrayChanged.Connect(func(a frame.Array) {
		r.mu.Lock()
		r.arrays = append(r.arrays, a)
		r.mu.Unlock()
	})
	p.ErrorOccurred.Connect(func(err error) {
		r.mu.Lock()
		r.errs = append(r.errs, err)
		r.mu.Unlock()
	})
	return r
}

func (r *recorder) snapshot() ([]media.PlaybackState, []media.MediaStatus, []frame.Array, []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]media.PlaybackState(nil), r.states...),
		append([]media.MediaStatus(nil), r.statuses...),
		append([]frame.Array(nil), r.arrays...),
		append([]error(nil), r.errs...)
}

func TestPlayerSetSourceDoesNotPlay(t *testing.T) {
	src := mediatest.NewSource(10, 100)
	p := media.NewPlayer(mediatest.Opener(src))
	r := record(p)

	var duration int64
	p.DurationChanged.Connect(func(d int64) { duration = d })

	require.NoError(t, p.SetSource("hello.mp4"))
	assert.Equal(t, media.StoppedState, p.PlaybackState())
	assert.Equal(t, media.LoadedMedia, p.MediaStatus())
	assert.Equal(t, int64(100), duration)
	assert.Equal(t, "hello.mp4", p.Source())

	_, statuses, arrays, _ := r.snapshot()
	assert.Equal(t, []media.MediaStatus{media.LoadedMedia}, statuses)
	assert.Empty(t, arrays)
}

func TestPlayerSetSourceInvalid(t *testing.T) {
	p := media.NewPlayer(mediatest.Opener(mediatest.NewSource(1, 10)))
	r := record(p)

	err := p.SetSource("missing")
	assert.Error(t, err)
	assert.Equal(t, media.InvalidMedia, p.MediaStatus())

	_, _, _, errs := r.snapshot()
	assert.Len(t, errs, 1)

	// no source loaded: controls are no-ops
	p.Play()
	assert.Equal(t, media.StoppedState, p.PlaybackState())
}

func TestPlayerPlaysToEnd(t *testing.T) {
	src := mediatest.NewSource(20, 1000)
	p := media.NewPlayer(mediatest.Opener(src))
	require.NoError(t, p.SetSource("hello.mp4"))
	p.SetPlaybackRate(10)
	r := record(p)

	p.Play()
	require.Eventually(t, func() bool {
		_, statuses, _, _ := r.snapshot()
		return len(statuses) == 2
	}, 5*time.Second, 5*time.Millisecond)

	states, statuses, arrays, errs := r.snapshot()
	assert.Equal(t, []media.PlaybackState{media.PlayingState, media.StoppedState}, states)
	assert.Equal(t, []media.MediaStatus{media.BufferedMedia, media.EndOfMedia}, statuses)
	assert.Empty(t, errs)
	require.Len(t, arrays, 20)
	assert.Equal(t, uint8(19), arrays[19].At(0, 0, 0))
	assert.Equal(t, 3, arrays[0].Channels)
	assert.Equal(t, media.StoppedState, p.PlaybackState())
}

func TestPlayerPauseResume(t *testing.T) {
	src := mediatest.NewSource(1000, 200)
	p := media.NewPlayer(mediatest.Opener(src))
	require.NoError(t, p.SetSource("hello.mp4"))

	p.Play()
	require.Eventually(t, func() bool { return src.Reads() > 2 }, 2*time.Second, time.Millisecond)
	p.Pause()
	assert.Equal(t, media.PausedState, p.PlaybackState())

	// let any in-flight read settle
	time.Sleep(50 * time.Millisecond)
	reads := src.Reads()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, reads, src.Reads())

	p.Play()
	assert.Equal(t, media.PlayingState, p.PlaybackState())
	require.Eventually(t, func() bool { return src.Reads() > reads }, 2*time.Second, time.Millisecond)
	p.Stop()
	assert.Equal(t, media.StoppedState, p.PlaybackState())
	assert.Equal(t, int64(0), p.Position())
}

func TestPlayerSetPositionWhilePaused(t *testing.T) {
	src := mediatest.NewSource(100, 10)
	p := media.NewPlayer(mediatest.Opener(src))
	require.NoError(t, p.SetSource("hello.mp4"))
	r := record(p)

	var positions []int64
	p.PositionChanged.Connect(func(v int64) { positions = append(positions, v) })

	p.SetPosition(5000)
	assert.Equal(t, int64(5000), p.Position())
	assert.Equal(t, []int64{5000}, positions)
	assert.Equal(t, []int64{5000}, src.Seeks())

	_, _, arrays, _ := r.snapshot()
	require.Len(t, arrays, 1)
	assert.Equal(t, uint8(50), arrays[0].At(0, 0, 0))

	// clamped to duration
	p.SetPosition(1 << 40)
	assert.Equal(t, p.Duration(), p.Position())
}

// slowConverter counts conversions and delays each one.
type slowConverter struct {
	mu    sync.Mutex
	calls int
	delay time.Duration
}

func (c *slowConverter) convert(img image.Image) (frame.Array, error) {
	time.Sleep(c.delay)
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return frame.RGBView(img)
}

func (c *slowConverter) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type positionLog struct {
	mu     sync.Mutex
	values []int64
}

func (l *positionLog) add(v int64) {
	l.mu.Lock()
	l.values = append(l.values, v)
	l.mu.Unlock()
}

func (l *positionLog) snapshot() []int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]int64(nil), l.values...)
}

func TestPlayerStopDropsFrameInFlight(t *testing.T) {
	src := mediatest.NewSource(1000, 100)
	p := media.NewPlayer(mediatest.Opener(src))
	conv := &slowConverter{delay: 30 * time.Millisecond}
	p.FrameToArrayConverter().SetConverter(conv.convert)
	require.NoError(t, p.SetSource("hello.mp4"))

	r := record(p)
	// a slow slot keeps the playback goroutine inside its emit
	p.ArrayChanged.Connect(func(frame.Array) { time.Sleep(10 * time.Millisecond) })
	positions := &positionLog{}
	p.PositionChanged.Connect(positions.add)

	p.Play()
	require.Eventually(t, func() bool { return conv.Calls() >= 2 }, 2*time.Second, time.Millisecond)
	p.Stop()
	_, _, before, _ := r.snapshot()

	time.Sleep(100 * time.Millisecond)
	_, _, after, _ := r.snapshot()
	assert.Len(t, after, len(before), "no frame after Stop")

	values := positions.snapshot()
	require.NotEmpty(t, values)
	assert.Equal(t, int64(0), values[len(values)-1])
	assert.Equal(t, int64(0), p.Position())
	assert.Equal(t, media.StoppedState, p.PlaybackState())
}

func TestPlayerPauseDropsFrameInFlight(t *testing.T) {
	src := mediatest.NewSource(1000, 100)
	p := media.NewPlayer(mediatest.Opener(src))
	conv := &slowConverter{delay: 30 * time.Millisecond}
	p.FrameToArrayConverter().SetConverter(conv.convert)
	require.NoError(t, p.SetSource("hello.mp4"))
	r := record(p)

	p.Play()
	require.Eventually(t, func() bool { return conv.Calls() >= 2 }, 2*time.Second, time.Millisecond)
	p.Pause()
	pos := p.Position()
	_, _, before, _ := r.snapshot()

	time.Sleep(100 * time.Millisecond)
	_, _, after, _ := r.snapshot()
	assert.Len(t, after, len(before))
	assert.Equal(t, pos, p.Position())
}

func TestPlayerSeekWhilePlayingDropsOldFrames(t *testing.T) {
	src := mediatest.NewSource(1000, 100)
	p := media.NewPlayer(mediatest.Opener(src))
	conv := &slowConverter{delay: 20 * time.Millisecond}
	p.FrameToArrayConverter().SetConverter(conv.convert)
	require.NoError(t, p.SetSource("hello.mp4"))
	positions := &positionLog{}
	p.PositionChanged.Connect(positions.add)

	p.Play()
	require.Eventually(t, func() bool { return conv.Calls() >= 2 }, 2*time.Second, time.Millisecond)
	p.SetPosition(5000)
	assert.Equal(t, media.PlayingState, p.PlaybackState())

	// playback continues from the new position
	require.Eventually(t, func() bool {
		values := positions.snapshot()
		return values[len(values)-1] > 5000
	}, 2*time.Second, time.Millisecond)
	p.Stop()

	values := positions.snapshot()
	seek := -1
	for i, v := range values {
		if v == 5000 {
			seek = i
			break
		}
	}
	require.GreaterOrEqual(t, seek, 0)
	for _, v := range values[seek:] {
		if v == 0 {
			break // Stop
		}
		assert.GreaterOrEqual(t, v, int64(5000))
	}
}

func TestPlayerRestartAfterEnd(t *testing.T) {
	src := mediatest.NewSource(3, 1000)
	p := media.NewPlayer(mediatest.Opener(src))
	require.NoError(t, p.SetSource("hello.mp4"))

	p.Play()
	require.Eventually(t, func() bool { return p.MediaStatus() == media.EndOfMedia }, 2*time.Second, time.Millisecond)

	p.Play()
	require.Eventually(t, func() bool { return src.Reads() == 6 }, 2*time.Second, time.Millisecond)
	assert.Contains(t, src.Seeks(), int64(0))
}

func TestPlayerDecodeError(t *testing.T) {
	src := mediatest.NewSource(10, 1000)
	src.FailAt = 2
	src.ReadErr = errors.New("corrupt packet")
	p := media.NewPlayer(mediatest.Opener(src))
	require.NoError(t, p.SetSource("hello.mp4"))
	r := record(p)

	p.Play()
	require.Eventually(t, func() bool {
		states, _, _, _ := r.snapshot()
		return len(states) == 2
	}, 2*time.Second, time.Millisecond)

	states, _, arrays, errs := r.snapshot()
	assert.Equal(t, media.StoppedState, states[1])
	assert.Len(t, arrays, 2)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "corrupt packet")
}

func TestPlayerCloseReleasesSource(t *testing.T) {
	src := mediatest.NewSource(10, 10)
	p := media.NewPlayer(mediatest.Opener(src))
	require.NoError(t, p.SetSource("hello.mp4"))
	p.Play()

	require.NoError(t, p.Close())
	assert.True(t, src.Closed())
	assert.Equal(t, media.NoMedia, p.MediaStatus())
	assert.Equal(t, media.StoppedState, p.PlaybackState())
}

func TestPlayerIgnoresInvalidRate(t *testing.T) {
	p := media.NewPlayer(nil)
	p.SetPlaybackRate(0)
	p.SetPlaybackRate(-2)
	assert.Equal(t, 1.0, p.PlaybackRate())
	p.SetPlaybackRate(4)
	assert.Equal(t, 4.0, p.PlaybackRate())
}

func TestCaptureSession(t *testing.T) {
	cam := mediatest.NewCamera()
	session := media.NewCaptureSession()

	var arrays []frame.Array
	session.ArrayChanged.Connect(func(a frame.Array) { arrays = append(arrays, a) })

	assert.Error(t, session.Start())

	session.SetCamera(cam)
	assert.Equal(t, media.Camera(cam), session.Camera())
	require.NoError(t, session.Start())

	src := mediatest.NewSource(1, 1)
	cam.Push(src.Image(7), 0)
	require.Len(t, arrays, 1)
	assert.Equal(t, uint8(7), arrays[0].At(0, 0, 0))

	// null frames are dropped by the converter
	cam.Push(nil, 1)
	assert.Len(t, arrays, 1)

	session.SetCamera(nil)
	cam.Push(src.Image(8), 2)
	assert.Len(t, arrays, 1)
	assert.NoError(t, session.Stop())
}
