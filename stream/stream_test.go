package stream

import (
	"context"
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

func TestFrameQueuePutTimeout(t *testing.T) {
	q := NewFrameQueue(2)
	ctx := context.Background()

	require.NoError(t, q.Put(ctx, &frame.VideoFrame{StartTime: 1}, 0))
	require.NoError(t, q.Put(ctx, &frame.VideoFrame{StartTime: 2}, 0))
	assert.Equal(t, 2, q.Len())

	begin := time.Now()
	err := q.Put(ctx, &frame.VideoFrame{StartTime: 3}, 20*time.Millisecond)
	assert.True(t, errors.Is(err, ErrQueueFull))
	assert.GreaterOrEqual(t, time.Since(begin), 20*time.Millisecond)
	assert.Equal(t, uint64(1), q.Drops())

	f, ok := q.TryGet()
	require.True(t, ok)
	assert.Equal(t, int64(1), f.StartTime)

	require.NoError(t, q.Put(ctx, &frame.VideoFrame{StartTime: 3}, time.Second))
	assert.Equal(t, 2, q.Drain())
	_, ok = q.TryGet()
	assert.False(t, ok)
}

func TestFrameQueuePutUnblocks(t *testing.T) {
	q := NewFrameQueue(1)
	ctx := context.Background()
	require.NoError(t, q.Put(ctx, &frame.VideoFrame{}, 0))

	done := make(chan error, 1)
	go func() { done <- q.Put(ctx, &frame.VideoFrame{StartTime: 9}, time.Second) }()

	time.Sleep(10 * time.Millisecond)
	_, ok := q.TryGet()
	require.True(t, ok)
	require.NoError(t, <-done)

	cctx, cancel := context.WithCancel(ctx)
	go func() { done <- q.Put(cctx, &frame.VideoFrame{}, time.Second) }()
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	go func() { done <- q.Put(ctx, &frame.VideoFrame{}, time.Second) }()
	time.Sleep(10 * time.Millisecond)
	q.Close()
	assert.ErrorIs(t, <-done, ErrQueueClosed)
	assert.ErrorIs(t, q.Put(ctx, &frame.VideoFrame{}, 0), ErrQueueClosed)
}

type states struct {
	mu sync.Mutex
	v  []media.PlaybackState
}

func (s *states) add(v media.PlaybackState) {
	s.mu.Lock()
	s.v = append(s.v, v)
	s.mu.Unlock()
}

func (s *states) get() []media.PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]media.PlaybackState(nil), s.v...)
}

func TestQueuedPlayerPlaysAllFrames(t *testing.T) {
	src := mediatest.NewSource(15, 500)
	p := NewQueuedPlayerSize(mediatest.Opener(src), 4, time.Second)
	require.NoError(t, p.SetSource("hello.mp4"))
	assert.Equal(t, media.StoppedState, p.PlaybackState())

	var mu sync.Mutex
	var got []uint8
	p.ArrayChanged.Connect(func(a frame.Array) {
		mu.Lock()
		got = append(got, a.At(0, 0, 0))
		mu.Unlock()
	})
	st := &states{}
	p.PlaybackStateChanged.Connect(st.add)

	p.Play()
	require.Eventually(t, func() bool { return len(st.get()) == 2 }, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, []media.PlaybackState{media.PlayingState, media.StoppedState}, st.get())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 15)
	for i, v := range got {
		assert.Equal(t, uint8(i), v)
	}
}

func TestQueuedPlayerPauseKeepsQueue(t *testing.T) {
	src := mediatest.NewSource(1000, 100)
	p := NewQueuedPlayerSize(mediatest.Opener(src), 3, 10*time.Millisecond)
	require.NoError(t, p.SetSource("hello.mp4"))

	p.Play()
	require.Eventually(t, func() bool { return p.Position() > 0 }, 2*time.Second, time.Millisecond)
	p.Pause()
	assert.Equal(t, media.PausedState, p.PlaybackState())

	pos := p.Position()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, pos, p.Position())
	// the producer keeps at most a full queue ahead
	assert.LessOrEqual(t, p.Queue().Len(), 3)

	p.Play()
	require.Eventually(t, func() bool { return p.Position() > pos }, 2*time.Second, time.Millisecond)

	p.Stop()
	assert.Equal(t, media.StoppedState, p.PlaybackState())
	assert.Equal(t, int64(0), p.Position())
	assert.Equal(t, 0, p.Queue().Len())
	require.NoError(t, p.Close())
}

func TestQueuedPlayerSetPosition(t *testing.T) {
	src := mediatest.NewSource(100, 10)
	p := NewQueuedPlayerSize(mediatest.Opener(src), 2, time.Second)
	require.NoError(t, p.SetSource("hello.mp4"))

	p.SetPosition(4000)
	assert.Equal(t, int64(4000), p.Position())
	assert.Equal(t, media.StoppedState, p.PlaybackState())
	assert.Equal(t, []int64{4000}, src.Seeks())
}

func TestQueuedPlayerOpenError(t *testing.T) {
	p := NewQueuedPlayerSize(mediatest.Opener(nil), 2, time.Second)
	var errs []error
	p.ErrorOccurred.Connect(func(err error) { errs = append(errs, err) })

	assert.Error(t, p.SetSource("missing"))
	assert.Len(t, errs, 1)
	p.Play()
	assert.Equal(t, media.StoppedState, p.PlaybackState())
}

func TestQueuedPlayerDropsWhenConsumerIsSlow(t *testing.T) {
	// 20 fps ticker against a source decoding as fast as it can
	src := mediatest.NewSource(5000, 20)
	p := NewQueuedPlayerSize(mediatest.Opener(src), 2, time.Millisecond)
	require.NoError(t, p.SetSource("hello.mp4"))

	var mu sync.Mutex
	var got []uint8
	p.ArrayChanged.Connect(func(a frame.Array) {
		mu.Lock()
		got = append(got, a.At(0, 0, 0))
		mu.Unlock()
	})
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(got)
	}

	p.Play()
	require.Eventually(t, func() bool { return p.Queue().Drops() > 10 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, media.PlayingState, p.PlaybackState())

	n := count()
	require.Eventually(t, func() bool { return count() > n+1 }, 2*time.Second, time.Millisecond)
	assert.Equal(t, media.PlayingState, p.PlaybackState())
	assert.LessOrEqual(t, p.Queue().Len(), 2)

	// dropped frames leave gaps: 50ms per frame without drops
	pos := p.Position()
	shown := count()
	p.Stop()
	assert.Greater(t, pos, int64(shown-1)*50)
}

func TestQueuedPlayerStopDropsFrameInFlight(t *testing.T) {
	src := mediatest.NewSource(1000, 100)
	p := NewQueuedPlayerSize(mediatest.Opener(src), 4, time.Second)

	var mu sync.Mutex
	conversions := 0
	p.FrameToArrayConverter().SetConverter(func(img image.Image) (frame.Array, error) {
		time.Sleep(30 * time.Millisecond)
		mu.Lock()
		conversions++
		mu.Unlock()
		return frame.RGBView(img)
	})
	require.NoError(t, p.SetSource("hello.mp4"))

	arrays := 0
	var positions []int64
	p.ArrayChanged.Connect(func(frame.Array) {
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		arrays++
		mu.Unlock()
	})
	p.PositionChanged.Connect(func(v int64) {
		mu.Lock()
		positions = append(positions, v)
		mu.Unlock()
	})

	p.Play()
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return conversions >= 2
	}, 2*time.Second, time.Millisecond)
	p.Stop()
	mu.Lock()
	before := arrays
	mu.Unlock()

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, before, arrays, "no frame after Stop")
	require.NotEmpty(t, positions)
	assert.Equal(t, int64(0), positions[len(positions)-1])
	assert.Equal(t, int64(0), p.Position())
}
