// Package mediatest provides in-memory sources and cameras for tests.
package mediatest

import (
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/pkg/errors"

	"cvwidgets/frame"
	"cvwidgets/media"
	"cvwidgets/util/signal"
)

// Source yields Frames synthetic frames of Width x Height at FPS. The red
// channel of every pixel holds the frame index.
type Source struct {
	mu     sync.Mutex
	Frames int
	FPS    float64
	Width  int
	Height int
	// FailAt makes Read return ReadErr at that index when >= 0.
	FailAt  int
	ReadErr error

	index  int
	closed bool
	reads  int
	seeks  []int64
}

func NewSource(frames int, fps float64) *Source {
	return &Source{Frames: frames, FPS: fps, Width: 8, Height: 6, FailAt: -1}
}

var _ media.Source = (*Source)(nil)

// Image returns the synthetic image for frame i.
func (s *Source) Image(i int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, s.Width, s.Height))
	c := color.RGBA{R: uint8(i), G: 0x40, B: 0x80, A: 0xff}
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func (s *Source) Read() (*frame.VideoFrame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("source closed")
	}
	if s.FailAt >= 0 && s.index == s.FailAt {
		return nil, s.ReadErr
	}
	if s.index >= s.Frames {
		return nil, io.EOF
	}
	i := s.index
	s.index++
	s.reads++
	return &frame.VideoFrame{
		Image:     s.Image(i),
		StartTime: int64(float64(i) * 1e6 / s.FPS),
	}, nil
}

func (s *Source) Seek(position int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seeks = append(s.seeks, position)
	s.index = int(float64(position) * s.FPS / 1000)
	if s.index > s.Frames {
		s.index = s.Frames
	}
	return nil
}

func (s *Source) Duration() int64 {
	return int64(float64(s.Frames) * 1000 / s.FPS)
}

func (s *Source) FrameRate() float64 {
	return s.FPS
}

func (s *Source) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *Source) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Source) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func (s *Source) Seeks() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.seeks...)
}

// Opener returns an opener handing out src for any url except "missing".
func Opener(src media.Source) media.Opener {
	return func(url string) (media.Source, error) {
		if url == "missing" {
			return nil, errors.Errorf("cannot open %s", url)
		}
		return src, nil
	}
}

// Camera is a manually driven media.Camera.
type Camera struct {
	mu       sync.Mutex
	started  bool
	frames   *signal.Signal[*frame.VideoFrame]
	StartErr error
}

func NewCamera() *Camera {
	return &Camera{frames: signal.New[*frame.VideoFrame]()}
}

var _ media.Camera = (*Camera)(nil)

func (c *Camera) Start() error {
	if c.StartErr != nil {
		return c.StartErr
	}
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()
	return nil
}

func (c *Camera) Stop() error {
	c.mu.Lock()
	c.started = false
	c.mu.Unlock()
	return nil
}

func (c *Camera) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

func (c *Camera) VideoFrameChanged() *signal.Signal[*frame.VideoFrame] {
	return c.frames
}

// Push emits img as a frame if the camera is started.
func (c *Camera) Push(img image.Image, startTime int64) {
	if !c.Started() {
		return
	}
	c.frames.Emit(&frame.VideoFrame{Image: img, StartTime: startTime})
}
