package capture

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"cvwidgets/frame"
	"cvwidgets/media"
	"cvwidgets/util/signal"
)

// Camera streams frames from a capture device while started.
type Camera struct {
	mu     sync.Mutex
	device interface{}
	stop   chan struct{}
	frames *signal.Signal[*frame.VideoFrame]
}

var _ media.Camera = (*Camera)(nil)

// NewCamera takes a device index or a device path.
func NewCamera(device interface{}) *Camera {
	return &Camera{device: device, frames: signal.New[*frame.VideoFrame]()}
}

func (c *Camera) VideoFrameChanged() *signal.Signal[*frame.VideoFrame] {
	return c.frames
}

// Start opens the device and begins emitting frames. Starting a running
// camera is a no-op.
func (c *Camera) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(c.device)
	if err != nil {
		return errors.Wrapf(err, "open camera %v", c.device)
	}
	if !vc.IsOpened() {
		vc.Close()
		return errors.Errorf("camera %v not opened", c.device)
	}

	c.stop = make(chan struct{})
	go c.loop(vc, c.stop)
	log.Infof("camera %v started", c.device)
	return nil
}

// Stop signals the capture goroutine; the device is released by it.
func (c *Camera) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop == nil {
		return nil
	}
	close(c.stop)
	c.stop = nil
	log.Infof("camera %v stopped", c.device)
	return nil
}

func (c *Camera) loop(vc *gocv.VideoCapture, stop chan struct{}) {
	buf := gocv.NewMat()
	defer buf.Close()
	defer vc.Close()

	begin := time.Now()
	for {
		select {
		case <-stop:
			return
		default:
		}

		if ok := vc.Read(&buf); !ok {
			log.Warnf("camera %v: read failed", c.device)
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if buf.Empty() {
			continue
		}
		img, err := buf.ToImage()
		if err != nil {
			log.Errorf("camera %v: %v", c.device, err)
			continue
		}

		select {
		case <-stop:
			return
		default:
		}
		c.frames.Emit(&frame.VideoFrame{
			Image:     img,
			StartTime: time.Since(begin).Microseconds(),
		})
	}
}
