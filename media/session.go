package media

import (
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"cvwidgets/frame"
	"cvwidgets/util/signal"
)

// CaptureSession routes frames from a Camera through a converter and emits
// them as arrays on ArrayChanged.
type CaptureSession struct {
	mu        sync.Mutex
	camera    Camera
	conn      signal.Connection
	converter *frame.FrameToArrayConverter

	ArrayChanged  *signal.Signal[frame.Array]
	CameraChanged *signal.Signal[Camera]
	ErrorOccurred *signal.Signal[error]
}

func NewCaptureSession() *CaptureSession {
	s := &CaptureSession{
		converter:     frame.NewFrameToArrayConverter(),
		ArrayChanged:  signal.New[frame.Array](),
		CameraChanged: signal.New[Camera](),
		ErrorOccurred: signal.New[error](),
	}
	signal.Forward(s.converter.ArrayChanged, s.ArrayChanged)
	signal.Forward(s.converter.ErrorOccurred, s.ErrorOccurred)
	return s
}

func (s *CaptureSession) FrameToArrayConverter() *frame.FrameToArrayConverter {
	return s.converter
}

func (s *CaptureSession) Camera() Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camera
}

// SetCamera detaches the previous camera (without stopping it) and attaches
// cam. A nil cam only detaches.
func (s *CaptureSession) SetCamera(cam Camera) {
	s.mu.Lock()
	if s.camera == cam {
		s.mu.Unlock()
		return
	}
	if s.camera != nil {
		s.camera.VideoFrameChanged().Disconnect(s.conn)
	}
	s.camera = cam
	if cam != nil {
		s.conn = cam.VideoFrameChanged().Connect(s.converter.SetVideoFrame)
	}
	s.mu.Unlock()

	s.CameraChanged.Emit(cam)
}

// Start starts the attached camera.
func (s *CaptureSession) Start() error {
	cam := s.Camera()
	if cam == nil {
		return errors.Wrap(ErrNoSource, "capture session has no camera")
	}
	if err := cam.Start(); err != nil {
		err = errors.Wrap(err, "start camera")
		log.Errorf("capture session: %v", err)
		s.ErrorOccurred.Emit(err)
		return err
	}
	return nil
}

// Stop stops the attached camera.
func (s *CaptureSession) Stop() error {
	cam := s.Camera()
	if cam == nil {
		return nil
	}
	return errors.Wrap(cam.Stop(), "stop camera")
}

func (s *CaptureSession) ArraySignal() *signal.Signal[frame.Array] { return s.ArrayChanged }
