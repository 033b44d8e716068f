// Package capture binds media sources to OpenCV's VideoCapture.
package capture

import (
	"image"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"cvwidgets/frame"
	"cvwidgets/media"
)

// FileSource decodes a file or network stream through OpenCV.
type FileSource struct {
	mu       sync.Mutex
	url      string
	capture  *gocv.VideoCapture
	buf      gocv.Mat
	fps      float64
	duration int64
	// raw keeps OpenCV's BGR channel order in the emitted images.
	raw bool
}

var _ media.Source = (*FileSource)(nil)

// Open is the default media.Opener. Files, rtsp:// and http(s):// URLs are
// all handed to OpenCV's FFmpeg backend.
func Open(url string) (media.Source, error) {
	return OpenFile(url)
}

// OpenRaw opens url like Open, but frames keep OpenCV's native BGR order:
// the red slot of each pixel carries blue. Pair it with a BGR to RGB
// processor.
func OpenRaw(url string) (media.Source, error) {
	src, err := OpenFile(url)
	if err != nil {
		return nil, err
	}
	src.raw = true
	return src, nil
}

func OpenFile(url string) (*FileSource, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.Wrap(media.ErrNoSource, "empty url")
	}
	vc, err := gocv.VideoCaptureFile(url)
	if err != nil {
		return nil, errors.Wrapf(err, "open video capture %s", url)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, errors.Errorf("video capture %s not opened", url)
	}

	fps := vc.Get(gocv.VideoCaptureFPS)
	count := vc.Get(gocv.VideoCaptureFrameCount)
	var duration int64
	if fps > 0 && count > 0 {
		duration = int64(count / fps * 1000)
	}
	log.Debugf("capture opened %s: fps=%.2f frames=%.0f", url, fps, count)

	return &FileSource{
		url:      url,
		capture:  vc,
		buf:      gocv.NewMat(),
		fps:      fps,
		duration: duration,
	}, nil
}

// Read decodes the next frame. The start time is the capture position before
// the read, in microseconds.
func (s *FileSource) Read() (*frame.VideoFrame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capture == nil {
		return nil, errors.New("source closed")
	}

	start := int64(s.capture.Get(gocv.VideoCapturePosMsec) * 1000)
	if ok := s.capture.Read(&s.buf); !ok || s.buf.Empty() {
		return nil, io.EOF
	}
	if s.raw {
		img, err := rawImage(s.buf)
		if err != nil {
			return nil, err
		}
		return &frame.VideoFrame{Image: img, StartTime: start}, nil
	}
	img, err := s.buf.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "convert frame")
	}
	return &frame.VideoFrame{Image: img, StartTime: start}, nil
}

func rawImage(m gocv.Mat) (*image.RGBA, error) {
	if m.Type() != gocv.MatTypeCV8UC3 {
		return nil, errors.Wrapf(frame.ErrInvalidFormat, "raw frame of type %v", m.Type())
	}
	w, h := m.Cols(), m.Rows()
	b := m.ToBytes()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i, j := 0, 0; j+2 < len(b) && i+3 < len(img.Pix); i, j = i+4, j+3 {
		img.Pix[i] = b[j]
		img.Pix[i+1] = b[j+1]
		img.Pix[i+2] = b[j+2]
		img.Pix[i+3] = 0xff
	}
	return img, nil
}

// Seek 跳转到指定毫秒位置
func (s *FileSource) Seek(position int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capture == nil {
		return errors.New("source closed")
	}
	s.capture.Set(gocv.VideoCapturePosMsec, float64(position))
	return nil
}

func (s *FileSource) Duration() int64 {
	return s.duration
}

func (s *FileSource) FrameRate() float64 {
	return s.fps
}

func (s *FileSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.capture == nil {
		return nil
	}
	err := s.capture.Close()
	s.buf.Close()
	s.capture = nil
	return errors.Wrapf(err, "close %s", s.url)
}

// FirstFrame returns the first frame of the file at path as an RGBA array.
func FirstFrame(path string) (frame.Array, error) {
	src, err := OpenFile(path)
	if err != nil {
		return frame.Array{}, err
	}
	defer src.Close()

	f, err := src.Read()
	if err != nil {
		return frame.Array{}, errors.Wrapf(err, "read first frame of %s", path)
	}
	return frame.RGBAView(f.Image)
}
