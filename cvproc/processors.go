package cvproc

import (
	"image"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"cvwidgets/frame"
)

// CannyMode toggles edge detection.
type CannyMode int

const (
	CannyOff CannyMode = iota
	CannyOn
)

// ErrUnknownCannyMode is returned for a mode other than CannyOff or CannyOn.
var ErrUnknownCannyMode = errors.New("unknown canny mode")

// CannyEdgeDetector replaces the image by its Canny edges while on. Output
// keeps the channel count of the input.
type CannyEdgeDetector struct {
	mu   sync.RWMutex
	mode CannyMode
	low  float32
	high float32
}

func NewCannyEdgeDetector(low, high float32) *CannyEdgeDetector {
	return &CannyEdgeDetector{low: low, high: high}
}

func (c *CannyEdgeDetector) Mode() CannyMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

func (c *CannyEdgeDetector) SetMode(mode CannyMode) {
	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()
}

// Toggle is meant to be connected to a checkable button's Toggled signal.
func (c *CannyEdgeDetector) Toggle(on bool) {
	if on {
		c.SetMode(CannyOn)
	} else {
		c.SetMode(CannyOff)
	}
}

func (c *CannyEdgeDetector) Thresholds() (float32, float32) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.low, c.high
}

func (c *CannyEdgeDetector) SetThresholds(low, high float32) {
	c.mu.Lock()
	c.low, c.high = low, high
	c.mu.Unlock()
}

func (c *CannyEdgeDetector) ProcessArray(a frame.Array) (frame.Array, error) {
	c.mu.RLock()
	mode, low, high := c.mode, c.low, c.high
	c.mu.RUnlock()

	switch mode {
	case CannyOff:
		return a, nil
	case CannyOn:
	default:
		return frame.Array{}, errors.Wrapf(ErrUnknownCannyMode, "%d", mode)
	}

	return apply(a, func(src gocv.Mat, dst *gocv.Mat) error {
		gray := gocv.NewMat()
		defer gray.Close()
		switch a.Channels {
		case 1:
			src.CopyTo(&gray)
		case 3:
			gocv.CvtColor(src, &gray, gocv.ColorRGBToGray)
		case 4:
			gocv.CvtColor(src, &gray, gocv.ColorRGBAToGray)
		}

		edges := gocv.NewMat()
		defer edges.Close()
		gocv.Canny(gray, &edges, low, high)

		switch a.Channels {
		case 1:
			edges.CopyTo(dst)
		case 3:
			gocv.CvtColor(edges, dst, gocv.ColorGrayToRGB)
		case 4:
			gocv.CvtColor(edges, dst, gocv.ColorGrayToRGBA)
		}
		return nil
	})
}

// GaussianBlur blurs with a kernel derived from Sigma.
type GaussianBlur struct {
	Sigma float64
}

func (g GaussianBlur) ProcessArray(a frame.Array) (frame.Array, error) {
	if g.Sigma <= 0 {
		return a, nil
	}
	return apply(a, func(src gocv.Mat, dst *gocv.Mat) error {
		gocv.GaussianBlur(src, dst, image.Pt(0, 0), g.Sigma, g.Sigma, gocv.BorderDefault)
		return nil
	})
}

// BGRToRGB swaps the first and third channel of 3 and 4 channel arrays.
var BGRToRGB = frame.ProcessorFunc(func(a frame.Array) (frame.Array, error) {
	switch a.Channels {
	case 3:
		return apply(a, func(src gocv.Mat, dst *gocv.Mat) error {
			gocv.CvtColor(src, dst, gocv.ColorBGRToRGB)
			return nil
		})
	case 4:
		return apply(a, func(src gocv.Mat, dst *gocv.Mat) error {
			gocv.CvtColor(src, dst, gocv.ColorBGRAToRGBA)
			return nil
		})
	case 0:
		return a, nil
	default:
		return frame.Array{}, errors.Wrapf(frame.ErrInvalidFormat, "bgr to rgb on %d channels", a.Channels)
	}
})
