package frame

import (
	"image"
	"sync"

	log "github.com/sirupsen/logrus"

	"cvwidgets/util/signal"
)

// VideoFrame is one decoded sample handed over by a capture source.
type VideoFrame struct {
	Image image.Image
	// StartTime 帧的开始时间，单位微秒
	StartTime int64
}

// IsNull reports whether the frame carries no image.
func (f *VideoFrame) IsNull() bool {
	return f == nil || IsNullImage(f.Image)
}

// FrameToArrayConverter converts video frames to arrays and emits them on
// ArrayChanged. Null frames are skipped unless IgnoreNullFrame is turned off,
// in which case an empty array is emitted.
type FrameToArrayConverter struct {
	mu              sync.RWMutex
	ignoreNullFrame bool
	converter       Converter

	ArrayChanged          *signal.Signal[Array]
	FrameStartTimeChanged *signal.Signal[int64]
	ErrorOccurred         *signal.Signal[error]
}

func NewFrameToArrayConverter() *FrameToArrayConverter {
	return &FrameToArrayConverter{
		ignoreNullFrame:       true,
		converter:             RGBView,
		ArrayChanged:          signal.New[Array](),
		FrameStartTimeChanged: signal.New[int64](),
		ErrorOccurred:         signal.New[error](),
	}
}

func (c *FrameToArrayConverter) IgnoreNullFrame() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ignoreNullFrame
}

func (c *FrameToArrayConverter) SetIgnoreNullFrame(ignore bool) {
	c.mu.Lock()
	c.ignoreNullFrame = ignore
	c.mu.Unlock()
}

// Converter returns the image-to-array function. Default is RGBView.
func (c *FrameToArrayConverter) Converter() Converter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.converter
}

func (c *FrameToArrayConverter) SetConverter(fn Converter) {
	c.mu.Lock()
	c.converter = fn
	c.mu.Unlock()
}

// ConvertedFrame is a frame converted by ConvertFrame and not yet emitted.
type ConvertedFrame struct {
	StartTime int64
	Array     Array
	Err       error
	// Skip is set for null frames that are ignored.
	Skip bool
}

// SetVideoFrame converts frame and emits the result.
func (c *FrameToArrayConverter) SetVideoFrame(frame *VideoFrame) {
	c.Publish(c.ConvertFrame(frame), nil)
}

// ConvertFrame does the conversion of SetVideoFrame without emitting.
func (c *FrameToArrayConverter) ConvertFrame(frame *VideoFrame) ConvertedFrame {
	var cf ConvertedFrame
	if frame != nil {
		cf.StartTime = frame.StartTime
	}
	if frame.IsNull() && c.IgnoreNullFrame() {
		cf.Skip = true
		return cf
	}
	var img image.Image
	if frame != nil {
		img = frame.Image
	}
	cf.Array, cf.Err = c.ConvertImageToArray(img)
	if cf.Err != nil {
		log.Errorf("convert frame at %dus failed: %v", cf.StartTime, cf.Err)
	}
	return cf
}

// Publish emits cf: the start time first, then the array or the conversion
// error. keep is checked before each signal and publishing stops once it
// returns false. Publish reports whether every signal was emitted.
func (c *FrameToArrayConverter) Publish(cf ConvertedFrame, keep func() bool) bool {
	if keep != nil && !keep() {
		return false
	}
	c.FrameStartTimeChanged.Emit(cf.StartTime)
	if cf.Skip {
		return true
	}
	if keep != nil && !keep() {
		return false
	}
	if cf.Err != nil {
		c.ErrorOccurred.Emit(cf.Err)
		return true
	}
	c.ArrayChanged.Emit(cf.Array)
	return true
}

// ConvertImageToArray converts img with Converter. A null image converts to
// an empty array.
func (c *FrameToArrayConverter) ConvertImageToArray(img image.Image) (Array, error) {
	if IsNullImage(img) {
		return Array{}, nil
	}
	return c.Converter()(img)
}
