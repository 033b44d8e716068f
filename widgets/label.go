package widgets

import (
	"image"
	"strings"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/draw"

	"cvwidgets/frame"
	"cvwidgets/util/signal"
)

// ScaleMode decides when a label scales its pixmap to its own size.
type ScaleMode int

const (
	// NoScale never scales. A label smaller than the pixmap clips it.
	NoScale ScaleMode = iota
	// DownScaleOnly scales, but never above the original size.
	DownScaleOnly
	// UpScaleOnly scales, but never below the original size.
	UpScaleOnly
	// AllScale scales to any size.
	AllScale
)

// ErrUnknownScaleMode is returned for a ScaleMode outside the defined ones.
var ErrUnknownScaleMode = errors.New("unrecognized pixmap scale mode")

func (m ScaleMode) String() string {
	switch m {
	case NoScale:
		return "none"
	case DownScaleOnly:
		return "downscale"
	case UpScaleOnly:
		return "upscale"
	case AllScale:
		return "all"
	default:
		return "unknown"
	}
}

func (m ScaleMode) valid() bool {
	return m >= NoScale && m <= AllScale
}

// ParseScaleMode accepts the names produced by ScaleMode.String.
func ParseScaleMode(s string) (ScaleMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "noscale":
		return NoScale, nil
	case "", "downscale", "down":
		return DownScaleOnly, nil
	case "upscale", "up":
		return UpScaleOnly, nil
	case "all", "allscale":
		return AllScale, nil
	default:
		return DownScaleOnly, errors.Wrapf(ErrUnknownScaleMode, "%q", s)
	}
}

// Alignment of the pixmap inside the label, a combination of one horizontal
// and one vertical flag.
type Alignment int

const (
	AlignLeft Alignment = 1 << iota
	AlignRight
	AlignHCenter
	AlignTop
	AlignBottom
	AlignVCenter

	AlignCenter = AlignHCenter | AlignVCenter
)

// Place returns the top-left corner for an item of size inside r.
func (a Alignment) Place(r image.Rectangle, size image.Point) image.Point {
	p := r.Min
	switch {
	case a&AlignRight != 0:
		p.X = r.Max.X - size.X
	case a&AlignHCenter != 0:
		p.X = r.Min.X + (r.Dx()-size.X)/2
	}
	switch {
	case a&AlignBottom != 0:
		p.Y = r.Max.Y - size.Y
	case a&AlignVCenter != 0:
		p.Y = r.Min.Y + (r.Dy()-size.Y)/2
	}
	return p
}

const (
	defaultLabelWidth  = 640
	defaultLabelHeight = 480
)

// ScalableLabel shows an image, scaled to the label size according to its
// ScaleMode.
type ScalableLabel struct {
	base
	mu        sync.RWMutex
	original  image.Image
	pixmap    image.Image
	mode      ScaleMode
	alignment Alignment

	// PixmapChanged fires with the displayed (possibly scaled) pixmap.
	PixmapChanged *signal.Signal[image.Image]
}

func NewScalableLabel() *ScalableLabel {
	l := &ScalableLabel{
		mode:          DownScaleOnly,
		alignment:     AlignCenter,
		PixmapChanged: signal.New[image.Image](),
	}
	l.base.SetGeometry(image.Rect(0, 0, defaultLabelWidth, defaultLabelHeight))
	return l
}

func (l *ScalableLabel) SizeHint() image.Point { return image.Point{} }

func (l *ScalableLabel) PixmapScaleMode() ScaleMode {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.mode
}

// SetPixmapScaleMode changes the mode and rescales the current image.
func (l *ScalableLabel) SetPixmapScaleMode(mode ScaleMode) error {
	if !mode.valid() {
		return errors.Wrapf(ErrUnknownScaleMode, "%d", mode)
	}
	l.mu.Lock()
	l.mode = mode
	l.mu.Unlock()
	return l.update()
}

func (l *ScalableLabel) Alignment() Alignment {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.alignment
}

func (l *ScalableLabel) SetAlignment(a Alignment) {
	l.mu.Lock()
	l.alignment = a
	l.mu.Unlock()
}

// OriginalPixmap is the last image passed to SetPixmap, unscaled.
func (l *ScalableLabel) OriginalPixmap() image.Image {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.original
}

// Pixmap is the image as displayed.
func (l *ScalableLabel) Pixmap() image.Image {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.pixmap
}

// Resize keeps the position and changes the size, at least 1x1. The
// original pixmap is scaled again for the new size.
func (l *ScalableLabel) Resize(w, h int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	min := l.Geometry().Min
	l.SetGeometry(image.Rectangle{Min: min, Max: min.Add(image.Pt(w, h))})
}

func (l *ScalableLabel) SetGeometry(r image.Rectangle) {
	r = r.Canon()
	if r.Dx() < 1 {
		r.Max.X = r.Min.X + 1
	}
	if r.Dy() < 1 {
		r.Max.Y = r.Min.Y + 1
	}
	old := l.Size()
	l.base.SetGeometry(r)
	if old != r.Size() {
		if err := l.update(); err != nil {
			log.Errorf("label rescale failed: %v", err)
		}
	}
}

func (l *ScalableLabel) update() error {
	return l.SetPixmap(l.OriginalPixmap())
}

// SetPixmap stores img as the original and displays it, scaled if the mode
// asks for it. A nil img clears the label.
func (l *ScalableLabel) SetPixmap(img image.Image) error {
	size := l.Size()
	l.mu.Lock()
	l.original = img
	mode := l.mode
	l.mu.Unlock()

	var pixmap image.Image
	if img != nil && !img.Bounds().Empty() {
		scale, err := needsScale(mode, img.Bounds().Size(), size)
		if err != nil {
			return err
		}
		pixmap = img
		if scale {
			pixmap = scaleImage(img, KeepAspectRatio(img.Bounds().Size(), size))
		}
	}

	l.mu.Lock()
	l.pixmap = pixmap
	l.mu.Unlock()
	l.PixmapChanged.Emit(pixmap)
	return nil
}

func needsScale(mode ScaleMode, img, label image.Point) (bool, error) {
	switch mode {
	case NoScale:
		return false, nil
	case DownScaleOnly:
		return label.X < img.X || label.Y < img.Y, nil
	case UpScaleOnly:
		return label.X > img.X || label.Y > img.Y, nil
	case AllScale:
		return true, nil
	default:
		return false, errors.Wrapf(ErrUnknownScaleMode, "%d", mode)
	}
}

// KeepAspectRatio is the largest size with the aspect ratio of img that
// fits in bound.
func KeepAspectRatio(img, bound image.Point) image.Point {
	if img.X <= 0 || img.Y <= 0 {
		return bound
	}
	rw := int(int64(bound.Y) * int64(img.X) / int64(img.Y))
	var out image.Point
	if rw <= bound.X {
		out = image.Pt(rw, bound.Y)
	} else {
		out = image.Pt(bound.X, int(int64(bound.X)*int64(img.Y)/int64(img.X)))
	}
	if out.X < 1 {
		out.X = 1
	}
	if out.Y < 1 {
		out.Y = 1
	}
	return out
}

func scaleImage(src image.Image, size image.Point) *image.RGBA {
	dst := image.NewRGBA(image.Rectangle{Max: size})
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// ArrayLabel is a ScalableLabel fed with arrays.
type ArrayLabel struct {
	*ScalableLabel
}

func NewArrayLabel() *ArrayLabel {
	return &ArrayLabel{ScalableLabel: NewScalableLabel()}
}

// SetArray displays a. An empty array clears the label.
func (l *ArrayLabel) SetArray(a frame.Array) error {
	if a.Empty() {
		return l.SetPixmap(nil)
	}
	img, err := a.ToImage()
	if err != nil {
		return errors.Wrap(err, "array label")
	}
	return l.SetPixmap(img)
}

// Receive is SetArray in the shape of a signal slot; errors are logged.
func (l *ArrayLabel) Receive(a frame.Array) {
	if err := l.SetArray(a); err != nil {
		log.Errorf("display array %s: %v", a, err)
	}
}
