package frame

import (
	"fmt"
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// ErrInvalidFormat is returned when pixel data cannot be converted between
// an Array and an image in the requested format.
var ErrInvalidFormat = errors.New("invalid pixel format")

// Array is a Height x Width x Channels buffer of 8-bit samples stored
// row-major with interleaved channels.
type Array struct {
	Height   int
	Width    int
	Channels int
	Pix      []uint8
}

// NewArray allocates a zeroed array.
func NewArray(height, width, channels int) Array {
	return Array{
		Height:   height,
		Width:    width,
		Channels: channels,
		Pix:      make([]uint8, height*width*channels),
	}
}

// Empty reports whether the array holds no samples.
func (a Array) Empty() bool {
	return a.Height*a.Width*a.Channels == 0
}

// Size is the number of samples.
func (a Array) Size() int {
	return a.Height * a.Width * a.Channels
}

// Shape returns (height, width, channels).
func (a Array) Shape() (int, int, int) {
	return a.Height, a.Width, a.Channels
}

func (a Array) String() string {
	return fmt.Sprintf("Array(%dx%dx%d)", a.Height, a.Width, a.Channels)
}

// Validate checks that the buffer matches the declared shape.
func (a Array) Validate() error {
	if a.Height < 0 || a.Width < 0 || a.Channels < 0 {
		return errors.Wrapf(ErrInvalidFormat, "negative shape %dx%dx%d", a.Height, a.Width, a.Channels)
	}
	if a.Empty() {
		return nil
	}
	switch a.Channels {
	case 1, 3, 4:
	default:
		return errors.Wrapf(ErrInvalidFormat, "unsupported channel count %d", a.Channels)
	}
	if len(a.Pix) != a.Size() {
		return errors.Wrapf(ErrInvalidFormat, "buffer length %d does not match shape %dx%dx%d",
			len(a.Pix), a.Height, a.Width, a.Channels)
	}
	return nil
}

func (a Array) offset(y, x, c int) int {
	return (y*a.Width+x)*a.Channels + c
}

// At returns the sample at row y, column x, channel c.
func (a Array) At(y, x, c int) uint8 {
	return a.Pix[a.offset(y, x, c)]
}

// Set writes the sample at row y, column x, channel c.
func (a Array) Set(y, x, c int, v uint8) {
	a.Pix[a.offset(y, x, c)] = v
}

// Clone returns a deep copy.
func (a Array) Clone() Array {
	b := a
	b.Pix = make([]uint8, len(a.Pix))
	copy(b.Pix, a.Pix)
	return b
}

// Equal reports whether both arrays have the same shape and samples.
func (a Array) Equal(b Array) bool {
	if a.Height != b.Height || a.Width != b.Width || a.Channels != b.Channels {
		return false
	}
	if len(a.Pix) != len(b.Pix) {
		return false
	}
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			return false
		}
	}
	return true
}

// ToImage converts the array to an image: one channel becomes *image.Gray,
// three channels an opaque *image.RGBA and four channels an *image.NRGBA.
// An empty array converts to nil.
func (a Array) ToImage() (image.Image, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if a.Empty() {
		return nil, nil
	}
	rect := image.Rect(0, 0, a.Width, a.Height)
	switch a.Channels {
	case 1:
		img := image.NewGray(rect)
		for y := 0; y < a.Height; y++ {
			copy(img.Pix[y*img.Stride:y*img.Stride+a.Width], a.Pix[y*a.Width:(y+1)*a.Width])
		}
		return img, nil
	case 3:
		img := image.NewRGBA(rect)
		for y := 0; y < a.Height; y++ {
			row := img.Pix[y*img.Stride:]
			src := a.Pix[y*a.Width*3:]
			for x := 0; x < a.Width; x++ {
				row[x*4] = src[x*3]
				row[x*4+1] = src[x*3+1]
				row[x*4+2] = src[x*3+2]
				row[x*4+3] = 0xff
			}
		}
		return img, nil
	case 4:
		img := image.NewNRGBA(rect)
		for y := 0; y < a.Height; y++ {
			copy(img.Pix[y*img.Stride:y*img.Stride+a.Width*4], a.Pix[y*a.Width*4:(y+1)*a.Width*4])
		}
		return img, nil
	}
	return nil, errors.Wrapf(ErrInvalidFormat, "unsupported channel count %d", a.Channels)
}

// ColorAt returns the pixel at (x, y) as a color, for debugging and tests.
func (a Array) ColorAt(x, y int) color.Color {
	switch a.Channels {
	case 1:
		return color.Gray{Y: a.At(y, x, 0)}
	case 3:
		return color.RGBA{R: a.At(y, x, 0), G: a.At(y, x, 1), B: a.At(y, x, 2), A: 0xff}
	case 4:
		return color.NRGBA{R: a.At(y, x, 0), G: a.At(y, x, 1), B: a.At(y, x, 2), A: a.At(y, x, 3)}
	}
	return nil
}
