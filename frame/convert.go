package frame

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/pkg/errors"
)

// Converter turns a decoded image into an Array.
type Converter func(image.Image) (Array, error)

// IsNullImage reports whether img carries no pixels.
func IsNullImage(img image.Image) bool {
	return img == nil || img.Bounds().Empty()
}

// RGBView converts a 32-bit colour image into an H x W x 3 RGB array.
// Gray and alpha-only images are rejected with ErrInvalidFormat.
func RGBView(img image.Image) (Array, error) {
	if IsNullImage(img) {
		return Array{}, errors.Wrap(ErrInvalidFormat, "null image")
	}
	b := img.Bounds()
	a := NewArray(b.Dy(), b.Dx(), 3)

	switch src := img.(type) {
	case *image.RGBA:
		copyRGB(a, src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y))
	case *image.NRGBA:
		copyRGB(a, src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y))
	case *image.Gray, *image.Gray16, *image.Alpha, *image.Alpha16:
		return Array{}, errors.Wrapf(ErrInvalidFormat, "%T is not a 32-bit colour image", img)
	case *image.Paletted:
		if isGrayPalette(src.Palette) {
			return Array{}, errors.Wrap(ErrInvalidFormat, "grayscale palette is not a 32-bit colour image")
		}
		fillRGB(a, img)
	default:
		fillRGB(a, img)
	}
	return a, nil
}

// ByteView exposes the raw bytes of an image as an H x W x N array, where
// N is the number of bytes per pixel: 4 for RGBA/NRGBA, 1 for Gray.
func ByteView(img image.Image) (Array, error) {
	if IsNullImage(img) {
		return Array{}, errors.Wrap(ErrInvalidFormat, "null image")
	}
	b := img.Bounds()
	switch src := img.(type) {
	case *image.Gray:
		a := NewArray(b.Dy(), b.Dx(), 1)
		copyRows(a, src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y))
		return a, nil
	case *image.RGBA:
		a := NewArray(b.Dy(), b.Dx(), 4)
		copyRows(a, src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y))
		return a, nil
	case *image.NRGBA:
		a := NewArray(b.Dy(), b.Dx(), 4)
		copyRows(a, src.Pix, src.Stride, src.PixOffset(b.Min.X, b.Min.Y))
		return a, nil
	}
	return Array{}, errors.Wrapf(ErrInvalidFormat, "no byte view for %T", img)
}

// RGBAView converts any image into an H x W x 4 non-premultiplied array.
func RGBAView(img image.Image) (Array, error) {
	if IsNullImage(img) {
		return Array{}, errors.Wrap(ErrInvalidFormat, "null image")
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	a := NewArray(b.Dy(), b.Dx(), 4)
	copyRows(a, dst.Pix, dst.Stride, 0)
	return a, nil
}

func copyRows(a Array, pix []uint8, stride, offset int) {
	rowLen := a.Width * a.Channels
	for y := 0; y < a.Height; y++ {
		start := offset + y*stride
		copy(a.Pix[y*rowLen:(y+1)*rowLen], pix[start:start+rowLen])
	}
}

func copyRGB(a Array, pix []uint8, stride, offset int) {
	for y := 0; y < a.Height; y++ {
		row := pix[offset+y*stride:]
		dst := a.Pix[y*a.Width*3:]
		for x := 0; x < a.Width; x++ {
			dst[x*3] = row[x*4]
			dst[x*3+1] = row[x*4+1]
			dst[x*3+2] = row[x*4+2]
		}
	}
}

func fillRGB(a Array, img image.Image) {
	b := img.Bounds()
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			i := (y*a.Width + x) * 3
			a.Pix[i] = c.R
			a.Pix[i+1] = c.G
			a.Pix[i+2] = c.B
		}
	}
}

func isGrayPalette(p color.Palette) bool {
	for _, c := range p {
		r, g, b, _ := c.RGBA()
		if r != g || g != b {
			return false
		}
	}
	return true
}
