// Package cvproc implements array processors on top of OpenCV.
package cvproc

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"cvwidgets/frame"
)

func matType(channels int) (gocv.MatType, error) {
	switch channels {
	case 1:
		return gocv.MatTypeCV8UC1, nil
	case 3:
		return gocv.MatTypeCV8UC3, nil
	case 4:
		return gocv.MatTypeCV8UC4, nil
	default:
		return 0, errors.Wrapf(frame.ErrInvalidFormat, "%d channels", channels)
	}
}

// ArrayToMat copies a into a new Mat. The caller closes it.
func ArrayToMat(a frame.Array) (gocv.Mat, error) {
	if err := a.Validate(); err != nil {
		return gocv.NewMat(), err
	}
	mt, err := matType(a.Channels)
	if err != nil {
		return gocv.NewMat(), err
	}
	m, err := gocv.NewMatFromBytes(a.Height, a.Width, mt, a.Pix)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "array to mat")
	}
	// NewMatFromBytes shares a.Pix
	out := m.Clone()
	m.Close()
	return out, nil
}

// MatToArray copies an 8-bit Mat into an array.
func MatToArray(m gocv.Mat) (frame.Array, error) {
	if m.Empty() {
		return frame.Array{}, nil
	}
	ch := m.Channels()
	if _, err := matType(ch); err != nil {
		return frame.Array{}, err
	}
	if m.Type() != gocv.MatTypeCV8UC1 && m.Type() != gocv.MatTypeCV8UC3 && m.Type() != gocv.MatTypeCV8UC4 {
		return frame.Array{}, errors.Wrapf(frame.ErrInvalidFormat, "mat type %v", m.Type())
	}
	a := frame.Array{Height: m.Rows(), Width: m.Cols(), Channels: ch}
	a.Pix = append([]uint8(nil), m.ToBytes()...)
	return a, a.Validate()
}

// ReadImage loads an image file as an RGB array.
func ReadImage(path string) (frame.Array, error) {
	m := gocv.IMRead(path, gocv.IMReadColor)
	defer m.Close()
	if m.Empty() {
		return frame.Array{}, errors.Errorf("cannot read image %s", path)
	}
	gocv.CvtColor(m, &m, gocv.ColorBGRToRGB)
	return MatToArray(m)
}

// apply runs fn on a Mat copy of a and converts the result back.
func apply(a frame.Array, fn func(src gocv.Mat, dst *gocv.Mat) error) (frame.Array, error) {
	if a.Empty() {
		return a, nil
	}
	src, err := ArrayToMat(a)
	if err != nil {
		return frame.Array{}, err
	}
	defer src.Close()
	dst := gocv.NewMat()
	defer dst.Close()
	if err := fn(src, &dst); err != nil {
		return frame.Array{}, err
	}
	return MatToArray(dst)
}
