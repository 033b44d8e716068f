package cvproc

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvwidgets/frame"
	"cvwidgets/util/datapath"
)

func square() frame.Array {
	a := frame.NewArray(32, 32, 3)
	for y := 8; y < 24; y++ {
		for x := 8; x < 24; x++ {
			a.Set(y, x, 0, 255)
			a.Set(y, x, 1, 255)
			a.Set(y, x, 2, 255)
		}
	}
	return a
}

func TestMatRoundTrip(t *testing.T) {
	a := square()
	m, err := ArrayToMat(a)
	require.NoError(t, err)
	defer m.Close()
	assert.Equal(t, 32, m.Rows())
	assert.Equal(t, 3, m.Channels())

	b, err := MatToArray(m)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))

	_, err = ArrayToMat(frame.Array{Height: 1, Width: 1, Channels: 2, Pix: []uint8{1, 2}})
	assert.True(t, errors.Is(err, frame.ErrInvalidFormat))
}

func TestCannyModes(t *testing.T) {
	c := NewCannyEdgeDetector(50, 200)
	a := square()

	out, err := c.ProcessArray(a)
	require.NoError(t, err)
	assert.True(t, a.Equal(out))

	c.Toggle(true)
	assert.Equal(t, CannyOn, c.Mode())
	out, err = c.ProcessArray(a)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Channels)
	// edge on the square border, nothing in its middle
	assert.Equal(t, uint8(0), out.At(16, 16, 0))
	edges := 0
	for x := 0; x < 32; x++ {
		if out.At(8, x, 0) > 0 || out.At(7, x, 0) > 0 {
			edges++
		}
	}
	assert.Greater(t, edges, 0)

	c.SetMode(CannyMode(7))
	_, err = c.ProcessArray(a)
	assert.True(t, errors.Is(err, ErrUnknownCannyMode))
}

func TestGaussianBlur(t *testing.T) {
	a := square()
	out, err := GaussianBlur{Sigma: 3}.ProcessArray(a)
	require.NoError(t, err)
	assert.Equal(t, a.Size(), out.Size())
	// corner of the square gets softened
	assert.Less(t, out.At(8, 8, 0), uint8(255))

	same, err := GaussianBlur{}.ProcessArray(a)
	require.NoError(t, err)
	assert.True(t, a.Equal(same))
}

func TestBGRToRGB(t *testing.T) {
	a := frame.NewArray(1, 1, 3)
	a.Set(0, 0, 0, 10)
	a.Set(0, 0, 2, 30)
	out, err := BGRToRGB.ProcessArray(a)
	require.NoError(t, err)
	assert.Equal(t, uint8(30), out.At(0, 0, 0))
	assert.Equal(t, uint8(10), out.At(0, 0, 2))

	empty, err := BGRToRGB.ProcessArray(frame.Array{})
	require.NoError(t, err)
	assert.True(t, empty.Empty())
}

func TestReadImage(t *testing.T) {
	if !datapath.Exists("hello.png") {
		t.Skip("sample image not found")
	}
	a, err := ReadImage(datapath.Get("hello.png"))
	require.NoError(t, err)
	assert.Equal(t, 3, a.Channels)
}
