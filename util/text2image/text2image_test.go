package text2image

import (
	"image"
	"image/color"
	"testing"

	"github.com/fogleman/gg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/basicfont"

	"cvwidgets/util/datapath"
)

func TestFaceFallback(t *testing.T) {
	assert.Equal(t, basicfont.Face7x13, Face("", 12))
	assert.Equal(t, basicfont.Face7x13, Face("no/such/font.ttf", 12))

	_, err := LoadFace("no/such/font.ttf", 12)
	assert.Error(t, err)
}

func TestLoadFace(t *testing.T) {
	path := datapath.Get("song.ttf")
	if !datapath.Exists("song.ttf") {
		t.Skipf("font not found at %s", path)
	}
	f, err := LoadFace(path, 20)
	require.NoError(t, err)
	again, err := LoadFace(path, 20)
	require.NoError(t, err)
	assert.Equal(t, f, again)
}

func TestDrawRectangle(t *testing.T) {
	dc := gg.NewContext(40, 40)
	red := color.RGBA{255, 0, 0, 255}
	require.NoError(t, DrawRectangle(dc, []image.Rectangle{image.Rect(10, 10, 30, 30)}, []color.Color{red}, 2))

	img := dc.Image()
	r, _, _, a := img.At(10, 20).RGBA()
	assert.Greater(t, r, uint32(0))
	assert.Greater(t, a, uint32(0))
	_, _, _, a = img.At(20, 20).RGBA()
	assert.Equal(t, uint32(0), a)

	assert.Error(t, DrawRectangle(dc, []image.Rectangle{{}}, nil, 1))
}

func TestDrawCenteredText(t *testing.T) {
	dc := gg.NewContext(80, 20)
	DrawCenteredText(dc, basicfont.Face7x13, "Canny", image.Rect(0, 0, 80, 20), color.White)

	inked := 0
	img := dc.Image()
	for y := 0; y < 20; y++ {
		for x := 0; x < 80; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
				inked++
			}
		}
	}
	assert.Greater(t, inked, 0)
	assert.Equal(t, 35, TextWidth(basicfont.Face7x13, "Canny"))
}
