// Package text2image loads font faces and draws text and shapes onto gg
// contexts.
package text2image

import (
	"image"
	"image/color"
	"os"
	"sync"

	"github.com/fogleman/gg"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

type faceKey struct {
	path string
	size float64
}

var (
	facesMu sync.Mutex
	faces   = map[faceKey]font.Face{}
)

// LoadFace parses the TrueType font at path. Faces are cached per path and
// size.
func LoadFace(path string, size float64) (font.Face, error) {
	key := faceKey{path, size}
	facesMu.Lock()
	defer facesMu.Unlock()
	if f, ok := faces[key]; ok {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read font %s", path)
	}
	ft, err := freetype.ParseFont(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parse font %s", path)
	}
	f := truetype.NewFace(ft, &truetype.Options{Size: size, Hinting: font.HintingFull})
	faces[key] = f
	return f, nil
}

// Face returns the face at path, or the builtin 7x13 face when path is empty
// or cannot be loaded.
func Face(path string, size float64) font.Face {
	if path == "" {
		return basicfont.Face7x13
	}
	f, err := LoadFace(path, size)
	if err != nil {
		log.Debugf("fall back to builtin font: %v", err)
		return basicfont.Face7x13
	}
	return f
}

// SetColor sets the context colour. A nil colour is transparent.
func SetColor(dc *gg.Context, c color.Color) {
	if c == nil {
		c = color.Transparent
	}
	dc.SetColor(c)
}

// DrawCenteredText draws text centred in r.
func DrawCenteredText(dc *gg.Context, face font.Face, text string, r image.Rectangle, c color.Color) {
	dc.SetFontFace(face)
	SetColor(dc, c)
	cx := float64(r.Min.X) + float64(r.Dx())/2
	cy := float64(r.Min.Y) + float64(r.Dy())/2
	dc.DrawStringAnchored(text, cx, cy, 0.5, 0.35)
}

// DrawRectangle strokes every rect with the colour at the same index.
func DrawRectangle(dc *gg.Context, rects []image.Rectangle, colors []color.Color, width float64) error {
	if len(rects) != len(colors) {
		return errors.Errorf("%d rects for %d colors", len(rects), len(colors))
	}
	dc.SetLineWidth(width)
	for i, rect := range rects {
		SetColor(dc, colors[i])
		dc.DrawRectangle(float64(rect.Min.X), float64(rect.Min.Y), float64(rect.Dx()), float64(rect.Dy()))
		dc.Stroke()
	}
	return nil
}

// FillRoundedRect fills r with rounded corners of radius.
func FillRoundedRect(dc *gg.Context, r image.Rectangle, radius float64, c color.Color) {
	SetColor(dc, c)
	dc.DrawRoundedRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()), radius)
	dc.Fill()
}

// TextWidth measures text in face.
func TextWidth(face font.Face, text string) int {
	return font.MeasureString(face, text).Ceil()
}
