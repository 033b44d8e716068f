// Package display renders widget trees and shows them in SDL or OpenCV
// windows.
package display

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"cvwidgets/util/text2image"
	"cvwidgets/widgets"
)

// Theme holds the colours used by the Painter.
type Theme struct {
	Background    color.RGBA
	Button        color.RGBA
	ButtonDown    color.RGBA
	ButtonChecked color.RGBA
	Icon          color.RGBA
	Text          color.RGBA
	Groove        color.RGBA
	GrooveFilled  color.RGBA
	Handle        color.RGBA
}

var DefaultTheme = Theme{
	Background:    color.RGBA{0x20, 0x20, 0x20, 0xff},
	Button:        color.RGBA{0x44, 0x44, 0x44, 0xff},
	ButtonDown:    color.RGBA{0x2a, 0x2a, 0x2a, 0xff},
	ButtonChecked: color.RGBA{0x33, 0x55, 0x77, 0xff},
	Icon:          color.RGBA{0xee, 0xee, 0xee, 0xff},
	Text:          color.RGBA{0xee, 0xee, 0xee, 0xff},
	Groove:        color.RGBA{0x55, 0x55, 0x55, 0xff},
	GrooveFilled:  color.RGBA{0x2d, 0x8c, 0xf0, 0xff},
	Handle:        color.RGBA{0xdd, 0xdd, 0xdd, 0xff},
}

type pixmapWidget interface {
	widgets.Widget
	Pixmap() image.Image
	Alignment() widgets.Alignment
}

// Painter draws widgets with gg.
type Painter struct {
	Theme Theme
	face  font.Face
}

// NewPainter uses the TrueType font at fontPath for button text, or the
// builtin face when it cannot be loaded.
func NewPainter(fontPath string) *Painter {
	return &Painter{
		Theme: DefaultTheme,
		face:  text2image.Face(fontPath, 14),
	}
}

// Paint renders root into a new image of size.
func (p *Painter) Paint(root widgets.Widget, size image.Point) *image.RGBA {
	img := image.NewRGBA(image.Rectangle{Max: size})
	p.PaintInto(img, root)
	return img
}

// PaintInto clears img and renders root on it.
func (p *Painter) PaintInto(img *image.RGBA, root widgets.Widget) {
	dc := gg.NewContextForRGBA(img)
	text2image.SetColor(dc, p.Theme.Background)
	dc.Clear()

	widgets.Walk(root, func(w widgets.Widget) bool {
		switch v := w.(type) {
		case *widgets.PushButton:
			p.paintButton(dc, v)
		case *widgets.Slider:
			p.paintSlider(dc, v)
		case pixmapWidget:
			p.paintPixmap(img, v)
		}
		return true
	})
}

func (p *Painter) paintPixmap(dst *image.RGBA, w pixmapWidget) {
	pix := w.Pixmap()
	if pix == nil {
		return
	}
	geom := w.Geometry()
	origin := w.Alignment().Place(geom, pix.Bounds().Size())
	r := image.Rectangle{Min: origin, Max: origin.Add(pix.Bounds().Size())}.Intersect(geom)
	if r.Empty() {
		return
	}
	draw.Draw(dst, r, pix, pix.Bounds().Min.Add(r.Min.Sub(origin)), draw.Src)
}

func (p *Painter) paintButton(dc *gg.Context, b *widgets.PushButton) {
	geom := b.Geometry()
	body := p.Theme.Button
	switch {
	case b.IsDown():
		body = p.Theme.ButtonDown
	case b.IsChecked():
		body = p.Theme.ButtonChecked
	}
	text2image.FillRoundedRect(dc, geom, 4, body)

	if icon := b.Icon(); icon != widgets.NoIcon {
		p.paintIcon(dc, icon, geom)
		return
	}
	if text := b.Text(); text != "" {
		text2image.DrawCenteredText(dc, p.face, text, geom, p.Theme.Text)
	}
}

// paintIcon draws the icon in the centred square of half the button size.
func (p *Painter) paintIcon(dc *gg.Context, icon widgets.Icon, r image.Rectangle) {
	s := math.Min(float64(r.Dx()), float64(r.Dy())) / 2
	x := float64(r.Min.X) + (float64(r.Dx())-s)/2
	y := float64(r.Min.Y) + (float64(r.Dy())-s)/2
	text2image.SetColor(dc, p.Theme.Icon)

	switch icon {
	case widgets.IconMediaPlay:
		dc.MoveTo(x, y)
		dc.LineTo(x+s, y+s/2)
		dc.LineTo(x, y+s)
		dc.ClosePath()
	case widgets.IconMediaPause:
		bar := s / 3
		dc.DrawRectangle(x, y, bar, s)
		dc.DrawRectangle(x+s-bar, y, bar, s)
	case widgets.IconMediaStop:
		dc.DrawRectangle(x, y, s, s)
	}
	dc.Fill()
}

func (p *Painter) paintSlider(dc *gg.Context, s *widgets.Slider) {
	geom := s.Geometry()
	groove := s.GrooveRect().Add(geom.Min)
	handle := s.HandleRect().Add(geom.Min)

	text2image.FillRoundedRect(dc, groove, 2, p.Theme.Groove)

	// the part of the groove before the handle
	filled := groove
	if s.Orientation() == widgets.Horizontal {
		if s.UpsideDown() {
			filled.Min.X = handle.Min.X
		} else {
			filled.Max.X = handle.Max.X
		}
	} else {
		if s.UpsideDown() {
			filled.Min.Y = handle.Min.Y
		} else {
			filled.Max.Y = handle.Max.Y
		}
	}
	if !filled.Empty() {
		text2image.FillRoundedRect(dc, filled, 2, p.Theme.GrooveFilled)
	}

	text2image.FillRoundedRect(dc, handle, 3, p.Theme.Handle)
}
