package widgets

import "image"

type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

// Box lays its children out in a row or a column. Children with a zero hint
// along the box axis share the space left by the others.
type Box struct {
	base
	orientation Orientation
	children    []Widget
	Spacing     int
	Margin      int
}

func NewHBox(children ...Widget) *Box {
	return &Box{orientation: Horizontal, children: children, Spacing: 6}
}

func NewVBox(children ...Widget) *Box {
	return &Box{orientation: Vertical, children: children, Spacing: 6}
}

func (b *Box) Orientation() Orientation { return b.orientation }

func (b *Box) Children() []Widget { return b.children }

func (b *Box) Add(w Widget) {
	b.children = append(b.children, w)
	b.SetGeometry(b.Geometry())
}

func (b *Box) axis(p image.Point) int {
	if b.orientation == Horizontal {
		return p.X
	}
	return p.Y
}

func (b *Box) cross(p image.Point) int {
	if b.orientation == Horizontal {
		return p.Y
	}
	return p.X
}

func (b *Box) SizeHint() image.Point {
	along, across := 0, 0
	expanding := false
	for i, c := range b.children {
		h := c.SizeHint()
		if b.axis(h) == 0 {
			expanding = true
		}
		along += b.axis(h)
		if i > 0 {
			along += b.Spacing
		}
		if b.cross(h) == 0 {
			across = -1
		} else if across >= 0 && b.cross(h) > across {
			across = b.cross(h)
		}
	}
	if expanding {
		along = 0
	} else if along > 0 {
		along += 2 * b.Margin
	}
	if across < 0 {
		across = 0
	} else if across > 0 {
		across += 2 * b.Margin
	}
	if b.orientation == Horizontal {
		return image.Pt(along, across)
	}
	return image.Pt(across, along)
}

func (b *Box) SetGeometry(r image.Rectangle) {
	b.base.SetGeometry(r)
	r = b.Geometry().Inset(b.Margin)
	if len(b.children) == 0 {
		return
	}

	total := b.axis(r.Size()) - b.Spacing*(len(b.children)-1)
	fixed, stretch := 0, 0
	for _, c := range b.children {
		if n := b.axis(c.SizeHint()); n > 0 {
			fixed += n
		} else {
			stretch++
		}
	}
	free := total - fixed
	if free < 0 {
		free = 0
	}

	pos := b.axis(r.Min)
	seen := 0
	for _, c := range b.children {
		n := b.axis(c.SizeHint())
		if n == 0 {
			seen++
			n = free / stretch
			if seen == stretch {
				n = free - (free/stretch)*(stretch-1)
			}
		}
		var cr image.Rectangle
		if b.orientation == Horizontal {
			cr = image.Rect(pos, r.Min.Y, pos+n, r.Max.Y)
		} else {
			cr = image.Rect(r.Min.X, pos, r.Max.X, pos+n)
		}
		c.SetGeometry(cr)
		pos += n + b.Spacing
	}
}
