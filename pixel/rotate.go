package pixel

import (
	"image"
	"image/color"
)

// Rotation is a clockwise rotation of the displayed image.
type Rotation uint8

// Rotations
const (
	Rotate0 Rotation = iota
	Rotate90
	Rotate180
	Rotate270
)

func (r Rotation) String() string {
	switch r {
	case Rotate0:
		return "0°"
	case Rotate90:
		return "90°"
	case Rotate180:
		return "180°"
	case Rotate270:
		return "270°"
	default:
		return "invalid"
	}
}

// Inverse returns the rotation that undoes r.
func (r Rotation) Inverse() Rotation {
	switch r {
	case Rotate90:
		return Rotate270
	case Rotate270:
		return Rotate90
	default:
		return r
	}
}

// TransformPoint maps a point in an image with the given bounds to its
// position after rotating the image by r. Bounds are assumed to start
// at the origin, as the images in this package do.
func (r Rotation) TransformPoint(p image.Point, bounds image.Rectangle) image.Point {
	var (
		w = bounds.Dx()
		h = bounds.Dy()
	)
	switch r {
	case Rotate90:
		return image.Point{X: h - p.Y - 1, Y: p.X}
	case Rotate180:
		return image.Point{X: w - p.X - 1, Y: h - p.Y - 1}
	case Rotate270:
		return image.Point{X: p.Y, Y: w - p.X - 1}
	default:
		return p
	}
}

// TransformRect maps a rectangle in an image with the given bounds to
// its position after rotating the image by r.
func (r Rotation) TransformRect(rect, bounds image.Rectangle) image.Rectangle {
	if r == Rotate0 || rect.Empty() {
		return rect
	}

	// Transform the two closed corners; the rotated Min/Max roles swap
	// depending on the angle, so normalize afterwards.
	a := r.TransformPoint(rect.Min, bounds)
	b := r.TransformPoint(rect.Max.Sub(image.Point{X: 1, Y: 1}), bounds)
	return image.Rectangle{
		Min: image.Point{X: min(a.X, b.X), Y: min(a.Y, b.Y)},
		Max: image.Point{X: max(a.X, b.X) + 1, Y: max(a.Y, b.Y) + 1},
	}
}

// Rotated is a rotated view on another image. The view shares the
// underlying pixels; drawing on the view draws on the wrapped image.
type Rotated struct {
	Image
	rot  Rotation
	rect image.Rectangle
}

// NewRotated wraps img in a view rotated clockwise by rot.
func NewRotated(img Image, rot Rotation) *Rotated {
	b := img.Bounds()
	if rot == Rotate90 || rot == Rotate270 {
		b = image.Rect(0, 0, b.Dy(), b.Dx())
	}
	return &Rotated{
		Image: img,
		rot:   rot,
		rect:  b,
	}
}

// Rotation returns the view's clockwise rotation.
func (p *Rotated) Rotation() Rotation {
	return p.rot
}

func (p *Rotated) Bounds() image.Rectangle {
	return p.rect
}

func (p *Rotated) At(x, y int) color.Color {
	i := p.rot.Inverse().TransformPoint(image.Point{X: x, Y: y}, p.rect)
	return p.Image.At(i.X, i.Y)
}

func (p *Rotated) Set(x, y int, c color.Color) {
	i := p.rot.Inverse().TransformPoint(image.Point{X: x, Y: y}, p.rect)
	p.Image.Set(i.X, i.Y, c)
}

// Fill forwards the transformed area to the wrapped image, so fills
// through the view keep the wrapped image's aligned fast path.
func (p *Rotated) Fill(area image.Rectangle, c color.Color) {
	p.Image.Fill(p.rot.Inverse().TransformRect(area, p.rect), c)
}

var _ Image = (*Rotated)(nil)
