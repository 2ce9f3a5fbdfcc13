package pixel

import (
	"image"
	"image/color"
)

// planarBatchSize is the number of pixels applied to each plane per
// DrawPixels round.
const planarBatchSize = 128

// Pixel is a positioned color, the unit of PlanarImage batch drawing.
type Pixel struct {
	image.Point
	Color color.Color
}

// PlanarImage is a multi-bit grayscale image stored as separate 1-bit
// planes, matching controllers that hold one RAM plane per bit. Gray
// level bit k lands in plane k, least significant first.
type PlanarImage struct {
	planes []*MonoImage
	rect   image.Rectangle
}

// NewPlanarImage creates an image of planes bit planes of w×h pixels
// each.
func NewPlanarImage(w, h, planes int) *PlanarImage {
	p := &PlanarImage{
		planes: make([]*MonoImage, planes),
		rect:   image.Rect(0, 0, w, h),
	}
	for i := range p.planes {
		p.planes[i] = NewMonoImage(w, h)
	}
	return p
}

func (p *PlanarImage) Bounds() image.Rectangle {
	return p.rect
}

// Planes returns the number of bit planes.
func (p *PlanarImage) Planes() int {
	return len(p.planes)
}

// Plane returns bit plane i, least significant first.
func (p *PlanarImage) Plane(i int) *MonoImage {
	return p.planes[i]
}

func (p *PlanarImage) ColorModel() color.Model {
	if len(p.planes) == 1 {
		return MonoModel
	}
	return Gray2Model
}

// level reduces a color to the gray level covered by the planes.
func (p *PlanarImage) level(c color.Color) uint8 {
	switch c := c.(type) {
	case Mono:
		if c.On {
			return 1<<uint(len(p.planes)) - 1
		}
		return 0
	case Gray2:
		return c.Y & 3
	}
	r, g, b, _ := c.RGBA()
	y := (19595*r + 38470*g + 7471*b + 1<<15) >> 16
	return uint8(y >> (16 - uint(len(p.planes))))
}

func (p *PlanarImage) At(x, y int) color.Color {
	if !(image.Point{x, y}).In(p.rect) {
		return color.Transparent
	}

	var level uint8
	for i, plane := range p.planes {
		if plane.At(x, y) == On {
			level |= 1 << uint(i)
		}
	}

	switch len(p.planes) {
	case 1:
		return Mono{On: level != 0}
	case 2:
		return Gray2{Y: level}
	default:
		max := uint32(1)<<uint(len(p.planes)) - 1
		return color.Gray16{Y: uint16(uint32(level) * 0xffff / max)}
	}
}

func (p *PlanarImage) Set(x, y int, c color.Color) {
	level := p.level(c)
	for i, plane := range p.planes {
		plane.Set(x, y, Mono{On: level&(1<<uint(i)) != 0})
	}
}

func (p *PlanarImage) Clear() {
	for _, plane := range p.planes {
		plane.Clear()
	}
}

// Fill decomposes the color once and forwards the area fill to every
// plane, keeping the aligned fast path.
func (p *PlanarImage) Fill(area image.Rectangle, c color.Color) {
	level := p.level(c)
	for i, plane := range p.planes {
		plane.Fill(area, Mono{On: level&(1<<uint(i)) != 0})
	}
}

// DrawPixels draws positioned pixels in fixed-size batches: each batch
// is applied to plane 0 in full, then plane 1, and so on, so plane
// writes stay clustered instead of alternating per pixel.
func (p *PlanarImage) DrawPixels(pixels ...Pixel) {
	for len(pixels) > 0 {
		n := min(planarBatchSize, len(pixels))
		batch := pixels[:n]
		for i, plane := range p.planes {
			bit := uint8(1) << uint(i)
			for _, px := range batch {
				plane.Set(px.X, px.Y, Mono{On: p.level(px.Color)&bit != 0})
			}
		}
		pixels = pixels[n:]
	}
}

var _ Image = (*PlanarImage)(nil)
