package pixel

import (
	"fmt"
	"image"
	"image/color"

	"github.com/BeatGlow/epd/draw"
)

type Image interface {
	draw.Image

	// Clear the image.
	Clear()

	// Fill the area with a single color.
	Fill(area image.Rectangle, c color.Color)
}

// Buffer holds the pixel values and is a container that is used by the image formats in this package.
type Buffer struct {
	// Rect is the image bounding box.
	Rect image.Rectangle

	// Pix are the image pixels.
	Pix []byte

	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int
}

func (p *Buffer) Bounds() image.Rectangle {
	return p.Rect
}

func (p *Buffer) Clear() {
	for i := range p.Pix {
		p.Pix[i] = 0x00
	}
}

func makeBuffer(w, h, stride, size int) Buffer {
	return Buffer{
		Rect:   image.Rect(0, 0, w, h),
		Pix:    make([]byte, size),
		Stride: stride,
	}
}

// MonoImage is a 1-bit per pixel monochrome image, packed the way
// e-paper controller RAM expects it: one byte holds 8 horizontal
// pixels, most significant bit first, rows in reading order.
//
// The width must be a multiple of 8. This is asserted only with
// EPD_DEBUG set; otherwise the truncated stride shifts the image.
type MonoImage struct {
	Buffer
}

func NewMonoImage(w, h int) *MonoImage {
	if debug && w%8 != 0 {
		panic(fmt.Sprintf("pixel: width %d is not a multiple of 8", w))
	}
	stride := w / 8
	return &MonoImage{
		Buffer: makeBuffer(w, h, stride, stride*h),
	}
}

func (p *MonoImage) ColorModel() color.Model {
	return MonoModel
}

func (p *MonoImage) PixOffset(x, y int) int {
	return y*p.Stride + x/8
}

// Data returns the packed pixel bytes backing the image.
func (p *MonoImage) Data() []byte {
	return p.Pix
}

func (p *MonoImage) At(x, y int) color.Color {
	if !(image.Point{x, y}).In(p.Rect) {
		return color.Transparent
	}

	index := y*p.Stride + x/8
	pixel := p.Pix[index] & (0x80 >> uint(x%8))

	if pixel != 0 {
		return On
	}
	return Off
}

func (p *MonoImage) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}).In(p.Rect) {
		return
	}
	p.setBit(x, y, monoModel(c).(Mono).On)
}

// setBit sets a pixel without a bounds check; callers clip first.
func (p *MonoImage) setBit(x, y int, on bool) {
	index := y*p.Stride + x/8
	bit := byte(0x80) >> uint(x%8)
	if on {
		p.Pix[index] |= bit
	} else {
		p.Pix[index] &^= bit
	}
}

// Fill fills the area, clipped to the image bounds, with a single
// color. Byte-aligned runs are stored a byte at a time; only the
// misaligned head and tail of each row are set bit by bit.
func (p *MonoImage) Fill(area image.Rectangle, c color.Color) {
	area = area.Intersect(p.Rect)
	if area.Empty() {
		return
	}

	on := monoModel(c).(Mono).On
	var value byte
	if on {
		value = 0xff
	}

	// The aligned run: first byte boundary at or after Min.X, last at
	// or before Max.X. On narrow areas the run is empty and the whole
	// row goes bit by bit.
	runMin := (area.Min.X + 7) &^ 7
	runMax := area.Max.X &^ 7

	for y := area.Min.Y; y < area.Max.Y; y++ {
		if runMin >= runMax {
			for x := area.Min.X; x < area.Max.X; x++ {
				p.setBit(x, y, on)
			}
			continue
		}

		for x := area.Min.X; x < runMin; x++ {
			p.setBit(x, y, on)
		}

		row := y * p.Stride
		for i := row + runMin/8; i < row+runMax/8; i++ {
			p.Pix[i] = value
		}

		for x := runMax; x < area.Max.X; x++ {
			p.setBit(x, y, on)
		}
	}
}

// FillContiguous sets the pixels of area in reading order from colors,
// consuming exactly one color per area cell. Cells outside the image
// bounds still consume their color, so a stream lined up with area
// stays lined up when the area hangs over the edge.
func (p *MonoImage) FillContiguous(area image.Rectangle, colors []color.Color) {
	var i int
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			if i >= len(colors) {
				return
			}
			p.Set(x, y, colors[i])
			i++
		}
	}
}

// Interface checks.
var (
	_ Image = (*MonoImage)(nil)
)
