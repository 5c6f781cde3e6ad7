package raster

import (
	"fmt"
	"image"
	"image/color"
)

// Buffer is a pixel buffer with a flat row-major sample layout. A buffer has
// either one channel (grayscale or binary) or three channels (RGB). The data
// slice always holds exactly Width*Height*Channels samples; every constructor
// and every pipeline stage preserves that invariant, so a violation found
// later is a programming bug, not a runtime condition.
type Buffer struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// NewGray allocates a zeroed single-channel buffer.
func NewGray(width, height int) *Buffer {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("raster: invalid gray buffer dimensions %dx%d", width, height))
	}
	return &Buffer{
		Width:    width,
		Height:   height,
		Channels: 1,
		Pix:      make([]uint8, width*height),
	}
}

// NewColor allocates a zeroed three-channel RGB buffer.
func NewColor(width, height int) *Buffer {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("raster: invalid color buffer dimensions %dx%d", width, height))
	}
	return &Buffer{
		Width:    width,
		Height:   height,
		Channels: 3,
		Pix:      make([]uint8, width*height*3),
	}
}

// FromImage copies a decoded image into a Buffer. Grayscale images produce a
// single-channel buffer; everything else is flattened to three-channel RGB
// with alpha discarded.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if gray, ok := img.(*image.Gray); ok {
		buf := NewGray(width, height)
		for y := 0; y < height; y++ {
			src := gray.Pix[y*gray.Stride : y*gray.Stride+width]
			copy(buf.Pix[y*width:(y+1)*width], src)
		}
		return buf
	}

	buf := NewColor(width, height)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			buf.Pix[i] = uint8(r >> 8)
			buf.Pix[i+1] = uint8(g >> 8)
			buf.Pix[i+2] = uint8(b >> 8)
			i += 3
		}
	}
	return buf
}

// ToImage converts the buffer back to a standard library image: *image.Gray
// for one channel, *image.RGBA for three.
func (b *Buffer) ToImage() image.Image {
	b.AssertShape()

	if b.Channels == 1 {
		img := image.NewGray(image.Rect(0, 0, b.Width, b.Height))
		for y := 0; y < b.Height; y++ {
			copy(img.Pix[y*img.Stride:y*img.Stride+b.Width], b.Pix[y*b.Width:(y+1)*b.Width])
		}
		return img
	}

	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	i := 0
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			img.SetRGBA(x, y, color.RGBA{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2], A: 255})
			i += 3
		}
	}
	return img
}

// Clone returns a deep copy with its own pixel storage.
func (b *Buffer) Clone() *Buffer {
	b.AssertShape()
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{
		Width:    b.Width,
		Height:   b.Height,
		Channels: b.Channels,
		Pix:      pix,
	}
}

// GrayAt returns the sample at (x, y) of a single-channel buffer.
func (b *Buffer) GrayAt(x, y int) uint8 {
	return b.Pix[y*b.Width+x]
}

// SetGray stores a sample at (x, y) of a single-channel buffer.
func (b *Buffer) SetGray(x, y int, v uint8) {
	b.Pix[y*b.Width+x] = v
}

// AssertShape panics when the sample count does not match the declared
// dimensions. Stages call this on their inputs; it firing means a stage
// upstream broke its contract.
func (b *Buffer) AssertShape() {
	if b == nil {
		panic("raster: nil buffer")
	}
	if b.Channels != 1 && b.Channels != 3 {
		panic(fmt.Sprintf("raster: unsupported channel count %d", b.Channels))
	}
	if want := b.Width * b.Height * b.Channels; len(b.Pix) != want {
		panic(fmt.Sprintf("raster: buffer shape %dx%dx%d wants %d samples, has %d",
			b.Width, b.Height, b.Channels, want, len(b.Pix)))
	}
}

// AssertGray panics unless the buffer is a well-formed single-channel buffer.
func (b *Buffer) AssertGray() {
	b.AssertShape()
	if b.Channels != 1 {
		panic(fmt.Sprintf("raster: expected single-channel buffer, got %d channels", b.Channels))
	}
}
