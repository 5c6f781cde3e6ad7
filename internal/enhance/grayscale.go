package enhance

import (
	"kripton-qr-reader/internal/raster"
)

// Grayscale reduces a color buffer to single-channel luminance using the
// perceptual weights 0.299R + 0.587G + 0.114B. A buffer that is already
// single-channel is returned as a copy, which makes the conversion idempotent.
func Grayscale(src *raster.Buffer) *raster.Buffer {
	src.AssertShape()

	if src.Channels == 1 {
		return src.Clone()
	}

	dst := raster.NewGray(src.Width, src.Height)
	j := 0
	for i := 0; i < len(dst.Pix); i++ {
		r := uint32(src.Pix[j])
		g := uint32(src.Pix[j+1])
		b := uint32(src.Pix[j+2])
		// Integer form of the weighted sum; 299+587+114 = 1000, so the
		// result already sits in [0, 255].
		dst.Pix[i] = uint8((299*r + 587*g + 114*b + 500) / 1000)
		j += 3
	}
	return dst
}
