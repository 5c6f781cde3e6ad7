package enhance

import (
	"errors"
	"fmt"
	"math"

	"github.com/nfnt/resize"

	"kripton-qr-reader/internal/raster"
)

// MinDecodableSide is the smallest image side, in pixels, worth handing to a
// QR decoder. A version 1 symbol is 21 modules across; below a few dozen
// pixels no sampling grid can recover it.
const MinDecodableSide = 48

// ErrScaleTooSmall reports that a scale factor would shrink the image below
// MinDecodableSide. Callers skip the variant and move on.
var ErrScaleTooSmall = errors.New("scaled image too small to decode")

// Filter selects the resampling kernel used when building scale variants.
type Filter int

const (
	// FilterBilinear is the default smooth interpolation.
	FilterBilinear Filter = iota
	// FilterLanczos trades speed for sharper module edges on large rescales.
	FilterLanczos
)

func (f Filter) interpolation() resize.InterpolationFunction {
	if f == FilterLanczos {
		return resize.Lanczos3
	}
	return resize.Bilinear
}

// ScaleVariant pairs a scale factor with the buffer resized by it.
type ScaleVariant struct {
	Factor float64
	Buffer *raster.Buffer
}

// Rescale produces a copy of src resized by factor, preserving aspect ratio.
// Factor 1.0 returns an untouched copy. Fails with ErrScaleTooSmall when the
// result would be narrower or shorter than MinDecodableSide.
func Rescale(src *raster.Buffer, factor float64, filter Filter) (*raster.Buffer, error) {
	src.AssertShape()
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return nil, fmt.Errorf("scale factor must be positive and finite, got: %v", factor)
	}

	width := int(math.Round(float64(src.Width) * factor))
	height := int(math.Round(float64(src.Height) * factor))
	if width < MinDecodableSide || height < MinDecodableSide {
		return nil, fmt.Errorf("%w: factor %.2f yields %dx%d, minimum side is %d",
			ErrScaleTooSmall, factor, width, height, MinDecodableSide)
	}

	if factor == 1.0 {
		return src.Clone(), nil
	}

	resized := resize.Resize(uint(width), uint(height), src.ToImage(), filter.interpolation())
	out := raster.FromImage(resized)
	if src.Channels == 1 && out.Channels != 1 {
		// nfnt/resize keeps *image.Gray inputs gray, but the channel
		// invariant should not depend on that implementation detail.
		out = Grayscale(out)
	}
	return out, nil
}
