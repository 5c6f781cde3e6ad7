package enhance

import (
	"kripton-qr-reader/internal/raster"
)

const histogramBins = 256

// EqualizeHistogram redistributes the intensity values of a grayscale buffer
// so that the cumulative histogram is approximately uniform. Each intensity is
// remapped through the normalized cumulative distribution scaled to the full
// 8-bit range.
//
// An input whose histogram occupies a single bin is returned unchanged: a flat
// image carries no contrast to spread, and remapping it would divide by zero.
func EqualizeHistogram(src *raster.Buffer) *raster.Buffer {
	src.AssertGray()

	var histogram [histogramBins]int
	for _, v := range src.Pix {
		histogram[v]++
	}

	occupied := 0
	for _, count := range histogram {
		if count > 0 {
			occupied++
		}
	}
	if occupied <= 1 {
		return src.Clone()
	}

	total := float64(len(src.Pix))
	var lut [histogramBins]uint8
	cumulative := 0.0
	for i := 0; i < histogramBins; i++ {
		cumulative += float64(histogram[i]) / total
		lut[i] = uint8(cumulative * 255.0)
	}

	dst := raster.NewGray(src.Width, src.Height)
	for i, v := range src.Pix {
		dst.Pix[i] = lut[v]
	}
	return dst
}
