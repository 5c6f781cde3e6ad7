package enhance

import (
	"fmt"

	"kripton-qr-reader/internal/raster"
)

// Binary sample values produced by AdaptiveThreshold.
const (
	Foreground uint8 = 0
	Background uint8 = 255
)

// ThresholdOptions tunes the adaptive thresholder.
type ThresholdOptions struct {
	// BlockSize is the tile side length in pixels. Edge tiles are clipped to
	// the image bounds, never padded.
	BlockSize int
	// Bias is subtracted from the local mean before comparison. A positive
	// bias pushes borderline pixels toward background, suppressing noise in
	// evenly lit regions.
	Bias int
	// Inverted flips the comparison direction for light-on-dark symbols: a
	// pixel becomes foreground when it lies above the local mean plus bias.
	Inverted bool
}

// DefaultThresholdOptions returns the tuning used when the caller has no
// opinion: 16-pixel tiles with a bias of 5.
func DefaultThresholdOptions() ThresholdOptions {
	return ThresholdOptions{
		BlockSize: 16,
		Bias:      5,
	}
}

// Validate checks that options are within usable ranges.
func (o ThresholdOptions) Validate() error {
	if o.BlockSize < 2 || o.BlockSize > 256 {
		return fmt.Errorf("block_size must be between 2 and 256, got: %d", o.BlockSize)
	}
	if o.Bias < -128 || o.Bias > 127 {
		return fmt.Errorf("bias must be between -128 and 127, got: %d", o.Bias)
	}
	return nil
}

// AdaptiveThreshold binarizes a grayscale buffer using a per-block local
// threshold. The image is partitioned into a grid of BlockSize tiles; each
// tile's mean intensity is computed from in-bounds samples only, and every
// pixel in the tile is classified against that mean shifted by Bias. Local
// thresholds are what let QR symbols survive vignetting and embedded logos
// that defeat any single global cutoff.
func AdaptiveThreshold(src *raster.Buffer, opts ThresholdOptions) (*raster.Buffer, error) {
	src.AssertGray()
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("threshold options invalid: %w", err)
	}

	dst := raster.NewGray(src.Width, src.Height)
	for blockY := 0; blockY < src.Height; blockY += opts.BlockSize {
		for blockX := 0; blockX < src.Width; blockX += opts.BlockSize {
			endX := min(blockX+opts.BlockSize, src.Width)
			endY := min(blockY+opts.BlockSize, src.Height)
			thresholdBlock(src, dst, blockX, blockY, endX, endY, opts)
		}
	}
	return dst, nil
}

// thresholdBlock classifies one clipped tile [startX,endX)x[startY,endY).
func thresholdBlock(src, dst *raster.Buffer, startX, startY, endX, endY int, opts ThresholdOptions) {
	sum := 0
	for y := startY; y < endY; y++ {
		row := src.Pix[y*src.Width : y*src.Width+src.Width]
		for x := startX; x < endX; x++ {
			sum += int(row[x])
		}
	}
	count := (endX - startX) * (endY - startY)
	mean := sum / count

	for y := startY; y < endY; y++ {
		srcRow := src.Pix[y*src.Width : y*src.Width+src.Width]
		dstRow := dst.Pix[y*dst.Width : y*dst.Width+dst.Width]
		for x := startX; x < endX; x++ {
			v := int(srcRow[x])
			foreground := v < mean-opts.Bias
			if opts.Inverted {
				foreground = v > mean+opts.Bias
			}
			if foreground {
				dstRow[x] = Foreground
			} else {
				dstRow[x] = Background
			}
		}
	}
}
