package pipeline

import (
	"fmt"

	"kripton-qr-reader/internal/enhance"
	"kripton-qr-reader/internal/logger"
	"kripton-qr-reader/internal/raster"
)

// Params tunes one pipeline run. The pipeline holds no configuration state of
// its own; callers pass a Params per image, which keeps batch runs over
// distinct images independent.
type Params struct {
	// BlockSize and Bias configure the adaptive thresholder.
	BlockSize int
	Bias      int
	// TryInverted adds a second threshold pass with the comparison direction
	// flipped, for light-on-dark symbols.
	TryInverted bool
	// ScaleFactors are the variants to try. They are reordered to the fixed
	// priority native, upscaled, downscaled before the run.
	ScaleFactors []float64
	// Filter selects the resampling kernel for non-native scales.
	Filter enhance.Filter
	// Exhaustive makes the run try every variant and return the full
	// deduplicated payload set instead of stopping at the first success.
	Exhaustive bool
	// DebugDir, when set, receives a PNG dump of every candidate image.
	DebugDir string
}

// DefaultParams mirrors the tuning of the original reader: 16-pixel blocks,
// bias 5, both threshold directions, native then 1.5x then 0.8x.
func DefaultParams() Params {
	return Params{
		BlockSize:    16,
		Bias:         5,
		TryInverted:  true,
		ScaleFactors: []float64{1.0, 1.5, 0.8},
		Filter:       enhance.FilterBilinear,
	}
}

func (p Params) Validate() error {
	if err := p.thresholdOptions(false).Validate(); err != nil {
		return err
	}
	if len(p.ScaleFactors) == 0 {
		return fmt.Errorf("at least one scale factor is required")
	}
	for _, factor := range p.ScaleFactors {
		if factor <= 0 {
			return fmt.Errorf("scale factors must be positive, got: %v", factor)
		}
	}
	return nil
}

func (p Params) thresholdOptions(inverted bool) enhance.ThresholdOptions {
	return enhance.ThresholdOptions{
		BlockSize: p.BlockSize,
		Bias:      p.Bias,
		Inverted:  inverted,
	}
}

// candidate is one image submitted to the decoding engine, tagged with the
// provenance that ends up on any payload it yields.
type candidate struct {
	scale  float64
	kind   string
	buffer *raster.Buffer
}

type imageProcessor struct {
	logger logger.Logger
}

// prepare runs the stages that happen once per image: grayscale reduction and
// histogram equalization.
func (p *imageProcessor) prepare(src *raster.Buffer) *raster.Buffer {
	gray := enhance.Grayscale(src)
	equalized := enhance.EqualizeHistogram(gray)

	p.logger.Debug("ImageProcessor", "image prepared", map[string]interface{}{
		"width":  equalized.Width,
		"height": equalized.Height,
	})
	return equalized
}

// candidatesFor binarizes one scale variant. At native scale the bare
// equalized buffer is also submitted: images that defeat every block size
// sometimes decode through the engine's own binarizer.
func (p *imageProcessor) candidatesFor(variant enhance.ScaleVariant, params Params) ([]candidate, error) {
	candidates := make([]candidate, 0, 3)

	if variant.Factor == 1.0 {
		candidates = append(candidates, candidate{
			scale:  variant.Factor,
			kind:   "equalized",
			buffer: variant.Buffer,
		})
	}

	thresholded, err := enhance.AdaptiveThreshold(variant.Buffer, params.thresholdOptions(false))
	if err != nil {
		return nil, err
	}
	candidates = append(candidates, candidate{
		scale:  variant.Factor,
		kind:   "threshold",
		buffer: thresholded,
	})

	if params.TryInverted {
		inverted, err := enhance.AdaptiveThreshold(variant.Buffer, params.thresholdOptions(true))
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, candidate{
			scale:  variant.Factor,
			kind:   "threshold-inverted",
			buffer: inverted,
		})
	}

	return candidates, nil
}
