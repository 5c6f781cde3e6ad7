package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"kripton-qr-reader/internal/decoder"
	"kripton-qr-reader/internal/enhance"
	"kripton-qr-reader/internal/logger"
	"kripton-qr-reader/internal/raster"
)

// Coordinator drives the enhancement pipeline for one image at a time: load,
// grayscale, equalize once, then per scale variant threshold and submit to
// the decoding engine. A Coordinator owns every buffer it creates and shares
// nothing between runs, so batch callers may use one Coordinator per worker
// with no coordination between them.
type Coordinator struct {
	mu        sync.Mutex
	logger    logger.Logger
	engine    decoder.Engine
	loader    *imageLoader
	processor *imageProcessor
	saver     *imageSaver
	state     atomic.Int32
}

// NewCoordinator wires a coordinator around a decoding engine. A nil logger
// disables logging.
func NewCoordinator(engine decoder.Engine, log logger.Logger) *Coordinator {
	log = logger.OrNop(log)

	coord := &Coordinator{
		logger:    log,
		engine:    engine,
		loader:    &imageLoader{logger: log},
		processor: &imageProcessor{logger: log},
		saver:     &imageSaver{logger: log},
	}
	coord.state.Store(int32(StateNotStarted))

	log.Debug("PipelineCoordinator", "initialized", nil)
	return coord
}

// State reports the state of the current or most recent run.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

func (c *Coordinator) setState(s State) {
	c.state.Store(int32(s))
}

// ReadFile loads an image from disk and decodes it. See Read.
func (c *Coordinator) ReadFile(ctx context.Context, path string, params Params) (*Result, error) {
	buffer, format, err := c.loader.LoadFromPath(path)
	if err != nil {
		c.logger.Error("PipelineCoordinator", err, map[string]interface{}{
			"operation": "load_image",
			"path":      path,
		})
		return nil, err
	}

	c.logger.Info("PipelineCoordinator", "image loaded", map[string]interface{}{
		"path":   path,
		"format": format,
	})

	return c.Read(ctx, buffer, params)
}

// Read runs the full pipeline over an in-memory buffer. It returns a Result
// holding the deduplicated payloads, or ErrNoQRCodeFound once every variant
// is exhausted. Variants that would scale below the decodable minimum are
// skipped. Cancellation is honored between variants, never mid-stage.
func (c *Coordinator) Read(ctx context.Context, src *raster.Buffer, params Params) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline params invalid: %w", err)
	}

	c.setState(StateInProgress)
	start := time.Now()

	prepared := c.processor.prepare(src)
	factors := orderFactors(params.ScaleFactors)

	var payloads []Payload
	tried := 0

	for _, factor := range factors {
		if err := ctx.Err(); err != nil {
			wipeAll(payloads)
			return nil, err
		}

		scaled, err := enhance.Rescale(prepared, factor, params.Filter)
		if errors.Is(err, enhance.ErrScaleTooSmall) {
			c.logger.Warning("PipelineCoordinator", "scale variant skipped", map[string]interface{}{
				"factor": factor,
				"reason": err.Error(),
			})
			continue
		}
		if err != nil {
			wipeAll(payloads)
			return nil, err
		}

		variant := enhance.ScaleVariant{Factor: factor, Buffer: scaled}
		candidates, err := c.processor.candidatesFor(variant, params)
		if err != nil {
			wipeAll(payloads)
			return nil, err
		}

		for _, cand := range candidates {
			tried++
			if params.DebugDir != "" {
				c.dumpCandidate(params.DebugDir, tried, cand)
			}

			decoded, err := c.engine.Decode(ctx, cand.buffer)
			if err != nil {
				if ctx.Err() != nil {
					wipeAll(payloads)
					return nil, ctx.Err()
				}
				c.logger.Warning("PipelineCoordinator", "decoder failed on candidate", map[string]interface{}{
					"scale":     cand.scale,
					"candidate": cand.kind,
					"error":     err.Error(),
				})
				continue
			}

			found := false
			for _, data := range decoded {
				if containsPayload(payloads, data) {
					// Duplicate content from another variant; the copy is
					// ours to clear.
					for i := range data {
						data[i] = 0
					}
					continue
				}
				payloads = append(payloads, Payload{
					Data:      data,
					Scale:     cand.scale,
					Candidate: cand.kind,
				})
				found = true
			}

			if found && !params.Exhaustive {
				return c.succeed(payloads, tried, start), nil
			}
		}
	}

	if len(payloads) > 0 {
		return c.succeed(payloads, tried, start), nil
	}

	c.setState(StateExhausted)
	c.logger.Info("PipelineCoordinator", "pipeline exhausted", map[string]interface{}{
		"candidates_tried": tried,
		"elapsed":          time.Since(start),
	})
	return nil, fmt.Errorf("%w: tried %d candidates", ErrNoQRCodeFound, tried)
}

func (c *Coordinator) succeed(payloads []Payload, tried int, start time.Time) *Result {
	c.setState(StateSucceeded)
	c.logger.Info("PipelineCoordinator", "decode succeeded", map[string]interface{}{
		"payloads":         len(payloads),
		"candidates_tried": tried,
		"elapsed":          time.Since(start),
	})
	return &Result{
		State:           StateSucceeded,
		Payloads:        payloads,
		CandidatesTried: tried,
		Elapsed:         time.Since(start),
	}
}

func (c *Coordinator) dumpCandidate(dir string, index int, cand candidate) {
	name := fmt.Sprintf("candidate_%03d_%.2fx_%s.png", index, cand.scale, cand.kind)
	if err := c.saver.SaveToPath(filepath.Join(dir, name), cand.buffer); err != nil {
		c.logger.Warning("PipelineCoordinator", "candidate dump failed", map[string]interface{}{
			"file":  name,
			"error": err.Error(),
		})
	}
}

// orderFactors arranges scale factors into the fixed priority order: native
// first (cheapest and most often sufficient), then upscales ascending, then
// downscales descending. Duplicates collapse.
func orderFactors(factors []float64) []float64 {
	var native, up, down []float64
	seen := make(map[float64]struct{}, len(factors))
	for _, f := range factors {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		switch {
		case f == 1.0:
			native = append(native, f)
		case f > 1.0:
			up = append(up, f)
		default:
			down = append(down, f)
		}
	}
	sort.Float64s(up)
	sort.Sort(sort.Reverse(sort.Float64Slice(down)))

	ordered := make([]float64, 0, len(native)+len(up)+len(down))
	ordered = append(ordered, native...)
	ordered = append(ordered, up...)
	ordered = append(ordered, down...)
	return ordered
}

func containsPayload(payloads []Payload, data []byte) bool {
	for i := range payloads {
		if bytes.Equal(payloads[i].Data, data) {
			return true
		}
	}
	return false
}

func wipeAll(payloads []Payload) {
	for i := range payloads {
		payloads[i].Wipe()
	}
}
