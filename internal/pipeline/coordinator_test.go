package pipeline

import (
	"context"
	"errors"
	"testing"

	"kripton-qr-reader/internal/raster"
)

// stubEngine decodes according to a per-call predicate, recording every
// candidate it sees.
type stubEngine struct {
	decode func(img *raster.Buffer) [][]byte
	calls  int
}

func (s *stubEngine) Decode(ctx context.Context, img *raster.Buffer) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.calls++
	if s.decode == nil {
		return nil, nil
	}
	return s.decode(img), nil
}

func testImage(side int) *raster.Buffer {
	buf := raster.NewGray(side, side)
	for i := range buf.Pix {
		buf.Pix[i] = uint8((i*37 + i/side*11) % 256)
	}
	return buf
}

func singleScaleParams(factors ...float64) Params {
	params := DefaultParams()
	params.ScaleFactors = factors
	return params
}

func TestReadSucceedsOnlyAtUpscale(t *testing.T) {
	const native = 100
	engine := &stubEngine{
		// Decodes only once the image grew past its native size, simulating
		// modules too small for the decoder's sampling grid.
		decode: func(img *raster.Buffer) [][]byte {
			if img.Width >= native*3/2 {
				return [][]byte{[]byte("upscaled-payload")}
			}
			return nil
		},
	}

	coord := NewCoordinator(engine, nil)
	result, err := coord.Read(context.Background(), testImage(native), singleScaleParams(1.0, 1.5, 0.8))
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if coord.State() != StateSucceeded {
		t.Fatalf("state = %v, want succeeded", coord.State())
	}
	if len(result.Payloads) != 1 {
		t.Fatalf("payload count = %d, want 1", len(result.Payloads))
	}
	if result.Payloads[0].Scale != 1.5 {
		t.Fatalf("provenance scale = %v, want 1.5", result.Payloads[0].Scale)
	}
	if result.Payloads[0].Text() != "upscaled-payload" {
		t.Fatalf("payload content = %q", result.Payloads[0].Text())
	}
}

func TestReadSingleShotNativeOnlyExhausts(t *testing.T) {
	const native = 100
	engine := &stubEngine{
		decode: func(img *raster.Buffer) [][]byte {
			if img.Width >= native*3/2 {
				return [][]byte{[]byte("upscaled-payload")}
			}
			return nil
		},
	}

	coord := NewCoordinator(engine, nil)
	_, err := coord.Read(context.Background(), testImage(native), singleScaleParams(1.0))
	if !errors.Is(err, ErrNoQRCodeFound) {
		t.Fatalf("expected ErrNoQRCodeFound, got: %v", err)
	}
	if coord.State() != StateExhausted {
		t.Fatalf("state = %v, want exhausted", coord.State())
	}
}

func TestReadShortCircuitsOnFirstSuccess(t *testing.T) {
	engine := &stubEngine{
		decode: func(img *raster.Buffer) [][]byte {
			return [][]byte{[]byte("hit")}
		},
	}

	coord := NewCoordinator(engine, nil)
	result, err := coord.Read(context.Background(), testImage(100), singleScaleParams(1.0, 1.5, 0.8))
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if engine.calls != 1 {
		t.Fatalf("engine called %d times, want 1 (short circuit)", engine.calls)
	}
	if result.CandidatesTried != 1 {
		t.Fatalf("candidates tried = %d, want 1", result.CandidatesTried)
	}
}

func TestReadExhaustiveDeduplicatesAcrossVariants(t *testing.T) {
	// Every candidate reports the same two symbols; exhaustive mode must
	// visit all variants yet return each payload once.
	engine := &stubEngine{
		decode: func(img *raster.Buffer) [][]byte {
			return [][]byte{[]byte("alpha"), []byte("beta")}
		},
	}

	params := singleScaleParams(1.0, 1.5)
	params.Exhaustive = true

	coord := NewCoordinator(engine, nil)
	result, err := coord.Read(context.Background(), testImage(100), params)
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if len(result.Payloads) != 2 {
		t.Fatalf("payload count = %d, want 2", len(result.Payloads))
	}
	if result.Payloads[0].Text() != "alpha" || result.Payloads[1].Text() != "beta" {
		t.Fatalf("unexpected payloads: %q, %q", result.Payloads[0].Text(), result.Payloads[1].Text())
	}
	// 2 scales x (threshold + inverted) + native equalized candidate.
	if engine.calls != 5 {
		t.Fatalf("engine called %d times, want all 5 candidates", engine.calls)
	}
}

func TestReadSkipsScaleTooSmall(t *testing.T) {
	engine := &stubEngine{}
	coord := NewCoordinator(engine, nil)

	// 60px native: the 0.5x variant lands below the decodable minimum and
	// must be skipped while the native variant still runs.
	_, err := coord.Read(context.Background(), testImage(60), singleScaleParams(1.0, 0.5))
	if !errors.Is(err, ErrNoQRCodeFound) {
		t.Fatalf("expected ErrNoQRCodeFound, got: %v", err)
	}
	// Native candidates only: equalized + threshold + inverted.
	if engine.calls != 3 {
		t.Fatalf("engine called %d times, want 3", engine.calls)
	}
}

func TestReadHonorsCancellation(t *testing.T) {
	engine := &stubEngine{}
	coord := NewCoordinator(engine, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := coord.Read(ctx, testImage(100), singleScaleParams(1.0, 1.5))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
	if engine.calls != 0 {
		t.Fatalf("engine called %d times after cancellation, want 0", engine.calls)
	}
}

func TestReadRejectsInvalidParams(t *testing.T) {
	coord := NewCoordinator(&stubEngine{}, nil)

	params := DefaultParams()
	params.BlockSize = 0
	if _, err := coord.Read(context.Background(), testImage(100), params); err == nil {
		t.Fatalf("expected validation error for zero block size")
	}

	params = DefaultParams()
	params.ScaleFactors = nil
	if _, err := coord.Read(context.Background(), testImage(100), params); err == nil {
		t.Fatalf("expected validation error for empty scale set")
	}
}

func TestResultWipeClearsPayloads(t *testing.T) {
	engine := &stubEngine{
		decode: func(img *raster.Buffer) [][]byte {
			return [][]byte{[]byte("secret")}
		},
	}
	coord := NewCoordinator(engine, nil)
	result, err := coord.Read(context.Background(), testImage(100), singleScaleParams(1.0))
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}

	data := result.Payloads[0].Data
	result.Wipe()
	for i, b := range data {
		if b != 0 {
			t.Fatalf("payload byte %d not zeroed after Wipe", i)
		}
	}
	if result.Payloads != nil {
		t.Fatalf("payload slice must be released after Wipe")
	}
}

func TestOrderFactorsPriority(t *testing.T) {
	ordered := orderFactors([]float64{0.8, 2.0, 1.0, 1.5, 0.5, 1.0})
	want := []float64{1.0, 1.5, 2.0, 0.8, 0.5}
	if len(ordered) != len(want) {
		t.Fatalf("ordered = %v, want %v", ordered, want)
	}
	for i := range want {
		if ordered[i] != want[i] {
			t.Fatalf("ordered = %v, want %v", ordered, want)
		}
	}
}
