package decoder_test

import (
	"context"
	"testing"

	"github.com/makiuchi-d/gozxing"
	qrwriter "github.com/makiuchi-d/gozxing/qrcode"

	"kripton-qr-reader/internal/decoder"
	"kripton-qr-reader/internal/pipeline"
	"kripton-qr-reader/internal/raster"
)

// renderQR draws a QR symbol for content into a grayscale buffer of the given
// side length, quiet zone included.
func renderQR(t *testing.T, content string, side int) *raster.Buffer {
	t.Helper()

	matrix, err := qrwriter.NewQRCodeWriter().Encode(content, gozxing.BarcodeFormat_QR_CODE, side, side, nil)
	if err != nil {
		t.Fatalf("encoding QR fixture: %v", err)
	}

	buf := raster.NewGray(matrix.GetWidth(), matrix.GetHeight())
	for y := 0; y < matrix.GetHeight(); y++ {
		for x := 0; x < matrix.GetWidth(); x++ {
			if matrix.Get(x, y) {
				buf.SetGray(x, y, 0)
			} else {
				buf.SetGray(x, y, 255)
			}
		}
	}
	return buf
}

func TestZXingDecodesSymbol(t *testing.T) {
	const content = "https://example.org/kripton"
	img := renderQR(t, content, 200)

	payloads, err := decoder.NewZXing().Decode(context.Background(), img)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	if len(payloads) != 1 {
		t.Fatalf("payload count = %d, want 1", len(payloads))
	}
	if string(payloads[0]) != content {
		t.Fatalf("payload = %q, want %q", payloads[0], content)
	}
}

func TestZXingNoSymbolMeansEmptyNotError(t *testing.T) {
	blank := raster.NewGray(128, 128)
	for i := range blank.Pix {
		blank.Pix[i] = 255
	}

	payloads, err := decoder.NewZXing().Decode(context.Background(), blank)
	if err != nil {
		t.Fatalf("a blank image must not error: %v", err)
	}
	if len(payloads) != 0 {
		t.Fatalf("blank image produced %d payloads", len(payloads))
	}
}

func TestZXingTwoSymbolsInOneImage(t *testing.T) {
	first := renderQR(t, "payload-one", 180)
	second := renderQR(t, "payload-two", 180)

	// Compose the two symbols side by side on a white canvas with generous
	// separation.
	const gap = 60
	width := first.Width + second.Width + 3*gap
	height := max(first.Height, second.Height) + 2*gap
	canvas := raster.NewGray(width, height)
	for i := range canvas.Pix {
		canvas.Pix[i] = 255
	}
	blit(canvas, first, gap, gap)
	blit(canvas, second, first.Width+2*gap, gap)

	payloads, err := decoder.NewZXing().Decode(context.Background(), canvas)
	if err != nil {
		t.Fatalf("Decode() failed: %v", err)
	}
	got := make(map[string]bool, len(payloads))
	for _, p := range payloads {
		got[string(p)] = true
	}
	if !got["payload-one"] || !got["payload-two"] {
		t.Fatalf("expected both payloads, got: %v", got)
	}
}

// TestPipelineEndToEnd runs the full enhancement pipeline against the real
// engine over a rendered symbol.
func TestPipelineEndToEnd(t *testing.T) {
	const content = "end-to-end"
	img := renderQR(t, content, 240)

	coord := pipeline.NewCoordinator(decoder.NewZXing(), nil)
	result, err := coord.Read(context.Background(), img, pipeline.DefaultParams())
	if err != nil {
		t.Fatalf("pipeline failed on a clean symbol: %v", err)
	}
	defer result.Wipe()

	if len(result.Payloads) != 1 || result.Payloads[0].Text() != content {
		t.Fatalf("unexpected pipeline payloads: %+v", result.Payloads)
	}
	if coord.State() != pipeline.StateSucceeded {
		t.Fatalf("state = %v, want succeeded", coord.State())
	}
}

func blit(dst, src *raster.Buffer, offsetX, offsetY int) {
	for y := 0; y < src.Height; y++ {
		copy(dst.Pix[(offsetY+y)*dst.Width+offsetX:(offsetY+y)*dst.Width+offsetX+src.Width],
			src.Pix[y*src.Width:(y+1)*src.Width])
	}
}
