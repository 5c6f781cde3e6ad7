package decoder

import (
	"context"
	"fmt"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/multi/qrcode"

	"kripton-qr-reader/internal/raster"
)

// ZXing decodes QR symbols with the gozxing port of the ZXing engine. The
// multi-reader is used so a single image can yield every symbol it contains.
type ZXing struct {
	hints map[gozxing.DecodeHintType]interface{}
}

// NewZXing returns an engine with TRY_HARDER set; the pipeline hands it
// already-enhanced candidates, so decode latency is dominated by image count,
// not by the extra detection effort.
func NewZXing() *ZXing {
	return &ZXing{
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// Decode implements Engine. The candidate buffer is wrapped as a luminance
// source and binarized with the hybrid binarizer first, falling back to the
// global histogram binarizer; on a buffer that is already two-level both are
// trivial, but the fallback recovers the bare grayscale candidates the
// orchestrator also submits.
func (z *ZXing) Decode(ctx context.Context, img *raster.Buffer) ([][]byte, error) {
	if img == nil {
		return nil, fmt.Errorf("decode: nil image")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := gozxing.NewLuminanceSourceFromImage(img.ToImage())
	reader := qrcode.NewQRCodeMultiReader()

	binarizers := []gozxing.Binarizer{
		gozxing.NewHybridBinarizer(src),
		gozxing.NewGlobalHistgramBinarizer(src),
	}
	for _, binarizer := range binarizers {
		bmp, err := gozxing.NewBinaryBitmap(binarizer)
		if err != nil {
			continue
		}
		results, err := reader.DecodeMultiple(bmp, z.hints)
		if err != nil || len(results) == 0 {
			continue
		}
		payloads := make([][]byte, 0, len(results))
		for _, result := range results {
			payloads = append(payloads, []byte(result.GetText()))
		}
		return payloads, nil
	}

	return nil, nil
}
