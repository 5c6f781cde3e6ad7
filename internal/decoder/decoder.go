// Package decoder abstracts the QR symbol decoding engine behind a narrow
// contract: a prepared two-level image goes in, zero or more decoded payloads
// come out. The enhancement pipeline never looks inside the engine, so any
// conformant implementation can be substituted.
package decoder

import (
	"context"

	"kripton-qr-reader/internal/raster"
)

// Engine decodes QR symbols from a prepared image. Implementations return the
// decoded payloads in detection order, one entry per symbol; an image can
// carry several. A nil or empty slice with a nil error means the engine found
// no symbol, which is an expected outcome, not a failure. Errors are reserved
// for the engine being unable to examine the image at all.
type Engine interface {
	Decode(ctx context.Context, img *raster.Buffer) ([][]byte, error)
}
