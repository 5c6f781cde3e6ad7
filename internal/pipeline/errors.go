package pipeline

import "errors"

// Failure taxonomy surfaced by the pipeline. Read failures, unsupported
// containers, and corrupt data abort the run for that image; a batch caller
// distinguishes them from ErrNoQRCodeFound, which is the normal outcome of an
// image that simply carries no decodable symbol.
var (
	// ErrReadFailed wraps filesystem-level failures while reading the image.
	ErrReadFailed = errors.New("image read failed")
	// ErrUnsupportedFormat means no registered decoder recognizes the container.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrCorruptImage means the container was recognized but could not be decoded.
	ErrCorruptImage = errors.New("corrupt image data")
	// ErrNoQRCodeFound means every enhancement variant was tried without a decode.
	ErrNoQRCodeFound = errors.New("no QR code found")
)
