package pipeline

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"kripton-qr-reader/internal/logger"
	"kripton-qr-reader/internal/raster"
)

type imageLoader struct {
	logger logger.Logger
}

func (l *imageLoader) LoadFromPath(path string) (*raster.Buffer, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	defer file.Close()

	return l.LoadFromReader(bufio.NewReader(file), strings.ToLower(filepath.Ext(path)))
}

func (l *imageLoader) LoadFromReader(reader io.Reader, formatHint string) (*raster.Buffer, string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrReadFailed, err)
	}

	return l.LoadFromBytes(data, formatHint)
}

func (l *imageLoader) LoadFromBytes(data []byte, formatHint string) (*raster.Buffer, string, error) {
	img, stdlibFormat, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", fmt.Errorf("%w: no decoder for %q", ErrUnsupportedFormat, formatHint)
		}
		return nil, "", fmt.Errorf("%w: %v", ErrCorruptImage, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, "", fmt.Errorf("%w: zero-dimension image %dx%d", ErrCorruptImage, bounds.Dx(), bounds.Dy())
	}

	buffer := raster.FromImage(img)
	format := determineActualFormat(formatHint, stdlibFormat)

	l.logger.Info("ImageLoader", "image loaded", map[string]interface{}{
		"width":    buffer.Width,
		"height":   buffer.Height,
		"channels": buffer.Channels,
		"format":   format,
	})

	return buffer, format, nil
}

func determineActualFormat(hint, stdlibFormat string) string {
	switch hint {
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".png":
		return "png"
	case ".bmp":
		return "bmp"
	case ".gif":
		return "gif"
	case ".webp":
		return "webp"
	default:
		if stdlibFormat != "" {
			return stdlibFormat
		}
		return "unknown"
	}
}
