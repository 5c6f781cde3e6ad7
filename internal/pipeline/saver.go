package pipeline

import (
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"

	"kripton-qr-reader/internal/logger"
	"kripton-qr-reader/internal/raster"
)

// imageSaver writes intermediate candidate buffers to disk for inspection.
// It is exercised only when a run sets Params.DebugDir.
type imageSaver struct {
	logger logger.Logger
}

func (s *imageSaver) SaveToWriter(writer io.Writer, buffer *raster.Buffer, format string) error {
	if buffer == nil {
		return fmt.Errorf("no image data to save")
	}

	img := buffer.ToImage()

	switch format {
	case "jpeg":
		return jpeg.Encode(writer, img, &jpeg.Options{Quality: 95})
	case "bmp":
		return bmp.Encode(writer, img)
	case "png", "":
		return png.Encode(writer, img)
	default:
		s.logger.Warning("ImageSaver", "format not supported for writing, using PNG", map[string]interface{}{
			"requested_format": strings.ToUpper(format),
		})
		return png.Encode(writer, img)
	}
}

func (s *imageSaver) SaveToPath(path string, buffer *raster.Buffer) error {
	format := ""
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		format = "jpeg"
	case ".bmp":
		format = "bmp"
	case ".png":
		format = "png"
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer file.Close()

	if err := s.SaveToWriter(file, buffer, format); err != nil {
		return err
	}

	s.logger.Debug("ImageSaver", "image saved", map[string]interface{}{
		"path":   path,
		"format": format,
	})
	return nil
}
