package postlabel

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"log/slog"
)

var (
	// ErrEmptyImage is returned for empty payloads and zero-sized images.
	ErrEmptyImage = errors.New("postlabel: empty image")
	// ErrImageTooLarge is returned when an image exceeds the pixel limit.
	ErrImageTooLarge = errors.New("postlabel: image too large")
)

// validateImageData reads only the image header and rejects payloads that are
// empty, undecodable, or larger than maxPixels, before a full decode allocates
// the pixel buffer. maxPixels <= 0 disables the size check.
func validateImageData(data []byte, maxPixels int) error {
	if len(data) == 0 {
		return ErrEmptyImage
	}

	imgCfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image config: %w", err)
	}

	if imgCfg.Width <= 0 || imgCfg.Height <= 0 {
		return ErrEmptyImage
	}

	if maxPixels > 0 && imgCfg.Width*imgCfg.Height > maxPixels {
		slog.Debug("postlabel: image too large", "format", format, "width", imgCfg.Width, "height", imgCfg.Height, "max_pixels", maxPixels)
		return fmt.Errorf("%w: %dx%d", ErrImageTooLarge, imgCfg.Width, imgCfg.Height)
	}

	return nil
}
