package imaging

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/disintegration/imaging"
	"github.com/phrazzld/postmedia/internal/media"
)

// Config controls image re-encoding
type Config struct {
	// MaxDimension is the longest allowed edge in pixels
	MaxDimension int
	// JPEGQuality is the encoder quality, 1 to 100
	JPEGQuality int
}

// Compressor implements media.Compressor for photos.
type Compressor struct {
	config Config
	logger *slog.Logger
}

var _ media.Compressor = (*Compressor)(nil)

// NewCompressor creates an image Compressor.
func NewCompressor(config Config, logger *slog.Logger) (*Compressor, error) {
	if config.MaxDimension <= 0 {
		return nil, fmt.Errorf("max dimension must be positive, got %d", config.MaxDimension)
	}
	if config.JPEGQuality < 1 || config.JPEGQuality > 100 {
		return nil, fmt.Errorf("jpeg quality must be between 1 and 100, got %d", config.JPEGQuality)
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Compressor{
		config: config,
		logger: logger.With("component", "image_compressor"),
	}, nil
}

// Compress decodes raw, downsizes it to fit MaxDimension×MaxDimension
// keeping its aspect ratio and encodes the result as JPEG. Images already
// within bounds are only re-encoded.
func (c *Compressor) Compress(ctx context.Context, raw media.Raw) (media.Encoded, error) {
	if raw.Kind != media.KindImage {
		return media.Encoded{}, fmt.Errorf("%w: %q is not an image", media.ErrUnsupportedKind, raw.Kind)
	}
	if err := ctx.Err(); err != nil {
		return media.Encoded{}, err
	}

	src, err := imaging.Decode(bytes.NewReader(raw.Data), imaging.AutoOrientation(true))
	if err != nil {
		return media.Encoded{}, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := src.Bounds()
	img := src
	if bounds.Dx() > c.config.MaxDimension || bounds.Dy() > c.config.MaxDimension {
		img = imaging.Fit(src, c.config.MaxDimension, c.config.MaxDimension, imaging.Lanczos)
		c.logger.Debug("resized image",
			"from_width", bounds.Dx(),
			"from_height", bounds.Dy(),
			"to_width", img.Bounds().Dx(),
			"to_height", img.Bounds().Dy())
	}

	// Resizing is CPU bound and ignores ctx; check again before encoding
	if err := ctx.Err(); err != nil {
		return media.Encoded{}, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(c.config.JPEGQuality)); err != nil {
		return media.Encoded{}, fmt.Errorf("failed to encode JPEG: %w", err)
	}

	return media.Encoded{
		Kind:        media.KindImage,
		ContentType: "image/jpeg",
		Data:        buf.Bytes(),
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
	}, nil
}
