package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/postmedia/internal/config"
	"github.com/phrazzld/postmedia/internal/media"
)

// Backend names accepted in configuration
const (
	BackendS3    = "s3"
	BackendMinIO = "minio"
)

// NewUploader builds the uploader selected by cfg.Backend.
func NewUploader(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (media.Uploader, error) {
	switch cfg.Backend {
	case BackendS3:
		client, err := NewS3Client(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewS3Uploader(client, cfg.Bucket, cfg.PublicBaseURL, logger)
	case BackendMinIO:
		client, err := NewMinIOClient(cfg)
		if err != nil {
			return nil, err
		}
		return NewMinIOUploader(client, cfg.Bucket, cfg.PublicBaseURL, logger)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, cfg.Backend)
	}
}
