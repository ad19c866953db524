package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/minio/minio-go/v7"
	miniocredentials "github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/phrazzld/postmedia/internal/config"
	"github.com/phrazzld/postmedia/internal/media"
)

// MinIOPutter is the subset of the MinIO client the uploader needs.
type MinIOPutter interface {
	PutObject(
		ctx context.Context,
		bucketName, objectName string,
		reader io.Reader,
		objectSize int64,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)
}

// MinIOUploader implements media.Uploader on a MinIO server.
type MinIOUploader struct {
	client        MinIOPutter
	bucket        string
	publicBaseURL string
	keys          keyer
	logger        *slog.Logger
}

var _ media.Uploader = (*MinIOUploader)(nil)

// NewMinIOUploader creates a MinIOUploader writing into bucket.
func NewMinIOUploader(client MinIOPutter, bucket, publicBaseURL string, logger *slog.Logger) (*MinIOUploader, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: minio client cannot be nil", ErrInvalidConfig)
	}
	if bucket == "" {
		return nil, fmt.Errorf("%w: bucket cannot be empty", ErrInvalidConfig)
	}
	if publicBaseURL == "" {
		return nil, fmt.Errorf("%w: public base url cannot be empty", ErrInvalidConfig)
	}
	if logger == nil {
		return nil, fmt.Errorf("%w: logger cannot be nil", ErrInvalidConfig)
	}

	return &MinIOUploader{
		client:        client,
		bucket:        bucket,
		publicBaseURL: publicBaseURL,
		keys:          defaultKeyer(),
		logger:        logger.With("component", "minio_uploader", "bucket", bucket),
	}, nil
}

// NewMinIOClient connects to the MinIO endpoint in cfg with static keys.
func NewMinIOClient(cfg config.StorageConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  miniocredentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return client, nil
}

// Upload stores encoded under a fresh key and returns its reference.
func (u *MinIOUploader) Upload(ctx context.Context, encoded media.Encoded, useCase media.UseCase) (media.RemoteRef, error) {
	obj, err := u.keys.describe(encoded, useCase)
	if err != nil {
		return media.RemoteRef{}, err
	}

	info, err := u.client.PutObject(ctx, u.bucket, obj.Key, bytes.NewReader(encoded.Data), obj.Size, minio.PutObjectOptions{
		ContentType:  obj.ContentType,
		CacheControl: "public, max-age=31536000, immutable",
	})
	if err != nil {
		return media.RemoteRef{}, fmt.Errorf("put object %s: %w", obj.Key, err)
	}

	u.logger.Debug("object uploaded", "key", info.Key, "etag", info.ETag, "size_bytes", info.Size)

	return media.RemoteRef{
		ID:  obj.Key,
		URL: PublicURL(u.publicBaseURL, obj.Key),
	}, nil
}
