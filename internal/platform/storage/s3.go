package storage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscredentials "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/phrazzld/postmedia/internal/config"
	"github.com/phrazzld/postmedia/internal/media"
)

// PutObjectAPI is the subset of the S3 client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader implements media.Uploader on Amazon S3 or any S3-compatible
// endpoint.
type S3Uploader struct {
	client        PutObjectAPI
	bucket        string
	publicBaseURL string
	keys          keyer
	logger        *slog.Logger
}

var _ media.Uploader = (*S3Uploader)(nil)

// NewS3Uploader creates an S3Uploader writing into bucket.
func NewS3Uploader(client PutObjectAPI, bucket, publicBaseURL string, logger *slog.Logger) (*S3Uploader, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: s3 client cannot be nil", ErrInvalidConfig)
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

	return &S3Uploader{
		client:        client,
		bucket:        bucket,
		publicBaseURL: publicBaseURL,
		keys:          defaultKeyer(),
		logger:        logger.With("component", "s3_uploader", "bucket", bucket),
	}, nil
}

// NewS3Client builds an S3 client from the default AWS credential chain.
// Static keys and a custom endpoint in cfg override the chain.
func NewS3Client(ctx context.Context, cfg config.StorageConfig) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			awscredentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Upload stores encoded under a fresh key and returns its reference.
func (u *S3Uploader) Upload(ctx context.Context, encoded media.Encoded, useCase media.UseCase) (media.RemoteRef, error) {
	obj, err := u.keys.describe(encoded, useCase)
	if err != nil {
		return media.RemoteRef{}, err
	}

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(obj.Key),
		Body:          bytes.NewReader(encoded.Data),
		ContentLength: aws.Int64(obj.Size),
		ContentType:   aws.String(obj.ContentType),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return media.RemoteRef{}, fmt.Errorf("put object %s: %w", obj.Key, err)
	}

	u.logger.Debug("object uploaded", "key", obj.Key, "content_type", obj.ContentType, "size_bytes", obj.Size)

	return media.RemoteRef{
		ID:  obj.Key,
		URL: PublicURL(u.publicBaseURL, obj.Key),
	}, nil
}
