package media

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind identifies the broad type of a media payload
type Kind string

// Supported media kinds
const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// KindFromContentType maps a MIME type such as "image/heic" or "video/mp4"
// to a media kind. Returns ErrUnsupportedKind for anything else.
func KindFromContentType(contentType string) (Kind, error) {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return KindImage, nil
	case strings.HasPrefix(contentType, "video/"):
		return KindVideo, nil
	default:
		return "", ErrUnsupportedKind
	}
}

// UseCase tags what a submission is for. Storage uses it to partition
// uploaded objects.
type UseCase string

// Known use cases
const (
	UseCaseCheckin UseCase = "checkin"
	UseCaseReview  UseCase = "review"
)

// Valid reports whether u is a known use case.
func (u UseCase) Valid() bool {
	switch u {
	case UseCaseCheckin, UseCaseReview:
		return true
	default:
		return false
	}
}

// Raw is the media payload as selected by the user, before compression.
type Raw struct {
	Kind        Kind
	ContentType string
	Filename    string
	Data        []byte
}

// Validate reports whether r can enter the pipeline at all.
func (r Raw) Validate() error {
	if len(r.Data) == 0 {
		return ErrEmptyPayload
	}
	if r.Kind != KindImage && r.Kind != KindVideo {
		return fmt.Errorf("%w: %q", ErrUnsupportedKind, r.Kind)
	}
	return nil
}

// Encoded is the compressed payload ready for upload. ItemID is the id of
// the item it came from; the pipeline sets it after compression.
type Encoded struct {
	ItemID      uuid.UUID
	Kind        Kind
	ContentType string
	Data        []byte
	Width       int
	Height      int
}

// RemoteRef is the server-issued reference for an uploaded payload.
type RemoteRef struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Compressor turns a raw payload into an encoded one. Implementations are
// long-running and must honour ctx cancellation.
type Compressor interface {
	Compress(ctx context.Context, raw Raw) (Encoded, error)
}

// Uploader stores an encoded payload and returns its remote reference.
type Uploader interface {
	Upload(ctx context.Context, encoded Encoded, useCase UseCase) (RemoteRef, error)
}

// CompressorFunc adapts a function to the Compressor interface.
type CompressorFunc func(ctx context.Context, raw Raw) (Encoded, error)

// Compress calls f(ctx, raw).
func (f CompressorFunc) Compress(ctx context.Context, raw Raw) (Encoded, error) {
	return f(ctx, raw)
}

// UploaderFunc adapts a function to the Uploader interface.
type UploaderFunc func(ctx context.Context, encoded Encoded, useCase UseCase) (RemoteRef, error)

// Upload calls f(ctx, encoded, useCase).
func (f UploaderFunc) Upload(ctx context.Context, encoded Encoded, useCase UseCase) (RemoteRef, error) {
	return f(ctx, encoded, useCase)
}
