package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/postmedia/internal/domain"
	"github.com/phrazzld/postmedia/internal/media"
)

// Multipart form field names
const (
	formTitle   = "title"
	formUseCase = "use_case"
	formPlaceID = "place_id"
	formBody    = "body"
	formRating  = "rating"
	formMedia   = "media"
)

// MaxMediaPerPost caps the number of files in one submission.
const MaxMediaPerPost = 10

// ErrTooManyMedia is returned when a submission carries more than MaxMediaPerPost files.
var ErrTooManyMedia = fmt.Errorf("a post may carry at most %d media files", MaxMediaPerPost)

// multipartMemory is how much of a form ParseMultipartForm keeps in memory
// before spilling file parts to disk.
const multipartMemory = 32 << 20

// getPathUUID extracts a UUID from the URL path parameters.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, fmt.Errorf("%w: %s is required", domain.ErrInvalidID, paramName)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s has invalid format", domain.ErrInvalidID, paramName)
	}
	return id, nil
}

// parsePostForm reads the multipart submission. The body is capped at
// maxBytes; file parts are sniffed to decide their media kind.
func parsePostForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (CreatePostRequest, []media.Raw, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return CreatePostRequest{}, nil, fmt.Errorf("%w: limit %d bytes", ErrRequestTooLarge, tooLarge.Limit)
		}
		return CreatePostRequest{}, nil, fmt.Errorf("%w: %w", ErrMalformedForm, err)
	}

	req := CreatePostRequest{
		Title:   strings.TrimSpace(r.FormValue(formTitle)),
		UseCase: strings.TrimSpace(r.FormValue(formUseCase)),
		PlaceID: strings.TrimSpace(r.FormValue(formPlaceID)),
		Body:    r.FormValue(formBody),
	}
	if raw := strings.TrimSpace(r.FormValue(formRating)); raw != "" {
		rating, err := strconv.Atoi(raw)
		if err != nil {
			return CreatePostRequest{}, nil, ErrInvalidRating
		}
		req.Rating = &rating
	}

	files := r.MultipartForm.File[formMedia]
	if len(files) > MaxMediaPerPost {
		return CreatePostRequest{}, nil, ErrTooManyMedia
	}

	raws := make([]media.Raw, 0, len(files))
	for _, fh := range files {
		raw, err := readMediaPart(fh)
		if err != nil {
			return CreatePostRequest{}, nil, err
		}
		raws = append(raws, raw)
	}
	return req, raws, nil
}

// readMediaPart loads one file part and classifies it by content, ignoring
// the client-declared Content-Type.
func readMediaPart(fh *multipart.FileHeader) (media.Raw, error) {
	f, err := fh.Open()
	if err != nil {
		return media.Raw{}, fmt.Errorf("%w: open %q: %w", ErrMalformedForm, fh.Filename, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return media.Raw{}, fmt.Errorf("%w: read %q: %w", ErrMalformedForm, fh.Filename, err)
	}
	if len(data) == 0 {
		return media.Raw{}, fmt.Errorf("%w: %q", media.ErrEmptyPayload, fh.Filename)
	}

	contentType := mimetype.Detect(data).String()
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	kind, err := media.KindFromContentType(contentType)
	if err != nil {
		return media.Raw{}, fmt.Errorf("%w: %q is %s", err, fh.Filename, contentType)
	}

	return media.Raw{
		Kind:        kind,
		ContentType: contentType,
		Filename:    fh.Filename,
		Data:        data,
	}, nil
}
