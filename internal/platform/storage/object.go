package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/phrazzld/postmedia/internal/media"
)

// ErrInvalidConfig is returned when an uploader is built from incomplete settings.
var ErrInvalidConfig = errors.New("invalid storage configuration")

// object describes one upload
type object struct {
	Key         string
	ContentType string
	Size        int64
}

// keyer builds object keys. The clock and the fallback id source are
// swappable for tests.
type keyer struct {
	now   func() time.Time
	newID func() uuid.UUID
}

func defaultKeyer() keyer {
	return keyer{now: time.Now, newID: uuid.New}
}

// describe resolves the content type and key of an encoded payload. When the
// declared content type is missing or unknown the payload is sniffed. The key
// is named after the item id; payloads without one get a fresh id.
func (k keyer) describe(encoded media.Encoded, useCase media.UseCase) (object, error) {
	if len(encoded.Data) == 0 {
		return object{}, media.ErrEmptyPayload
	}

	mime := lookup(encoded.ContentType)
	if mime == nil {
		mime = mimetype.Detect(encoded.Data)
	}

	contentType := mime.String()
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}

	id := encoded.ItemID
	if id == uuid.Nil {
		id = k.newID()
	}

	return object{
		Key:         ObjectKey(useCase, id, mime.Extension(), k.now()),
		ContentType: contentType,
		Size:        int64(len(encoded.Data)),
	}, nil
}

func lookup(contentType string) *mimetype.MIME {
	if contentType == "" {
		return nil
	}
	return mimetype.Lookup(contentType)
}

// ObjectKey returns the storage key of an object.
func ObjectKey(useCase media.UseCase, id uuid.UUID, ext string, at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("%s/%04d/%02d/%s%s", useCase, at.Year(), int(at.Month()), id, ext)
}

// PublicURL joins the public base URL and an object key.
func PublicURL(baseURL, key string) string {
	return strings.TrimRight(baseURL, "/") + "/" + key
}
