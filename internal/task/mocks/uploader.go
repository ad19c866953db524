package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/postmedia/internal/media"
)

// Uploader is a mock implementation of media.Uploader for testing.
// Without UploadFn it returns a reference derived from the payload bytes.
type Uploader struct {
	UploadFn func(ctx context.Context, encoded media.Encoded, useCase media.UseCase) (media.RemoteRef, error)

	mu    sync.Mutex
	calls int
}

// Upload implements media.Uploader.
func (m *Uploader) Upload(
	ctx context.Context,
	encoded media.Encoded,
	useCase media.UseCase,
) (media.RemoteRef, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.UploadFn != nil {
		return m.UploadFn(ctx, encoded, useCase)
	}
	id := string(useCase) + "/" + string(encoded.Data)
	return media.RemoteRef{
		ID:  id,
		URL: "https://cdn.example.com/" + id,
	}, nil
}

// CallCount returns how many times Upload was called.
func (m *Uploader) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
