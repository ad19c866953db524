package mocks

import (
	"context"
	"sync"

	"github.com/phrazzld/postmedia/internal/media"
)

// Compressor is a mock implementation of media.Compressor for testing.
// Without CompressFn it returns the raw bytes unchanged.
type Compressor struct {
	CompressFn func(ctx context.Context, raw media.Raw) (media.Encoded, error)

	mu    sync.Mutex
	calls []media.Raw
}

// Compress implements media.Compressor.
func (m *Compressor) Compress(ctx context.Context, raw media.Raw) (media.Encoded, error) {
	m.mu.Lock()
	m.calls = append(m.calls, raw)
	m.mu.Unlock()

	if m.CompressFn != nil {
		return m.CompressFn(ctx, raw)
	}
	return media.Encoded{
		Kind:        raw.Kind,
		ContentType: raw.ContentType,
		Data:        raw.Data,
	}, nil
}

// Calls returns the payloads Compress was called with.
func (m *Compressor) Calls() []media.Raw {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]media.Raw, len(m.calls))
	copy(out, m.calls)
	return out
}
