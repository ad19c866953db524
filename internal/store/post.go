package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/postmedia/internal/domain"
)

// PostStore persists published posts and their ordered media references.
type PostStore interface {
	// CreatePost saves the post and its media in a single transaction.
	// Returns ErrDuplicate if a post with the same ID already exists and
	// ErrInvalidEntity if the post fails validation.
	CreatePost(ctx context.Context, post *domain.Post) error

	// GetPost retrieves a post with its media in their original order.
	// Returns ErrPostNotFound if the post does not exist.
	GetPost(ctx context.Context, id uuid.UUID) (*domain.Post, error)
}
