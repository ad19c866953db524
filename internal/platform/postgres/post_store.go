package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/postmedia/internal/domain"
	"github.com/phrazzld/postmedia/internal/media"
	"github.com/phrazzld/postmedia/internal/platform/logger"
	"github.com/phrazzld/postmedia/internal/store"
)

const (
	insertPostQuery = `
		INSERT INTO posts (id, user_id, title, use_case, place_id, body, rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	insertPostMediaQuery = `
		INSERT INTO post_media (post_id, position, remote_id, url)
		VALUES ($1, $2, $3, $4)`

	selectPostQuery = `
		SELECT id, user_id, title, use_case, place_id, body, rating, created_at
		FROM posts
		WHERE id = $1`

	selectPostMediaQuery = `
		SELECT remote_id, url
		FROM post_media
		WHERE post_id = $1
		ORDER BY position`
)

// PostgresPostStore implements the store.PostStore interface
// using a PostgreSQL database as the storage backend.
type PostgresPostStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresPostStore creates a new PostgreSQL implementation of the PostStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresPostStore(db *sql.DB, logger *slog.Logger) *PostgresPostStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresPostStore{
		db:     db,
		logger: logger.With(slog.String("component", "post_store")),
	}
}

// Ensure PostgresPostStore implements store.PostStore interface
var _ store.PostStore = (*PostgresPostStore)(nil)

// CreatePost implements store.PostStore.
// The post row and every media row are written in one transaction; media
// positions follow the slice order.
func (s *PostgresPostStore) CreatePost(ctx context.Context, post *domain.Post) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := post.Validate(); err != nil {
		log.Warn("invalid post", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	placeID := sql.NullString{String: post.PlaceID, Valid: post.PlaceID != ""}
	var rating sql.NullInt32
	if post.Rating != nil {
		rating = sql.NullInt32{Int32: int32(*post.Rating), Valid: true}
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, insertPostQuery,
			post.ID,
			post.UserID,
			post.Title,
			string(post.UseCase),
			placeID,
			post.Body,
			rating,
			post.CreatedAt,
		)
		if err != nil {
			return MapError(err)
		}

		for i, ref := range post.Media {
			if _, err := tx.ExecContext(ctx, insertPostMediaQuery, post.ID, i, ref.ID, ref.URL); err != nil {
				return MapError(err)
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to create post",
			slog.String("post_id", post.ID.String()),
			slog.String("error", err.Error()))
		return store.NewStoreError("post", "create", "failed to insert post", err)
	}

	log.Debug("post created",
		slog.String("post_id", post.ID.String()),
		slog.Int("media_count", len(post.Media)))
	return nil
}

// GetPost implements store.PostStore.
func (s *PostgresPostStore) GetPost(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		post    domain.Post
		useCase string
		placeID sql.NullString
		rating  sql.NullInt32
	)
	err := s.db.QueryRowContext(ctx, selectPostQuery, id).Scan(
		&post.ID,
		&post.UserID,
		&post.Title,
		&useCase,
		&placeID,
		&post.Body,
		&rating,
		&post.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("post not found", slog.String("post_id", id.String()))
			return nil, store.ErrPostNotFound
		}
		log.Error("failed to get post",
			slog.String("post_id", id.String()),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("post", "get", "failed to query post", MapError(err))
	}

	post.UseCase = media.UseCase(useCase)
	post.PlaceID = placeID.String
	if rating.Valid {
		r := int(rating.Int32)
		post.Rating = &r
	}

	refs, err := s.getPostMedia(ctx, id)
	if err != nil {
		log.Error("failed to get post media",
			slog.String("post_id", id.String()),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("post", "get", "failed to query post media", err)
	}
	post.Media = refs

	return &post, nil
}

func (s *PostgresPostStore) getPostMedia(ctx context.Context, postID uuid.UUID) ([]media.RemoteRef, error) {
	rows, err := s.db.QueryContext(ctx, selectPostMediaQuery, postID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	refs := []media.RemoteRef{}
	for rows.Next() {
		var ref media.RemoteRef
		if err := rows.Scan(&ref.ID, &ref.URL); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return refs, nil
}
