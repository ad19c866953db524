package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/postmedia/internal/media"
)

// Post limits
const (
	MaxTitleLength = 200
	MaxBodyLength  = 10000
	MinRating      = 1
	MaxRating      = 5
)

// Validation errors for Post
var (
	ErrEmptyPostID      = errors.New("post ID cannot be empty")
	ErrEmptyPostUserID  = errors.New("post user ID cannot be empty")
	ErrEmptyPostTitle   = errors.New("post title cannot be empty")
	ErrPostTitleTooLong = fmt.Errorf("post title cannot exceed %d characters", MaxTitleLength)
	ErrPostBodyTooLong  = fmt.Errorf("post body cannot exceed %d characters", MaxBodyLength)
	ErrInvalidUseCase   = errors.New("invalid post use case")
	ErrInvalidRating    = fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
	ErrMissingPlace     = errors.New("check-in post requires a place")
	ErrEmptyMediaRef    = errors.New("post media reference cannot be empty")
)

// Post is a published check-in or review. Media lists the uploaded
// attachments in the order the user selected them.
type Post struct {
	ID        uuid.UUID         `json:"id"`
	UserID    uuid.UUID         `json:"user_id"`
	Title     string            `json:"title"`
	UseCase   media.UseCase     `json:"use_case"`
	PlaceID   string            `json:"place_id,omitempty"`
	Body      string            `json:"body,omitempty"`
	Rating    *int              `json:"rating,omitempty"`
	Media     []media.RemoteRef `json:"media"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewPost creates a validated Post. A nil refs slice is stored as empty.
func NewPost(
	id uuid.UUID,
	userID uuid.UUID,
	title string,
	useCase media.UseCase,
	placeID string,
	body string,
	rating *int,
	refs []media.RemoteRef,
) (*Post, error) {
	if refs == nil {
		refs = []media.RemoteRef{}
	}

	post := &Post{
		ID:        id,
		UserID:    userID,
		Title:     title,
		UseCase:   useCase,
		PlaceID:   placeID,
		Body:      body,
		Rating:    rating,
		Media:     refs,
		CreatedAt: time.Now().UTC(),
	}

	if err := post.Validate(); err != nil {
		return nil, err
	}
	return post, nil
}

// Validate checks if the Post has valid data.
func (p *Post) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyPostID
	}
	if p.UserID == uuid.Nil {
		return ErrEmptyPostUserID
	}
	if p.Title == "" {
		return ErrEmptyPostTitle
	}
	if len([]rune(p.Title)) > MaxTitleLength {
		return ErrPostTitleTooLong
	}
	if len([]rune(p.Body)) > MaxBodyLength {
		return ErrPostBodyTooLong
	}
	if !p.UseCase.Valid() {
		return ErrInvalidUseCase
	}
	if p.UseCase == media.UseCaseCheckin && p.PlaceID == "" {
		return ErrMissingPlace
	}
	if p.Rating != nil && (*p.Rating < MinRating || *p.Rating > MaxRating) {
		return ErrInvalidRating
	}
	for _, ref := range p.Media {
		if ref.ID == "" || ref.URL == "" {
			return ErrEmptyMediaRef
		}
	}
	return nil
}
