package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/postmedia/internal/domain"
	"github.com/phrazzld/postmedia/internal/media"
	"github.com/phrazzld/postmedia/internal/task"
)

// CreatePostRequest holds the text fields of a multipart post submission.
// Media files arrive separately in the "media" form parts.
type CreatePostRequest struct {
	Title   string `validate:"required,max=200"`
	UseCase string `validate:"required,oneof=checkin review"`
	PlaceID string `validate:"required_if=UseCase checkin,max=255"`
	Body    string `validate:"max=10000"`
	Rating  *int   `validate:"omitempty,min=1,max=5"`
}

// SubmitPostResponse is returned once a submission has been queued.
type SubmitPostResponse struct {
	TaskID uuid.UUID `json:"task_id"`
	PostID uuid.UUID `json:"post_id"`
}

// ProgressResponse reports the state of a queued submission.
type ProgressResponse struct {
	TaskID        uuid.UUID       `json:"task_id"`
	Status        task.TaskStatus `json:"status"`
	Progress      float64         `json:"progress"`
	ItemsTotal    int             `json:"items_total"`
	ItemsUploaded int             `json:"items_uploaded"`
	ItemsDropped  int             `json:"items_dropped"`
}

// QueueResponse reports scheduler occupancy.
type QueueResponse struct {
	Processing bool `json:"processing"`
	Pending    int  `json:"pending"`
}

// PostResponse is a published post.
type PostResponse struct {
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

func snapshotToProgressResponse(snap task.Snapshot) ProgressResponse {
	return ProgressResponse{
		TaskID:        snap.ID,
		Status:        snap.Status,
		Progress:      snap.Progress,
		ItemsTotal:    snap.ItemsTotal,
		ItemsUploaded: snap.ItemsUploaded,
		ItemsDropped:  snap.ItemsDropped,
	}
}

func postToResponse(post *domain.Post) PostResponse {
	refs := post.Media
	if refs == nil {
		refs = []media.RemoteRef{}
	}
	return PostResponse{
		ID:        post.ID,
		UserID:    post.UserID,
		Title:     post.Title,
		UseCase:   post.UseCase,
		PlaceID:   post.PlaceID,
		Body:      post.Body,
		Rating:    post.Rating,
		Media:     refs,
		CreatedAt: post.CreatedAt,
	}
}
