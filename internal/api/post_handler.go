package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/postmedia/internal/api/shared"
	"github.com/phrazzld/postmedia/internal/domain"
	"github.com/phrazzld/postmedia/internal/media"
	"github.com/phrazzld/postmedia/internal/platform/logger"
	"github.com/phrazzld/postmedia/internal/redact"
	"github.com/phrazzld/postmedia/internal/store"
	"github.com/phrazzld/postmedia/internal/task"
)

// SubmissionScheduler is the part of *task.Scheduler the handlers use.
type SubmissionScheduler interface {
	Submit(ctx context.Context, sub task.Submission) (uuid.UUID, error)
	Status(ctx context.Context, taskID uuid.UUID) (task.Snapshot, error)
	Cancel(ctx context.Context, taskID uuid.UUID) error
	IsProcessing() bool
	Pending() int
}

// PostHandler serves post submission, progress and retrieval.
type PostHandler struct {
	scheduler      SubmissionScheduler
	posts          store.PostStore
	logger         *slog.Logger
	maxUploadBytes int64
	now            func() time.Time
}

// NewPostHandler creates a PostHandler. maxUploadBytes caps the size of a
// whole multipart submission.
func NewPostHandler(
	scheduler SubmissionScheduler,
	posts store.PostStore,
	logger *slog.Logger,
	maxUploadBytes int64,
) *PostHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostHandler{
		scheduler:      scheduler,
		posts:          posts,
		logger:         logger.With("component", "post_handler"),
		maxUploadBytes: maxUploadBytes,
		now:            time.Now,
	}
}

// CreatePost handles POST /api/posts.
// The post is validated up front; it is written to the store once every
// media item has settled. Responds 202 with the submission and post IDs.
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	req, raws, err := parsePostForm(w, r, h.maxUploadBytes)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	draft, err := domain.NewPost(
		uuid.New(),
		userID,
		req.Title,
		media.UseCase(req.UseCase),
		req.PlaceID,
		req.Body,
		req.Rating,
		nil,
	)
	if err != nil {
		HandleAPIError(w, r, fmt.Errorf("%w: %w", domain.ErrValidation, err), "")
		return
	}

	log = log.With("post_id", draft.ID.String())
	taskID, err := h.scheduler.Submit(r.Context(), task.Submission{
		Title:    draft.Title,
		UseCase:  draft.UseCase,
		Media:    raws,
		Finalize: h.publish(draft, log),
		OnError:  h.reportFailure(log),
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to queue post")
		return
	}

	log.Info("post submission queued",
		"task_id", taskID.String(),
		"media_count", len(raws))

	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitPostResponse{
		TaskID: taskID,
		PostID: draft.ID,
	})
}

// publish returns the finalize step of a submission: the draft with its
// uploaded media is written to the post store.
func (h *PostHandler) publish(draft *domain.Post, log *slog.Logger) task.FinalizeFunc {
	return func(ctx context.Context, refs []media.RemoteRef) error {
		post := *draft
		post.Media = refs
		if post.Media == nil {
			post.Media = []media.RemoteRef{}
		}
		post.CreatedAt = h.now().UTC()

		ctx = logger.WithLogger(ctx, log)
		if err := h.posts.CreatePost(ctx, &post); err != nil {
			return fmt.Errorf("create post %s: %w", post.ID, err)
		}

		log.Info("post published", "media_count", len(post.Media))
		return nil
	}
}

func (h *PostHandler) reportFailure(log *slog.Logger) task.ErrorFunc {
	return func(err error) {
		if errors.Is(err, task.ErrTaskCancelled) {
			log.Info("post submission abandoned")
			return
		}
		log.Error("post submission failed", "error", redact.Error(err))
	}
}

// GetProgress handles GET /api/posts/{id}/progress.
func (h *PostHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	taskID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	snap, err := h.scheduler.Status(r.Context(), taskID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to read progress")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, snapshotToProgressResponse(snap))
}

// CancelSubmission handles DELETE /api/posts/{id}.
func (h *PostHandler) CancelSubmission(w http.ResponseWriter, r *http.Request) {
	taskID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.scheduler.Cancel(r.Context(), taskID); err != nil {
		HandleAPIError(w, r, err, "Failed to cancel submission")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("post submission cancelled by user",
		"task_id", taskID.String())
	w.WriteHeader(http.StatusNoContent)
}

// GetQueue handles GET /api/queue.
func (h *PostHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, QueueResponse{
		Processing: h.scheduler.IsProcessing(),
		Pending:    h.scheduler.Pending(),
	})
}

// GetPost handles GET /api/posts/{id} for published posts.
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	postID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	post, err := h.posts.GetPost(r.Context(), postID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get post")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, postToResponse(post))
}
