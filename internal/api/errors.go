package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/postmedia/internal/api/shared"
	"github.com/phrazzld/postmedia/internal/domain"
	"github.com/phrazzld/postmedia/internal/media"
	"github.com/phrazzld/postmedia/internal/service/auth"
	"github.com/phrazzld/postmedia/internal/store"
	"github.com/phrazzld/postmedia/internal/task"
)

// Sentinel errors raised while reading a request
var (
	ErrInvalidRating   = errors.New("rating must be a whole number")
	ErrRequestTooLarge = errors.New("request body too large")
	ErrMalformedForm   = errors.New("malformed multipart form")
)

// postValidationErrors carry fixed messages that are safe to show clients.
var postValidationErrors = []error{
	domain.ErrEmptyPostTitle,
	domain.ErrPostTitleTooLong,
	domain.ErrPostBodyTooLong,
	domain.ErrInvalidUseCase,
	domain.ErrInvalidRating,
	domain.ErrMissingPlace,
}

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var validationErrs validator.ValidationErrors

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrMissingUserID):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, task.ErrTaskNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, task.ErrTaskFinalizing),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, media.ErrUnsupportedKind):
		return http.StatusUnsupportedMediaType

	case errors.Is(err, ErrRequestTooLarge):
		return http.StatusRequestEntityTooLarge

	// Bad request errors
	case errors.As(err, &validationErrs),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, media.ErrEmptyPayload),
		errors.Is(err, task.ErrInvalidUseCase),
		errors.Is(err, ErrTooManyMedia),
		errors.Is(err, ErrInvalidRating),
		errors.Is(err, ErrMalformedForm):
		return http.StatusBadRequest

	// The scheduler is shutting down
	case errors.Is(err, task.ErrSchedulerStopped),
		errors.Is(err, task.ErrSchedulerNotStarted):
		return http.StatusServiceUnavailable

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return SanitizeValidationError(validationErrs)
	}

	for _, safe := range postValidationErrors {
		if errors.Is(err, safe) {
			return "Invalid post: " + safe.Error()
		}
	}

	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrMissingUserID):
		return "Invalid token"
	case errors.Is(err, task.ErrTaskNotFound):
		return "Submission not found"
	case errors.Is(err, store.ErrNotFound):
		return "Post not found"
	case errors.Is(err, task.ErrTaskFinalizing):
		return "Submission is already being published"
	case errors.Is(err, store.ErrDuplicate):
		return "Post already exists"
	case errors.Is(err, media.ErrUnsupportedKind):
		return "Unsupported media type"
	case errors.Is(err, media.ErrEmptyPayload):
		return "Media file is empty"
	case errors.Is(err, ErrRequestTooLarge):
		return "Request too large"
	case errors.Is(err, ErrTooManyMedia):
		return fmt.Sprintf("At most %d media files are allowed", MaxMediaPerPost)
	case errors.Is(err, ErrInvalidRating):
		return "Invalid rating"
	case errors.Is(err, ErrMalformedForm):
		return "Invalid request format"
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"
	case errors.Is(err, task.ErrInvalidUseCase):
		return "Invalid use case"
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation):
		return "Invalid post data"
	case errors.Is(err, task.ErrSchedulerStopped),
		errors.Is(err, task.ErrSchedulerNotStarted):
		return "Service is shutting down"
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError reports the first failing field without echoing
// the rejected value.
func SanitizeValidationError(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "Validation error"
	}
	fe := errs[0]
	return fmt.Sprintf("Invalid %s: %s", strings.ToLower(fe.Field()), getValidationTagMessage(fe.Tag()))
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required", "required_if":
		return "required field"
	case "min", "gte":
		return "too small"
	case "max", "lte":
		return "too large"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError maps err to a status code and safe message, logs the
// redacted detail and writes the JSON error response.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallbackMessage != "" {
		message = fallbackMessage
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
