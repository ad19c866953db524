package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/phrazzld/postmedia/internal/domain"
	"github.com/phrazzld/postmedia/internal/media"
	"github.com/phrazzld/postmedia/internal/service/auth"
	"github.com/phrazzld/postmedia/internal/store"
	"github.com/phrazzld/postmedia/internal/task"
	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"task not found", task.ErrTaskNotFound, http.StatusNotFound},
		{"post not found", store.ErrPostNotFound, http.StatusNotFound},
		{"finalizing", task.ErrTaskFinalizing, http.StatusConflict},
		{"duplicate", store.ErrDuplicate, http.StatusConflict},
		{"unsupported kind", fmt.Errorf("wrapped: %w", media.ErrUnsupportedKind), http.StatusUnsupportedMediaType},
		{"too large", ErrRequestTooLarge, http.StatusRequestEntityTooLarge},
		{"empty payload", media.ErrEmptyPayload, http.StatusBadRequest},
		{"invalid use case", task.ErrInvalidUseCase, http.StatusBadRequest},
		{"domain validation", fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrMissingPlace), http.StatusBadRequest},
		{"invalid id", domain.ErrInvalidID, http.StatusBadRequest},
		{"stopped", task.ErrSchedulerStopped, http.StatusServiceUnavailable},
		{"not started", task.ErrSchedulerNotStarted, http.StatusServiceUnavailable},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
	assert.Equal(t, "An unexpected error occurred",
		GetSafeErrorMessage(errors.New("dial tcp 10.0.0.5:5432: password=hunter2")))

	assert.Equal(t, "Invalid post: check-in post requires a place",
		GetSafeErrorMessage(fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrMissingPlace)))
	assert.Equal(t, "Submission is already being published", GetSafeErrorMessage(task.ErrTaskFinalizing))
	assert.Equal(t, "Token expired", GetSafeErrorMessage(auth.ErrExpiredToken))
}
