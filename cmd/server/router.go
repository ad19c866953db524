package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/postmedia/internal/api"
	apiMiddleware "github.com/phrazzld/postmedia/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	postHandler := api.NewPostHandler(
		app.scheduler,
		app.postStore,
		app.logger,
		app.config.Server.MaxUploadBytes,
	)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Post("/posts", postHandler.CreatePost)
		r.Get("/posts/{id}", postHandler.GetPost)
		r.Get("/posts/{id}/progress", postHandler.GetProgress)
		r.Delete("/posts/{id}", postHandler.CancelSubmission)
		r.Get("/queue", postHandler.GetQueue)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
