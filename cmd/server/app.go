package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/postmedia/internal/config"
	"github.com/phrazzld/postmedia/internal/events"
	"github.com/phrazzld/postmedia/internal/media"
	"github.com/phrazzld/postmedia/internal/platform/ffmpeg"
	"github.com/phrazzld/postmedia/internal/platform/imaging"
	"github.com/phrazzld/postmedia/internal/platform/postgres"
	"github.com/phrazzld/postmedia/internal/platform/storage"
	"github.com/phrazzld/postmedia/internal/service/auth"
	"github.com/phrazzld/postmedia/internal/store"
	"github.com/phrazzld/postmedia/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	postStore  store.PostStore
	jwtService auth.JWTService

	eventEmitter *events.InMemoryEventEmitter
	scheduler    *task.Scheduler
}

// newApplication creates a new application instance with all dependencies initialized.
// The returned application has a running scheduler; Run serves HTTP and
// stops it on shutdown.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	app.postStore = postgres.NewPostgresPostStore(db, logger)

	compressor, err := newCompressor(cfg.Compression, logger)
	if err != nil {
		return nil, err
	}

	uploader, err := storage.NewUploader(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s uploader: %w", cfg.Storage.Backend, err)
	}
	logger.Info("Media storage initialized",
		"backend", cfg.Storage.Backend,
		"bucket", cfg.Storage.Bucket)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(events.NewLoggingHandler(logger))

	app.scheduler, err = newScheduler(cfg.Pipeline, compressor, uploader, app.eventEmitter, logger)
	if err != nil {
		return nil, err
	}
	app.scheduler.Start()

	logger.Info("Application initialized successfully")
	return app, nil
}

// newCompressor routes images to the imaging compressor and videos to ffmpeg.
func newCompressor(cfg config.CompressionConfig, logger *slog.Logger) (media.Compressor, error) {
	images, err := imaging.NewCompressor(imaging.Config{
		MaxDimension: cfg.MaxImageDimension,
		JPEGQuality:  cfg.JPEGQuality,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image compressor: %w", err)
	}

	videos, err := ffmpeg.NewTranscoder(ffmpeg.Config{
		BinaryPath: cfg.FFmpegPath,
		MaxWidth:   cfg.MaxVideoWidth,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize video transcoder: %w", err)
	}

	return media.KindRouter{
		media.KindImage: images,
		media.KindVideo: videos,
	}, nil
}

// newScheduler builds the submission scheduler from pipeline settings.
func newScheduler(
	cfg config.PipelineConfig,
	compressor media.Compressor,
	uploader media.Uploader,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (*task.Scheduler, error) {
	scheduler, err := task.NewScheduler(compressor, uploader, task.SchedulerConfig{
		CompressTimeout:     cfg.CompressTimeout,
		UploadTimeout:       cfg.UploadTimeout,
		FinalizeTimeout:     cfg.FinalizeTimeout,
		MaxConcurrentStages: cfg.MaxConcurrentStages,
	}, logger, task.WithEventEmitter(emitter))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return scheduler, nil
}

// Run serves HTTP until ctx is cancelled, then shuts everything down.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup(ctx context.Context) {
	if app.scheduler != nil {
		if err := app.scheduler.Stop(ctx); err != nil {
			app.logger.Error("Error stopping scheduler", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
