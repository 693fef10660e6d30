// Package app assembles the face stack shared by the API server and facectl.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/familyalbum/faces/internal/audit"
	"github.com/familyalbum/faces/internal/config"
	"github.com/familyalbum/faces/internal/database"
	"github.com/familyalbum/faces/internal/face"
	"github.com/familyalbum/faces/internal/matcher"
	"github.com/familyalbum/faces/internal/photo"
	"github.com/familyalbum/faces/internal/provider"
	"github.com/familyalbum/faces/internal/repository"
	"github.com/familyalbum/faces/internal/service"
	"github.com/familyalbum/faces/internal/training"
	"github.com/familyalbum/faces/internal/ws"
)

type App struct {
	Config  *config.Config
	Pool    *pgxpool.Pool
	Loader  *provider.Loader
	Hub     *ws.Hub
	Gallery *repository.GalleryRepository
	Faces   *service.FaceService
	Labeler *training.Labeler
}

// New connects to the database, applies migrations when AUTO_MIGRATE is set
// and wires every component. The detector is not loaded; callers decide
// whether to wait for it.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg.AutoMigrate {
		if err := database.MigrateUp(cfg.DatabaseURL, logger); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}

	model, err := face.NewDetector(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	loader := provider.NewLoader(model, logger)
	hub := ws.NewHub()

	gallery := repository.NewGalleryRepository(pool)
	encodings := repository.NewEncodingRepository(pool)
	reviews := repository.NewReviewRepository(pool)
	aggregates := repository.NewAggregateRepository(pool)
	runs := repository.NewTrainingRepository(pool)
	images := photo.NewLocalStore(cfg.PhotoRoot)

	m := matcher.New(aggregates, cfg.DescriptorDimension).
		WithDefaults(cfg.IdentifyThreshold, cfg.IdentifyTopN)

	faces := service.NewFaceService(service.Dependencies{
		Encodings:  encodings,
		Reviews:    reviews,
		Aggregates: aggregates,
		Photos:     gallery,
		Images:     images,
		Detector:   loader,
		Matcher:    m,
		Audit:      audit.NewSlogLogger(logger),
		Events:     hub,
		Logger:     logger,
	}, cfg.DescriptorDimension).WithReviewLimit(cfg.ReviewLimit)

	labeler := training.NewLabeler(gallery, images, loader, reviews, runs, logger).
		WithMaxFaces(cfg.TrainingMaxFaces)

	logger.Info("face stack ready",
		slog.String("detector", model.Name()),
		slog.Int("dimension", cfg.DescriptorDimension),
		slog.String("photo_root", cfg.PhotoRoot),
	)

	return &App{
		Config:  cfg,
		Pool:    pool,
		Loader:  loader,
		Hub:     hub,
		Gallery: gallery,
		Faces:   faces,
		Labeler: labeler,
	}, nil
}

// Close unloads the detector and closes the pool.
func (a *App) Close() error {
	err := a.Loader.Close()
	a.Pool.Close()
	if err != nil {
		return fmt.Errorf("close detector: %w", err)
	}
	return nil
}
