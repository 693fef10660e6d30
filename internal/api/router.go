package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"

	"github.com/familyalbum/faces/internal/api/docs"
	"github.com/familyalbum/faces/internal/api/handler"
	"github.com/familyalbum/faces/internal/api/middleware"
	"github.com/familyalbum/faces/internal/database"
	"github.com/familyalbum/faces/internal/ws"
)

const Version = "1.0.0"

type Dependencies struct {
	Faces     handler.FaceService
	Trainer   handler.Trainer
	Hub       *ws.Hub
	DB        database.Pinger
	Detector  handler.DetectorState
	RateLimit middleware.RateLimiterConfig
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
	cancelHub   context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Family Album Faces API",
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	swagger.SwaggerHandler(r.app, docs.NewSwagger().MustToJson())

	healthHandler := handler.NewHealthHandler(r.deps.DB, r.deps.Detector, Version)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	hubCtx, hubCancel := context.WithCancel(context.Background())
	r.cancelHub = hubCancel
	go r.deps.Hub.Run(hubCtx)

	v1 := r.app.Group("/v1")

	// The websocket stream is long-lived and stays outside the limiter.
	v1.Get("/faces/events", ws.UpgradeMiddleware(), ws.Handler(r.deps.Hub))

	r.rateLimiter = middleware.NewRateLimiter(r.deps.RateLimit)
	v1.Use(r.rateLimiter.Handler())

	faceHandler := handler.NewFaceHandler(r.deps.Faces, r.logger)
	trainingHandler := handler.NewTrainingHandler(r.deps.Trainer, r.deps.Hub, r.logger)

	faces := v1.Group("/faces")
	faces.Post("/identify", faceHandler.Identify)
	faces.Post("/embeddings", faceHandler.AddEmbedding)
	faces.Post("/encodings", faceHandler.AddEncoding)
	faces.Post("/detect", faceHandler.Detect)
	faces.Get("/review", faceHandler.ReviewQueue)
	faces.Post("/review", faceHandler.Review)
	faces.Post("/aggregates/rebuild", faceHandler.RebuildAggregates)
	faces.Post("/train", trainingHandler.Train)
	faces.Get("/train/:runId", trainingHandler.GetRun)
	v1.Delete("/faces", faceHandler.ClearAll)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	if r.cancelHub != nil {
		r.cancelHub()
	}
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}
	return r.app.Shutdown()
}
