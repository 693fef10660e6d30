package handler

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/familyalbum/faces/internal/domain"
	"github.com/familyalbum/faces/internal/training"
	"github.com/familyalbum/faces/internal/ws"
)

type Trainer interface {
	Train(ctx context.Context, req training.Request, progress training.ProgressFunc) (*domain.TrainingRun, error)
	Run(ctx context.Context, id uuid.UUID) (*domain.TrainingRun, error)
}

// Broadcaster is satisfied by *ws.Hub.
type Broadcaster interface {
	Broadcast(eventType ws.EventType, data any)
}

type TrainingHandler struct {
	trainer Trainer
	events  Broadcaster
	logger  *slog.Logger
}

func NewTrainingHandler(trainer Trainer, events Broadcaster, logger *slog.Logger) *TrainingHandler {
	return &TrainingHandler{
		trainer: trainer,
		events:  events,
		logger:  logger,
	}
}

type TrainRequest struct {
	PersonID  int64   `json:"personId"`
	PhotoIDs  []int64 `json:"photoIds"`
	MaxPhotos int     `json:"maxPhotos"`
}

type TrainingRunResponse struct {
	Success bool                `json:"success"`
	Run     *domain.TrainingRun `json:"run"`
}

// Train POST /v1/faces/train runs the labeler to completion and reports
// progress on the training websocket topic.
func (h *TrainingHandler) Train(c *fiber.Ctx) error {
	var req TrainRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.PersonID <= 0 {
		return domain.ErrValidationFailed.WithMessage("personId is required")
	}
	if req.MaxPhotos < 0 {
		return domain.ErrValidationFailed.WithMessage("maxPhotos must not be negative")
	}

	run, err := h.trainer.Train(c.UserContext(), training.Request{
		PersonID:  req.PersonID,
		PhotoIDs:  req.PhotoIDs,
		MaxPhotos: req.MaxPhotos,
	}, func(p training.Progress) {
		h.events.Broadcast(ws.EventTrainingProgress, p)
	})
	if err != nil {
		return err
	}

	h.events.Broadcast(ws.EventTrainingCompleted, summary(run))
	h.logger.Info("training run completed",
		slog.String("run_id", run.ID.String()),
		slog.Int64("person_id", run.PersonID),
		slog.Int("bound", run.PhotosBound),
		slog.Int("failed", run.PhotosFailed),
	)
	return c.JSON(TrainingRunResponse{Success: true, Run: run})
}

// GetRun GET /v1/faces/train/:runId
func (h *TrainingHandler) GetRun(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("runId"))
	if err != nil {
		return domain.ErrValidationFailed.WithMessage("runId must be a UUID")
	}

	run, err := h.trainer.Run(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(TrainingRunResponse{Success: true, Run: run})
}

// summary drops per-photo results from websocket payloads.
func summary(run *domain.TrainingRun) domain.TrainingRun {
	s := *run
	s.Results = nil
	return s
}
