package handler

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/familyalbum/faces/internal/domain"
	"github.com/familyalbum/faces/internal/service"
)

// FaceService is the subset of *service.FaceService the HTTP layer uses.
type FaceService interface {
	AddEncoding(ctx context.Context, in domain.NewEncoding) (*domain.FaceEncoding, error)
	AddEmbedding(ctx context.Context, personID, photoID int64, descriptor []float32) (*domain.FaceEncoding, error)
	Identify(ctx context.Context, q domain.IdentifyQuery) ([]domain.Match, error)
	DetectAndPropose(ctx context.Context, photoID int64) ([]domain.Proposal, error)
	ReviewQueue(ctx context.Context, limit int) ([]domain.ReviewItem, error)
	Review(ctx context.Context, req service.ReviewRequest) (*domain.ReviewOutcome, error)
	ClearAll(ctx context.Context) (int64, error)
	RebuildAggregates(ctx context.Context) ([]domain.AggregateCount, error)
}

type FaceHandler struct {
	service FaceService
	logger  *slog.Logger
}

func NewFaceHandler(service FaceService, logger *slog.Logger) *FaceHandler {
	return &FaceHandler{
		service: service,
		logger:  logger,
	}
}

type IdentifyRequest struct {
	Embedding []float32 `json:"embedding"`
	Threshold *float64  `json:"threshold"`
	TopN      *int      `json:"topN"`
}

type IdentifyResponse struct {
	Success bool           `json:"success"`
	Matches []domain.Match `json:"matches"`
}

type EmbeddingRequest struct {
	PersonID  int64     `json:"personId"`
	PhotoID   int64     `json:"photoId"`
	Embedding []float32 `json:"embedding"`
}

type EncodingRequest struct {
	PhotoID             int64               `json:"photoId"`
	Embedding           []float32           `json:"embedding"`
	PersonID            *int64              `json:"personId"`
	BoundingBox         *domain.BoundingBox `json:"boundingBox"`
	DetectionConfidence *float64            `json:"detectionConfidence"`
}

type CreatedResponse struct {
	Success bool   `json:"success"`
	FaceID  string `json:"faceId"`
}

type DetectRequest struct {
	PhotoID int64 `json:"photoId"`
}

type DetectResponse struct {
	Success bool              `json:"success"`
	Faces   []domain.Proposal `json:"faces"`
	Count   int               `json:"count"`
}

type ClearResponse struct {
	Success      bool  `json:"success"`
	DeletedCount int64 `json:"deletedCount"`
}

type RebuildResponse struct {
	Success    bool                    `json:"success"`
	Aggregates []domain.AggregateCount `json:"aggregates"`
}

// Identify POST /v1/faces/identify
func (h *FaceHandler) Identify(c *fiber.Ctx) error {
	var req IdentifyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	matches, err := h.service.Identify(c.UserContext(), domain.IdentifyQuery{
		Descriptor: req.Embedding,
		Threshold:  req.Threshold,
		TopN:       req.TopN,
	})
	if err != nil {
		return err
	}
	if matches == nil {
		matches = []domain.Match{}
	}

	return c.JSON(IdentifyResponse{Success: true, Matches: matches})
}

// AddEmbedding POST /v1/faces/embeddings. A 409 means the person is already
// represented on the photo.
func (h *FaceHandler) AddEmbedding(c *fiber.Ctx) error {
	var req EmbeddingRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.PersonID <= 0 || req.PhotoID <= 0 {
		return domain.ErrValidationFailed.WithMessage("personId and photoId are required")
	}

	enc, err := h.service.AddEmbedding(c.UserContext(), req.PersonID, req.PhotoID, req.Embedding)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(CreatedResponse{Success: true, FaceID: enc.ID.String()})
}

// AddEncoding POST /v1/faces/encodings
func (h *FaceHandler) AddEncoding(c *fiber.Ctx) error {
	var req EncodingRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.PhotoID <= 0 {
		return domain.ErrValidationFailed.WithMessage("photoId is required")
	}

	enc, err := h.service.AddEncoding(c.UserContext(), domain.NewEncoding{
		PhotoID:             req.PhotoID,
		PersonID:            req.PersonID,
		Descriptor:          req.Embedding,
		BoundingBox:         req.BoundingBox,
		DetectionConfidence: req.DetectionConfidence,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(CreatedResponse{Success: true, FaceID: enc.ID.String()})
}

// Detect POST /v1/faces/detect runs the detector on a stored photo and
// queues its faces for review.
func (h *FaceHandler) Detect(c *fiber.Ctx) error {
	var req DetectRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.PhotoID <= 0 {
		return domain.ErrValidationFailed.WithMessage("photoId is required")
	}

	proposals, err := h.service.DetectAndPropose(c.UserContext(), req.PhotoID)
	if err != nil {
		return err
	}
	if proposals == nil {
		proposals = []domain.Proposal{}
	}

	return c.JSON(DetectResponse{Success: true, Faces: proposals, Count: len(proposals)})
}

// ClearAll DELETE /v1/faces
func (h *FaceHandler) ClearAll(c *fiber.Ctx) error {
	n, err := h.service.ClearAll(c.UserContext())
	if err != nil {
		return err
	}

	h.logger.Warn("face encodings cleared",
		slog.Int64("deleted", n),
		slog.String("ip", c.IP()),
	)
	return c.JSON(ClearResponse{Success: true, DeletedCount: n})
}

// RebuildAggregates POST /v1/faces/aggregates/rebuild
func (h *FaceHandler) RebuildAggregates(c *fiber.Ctx) error {
	counts, err := h.service.RebuildAggregates(c.UserContext())
	if err != nil {
		return err
	}
	if counts == nil {
		counts = []domain.AggregateCount{}
	}
	return c.JSON(RebuildResponse{Success: true, Aggregates: counts})
}

func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return domain.ErrBadRequest.WithMessage("Request body is required")
	}
	if err := c.BodyParser(out); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}
	return nil
}
