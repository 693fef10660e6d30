package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/familyalbum/faces/internal/domain"
	"github.com/familyalbum/faces/internal/service"
)

type ReviewQueueResponse struct {
	Success bool                `json:"success"`
	Faces   []domain.ReviewItem `json:"faces"`
	Count   int                 `json:"count"`
}

type ReviewRequest struct {
	Action   string `json:"action"`
	FaceID   string `json:"faceId"`
	PersonID *int64 `json:"personId"`
}

type ReviewResponse struct {
	Success bool `json:"success"`
	domain.ReviewOutcome
}

// ReviewQueue GET /v1/faces/review?limit=N
func (h *FaceHandler) ReviewQueue(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)

	items, err := h.service.ReviewQueue(c.UserContext(), limit)
	if err != nil {
		return err
	}
	if items == nil {
		items = []domain.ReviewItem{}
	}

	return c.JSON(ReviewQueueResponse{Success: true, Faces: items, Count: len(items)})
}

// Review POST /v1/faces/review. Confirming with a person other than the
// proposed one is how a reviewer changes the selection.
func (h *FaceHandler) Review(c *fiber.Ctx) error {
	var req ReviewRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	outcome, err := h.service.Review(c.UserContext(), service.ReviewRequest{
		Action:   req.Action,
		FaceID:   req.FaceID,
		PersonID: req.PersonID,
	})
	if err != nil {
		return err
	}

	return c.JSON(ReviewResponse{Success: true, ReviewOutcome: *outcome})
}
