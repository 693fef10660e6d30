package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/familyalbum/faces/internal/database"
)

// DetectorState reports whether the detector model has finished loading.
type DetectorState interface {
	Loaded() bool
}

type HealthHandler struct {
	db       database.Pinger
	detector DetectorState
	version  string
}

func NewHealthHandler(db database.Pinger, detector DetectorState, version string) *HealthHandler {
	return &HealthHandler{db: db, detector: detector, version: version}
}

type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: h.version,
	})
}

// Ready reports 503 until the database answers and the detector is loaded.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	checks := map[string]string{"database": "ok", "detector": "loaded"}
	ready := true

	if err := database.HealthCheck(c.UserContext(), h.db); err != nil {
		checks["database"] = err.Error()
		ready = false
	}
	if !h.detector.Loaded() {
		checks["detector"] = "loading"
		ready = false
	}

	if !ready {
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
			Status: "not_ready",
			Checks: checks,
		})
	}
	return c.JSON(HealthResponse{Status: "ready", Checks: checks})
}
