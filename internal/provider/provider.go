package provider

import (
	"context"

	"github.com/familyalbum/faces/internal/domain"
)

// Detection is one face found by a detector, in display orientation pixel
// coordinates.
type Detection struct {
	BoundingBox domain.BoundingBox `json:"boundingBox"`
	Confidence  float64            `json:"confidence"`
	Descriptor  []float32          `json:"-"`
}

// FaceDetector finds faces in an encoded image and returns one descriptor
// per face.
type FaceDetector interface {
	Detect(ctx context.Context, image []byte) ([]Detection, error)
}

// Model is a detector that must be loaded before use and released when the
// process no longer needs it. Implementations are wrapped by a Loader.
type Model interface {
	FaceDetector
	Load(ctx context.Context) error
	Close() error
	Name() string
	Dimension() int
}
