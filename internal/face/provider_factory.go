package face

import (
	"fmt"

	"github.com/familyalbum/faces/internal/config"
	"github.com/familyalbum/faces/internal/provider"
	"github.com/familyalbum/faces/internal/provider/deepface"
	"github.com/familyalbum/faces/internal/provider/mock"
)

// DetectorType selects the face detector backend.
type DetectorType string

const (
	// DetectorTypeDeepFace talks to a DeepFace HTTP service
	DetectorTypeDeepFace DetectorType = "deepface"
	// DetectorTypeMock returns deterministic faces derived from the image bytes
	DetectorTypeMock DetectorType = "mock"
)

// NewDetector builds the unloaded detector model named by DETECTOR_TYPE. The
// model's descriptor length must agree with DESCRIPTOR_DIMENSION, otherwise
// every stored descriptor would be unusable.
//
// Environment variables:
//   - DETECTOR_TYPE: "deepface" or "mock" (default: "deepface")
//   - DEEPFACE_URL: DeepFace API URL (default: "http://localhost:5000")
//   - DEEPFACE_MODEL: recognition model (default: "Facenet")
//   - DEEPFACE_DETECTOR: detector backend (default: "retinaface")
func NewDetector(cfg *config.Config) (provider.Model, error) {
	var (
		model provider.Model
		err   error
	)

	switch DetectorType(cfg.DetectorType) {
	case DetectorTypeDeepFace, "":
		model, err = createDeepFaceDetector(cfg)
	case DetectorTypeMock:
		model = mock.New(cfg.DescriptorDimension)
	default:
		return nil, fmt.Errorf("unknown detector type: %s (supported: %s, %s)",
			cfg.DetectorType, DetectorTypeDeepFace, DetectorTypeMock)
	}
	if err != nil {
		return nil, err
	}

	if model.Dimension() != cfg.DescriptorDimension {
		return nil, fmt.Errorf("detector %s produces %d-value descriptors, DESCRIPTOR_DIMENSION is %d",
			model.Name(), model.Dimension(), cfg.DescriptorDimension)
	}
	return model, nil
}

func createDeepFaceDetector(cfg *config.Config) (provider.Model, error) {
	dfConfig := deepface.DefaultConfig()
	if cfg.DeepFaceURL != "" {
		dfConfig.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceModel != "" {
		dfConfig.Model = cfg.DeepFaceModel
	}
	if cfg.DeepFaceDetector != "" {
		dfConfig.Detector = cfg.DeepFaceDetector
	}

	p, err := deepface.NewProvider(dfConfig)
	if err != nil {
		return nil, fmt.Errorf("create deepface detector: %w", err)
	}
	return p, nil
}
