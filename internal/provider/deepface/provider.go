package deepface

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"

	"github.com/familyalbum/faces/internal/domain"
	"github.com/familyalbum/faces/internal/provider"
	"github.com/familyalbum/faces/internal/vector"
)

const (
	// minFaceArea is the minimum face area (in pixels²) for reliable detection
	minFaceArea = 2500 // 50x50 pixels
	// maxFaceArea is used for confidence scaling
	maxFaceArea = 250000 // 500x500 pixels
)

// Provider implements provider.Model on top of a DeepFace HTTP service.
// Loading the model means the service answered a health probe; the weights
// themselves live in the service process.
type Provider struct {
	client    *Client
	model     string
	dimension int
}

var _ provider.Model = (*Provider)(nil)

func NewProvider(config Config) (*Provider, error) {
	dim, ok := modelDimensions[config.Model]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, config.Model)
	}
	return &Provider{
		client:    NewClient(config),
		model:     config.Model,
		dimension: dim,
	}, nil
}

func (p *Provider) Name() string {
	return "deepface/" + p.model
}

func (p *Provider) Dimension() int {
	return p.dimension
}

func (p *Provider) Load(ctx context.Context) error {
	return p.client.Health(ctx)
}

func (p *Provider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// Detect sends the image to /represent. A photo with no detectable face is
// an empty result, not an error.
func (p *Provider) Detect(ctx context.Context, image []byte) ([]provider.Detection, error) {
	img := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)

	resp, err := p.client.Represent(ctx, img)
	if err != nil {
		switch {
		case isNoFace(err):
			return []provider.Detection{}, nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, fmt.Errorf("detect faces: %w", err)
		case isClientError(err):
			return nil, domain.ErrPhotoUnavailable.WithMessage("Detector rejected the photo image").WithError(err)
		default:
			return nil, domain.ErrDetectorUnavailable.WithError(err)
		}
	}

	faces := make([]provider.Detection, 0, len(resp.Results))
	for i, result := range resp.Results {
		if len(result.Embedding) != p.dimension {
			return nil, domain.ErrDetectorUnavailable.WithError(fmt.Errorf(
				"%w: face %d has %d values, want %d", ErrInvalidResponse, i, len(result.Embedding), p.dimension))
		}

		area := result.FacialArea
		confidence := calculateConfidence(float64(area.W * area.H))
		if result.FaceConfidence != nil && *result.FaceConfidence > 0 {
			confidence = math.Min(1, *result.FaceConfidence)
		}

		faces = append(faces, provider.Detection{
			BoundingBox: domain.BoundingBox{
				Top:    area.Y,
				Right:  area.X + area.W,
				Bottom: area.Y + area.H,
				Left:   area.X,
			},
			Confidence: confidence,
			Descriptor: vector.FromFloat64(result.Embedding),
		})
	}

	return faces, nil
}

// calculateConfidence estimates confidence from face area for detector
// backends that do not report one.
func calculateConfidence(faceArea float64) float64 {
	if faceArea < minFaceArea {
		return 0.5
	}
	normalized := math.Min(1.0, (faceArea-minFaceArea)/(maxFaceArea-minFaceArea))
	return 0.7 + (normalized * 0.29)
}
