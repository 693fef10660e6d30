package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/familyalbum/faces/internal/audit"
	"github.com/familyalbum/faces/internal/domain"
	"github.com/familyalbum/faces/internal/photo"
	"github.com/familyalbum/faces/internal/provider"
	"github.com/familyalbum/faces/internal/vector"
	"github.com/familyalbum/faces/internal/ws"
)

const (
	DefaultReviewLimit = 50
	MaxReviewLimit     = 500

	// manualConfidence is stored for descriptors supplied by a caller
	// rather than produced by the detector.
	manualConfidence = 1.0
)

type EncodingRepositoryInterface interface {
	Create(ctx context.Context, enc *domain.FaceEncoding) error
	CreateBatch(ctx context.Context, encs []*domain.FaceEncoding) error
	CreateIfAbsent(ctx context.Context, enc *domain.FaceEncoding) error
	ReviewQueue(ctx context.Context, limit int) ([]domain.ReviewItem, error)
	ClearAll(ctx context.Context) (int64, error)
}

type ReviewRepositoryInterface interface {
	Confirm(ctx context.Context, faceID uuid.UUID, personID int64) (*domain.ReviewOutcome, error)
	Reject(ctx context.Context, faceID uuid.UUID) (*domain.ReviewOutcome, error)
}

type AggregateRepositoryInterface interface {
	RebuildAll(ctx context.Context) ([]domain.AggregateCount, error)
}

type PhotoRepositoryInterface interface {
	GetPhoto(ctx context.Context, id int64) (*domain.Photo, error)
}

type Identifier interface {
	Identify(ctx context.Context, q domain.IdentifyQuery) ([]domain.Match, error)
	BestEach(ctx context.Context, descriptors [][]float32, threshold float64) ([]*domain.Match, error)
	DefaultThreshold() float64
}

// EventPublisher is satisfied by *ws.Hub.
type EventPublisher interface {
	Broadcast(eventType ws.EventType, data any)
}

type Dependencies struct {
	Encodings  EncodingRepositoryInterface
	Reviews    ReviewRepositoryInterface
	Aggregates AggregateRepositoryInterface
	Photos     PhotoRepositoryInterface
	Images     photo.Store
	Detector   provider.FaceDetector
	Matcher    Identifier
	Audit      audit.Logger
	Events     EventPublisher
	Logger     *slog.Logger
}

// FaceService is the embedding store and review workflow as seen by the
// HTTP layer and the CLI. Storage failures surface as
// domain.ErrStorageUnavailable.
type FaceService struct {
	encodings   EncodingRepositoryInterface
	reviews     ReviewRepositoryInterface
	aggregates  AggregateRepositoryInterface
	photos      PhotoRepositoryInterface
	images      photo.Store
	detector    provider.FaceDetector
	matcher     Identifier
	audit       audit.Logger
	events      EventPublisher
	logger      *slog.Logger
	dimension   int
	reviewLimit int
}

func NewFaceService(deps Dependencies, dimension int) *FaceService {
	s := &FaceService{
		encodings:   deps.Encodings,
		reviews:     deps.Reviews,
		aggregates:  deps.Aggregates,
		photos:      deps.Photos,
		images:      deps.Images,
		detector:    deps.Detector,
		matcher:     deps.Matcher,
		audit:       deps.Audit,
		events:      deps.Events,
		logger:      deps.Logger,
		dimension:   dimension,
		reviewLimit: DefaultReviewLimit,
	}
	if s.audit == nil {
		s.audit = &audit.NoOpLogger{}
	}
	if s.events == nil {
		s.events = discardEvents{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// WithReviewLimit sets the queue size used when a caller gives no limit.
func (s *FaceService) WithReviewLimit(limit int) *FaceService {
	s.reviewLimit = clampLimit(limit)
	return s
}

// AddEncoding stores an unreviewed face. The photo and, when given, the
// person must exist.
func (s *FaceService) AddEncoding(ctx context.Context, in domain.NewEncoding) (*domain.FaceEncoding, error) {
	if err := vector.Validate(in.Descriptor, s.dimension); err != nil {
		return nil, err
	}

	confidence := manualConfidence
	if in.DetectionConfidence != nil {
		confidence = *in.DetectionConfidence
	}
	if confidence < 0 || confidence > 1 {
		return nil, domain.ErrInvalidConfidence
	}

	enc := &domain.FaceEncoding{
		PhotoID:             in.PhotoID,
		PersonID:            in.PersonID,
		Descriptor:          in.Descriptor,
		BoundingBox:         in.BoundingBox,
		DetectionConfidence: confidence,
		MatchDistance:       in.MatchDistance,
	}
	if err := s.encodings.Create(ctx, enc); err != nil {
		return nil, domain.Unavailable(err)
	}

	s.record(ctx, audit.Event{
		EventType: audit.EventEncodingAdded,
		FaceID:    enc.ID.String(),
		PhotoID:   enc.PhotoID,
		PersonID:  enc.PersonID,
		Success:   true,
	})
	if enc.PersonID != nil {
		s.events.Broadcast(ws.EventFaceProposed, enc)
	}
	return enc, nil
}

// AddEmbedding stores a descriptor for a known (person, photo) pairing. A
// pairing that already has a pending or confirmed encoding is rejected with
// domain.ErrEmbeddingExists; callers treat that as already represented.
func (s *FaceService) AddEmbedding(ctx context.Context, personID, photoID int64, descriptor []float32) (*domain.FaceEncoding, error) {
	if err := vector.Validate(descriptor, s.dimension); err != nil {
		return nil, err
	}

	enc := &domain.FaceEncoding{
		PhotoID:             photoID,
		PersonID:            &personID,
		Descriptor:          descriptor,
		DetectionConfidence: manualConfidence,
	}
	if err := s.encodings.CreateIfAbsent(ctx, enc); err != nil {
		return nil, domain.Unavailable(err)
	}

	s.record(ctx, audit.Event{
		EventType: audit.EventEmbeddingAdded,
		FaceID:    enc.ID.String(),
		PhotoID:   photoID,
		PersonID:  &personID,
		Success:   true,
	})
	s.events.Broadcast(ws.EventFaceProposed, enc)
	return enc, nil
}

func (s *FaceService) Identify(ctx context.Context, q domain.IdentifyQuery) ([]domain.Match, error) {
	return s.matcher.Identify(ctx, q)
}

// DetectAndPropose runs the detector over a stored photo and records every
// face as an unreviewed encoding carrying its best identity suggestion, if
// any reaches the identify threshold.
func (s *FaceService) DetectAndPropose(ctx context.Context, photoID int64) ([]domain.Proposal, error) {
	ph, err := s.photos.GetPhoto(ctx, photoID)
	if err != nil {
		return nil, domain.Unavailable(err)
	}

	image, err := s.images.Load(ctx, ph.FileName)
	if err != nil {
		return nil, err
	}

	detections, err := s.detector.Detect(ctx, image)
	if err != nil {
		s.record(ctx, audit.Event{
			EventType: audit.EventFacesDetected,
			PhotoID:   photoID,
			Success:   false,
			Error:     err.Error(),
		})
		return nil, fmt.Errorf("photo %d: detect faces: %w", photoID, err)
	}

	descriptors := make([][]float32, len(detections))
	for i, d := range detections {
		descriptors[i] = d.Descriptor
	}
	suggestions, err := s.matcher.BestEach(ctx, descriptors, s.matcher.DefaultThreshold())
	if err != nil {
		return nil, err
	}

	encs := make([]*domain.FaceEncoding, len(detections))
	for i, d := range detections {
		box := d.BoundingBox
		encs[i] = &domain.FaceEncoding{
			PhotoID:             photoID,
			Descriptor:          d.Descriptor,
			BoundingBox:         &box,
			DetectionConfidence: d.Confidence,
		}
		if m := suggestions[i]; m != nil {
			personID, similarity := m.PersonID, m.Similarity
			encs[i].PersonID = &personID
			encs[i].MatchDistance = &similarity
		}
	}

	if len(encs) > 0 {
		if err := s.encodings.CreateBatch(ctx, encs); err != nil {
			return nil, domain.Unavailable(fmt.Errorf("photo %d: %w", photoID, err))
		}
	}

	proposals := make([]domain.Proposal, 0, len(encs))
	for i, enc := range encs {
		proposals = append(proposals, domain.Proposal{
			FaceID:              enc.ID.String(),
			BoundingBox:         enc.BoundingBox,
			DetectionConfidence: enc.DetectionConfidence,
			Suggestion:          suggestions[i],
		})
	}

	s.record(ctx, audit.Event{
		EventType: audit.EventFacesDetected,
		PhotoID:   photoID,
		Success:   true,
		Metadata:  map[string]string{"faces": fmt.Sprint(len(proposals))},
	})
	if len(proposals) > 0 {
		s.events.Broadcast(ws.EventFaceProposed, map[string]any{
			"photoId":   photoID,
			"proposals": proposals,
		})
	}
	return proposals, nil
}

func (s *FaceService) record(ctx context.Context, event audit.Event) {
	if err := s.audit.Log(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit log failed",
			slog.String("event_type", string(event.EventType)),
			slog.String("error", err.Error()),
		)
	}
}

func clampLimit(limit int) int {
	switch {
	case limit < 1:
		return 1
	case limit > MaxReviewLimit:
		return MaxReviewLimit
	default:
		return limit
	}
}

type discardEvents struct{}

func (discardEvents) Broadcast(ws.EventType, any) {}
