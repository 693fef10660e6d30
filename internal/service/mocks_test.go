package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/familyalbum/faces/internal/audit"
	"github.com/familyalbum/faces/internal/domain"
	"github.com/familyalbum/faces/internal/provider"
	"github.com/familyalbum/faces/internal/ws"
)

type MockEncodingRepository struct {
	mock.Mock
}

func (m *MockEncodingRepository) Create(ctx context.Context, enc *domain.FaceEncoding) error {
	args := m.Called(ctx, enc)
	if args.Error(0) == nil && enc.ID == uuid.Nil {
		enc.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockEncodingRepository) CreateBatch(ctx context.Context, encs []*domain.FaceEncoding) error {
	args := m.Called(ctx, encs)
	if args.Error(0) == nil {
		for _, enc := range encs {
			if enc.ID == uuid.Nil {
				enc.ID = uuid.New()
			}
		}
	}
	return args.Error(0)
}

func (m *MockEncodingRepository) CreateIfAbsent(ctx context.Context, enc *domain.FaceEncoding) error {
	args := m.Called(ctx, enc)
	if args.Error(0) == nil && enc.ID == uuid.Nil {
		enc.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockEncodingRepository) ReviewQueue(ctx context.Context, limit int) ([]domain.ReviewItem, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReviewItem), args.Error(1)
}

func (m *MockEncodingRepository) ClearAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) Confirm(ctx context.Context, faceID uuid.UUID, personID int64) (*domain.ReviewOutcome, error) {
	args := m.Called(ctx, faceID, personID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReviewOutcome), args.Error(1)
}

func (m *MockReviewRepository) Reject(ctx context.Context, faceID uuid.UUID) (*domain.ReviewOutcome, error) {
	args := m.Called(ctx, faceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReviewOutcome), args.Error(1)
}

type MockAggregateRepository struct {
	mock.Mock
}

func (m *MockAggregateRepository) RebuildAll(ctx context.Context) ([]domain.AggregateCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AggregateCount), args.Error(1)
}

type MockPhotoRepository struct {
	mock.Mock
}

func (m *MockPhotoRepository) GetPhoto(ctx context.Context, id int64) (*domain.Photo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Photo), args.Error(1)
}

type MockPhotoStore struct {
	mock.Mock
}

func (m *MockPhotoStore) Load(ctx context.Context, fileName string) ([]byte, error) {
	args := m.Called(ctx, fileName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockDetector struct {
	mock.Mock
}

func (m *MockDetector) Detect(ctx context.Context, image []byte) ([]provider.Detection, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]provider.Detection), args.Error(1)
}

type MockIdentifier struct {
	mock.Mock
}

func (m *MockIdentifier) Identify(ctx context.Context, q domain.IdentifyQuery) ([]domain.Match, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Match), args.Error(1)
}

func (m *MockIdentifier) BestEach(ctx context.Context, descriptors [][]float32, threshold float64) ([]*domain.Match, error) {
	args := m.Called(ctx, descriptors, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Match), args.Error(1)
}

func (m *MockIdentifier) DefaultThreshold() float64 {
	return m.Called().Get(0).(float64)
}

// recorder captures audit events and hub broadcasts.
type recorder struct {
	mu        sync.Mutex
	audits    []audit.Event
	broadcast []ws.EventType
}

func (r *recorder) Log(_ context.Context, e audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.audits = append(r.audits, e)
	return nil
}

func (r *recorder) Broadcast(t ws.EventType, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcast = append(r.broadcast, t)
}

type fixture struct {
	encodings  *MockEncodingRepository
	reviews    *MockReviewRepository
	aggregates *MockAggregateRepository
	photos     *MockPhotoRepository
	images     *MockPhotoStore
	detector   *MockDetector
	matcher    *MockIdentifier
	rec        *recorder
	svc        *FaceService
}

func newFixture(dimension int) *fixture {
	f := &fixture{
		encodings:  &MockEncodingRepository{},
		reviews:    &MockReviewRepository{},
		aggregates: &MockAggregateRepository{},
		photos:     &MockPhotoRepository{},
		images:     &MockPhotoStore{},
		detector:   &MockDetector{},
		matcher:    &MockIdentifier{},
		rec:        &recorder{},
	}
	f.svc = NewFaceService(Dependencies{
		Encodings:  f.encodings,
		Reviews:    f.reviews,
		Aggregates: f.aggregates,
		Photos:     f.photos,
		Images:     f.images,
		Detector:   f.detector,
		Matcher:    f.matcher,
		Audit:      f.rec,
		Events:     f.rec,
	}, dimension)
	return f
}

func (f *fixture) assertExpectations(t mock.TestingT) {
	f.encodings.AssertExpectations(t)
	f.reviews.AssertExpectations(t)
	f.aggregates.AssertExpectations(t)
	f.photos.AssertExpectations(t)
	f.images.AssertExpectations(t)
	f.detector.AssertExpectations(t)
	f.matcher.AssertExpectations(t)
}
