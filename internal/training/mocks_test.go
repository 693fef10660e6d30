package training

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/familyalbum/faces/internal/domain"
	"github.com/familyalbum/faces/internal/provider"
	"github.com/familyalbum/faces/internal/repository"
)

type MockPhotoSource struct {
	mock.Mock
}

func (m *MockPhotoSource) GetPerson(ctx context.Context, id int64) (*domain.Person, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Person), args.Error(1)
}

func (m *MockPhotoSource) TrainingPhotos(ctx context.Context, f repository.TrainingPhotoFilter) ([]domain.TrainingPhoto, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TrainingPhoto), args.Error(1)
}

type MockImages struct {
	mock.Mock
}

func (m *MockImages) Load(ctx context.Context, fileName string) ([]byte, error) {
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
	// hand out a copy so the labeler's sort never reorders the fixture
	src := args.Get(0).([]provider.Detection)
	out := make([]provider.Detection, len(src))
	copy(out, src)
	return out, args.Error(1)
}

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) AddConfirmed(ctx context.Context, enc *domain.FaceEncoding) (*domain.ReviewOutcome, error) {
	args := m.Called(ctx, enc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	if enc.ID == uuid.Nil {
		enc.ID = uuid.New()
	}
	return args.Get(0).(*domain.ReviewOutcome), args.Error(1)
}

type MockRunStore struct {
	mock.Mock
}

func (m *MockRunStore) CreateRun(ctx context.Context, run *domain.TrainingRun) error {
	args := m.Called(ctx, run)
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	run.Status = domain.RunRunning
	return args.Error(0)
}

func (m *MockRunStore) RecordResult(ctx context.Context, runID uuid.UUID, o domain.PhotoOutcome) error {
	return m.Called(ctx, runID, o).Error(0)
}

func (m *MockRunStore) FinishRun(ctx context.Context, run *domain.TrainingRun) error {
	return m.Called(ctx, run).Error(0)
}

func (m *MockRunStore) GetRun(ctx context.Context, id uuid.UUID) (*domain.TrainingRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrainingRun), args.Error(1)
}
