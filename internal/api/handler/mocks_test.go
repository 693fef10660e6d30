package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/familyalbum/faces/internal/api/middleware"
	"github.com/familyalbum/faces/internal/domain"
	"github.com/familyalbum/faces/internal/service"
	"github.com/familyalbum/faces/internal/training"
	"github.com/familyalbum/faces/internal/ws"
)

type MockFaceService struct {
	mock.Mock
}

func (m *MockFaceService) AddEncoding(ctx context.Context, in domain.NewEncoding) (*domain.FaceEncoding, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FaceEncoding), args.Error(1)
}

func (m *MockFaceService) AddEmbedding(ctx context.Context, personID, photoID int64, descriptor []float32) (*domain.FaceEncoding, error) {
	args := m.Called(ctx, personID, photoID, descriptor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FaceEncoding), args.Error(1)
}

func (m *MockFaceService) Identify(ctx context.Context, q domain.IdentifyQuery) ([]domain.Match, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Match), args.Error(1)
}

func (m *MockFaceService) DetectAndPropose(ctx context.Context, photoID int64) ([]domain.Proposal, error) {
	args := m.Called(ctx, photoID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Proposal), args.Error(1)
}

func (m *MockFaceService) ReviewQueue(ctx context.Context, limit int) ([]domain.ReviewItem, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReviewItem), args.Error(1)
}

func (m *MockFaceService) Review(ctx context.Context, req service.ReviewRequest) (*domain.ReviewOutcome, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReviewOutcome), args.Error(1)
}

func (m *MockFaceService) ClearAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFaceService) RebuildAggregates(ctx context.Context) ([]domain.AggregateCount, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AggregateCount), args.Error(1)
}

type MockTrainer struct {
	mock.Mock
}

func (m *MockTrainer) Train(ctx context.Context, req training.Request, progress training.ProgressFunc) (*domain.TrainingRun, error) {
	args := m.Called(ctx, req, progress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrainingRun), args.Error(1)
}

func (m *MockTrainer) Run(ctx context.Context, id uuid.UUID) (*domain.TrainingRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrainingRun), args.Error(1)
}

type recordedEvents struct {
	types []ws.EventType
	data  []any
}

func (r *recordedEvents) Broadcast(t ws.EventType, data any) {
	r.types = append(r.types, t)
	r.data = append(r.data, data)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(testLogger())})
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func ptr[T any](v T) *T {
	return &v
}
