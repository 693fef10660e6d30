package handler

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/familyalbum/faces/internal/api/middleware"
	"github.com/familyalbum/faces/internal/domain"
)

func newFaceApp(svc *MockFaceService) *FaceHandler {
	return NewFaceHandler(svc, testLogger())
}

func TestFaceHandler_Identify(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		setupMock  func(*MockFaceService)
		wantStatus int
		wantCode   string
		wantCount  int
	}{
		{
			name: "returns matches",
			body: map[string]any{"embedding": []float32{0.1, 0.2, 0.3}, "threshold": 0.7, "topN": 2},
			setupMock: func(m *MockFaceService) {
				m.On("Identify", mock.Anything, domain.IdentifyQuery{
					Descriptor: []float32{0.1, 0.2, 0.3},
					Threshold:  ptr(0.7),
					TopN:       ptr(2),
				}).Return([]domain.Match{
					{PersonID: 1, PersonName: "Alice", Similarity: 0.93},
					{PersonID: 2, PersonName: "Bob", Similarity: 0.74},
				}, nil)
			},
			wantStatus: 200,
			wantCount:  2,
		},
		{
			name: "no matches renders empty list",
			body: map[string]any{"embedding": []float32{0.1, 0.2, 0.3}},
			setupMock: func(m *MockFaceService) {
				m.On("Identify", mock.Anything, mock.Anything).Return(nil, nil)
			},
			wantStatus: 200,
			wantCount:  0,
		},
		{
			name: "wrong dimension",
			body: map[string]any{"embedding": []float32{0.1}},
			setupMock: func(m *MockFaceService) {
				m.On("Identify", mock.Anything, mock.Anything).Return(nil, domain.ErrInvalidDimension)
			},
			wantStatus: 400,
			wantCode:   "INVALID_EMBEDDING_DIMENSION",
		},
		{
			name:       "empty body",
			body:       nil,
			setupMock:  func(m *MockFaceService) {},
			wantStatus: 400,
			wantCode:   "BAD_REQUEST",
		},
		{
			name:       "malformed json",
			body:       `{"embedding": [0.1,`,
			setupMock:  func(m *MockFaceService) {},
			wantStatus: 400,
			wantCode:   "BAD_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockFaceService)
			tt.setupMock(svc)

			app := newTestApp()
			app.Post("/faces/identify", newFaceApp(svc).Identify)

			resp, err := app.Test(jsonRequest(t, "POST", "/faces/identify", tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantCode != "" {
				body := decode[middleware.ErrorResponse](t, resp)
				assert.False(t, body.Success)
				assert.Equal(t, tt.wantCode, body.Error.Code)
			} else {
				body := decode[IdentifyResponse](t, resp)
				assert.True(t, body.Success)
				assert.NotNil(t, body.Matches)
				assert.Len(t, body.Matches, tt.wantCount)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestFaceHandler_AddEmbedding(t *testing.T) {
	faceID := uuid.New()

	t.Run("created", func(t *testing.T) {
		svc := new(MockFaceService)
		svc.On("AddEmbedding", mock.Anything, int64(3), int64(40), []float32{0.5, 0.5}).
			Return(&domain.FaceEncoding{ID: faceID}, nil)

		app := newTestApp()
		app.Post("/faces/embeddings", newFaceApp(svc).AddEmbedding)

		resp, err := app.Test(jsonRequest(t, "POST", "/faces/embeddings", EmbeddingRequest{
			PersonID: 3, PhotoID: 40, Embedding: []float32{0.5, 0.5},
		}))
		require.NoError(t, err)
		assert.Equal(t, 201, resp.StatusCode)

		body := decode[CreatedResponse](t, resp)
		assert.True(t, body.Success)
		assert.Equal(t, faceID.String(), body.FaceID)
		svc.AssertExpectations(t)
	})

	t.Run("already represented is a conflict", func(t *testing.T) {
		svc := new(MockFaceService)
		svc.On("AddEmbedding", mock.Anything, int64(3), int64(40), mock.Anything).
			Return(nil, domain.ErrEmbeddingExists)

		app := newTestApp()
		app.Post("/faces/embeddings", newFaceApp(svc).AddEmbedding)

		resp, err := app.Test(jsonRequest(t, "POST", "/faces/embeddings", EmbeddingRequest{
			PersonID: 3, PhotoID: 40, Embedding: []float32{0.5, 0.5},
		}))
		require.NoError(t, err)
		assert.Equal(t, 409, resp.StatusCode)
		assert.Equal(t, "EMBEDDING_EXISTS", decode[middleware.ErrorResponse](t, resp).Error.Code)
	})

	t.Run("missing ids", func(t *testing.T) {
		svc := new(MockFaceService)
		app := newTestApp()
		app.Post("/faces/embeddings", newFaceApp(svc).AddEmbedding)

		resp, err := app.Test(jsonRequest(t, "POST", "/faces/embeddings", EmbeddingRequest{
			PhotoID: 40, Embedding: []float32{0.5, 0.5},
		}))
		require.NoError(t, err)
		assert.Equal(t, 422, resp.StatusCode)
		svc.AssertNotCalled(t, "AddEmbedding", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestFaceHandler_AddEncoding(t *testing.T) {
	faceID := uuid.New()
	svc := new(MockFaceService)
	svc.On("AddEncoding", mock.Anything, domain.NewEncoding{
		PhotoID:             7,
		PersonID:            ptr(int64(2)),
		Descriptor:          []float32{1, 0},
		BoundingBox:         &domain.BoundingBox{Top: 10, Right: 60, Bottom: 70, Left: 5},
		DetectionConfidence: ptr(0.88),
	}).Return(&domain.FaceEncoding{ID: faceID}, nil)

	app := newTestApp()
	app.Post("/faces/encodings", newFaceApp(svc).AddEncoding)

	resp, err := app.Test(jsonRequest(t, "POST", "/faces/encodings", map[string]any{
		"photoId":             7,
		"personId":            2,
		"embedding":           []float32{1, 0},
		"boundingBox":         map[string]int{"top": 10, "right": 60, "bottom": 70, "left": 5},
		"detectionConfidence": 0.88,
	}))
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, faceID.String(), decode[CreatedResponse](t, resp).FaceID)
	svc.AssertExpectations(t)
}

func TestFaceHandler_AddEncoding_PhotoNotFound(t *testing.T) {
	svc := new(MockFaceService)
	svc.On("AddEncoding", mock.Anything, mock.Anything).Return(nil, domain.ErrPhotoNotFound)

	app := newTestApp()
	app.Post("/faces/encodings", newFaceApp(svc).AddEncoding)

	resp, err := app.Test(jsonRequest(t, "POST", "/faces/encodings", map[string]any{
		"photoId": 99, "embedding": []float32{1, 0},
	}))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestFaceHandler_Detect(t *testing.T) {
	t.Run("proposals", func(t *testing.T) {
		svc := new(MockFaceService)
		svc.On("DetectAndPropose", mock.Anything, int64(12)).Return([]domain.Proposal{
			{FaceID: uuid.NewString(), DetectionConfidence: 0.97, Suggestion: &domain.Match{PersonID: 1, PersonName: "Alice", Similarity: 0.81}},
			{FaceID: uuid.NewString(), DetectionConfidence: 0.91},
		}, nil)

		app := newTestApp()
		app.Post("/faces/detect", newFaceApp(svc).Detect)

		resp, err := app.Test(jsonRequest(t, "POST", "/faces/detect", DetectRequest{PhotoID: 12}))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		body := decode[DetectResponse](t, resp)
		assert.Equal(t, 2, body.Count)
		assert.Equal(t, "Alice", body.Faces[0].Suggestion.PersonName)
		assert.Nil(t, body.Faces[1].Suggestion)
	})

	t.Run("detector unavailable", func(t *testing.T) {
		svc := new(MockFaceService)
		svc.On("DetectAndPropose", mock.Anything, int64(12)).Return(nil, domain.ErrDetectorUnavailable)

		app := newTestApp()
		app.Post("/faces/detect", newFaceApp(svc).Detect)

		resp, err := app.Test(jsonRequest(t, "POST", "/faces/detect", DetectRequest{PhotoID: 12}))
		require.NoError(t, err)
		assert.Equal(t, 503, resp.StatusCode)
		assert.Equal(t, "DETECTOR_UNAVAILABLE", decode[middleware.ErrorResponse](t, resp).Error.Code)
	})
}

func TestFaceHandler_ClearAll(t *testing.T) {
	svc := new(MockFaceService)
	svc.On("ClearAll", mock.Anything).Return(int64(42), nil)

	app := newTestApp()
	app.Delete("/faces", newFaceApp(svc).ClearAll)

	resp, err := app.Test(jsonRequest(t, "DELETE", "/faces", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body := decode[ClearResponse](t, resp)
	assert.True(t, body.Success)
	assert.Equal(t, int64(42), body.DeletedCount)
}

func TestFaceHandler_ClearAll_StorageDown(t *testing.T) {
	svc := new(MockFaceService)
	svc.On("ClearAll", mock.Anything).Return(int64(0), domain.ErrStorageUnavailable.WithError(errors.New("timeout")))

	app := newTestApp()
	app.Delete("/faces", newFaceApp(svc).ClearAll)

	resp, err := app.Test(jsonRequest(t, "DELETE", "/faces", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestFaceHandler_RebuildAggregates(t *testing.T) {
	svc := new(MockFaceService)
	svc.On("RebuildAggregates", mock.Anything).Return([]domain.AggregateCount{
		{PersonID: 1, PersonName: "Alice", SourceCount: 14},
	}, nil)

	app := newTestApp()
	app.Post("/faces/aggregates/rebuild", newFaceApp(svc).RebuildAggregates)

	resp, err := app.Test(jsonRequest(t, "POST", "/faces/aggregates/rebuild", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body := decode[RebuildResponse](t, resp)
	require.Len(t, body.Aggregates, 1)
	assert.Equal(t, 14, body.Aggregates[0].SourceCount)
}
