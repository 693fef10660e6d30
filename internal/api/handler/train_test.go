package handler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/familyalbum/faces/internal/domain"
	"github.com/familyalbum/faces/internal/training"
	"github.com/familyalbum/faces/internal/ws"
)

func TestTrainingHandler_Train(t *testing.T) {
	runID := uuid.New()
	run := &domain.TrainingRun{
		ID:           runID,
		PersonID:     4,
		Status:       domain.RunCompleted,
		PhotosTotal:  2,
		PhotosBound:  1,
		PhotosFailed: 1,
		StartedAt:    time.Now(),
		Results: []domain.PhotoOutcome{
			{PhotoID: 1, Status: domain.OutcomeBound, FacesDetected: 2},
			{PhotoID: 2, Status: domain.OutcomeFailed, Reason: domain.ReasonNoFaces},
		},
	}

	trainer := new(MockTrainer)
	trainer.On("Train", mock.Anything, training.Request{PersonID: 4, PhotoIDs: []int64{1, 2}}, mock.Anything).
		Run(func(args mock.Arguments) {
			progress := args.Get(2).(training.ProgressFunc)
			progress(training.Progress{RunID: runID, PersonID: 4, Processed: 1, Total: 2})
			progress(training.Progress{RunID: runID, PersonID: 4, Processed: 2, Total: 2})
		}).
		Return(run, nil)

	events := &recordedEvents{}
	h := NewTrainingHandler(trainer, events, testLogger())

	app := newTestApp()
	app.Post("/faces/train", h.Train)

	resp, err := app.Test(jsonRequest(t, "POST", "/faces/train", TrainRequest{PersonID: 4, PhotoIDs: []int64{1, 2}}))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body := decode[TrainingRunResponse](t, resp)
	assert.True(t, body.Success)
	assert.Equal(t, runID, body.Run.ID)
	assert.Len(t, body.Run.Results, 2)

	assert.Equal(t, []ws.EventType{
		ws.EventTrainingProgress,
		ws.EventTrainingProgress,
		ws.EventTrainingCompleted,
	}, events.types)
	completed := events.data[2].(domain.TrainingRun)
	assert.Nil(t, completed.Results)
	assert.Len(t, run.Results, 2)
	trainer.AssertExpectations(t)
}

func TestTrainingHandler_Train_Validation(t *testing.T) {
	tests := []struct {
		name string
		body TrainRequest
	}{
		{"missing person", TrainRequest{}},
		{"negative max photos", TrainRequest{PersonID: 1, MaxPhotos: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trainer := new(MockTrainer)
			app := newTestApp()
			app.Post("/faces/train", NewTrainingHandler(trainer, &recordedEvents{}, testLogger()).Train)

			resp, err := app.Test(jsonRequest(t, "POST", "/faces/train", tt.body))
			require.NoError(t, err)
			assert.Equal(t, 422, resp.StatusCode)
			trainer.AssertNotCalled(t, "Train", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestTrainingHandler_Train_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unknown person", domain.ErrPersonNotFound, 404},
		{"cancelled", context.Canceled, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trainer := new(MockTrainer)
			trainer.On("Train", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			events := &recordedEvents{}
			app := newTestApp()
			app.Post("/faces/train", NewTrainingHandler(trainer, events, testLogger()).Train)

			resp, err := app.Test(jsonRequest(t, "POST", "/faces/train", TrainRequest{PersonID: 9}))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Empty(t, events.types)
		})
	}
}

func TestTrainingHandler_GetRun(t *testing.T) {
	runID := uuid.New()

	t.Run("found", func(t *testing.T) {
		trainer := new(MockTrainer)
		trainer.On("Run", mock.Anything, runID).Return(&domain.TrainingRun{ID: runID, Status: domain.RunRunning}, nil)

		app := newTestApp()
		app.Get("/faces/train/:runId", NewTrainingHandler(trainer, &recordedEvents{}, testLogger()).GetRun)

		resp, err := app.Test(jsonRequest(t, "GET", "/faces/train/"+runID.String(), nil))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, domain.RunRunning, decode[TrainingRunResponse](t, resp).Run.Status)
	})

	t.Run("not found", func(t *testing.T) {
		trainer := new(MockTrainer)
		trainer.On("Run", mock.Anything, runID).Return(nil, domain.ErrTrainingRunNotFound)

		app := newTestApp()
		app.Get("/faces/train/:runId", NewTrainingHandler(trainer, &recordedEvents{}, testLogger()).GetRun)

		resp, err := app.Test(jsonRequest(t, "GET", "/faces/train/"+runID.String(), nil))
		require.NoError(t, err)
		assert.Equal(t, 404, resp.StatusCode)
	})

	t.Run("bad id", func(t *testing.T) {
		trainer := new(MockTrainer)
		app := newTestApp()
		app.Get("/faces/train/:runId", NewTrainingHandler(trainer, &recordedEvents{}, testLogger()).GetRun)

		resp, err := app.Test(jsonRequest(t, "GET", "/faces/train/not-a-uuid", nil))
		require.NoError(t, err)
		assert.Equal(t, 422, resp.StatusCode)
	})
}
