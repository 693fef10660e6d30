package domain

import (
	"time"

	"github.com/google/uuid"
)

// Failure reasons recorded by the training labeler.
const (
	ReasonNoFaces          = "no faces detected"
	ReasonTooManyFaces     = "too many faces"
	ReasonPositionMismatch = "position mismatch"
)

type TrainingRunStatus string

const (
	RunRunning   TrainingRunStatus = "running"
	RunCompleted TrainingRunStatus = "completed"
	RunFailed    TrainingRunStatus = "failed"
)

type PhotoOutcomeStatus string

const (
	OutcomeBound       PhotoOutcomeStatus = "bound"
	OutcomeRepresented PhotoOutcomeStatus = "already_represented"
	OutcomeFailed      PhotoOutcomeStatus = "failed"
)

// TrainingPhoto is a photo with its ordered tag list.
type TrainingPhoto struct {
	PhotoID  int64     `json:"photoId"`
	FileName string    `json:"fileName"`
	Tags     []int64   `json:"tags"`
	TakenAt  time.Time `json:"takenAt"`
}

// PositionOf returns the index of personID in the tag list or -1.
func (p TrainingPhoto) PositionOf(personID int64) int {
	for i, id := range p.Tags {
		if id == personID {
			return i
		}
	}
	return -1
}

type PhotoOutcome struct {
	PhotoID       int64              `json:"photoId"`
	Status        PhotoOutcomeStatus `json:"status"`
	Reason        string             `json:"reason,omitempty"`
	FacesDetected int                `json:"facesDetected"`
	FaceID        *uuid.UUID         `json:"faceId,omitempty"`
}

func (o PhotoOutcome) Succeeded() bool {
	return o.Status != OutcomeFailed
}

type TrainingRun struct {
	ID           uuid.UUID         `json:"runId"`
	PersonID     int64             `json:"personId"`
	Status       TrainingRunStatus `json:"status"`
	PhotosTotal  int               `json:"photosTotal"`
	PhotosBound  int               `json:"photosBound"`
	PhotosFailed int               `json:"photosFailed"`
	StartedAt    time.Time         `json:"startedAt"`
	FinishedAt   *time.Time        `json:"finishedAt,omitempty"`
	Results      []PhotoOutcome    `json:"results,omitempty"`
}
