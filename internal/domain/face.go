package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReviewState is the lifecycle of a face encoding. Confirmed and Rejected
// are terminal.
type ReviewState string

const (
	ReviewUnreviewed ReviewState = "unreviewed"
	ReviewConfirmed  ReviewState = "confirmed"
	ReviewRejected   ReviewState = "rejected"
)

func (s ReviewState) Valid() bool {
	switch s {
	case ReviewUnreviewed, ReviewConfirmed, ReviewRejected:
		return true
	}
	return false
}

func (s ReviewState) Terminal() bool {
	return s == ReviewConfirmed || s == ReviewRejected
}

// BoundingBox holds the face edges in photo pixel space.
type BoundingBox struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

func (b BoundingBox) Width() int  { return b.Right - b.Left }
func (b BoundingBox) Height() int { return b.Bottom - b.Top }

// FaceEncoding is one detected face instance with its descriptor.
type FaceEncoding struct {
	ID                  uuid.UUID    `json:"faceId"`
	PhotoID             int64        `json:"photoId"`
	PersonID            *int64       `json:"personId,omitempty"`
	Descriptor          []float32    `json:"-"`
	BoundingBox         *BoundingBox `json:"boundingBox,omitempty"`
	DetectionConfidence float64      `json:"detectionConfidence"`
	MatchDistance       *float64     `json:"matchDistance,omitempty"`
	ReviewState         ReviewState  `json:"reviewState"`
	CreatedAt           time.Time    `json:"createdAt"`
	UpdatedAt           time.Time    `json:"updatedAt"`
}

// NewEncoding carries the inputs of addEncoding.
type NewEncoding struct {
	PhotoID             int64
	PersonID            *int64
	Descriptor          []float32
	BoundingBox         *BoundingBox
	DetectionConfidence *float64
	MatchDistance       *float64
}

// ReviewItem is a review queue row joined with the suggested person and photo.
type ReviewItem struct {
	FaceEncoding
	PersonName string `json:"personName"`
	FileName   string `json:"fileName"`
}

// ReviewOutcome describes the effect of a confirm or reject.
type ReviewOutcome struct {
	FaceID      uuid.UUID   `json:"faceId"`
	PhotoID     int64       `json:"photoId"`
	PersonID    *int64      `json:"personId,omitempty"`
	ReviewState ReviewState `json:"reviewState"`
	TagAdded    bool        `json:"tagAdded"`
	TagCount    int         `json:"tagCount"`
}
