package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/familyalbum/faces/internal/audit"
	"github.com/familyalbum/faces/internal/domain"
	"github.com/familyalbum/faces/internal/ws"
)

const (
	ActionConfirm = "confirm"
	ActionReject  = "reject"
)

type ReviewRequest struct {
	Action   string
	FaceID   string
	PersonID *int64
}

// ReviewQueue returns pending proposals, most confident first. A limit of
// zero selects the configured default; other values are clamped to
// [1, MaxReviewLimit].
func (s *FaceService) ReviewQueue(ctx context.Context, limit int) ([]domain.ReviewItem, error) {
	if limit == 0 {
		limit = s.reviewLimit
	}
	items, err := s.encodings.ReviewQueue(ctx, clampLimit(limit))
	if err != nil {
		return nil, domain.Unavailable(err)
	}
	return items, nil
}

// Review dispatches a confirm or reject decision.
func (s *FaceService) Review(ctx context.Context, req ReviewRequest) (*domain.ReviewOutcome, error) {
	faceID, err := uuid.Parse(req.FaceID)
	if err != nil {
		return nil, domain.ErrValidationFailed.WithMessage("faceId must be a UUID")
	}

	switch req.Action {
	case ActionConfirm:
		if req.PersonID == nil {
			return nil, domain.ErrValidationFailed.WithMessage("personId is required to confirm a face")
		}
		return s.Confirm(ctx, faceID, *req.PersonID)
	case ActionReject:
		return s.Reject(ctx, faceID)
	default:
		return nil, domain.ErrInvalidAction
	}
}

// Confirm binds an unreviewed face to personID, tags the photo and refreshes
// the person's aggregate. The person need not be the one proposed.
func (s *FaceService) Confirm(ctx context.Context, faceID uuid.UUID, personID int64) (*domain.ReviewOutcome, error) {
	outcome, err := s.reviews.Confirm(ctx, faceID, personID)
	if err != nil {
		return nil, domain.Unavailable(err)
	}

	s.record(ctx, audit.Event{
		EventType: audit.EventFaceConfirmed,
		FaceID:    faceID.String(),
		PhotoID:   outcome.PhotoID,
		PersonID:  &personID,
		Success:   true,
		Metadata: map[string]string{
			"tag_added": fmt.Sprint(outcome.TagAdded),
			"tag_count": fmt.Sprint(outcome.TagCount),
		},
	})
	s.events.Broadcast(ws.EventFaceConfirmed, outcome)
	return outcome, nil
}

// ChangeSelection confirms the face with a person other than the proposed
// one.
func (s *FaceService) ChangeSelection(ctx context.Context, faceID uuid.UUID, newPersonID int64) (*domain.ReviewOutcome, error) {
	return s.Confirm(ctx, faceID, newPersonID)
}

// Reject cancels the proposal on an unreviewed face. Existing tags are
// left alone.
func (s *FaceService) Reject(ctx context.Context, faceID uuid.UUID) (*domain.ReviewOutcome, error) {
	outcome, err := s.reviews.Reject(ctx, faceID)
	if err != nil {
		return nil, domain.Unavailable(err)
	}

	s.record(ctx, audit.Event{
		EventType: audit.EventFaceRejected,
		FaceID:    faceID.String(),
		PhotoID:   outcome.PhotoID,
		PersonID:  outcome.PersonID,
		Success:   true,
	})
	s.events.Broadcast(ws.EventFaceRejected, outcome)
	return outcome, nil
}

// ClearAll removes every encoding and aggregate and reports how many
// encodings were deleted.
func (s *FaceService) ClearAll(ctx context.Context) (int64, error) {
	n, err := s.encodings.ClearAll(ctx)
	if err != nil {
		return 0, domain.Unavailable(err)
	}

	s.logger.InfoContext(ctx, "face encodings cleared", "deleted", n)
	s.record(ctx, audit.Event{
		EventType: audit.EventEncodingsCleared,
		Success:   true,
		Metadata:  map[string]string{"deleted": fmt.Sprint(n)},
	})
	s.events.Broadcast(ws.EventFacesCleared, map[string]int64{"deletedCount": n})
	return n, nil
}

// RebuildAggregates recomputes every person's aggregate from their
// confirmed encodings.
func (s *FaceService) RebuildAggregates(ctx context.Context) ([]domain.AggregateCount, error) {
	counts, err := s.aggregates.RebuildAll(ctx)
	if err != nil {
		return nil, domain.Unavailable(err)
	}

	s.record(ctx, audit.Event{
		EventType: audit.EventAggregatesRebuilt,
		Success:   true,
		Metadata:  map[string]string{"persons": fmt.Sprint(len(counts))},
	})
	s.events.Broadcast(ws.EventAggregatesRebuilt, counts)
	return counts, nil
}
