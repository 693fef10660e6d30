package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/familyalbum/faces/internal/domain"
)

// ReviewRepository applies review transitions. Every transition runs in one
// transaction holding a row lock on the encoding, so concurrent reviews of
// the same face serialize and the loser observes a terminal state.
type ReviewRepository struct {
	pool PgxPool
}

func NewReviewRepository(pool PgxPool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Confirm binds the face to personID, tags the person on the photo if
// needed, recounts the photo's tags and refreshes the person's aggregate.
func (r *ReviewRepository) Confirm(ctx context.Context, faceID uuid.UUID, personID int64) (*domain.ReviewOutcome, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin confirm: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	photoID, _, err := lockUnreviewed(ctx, tx, faceID)
	if err != nil {
		return nil, err
	}

	if err := ensurePerson(ctx, tx, personID); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE face_encodings
		SET person_id = $2, review_state = 'confirmed', updated_at = NOW()
		WHERE id = $1
	`, faceID, personID); err != nil {
		return nil, fmt.Errorf("confirm encoding: %w", err)
	}

	added, count, err := applyTag(ctx, tx, photoID, personID)
	if err != nil {
		return nil, err
	}

	if _, err := refreshAggregate(ctx, tx, personID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit confirm: %w", err)
	}

	return &domain.ReviewOutcome{
		FaceID:      faceID,
		PhotoID:     photoID,
		PersonID:    &personID,
		ReviewState: domain.ReviewConfirmed,
		TagAdded:    added,
		TagCount:    count,
	}, nil
}

// Reject cancels the proposal. Tags and aggregates are untouched: only an
// unreviewed row can be rejected and unreviewed rows never contribute to
// either. The outcome carries the previously proposed person.
func (r *ReviewRepository) Reject(ctx context.Context, faceID uuid.UUID) (*domain.ReviewOutcome, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reject: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	photoID, proposed, err := lockUnreviewed(ctx, tx, faceID)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE face_encodings
		SET person_id = NULL, review_state = 'rejected', updated_at = NOW()
		WHERE id = $1
	`, faceID); err != nil {
		return nil, fmt.Errorf("reject encoding: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit reject: %w", err)
	}

	return &domain.ReviewOutcome{
		FaceID:      faceID,
		PhotoID:     photoID,
		PersonID:    proposed,
		ReviewState: domain.ReviewRejected,
	}, nil
}

// AddConfirmed inserts an encoding that is confirmed from the start and
// applies the same tag, count and aggregate steps as Confirm. It returns
// ErrEmbeddingExists when the person already has a confirmed or pending
// encoding on the photo.
func (r *ReviewRepository) AddConfirmed(ctx context.Context, enc *domain.FaceEncoding) (*domain.ReviewOutcome, error) {
	if enc.PersonID == nil {
		return nil, domain.ErrValidationFailed.WithMessage("personId is required for a confirmed encoding")
	}
	personID := *enc.PersonID

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin add confirmed: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if enc.ID == uuid.Nil {
		enc.ID = uuid.New()
	}
	enc.ReviewState = domain.ReviewConfirmed

	if err := insertIfAbsent(ctx, tx, enc); err != nil {
		if errors.Is(err, domain.ErrEmbeddingExists) || errors.Is(err, domain.ErrPhotoNotFound) || errors.Is(err, domain.ErrPersonNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("insert confirmed encoding: %w", err)
	}

	added, count, err := applyTag(ctx, tx, enc.PhotoID, personID)
	if err != nil {
		return nil, err
	}

	if _, err := refreshAggregate(ctx, tx, personID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit add confirmed: %w", err)
	}

	return &domain.ReviewOutcome{
		FaceID:      enc.ID,
		PhotoID:     enc.PhotoID,
		PersonID:    &personID,
		ReviewState: domain.ReviewConfirmed,
		TagAdded:    added,
		TagCount:    count,
	}, nil
}

// lockUnreviewed locks the encoding row and checks that it is still
// unreviewed.
func lockUnreviewed(ctx context.Context, tx pgx.Tx, faceID uuid.UUID) (int64, *int64, error) {
	var (
		photoID  int64
		personID *int64
		state    string
	)
	err := tx.QueryRow(ctx, `
		SELECT photo_id, person_id, review_state
		FROM face_encodings
		WHERE id = $1
		FOR UPDATE
	`, faceID).Scan(&photoID, &personID, &state)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil, domain.ErrFaceNotFound
	}
	if err != nil {
		return 0, nil, fmt.Errorf("lock encoding: %w", err)
	}

	if domain.ReviewState(state) != domain.ReviewUnreviewed {
		return 0, nil, domain.ErrFaceAlreadyReviewed
	}
	return photoID, personID, nil
}

func ensurePerson(ctx context.Context, q Querier, personID int64) error {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM people WHERE id = $1)`, personID).Scan(&exists); err != nil {
		return fmt.Errorf("check person: %w", err)
	}
	if !exists {
		return domain.ErrPersonNotFound
	}
	return nil
}
