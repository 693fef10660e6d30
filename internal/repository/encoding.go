package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/familyalbum/faces/internal/domain"
)

type EncodingRepository struct {
	pool PgxPool
}

func NewEncodingRepository(pool PgxPool) *EncodingRepository {
	return &EncodingRepository{pool: pool}
}

// Create inserts an unreviewed encoding. Missing photo or person rows are
// reported as validation errors through the foreign keys.
func (r *EncodingRepository) Create(ctx context.Context, enc *domain.FaceEncoding) error {
	if err := insertEncoding(ctx, r.pool, enc); err != nil {
		return fmt.Errorf("create encoding: %w", err)
	}
	return nil
}

// CreateBatch inserts the encodings of one photo in a single transaction:
// either every face is stored or none is.
func (r *EncodingRepository) CreateBatch(ctx context.Context, encs []*domain.FaceEncoding) error {
	if len(encs) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create encodings: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i, enc := range encs {
		if err := insertEncoding(ctx, tx, enc); err != nil {
			return fmt.Errorf("create encoding %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create encodings: %w", err)
	}
	return nil
}

func insertEncoding(ctx context.Context, q Querier, enc *domain.FaceEncoding) error {
	query := `
		INSERT INTO face_encodings (
			id, photo_id, person_id, descriptor, box_top, box_right, box_bottom, box_left,
			detection_confidence, match_distance, review_state, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	if enc.ID == uuid.Nil {
		enc.ID = uuid.New()
	}
	enc.ReviewState = domain.ReviewUnreviewed
	top, right, bottom, left := boxArgs(enc.BoundingBox)

	err := q.QueryRow(ctx, query,
		enc.ID,
		enc.PhotoID,
		enc.PersonID,
		toVector(enc.Descriptor),
		top, right, bottom, left,
		enc.DetectionConfidence,
		enc.MatchDistance,
		string(enc.ReviewState),
	).Scan(&enc.CreatedAt, &enc.UpdatedAt)

	if err != nil {
		if fkErr := foreignKeyError(err); fkErr != nil {
			return fkErr
		}
		return err
	}
	return nil
}

// CreateIfAbsent inserts an unreviewed encoding for (person, photo) unless a
// confirmed or pending one already exists, in which case it returns
// ErrEmbeddingExists.
func (r *EncodingRepository) CreateIfAbsent(ctx context.Context, enc *domain.FaceEncoding) error {
	if enc.ID == uuid.Nil {
		enc.ID = uuid.New()
	}
	enc.ReviewState = domain.ReviewUnreviewed

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create encoding if absent: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := insertIfAbsent(ctx, tx, enc); err != nil {
		return fmt.Errorf("create encoding if absent: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create encoding if absent: %w", err)
	}
	return nil
}

// insertIfAbsent is the conditional insert shared by CreateIfAbsent and the
// confirmed insert of the review workflow. It must run inside a transaction:
// the photo row lock makes concurrent inserts for one pairing take turns, so
// the NOT EXISTS check of the later one sees the committed row.
func insertIfAbsent(ctx context.Context, tx pgx.Tx, enc *domain.FaceEncoding) error {
	if err := lockPhoto(ctx, tx, enc.PhotoID); err != nil {
		return err
	}

	query := `
		INSERT INTO face_encodings (
			id, photo_id, person_id, descriptor, box_top, box_right, box_bottom, box_left,
			detection_confidence, match_distance, review_state, created_at, updated_at
		)
		SELECT $1::uuid, $2::bigint, $3::bigint, $4::vector, $5::int, $6::int, $7::int, $8::int,
			$9::double precision, $10::double precision, $11::text, NOW(), NOW()
		WHERE NOT EXISTS (
			SELECT 1 FROM face_encodings
			WHERE person_id = $3::bigint AND photo_id = $2::bigint AND review_state <> 'rejected'
		)
		RETURNING created_at, updated_at
	`

	top, right, bottom, left := boxArgs(enc.BoundingBox)

	err := tx.QueryRow(ctx, query,
		enc.ID,
		enc.PhotoID,
		enc.PersonID,
		toVector(enc.Descriptor),
		top, right, bottom, left,
		enc.DetectionConfidence,
		enc.MatchDistance,
		string(enc.ReviewState),
	).Scan(&enc.CreatedAt, &enc.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrEmbeddingExists
	}
	if err != nil {
		if fkErr := foreignKeyError(err); fkErr != nil {
			return fkErr
		}
		return err
	}
	return nil
}

func (r *EncodingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.FaceEncoding, error) {
	query := `
		SELECT id, photo_id, person_id, descriptor, box_top, box_right, box_bottom, box_left,
			detection_confidence, match_distance, review_state, created_at, updated_at
		FROM face_encodings
		WHERE id = $1
	`

	var (
		enc                      domain.FaceEncoding
		descriptor               *pgvector.Vector
		top, right, bottom, left *int
		state                    string
	)

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&enc.ID,
		&enc.PhotoID,
		&enc.PersonID,
		&descriptor,
		&top, &right, &bottom, &left,
		&enc.DetectionConfidence,
		&enc.MatchDistance,
		&state,
		&enc.CreatedAt,
		&enc.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrFaceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get encoding: %w", err)
	}

	enc.Descriptor = fromVector(descriptor)
	enc.BoundingBox = boxFrom(top, right, bottom, left)
	enc.ReviewState = domain.ReviewState(state)
	return &enc, nil
}

// ReviewQueue lists unreviewed encodings that carry a proposed person, most
// confident first.
func (r *EncodingRepository) ReviewQueue(ctx context.Context, limit int) ([]domain.ReviewItem, error) {
	query, args, err := psql.
		Select(
			"f.id", "f.photo_id", "f.person_id", "f.box_top", "f.box_right", "f.box_bottom", "f.box_left",
			"f.detection_confidence", "f.match_distance", "f.review_state", "f.created_at", "f.updated_at",
			"p.name", "ph.file_name",
		).
		From("face_encodings f").
		Join("people p ON p.id = f.person_id").
		Join("photos ph ON ph.id = f.photo_id").
		Where(sq.Eq{"f.review_state": string(domain.ReviewUnreviewed)}).
		Where(sq.NotEq{"f.person_id": nil}).
		OrderBy("f.detection_confidence DESC", "f.created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build review queue query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("review queue: %w", err)
	}
	defer rows.Close()

	items := make([]domain.ReviewItem, 0, limit)
	for rows.Next() {
		var (
			item                     domain.ReviewItem
			top, right, bottom, left *int
			state                    string
		)
		if err := rows.Scan(
			&item.ID,
			&item.PhotoID,
			&item.PersonID,
			&top, &right, &bottom, &left,
			&item.DetectionConfidence,
			&item.MatchDistance,
			&state,
			&item.CreatedAt,
			&item.UpdatedAt,
			&item.PersonName,
			&item.FileName,
		); err != nil {
			return nil, fmt.Errorf("scan review item: %w", err)
		}
		item.BoundingBox = boxFrom(top, right, bottom, left)
		item.ReviewState = domain.ReviewState(state)
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review queue: %w", err)
	}

	return items, nil
}

// ClearAll removes every encoding and every person aggregate in one
// transaction and returns the number of encodings deleted.
func (r *EncodingRepository) ClearAll(ctx context.Context) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin clear: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `DELETE FROM face_encodings`)
	if err != nil {
		return 0, fmt.Errorf("delete encodings: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM person_aggregates`); err != nil {
		return 0, fmt.Errorf("delete aggregates: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit clear: %w", err)
	}

	return tag.RowsAffected(), nil
}
