package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/familyalbum/faces/internal/domain"
)

// GalleryRepository reads and writes the gallery tables the face core
// depends on: people, photos and the ordered photo tags.
type GalleryRepository struct {
	pool PgxPool
}

func NewGalleryRepository(pool PgxPool) *GalleryRepository {
	return &GalleryRepository{pool: pool}
}

func (r *GalleryRepository) CreatePerson(ctx context.Context, name string) (*domain.Person, error) {
	var p domain.Person
	err := r.pool.QueryRow(ctx,
		`INSERT INTO people (name, created_at) VALUES ($1, NOW()) RETURNING id, name, created_at`,
		name,
	).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create person: %w", err)
	}
	return &p, nil
}

func (r *GalleryRepository) GetPerson(ctx context.Context, id int64) (*domain.Person, error) {
	var p domain.Person
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM people WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPersonNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get person: %w", err)
	}
	return &p, nil
}

func (r *GalleryRepository) CreatePhoto(ctx context.Context, fileName string, takenAt *time.Time) (*domain.Photo, error) {
	var p domain.Photo
	err := r.pool.QueryRow(ctx, `
		INSERT INTO photos (file_name, taken_at, tag_count, created_at)
		VALUES ($1, $2, 0, NOW())
		RETURNING id, file_name, taken_at, tag_count, created_at
	`, fileName, takenAt).Scan(&p.ID, &p.FileName, &p.TakenAt, &p.TagCount, &p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrPhotoExists
		}
		return nil, fmt.Errorf("create photo: %w", err)
	}
	return &p, nil
}

func (r *GalleryRepository) GetPhoto(ctx context.Context, id int64) (*domain.Photo, error) {
	var p domain.Photo
	err := r.pool.QueryRow(ctx,
		`SELECT id, file_name, taken_at, tag_count, created_at FROM photos WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.FileName, &p.TakenAt, &p.TagCount, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPhotoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return &p, nil
}

// AddTag appends personID to the photo's tag list. Adding an existing tag
// is a no-op. The returned count is the photo's recomputed tag count.
func (r *GalleryRepository) AddTag(ctx context.Context, photoID, personID int64) (bool, int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("begin add tag: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	added, count, err := applyTag(ctx, tx, photoID, personID)
	if err != nil {
		return false, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, 0, fmt.Errorf("commit add tag: %w", err)
	}
	return added, count, nil
}

// Tags returns the photo's tagged persons in position order.
func (r *GalleryRepository) Tags(ctx context.Context, photoID int64) ([]domain.PhotoTag, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT photo_id, person_id, position
		FROM photo_tags
		WHERE photo_id = $1
		ORDER BY position, created_at
	`, photoID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []domain.PhotoTag
	for rows.Next() {
		var t domain.PhotoTag
		if err := rows.Scan(&t.PhotoID, &t.PersonID, &t.Position); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// TrainingPhotoFilter selects labeler input. With PhotoIDs set exactly those
// photos are returned; otherwise the photos tagged with PersonID that have at
// most MaxTagged tagged people.
type TrainingPhotoFilter struct {
	PersonID  int64
	PhotoIDs  []int64
	MaxTagged int
}

// TrainingPhotos returns photos with their ordered tag lists, oldest first.
func (r *GalleryRepository) TrainingPhotos(ctx context.Context, f TrainingPhotoFilter) ([]domain.TrainingPhoto, error) {
	b := psql.
		Select(
			"ph.id",
			"ph.file_name",
			"COALESCE(ph.taken_at, ph.created_at)",
			"ARRAY(SELECT t.person_id FROM photo_tags t WHERE t.photo_id = ph.id ORDER BY t.position, t.created_at)",
		).
		From("photos ph")

	if len(f.PhotoIDs) > 0 {
		b = b.Where(sq.Eq{"ph.id": f.PhotoIDs})
	} else {
		b = b.Where(sq.Expr("EXISTS (SELECT 1 FROM photo_tags pt WHERE pt.photo_id = ph.id AND pt.person_id = ?)", f.PersonID))
		if f.MaxTagged > 0 {
			b = b.Where(sq.LtOrEq{"ph.tag_count": f.MaxTagged})
		}
	}

	query, args, err := b.OrderBy("COALESCE(ph.taken_at, ph.created_at)", "ph.id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build training photos query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("training photos: %w", err)
	}
	defer rows.Close()

	var photos []domain.TrainingPhoto
	for rows.Next() {
		var p domain.TrainingPhoto
		if err := rows.Scan(&p.PhotoID, &p.FileName, &p.TakenAt, &p.Tags); err != nil {
			return nil, fmt.Errorf("scan training photo: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate training photos: %w", err)
	}

	return photos, nil
}

// lockPhoto takes the photo row lock that serializes every write keyed by
// the photo: tag appends and the (person, photo) pairing check.
func lockPhoto(ctx context.Context, q Querier, photoID int64) error {
	var locked int64
	err := q.QueryRow(ctx, `SELECT id FROM photos WHERE id = $1 FOR UPDATE`, photoID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrPhotoNotFound
	}
	if err != nil {
		return fmt.Errorf("lock photo: %w", err)
	}
	return nil
}

// applyTag inserts the tag if absent at the end of the photo's list and
// recomputes the denormalized tag count. The photo row is locked so that
// concurrent appends on one photo get distinct positions.
func applyTag(ctx context.Context, q Querier, photoID, personID int64) (bool, int, error) {
	if err := lockPhoto(ctx, q, photoID); err != nil {
		return false, 0, err
	}

	tag, err := q.Exec(ctx, `
		INSERT INTO photo_tags (photo_id, person_id, position, created_at)
		SELECT $1::bigint, $2::bigint, COALESCE(MAX(position) + 1, 0), NOW()
		FROM photo_tags
		WHERE photo_id = $1::bigint
		ON CONFLICT (photo_id, person_id) DO NOTHING
	`, photoID, personID)
	if err != nil {
		return false, 0, fmt.Errorf("insert tag: %w", err)
	}

	var count int
	err = q.QueryRow(ctx, `
		UPDATE photos
		SET tag_count = (SELECT COUNT(DISTINCT person_id) FROM photo_tags WHERE photo_id = $1)
		WHERE id = $1
		RETURNING tag_count
	`, photoID).Scan(&count)
	if err != nil {
		return false, 0, fmt.Errorf("recount tags: %w", err)
	}

	return tag.RowsAffected() == 1, count, nil
}
