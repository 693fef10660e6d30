package repository

import (
	"errors"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/familyalbum/faces/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// isUniqueViolation checks if the error is a unique constraint violation
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, pgUniqueViolation) ||
		strings.Contains(errMsg, "duplicate key")
}

// foreignKeyError maps a foreign key violation on a face encoding insert to
// the missing photo or person. Other errors yield nil.
func foreignKeyError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgForeignKeyViolation {
		return nil
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "photo_id"):
		return domain.ErrPhotoNotFound
	case strings.Contains(pgErr.ConstraintName, "person_id"):
		return domain.ErrPersonNotFound
	}
	return domain.ErrValidationFailed.WithError(err)
}

func toVector(v []float32) pgvector.Vector {
	return pgvector.NewVector(v)
}

func fromVector(v *pgvector.Vector) []float32 {
	if v == nil {
		return nil
	}
	return v.Slice()
}

func boxArgs(b *domain.BoundingBox) (top, right, bottom, left *int) {
	if b == nil {
		return nil, nil, nil, nil
	}
	return &b.Top, &b.Right, &b.Bottom, &b.Left
}

func boxFrom(top, right, bottom, left *int) *domain.BoundingBox {
	if top == nil || right == nil || bottom == nil || left == nil {
		return nil
	}
	return &domain.BoundingBox{Top: *top, Right: *right, Bottom: *bottom, Left: *left}
}
