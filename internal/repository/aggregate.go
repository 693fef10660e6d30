package repository

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/familyalbum/faces/internal/domain"
)

type AggregateRepository struct {
	pool PgxPool
}

func NewAggregateRepository(pool PgxPool) *AggregateRepository {
	return &AggregateRepository{pool: pool}
}

// refreshAggregate recomputes the person's aggregate from the current set of
// confirmed encodings and deletes it when the set is empty. It returns the
// new source count.
func refreshAggregate(ctx context.Context, q Querier, personID int64) (int, error) {
	var (
		mean  *pgvector.Vector
		count int
	)
	err := q.QueryRow(ctx, `
		SELECT AVG(descriptor), COUNT(*)
		FROM face_encodings
		WHERE person_id = $1 AND review_state = 'confirmed'
	`, personID).Scan(&mean, &count)
	if err != nil {
		return 0, fmt.Errorf("average confirmed encodings: %w", err)
	}

	if count == 0 || mean == nil {
		if _, err := q.Exec(ctx, `DELETE FROM person_aggregates WHERE person_id = $1`, personID); err != nil {
			return 0, fmt.Errorf("delete aggregate: %w", err)
		}
		return 0, nil
	}

	_, err = q.Exec(ctx, `
		INSERT INTO person_aggregates (person_id, aggregate_vector, source_count, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (person_id) DO UPDATE
		SET aggregate_vector = EXCLUDED.aggregate_vector,
		    source_count = EXCLUDED.source_count,
		    updated_at = NOW()
	`, personID, *mean, count)
	if err != nil {
		return 0, fmt.Errorf("upsert aggregate: %w", err)
	}

	return count, nil
}

// RebuildAll drops every aggregate and recomputes them from the confirmed
// encodings in one transaction.
func (r *AggregateRepository) RebuildAll(ctx context.Context) ([]domain.AggregateCount, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin rebuild: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM person_aggregates`); err != nil {
		return nil, fmt.Errorf("delete aggregates: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO person_aggregates (person_id, aggregate_vector, source_count, updated_at)
		SELECT person_id, AVG(descriptor), COUNT(*), NOW()
		FROM face_encodings
		WHERE review_state = 'confirmed'
		GROUP BY person_id
	`); err != nil {
		return nil, fmt.Errorf("insert aggregates: %w", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT a.person_id, p.name, a.source_count
		FROM person_aggregates a
		JOIN people p ON p.id = a.person_id
		ORDER BY a.person_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list aggregates: %w", err)
	}

	var counts []domain.AggregateCount
	for rows.Next() {
		var c domain.AggregateCount
		if err := rows.Scan(&c.PersonID, &c.PersonName, &c.SourceCount); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		counts = append(counts, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregates: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit rebuild: %w", err)
	}
	return counts, nil
}

// Candidates returns one reference vector per person with confirmed
// encodings: the stored aggregate, or the live mean of the confirmed
// encodings for persons whose aggregate row does not exist yet.
func (r *AggregateRepository) Candidates(ctx context.Context) ([]domain.Candidate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, a.aggregate_vector
		FROM person_aggregates a
		JOIN people p ON p.id = a.person_id
		UNION ALL
		SELECT p.id, p.name, AVG(f.descriptor)
		FROM face_encodings f
		JOIN people p ON p.id = f.person_id
		WHERE f.review_state = 'confirmed'
		  AND NOT EXISTS (SELECT 1 FROM person_aggregates a WHERE a.person_id = f.person_id)
		GROUP BY p.id, p.name
		ORDER BY 1
	`)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		var (
			c   domain.Candidate
			vec *pgvector.Vector
		)
		if err := rows.Scan(&c.PersonID, &c.PersonName, &vec); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		c.Vector = fromVector(vec)
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}

	return candidates, nil
}
