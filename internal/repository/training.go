package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/familyalbum/faces/internal/domain"
)

type TrainingRepository struct {
	pool PgxPool
}

func NewTrainingRepository(pool PgxPool) *TrainingRepository {
	return &TrainingRepository{pool: pool}
}

func (r *TrainingRepository) CreateRun(ctx context.Context, run *domain.TrainingRun) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	run.Status = domain.RunRunning

	err := r.pool.QueryRow(ctx, `
		INSERT INTO training_runs (id, person_id, status, photos_total, started_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING started_at
	`, run.ID, run.PersonID, string(run.Status), run.PhotosTotal).Scan(&run.StartedAt)
	if err != nil {
		if fkErr := foreignKeyError(err); fkErr != nil {
			return fkErr
		}
		return fmt.Errorf("create training run: %w", err)
	}
	return nil
}

func (r *TrainingRepository) RecordResult(ctx context.Context, runID uuid.UUID, o domain.PhotoOutcome) error {
	var reason *string
	if o.Reason != "" {
		reason = &o.Reason
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO training_results (run_id, photo_id, status, reason, faces_detected, face_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, runID, o.PhotoID, string(o.Status), reason, o.FacesDetected, o.FaceID)
	if err != nil {
		return fmt.Errorf("record training result: %w", err)
	}
	return nil
}

func (r *TrainingRepository) FinishRun(ctx context.Context, run *domain.TrainingRun) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE training_runs
		SET status = $2, photos_total = $3, photos_bound = $4, photos_failed = $5, finished_at = NOW()
		WHERE id = $1
		RETURNING finished_at
	`, run.ID, string(run.Status), run.PhotosTotal, run.PhotosBound, run.PhotosFailed).Scan(&run.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrTrainingRunNotFound
	}
	if err != nil {
		return fmt.Errorf("finish training run: %w", err)
	}
	return nil
}

// GetRun loads a run with its per-photo results in processing order.
func (r *TrainingRepository) GetRun(ctx context.Context, id uuid.UUID) (*domain.TrainingRun, error) {
	var (
		run    domain.TrainingRun
		status string
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, person_id, status, photos_total, photos_bound, photos_failed, started_at, finished_at
		FROM training_runs
		WHERE id = $1
	`, id).Scan(
		&run.ID,
		&run.PersonID,
		&status,
		&run.PhotosTotal,
		&run.PhotosBound,
		&run.PhotosFailed,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTrainingRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get training run: %w", err)
	}
	run.Status = domain.TrainingRunStatus(status)

	rows, err := r.pool.Query(ctx, `
		SELECT photo_id, status, COALESCE(reason, ''), faces_detected, face_id
		FROM training_results
		WHERE run_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("list training results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			o       domain.PhotoOutcome
			oStatus string
		)
		if err := rows.Scan(&o.PhotoID, &oStatus, &o.Reason, &o.FacesDetected, &o.FaceID); err != nil {
			return nil, fmt.Errorf("scan training result: %w", err)
		}
		o.Status = domain.PhotoOutcomeStatus(oStatus)
		run.Results = append(run.Results, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate training results: %w", err)
	}

	return &run, nil
}
