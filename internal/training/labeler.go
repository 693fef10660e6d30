// Package training binds detected faces to tagged people using the order of
// each photo's tag list.
package training

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/familyalbum/faces/internal/domain"
	"github.com/familyalbum/faces/internal/photo"
	"github.com/familyalbum/faces/internal/provider"
	"github.com/familyalbum/faces/internal/repository"
)

const DefaultMaxFaces = 4

type PhotoSource interface {
	GetPerson(ctx context.Context, id int64) (*domain.Person, error)
	TrainingPhotos(ctx context.Context, f repository.TrainingPhotoFilter) ([]domain.TrainingPhoto, error)
}

// EncodingWriter stores a pre-confirmed encoding together with its tag and
// aggregate updates. It returns domain.ErrEmbeddingExists when the person
// is already represented on the photo.
type EncodingWriter interface {
	AddConfirmed(ctx context.Context, enc *domain.FaceEncoding) (*domain.ReviewOutcome, error)
}

type RunStore interface {
	CreateRun(ctx context.Context, run *domain.TrainingRun) error
	RecordResult(ctx context.Context, runID uuid.UUID, o domain.PhotoOutcome) error
	FinishRun(ctx context.Context, run *domain.TrainingRun) error
	GetRun(ctx context.Context, id uuid.UUID) (*domain.TrainingRun, error)
}

type Request struct {
	PersonID int64
	// PhotoIDs restricts the run to these photos. Empty selects a sample of
	// the person's tagged photos.
	PhotoIDs []int64
	// MaxPhotos caps the automatic sample. Zero means SampleSize decides.
	MaxPhotos int
}

type Progress struct {
	RunID     uuid.UUID           `json:"runId"`
	PersonID  int64               `json:"personId"`
	Processed int                 `json:"processed"`
	Total     int                 `json:"total"`
	Outcome   domain.PhotoOutcome `json:"outcome"`
}

// ProgressFunc is called after each photo. It must not block for long.
type ProgressFunc func(Progress)

type Labeler struct {
	photos   PhotoSource
	images   photo.Store
	detector provider.FaceDetector
	writer   EncodingWriter
	runs     RunStore
	logger   *slog.Logger
	maxFaces int
}

func NewLabeler(
	photos PhotoSource,
	images photo.Store,
	detector provider.FaceDetector,
	writer EncodingWriter,
	runs RunStore,
	logger *slog.Logger,
) *Labeler {
	return &Labeler{
		photos:   photos,
		images:   images,
		detector: detector,
		writer:   writer,
		runs:     runs,
		logger:   logger.With("component", "training"),
		maxFaces: DefaultMaxFaces,
	}
}

// WithMaxFaces sets the detection count above which a photo is skipped.
func (l *Labeler) WithMaxFaces(n int) *Labeler {
	if n > 0 {
		l.maxFaces = n
	}
	return l
}

// Select returns the photos a run for req would process.
func (l *Labeler) Select(ctx context.Context, req Request) ([]domain.TrainingPhoto, error) {
	if len(req.PhotoIDs) > 0 {
		photos, err := l.photos.TrainingPhotos(ctx, repository.TrainingPhotoFilter{PhotoIDs: req.PhotoIDs})
		if err != nil {
			return nil, domain.Unavailable(err)
		}
		return photos, nil
	}

	photos, err := l.photos.TrainingPhotos(ctx, repository.TrainingPhotoFilter{
		PersonID:  req.PersonID,
		MaxTagged: MaxTaggedPeople,
	})
	if err != nil {
		return nil, domain.Unavailable(err)
	}

	size := SampleSize(len(photos))
	if req.MaxPhotos > 0 && req.MaxPhotos < size {
		size = req.MaxPhotos
	}
	return Spread(photos, size), nil
}

// Train labels every selected photo for the person and records the run.
// Per-photo failures are recorded and never stop the batch; a cancelled
// context does, and the run is then marked failed.
func (l *Labeler) Train(ctx context.Context, req Request, progress ProgressFunc) (*domain.TrainingRun, error) {
	if _, err := l.photos.GetPerson(ctx, req.PersonID); err != nil {
		return nil, domain.Unavailable(err)
	}

	photos, err := l.Select(ctx, req)
	if err != nil {
		return nil, err
	}

	run := &domain.TrainingRun{PersonID: req.PersonID, PhotosTotal: len(photos)}
	if err := l.runs.CreateRun(ctx, run); err != nil {
		return nil, domain.Unavailable(err)
	}

	logger := l.logger.With(slog.String("run_id", run.ID.String()), slog.Int64("person_id", req.PersonID))
	logger.InfoContext(ctx, "training run started", slog.Int("photos", len(photos)))

	run.Results = make([]domain.PhotoOutcome, 0, len(photos))
	for i, p := range photos {
		if err := ctx.Err(); err != nil {
			run.Status = domain.RunFailed
			l.finish(context.WithoutCancel(ctx), logger, run)
			return run, err
		}

		outcome := l.LabelPhoto(ctx, req.PersonID, p)
		if outcome.Succeeded() {
			run.PhotosBound++
		} else {
			run.PhotosFailed++
			logger.DebugContext(ctx, "photo not bound",
				slog.Int64("photo_id", p.PhotoID),
				slog.String("reason", outcome.Reason),
			)
		}
		run.Results = append(run.Results, outcome)

		if err := l.runs.RecordResult(ctx, run.ID, outcome); err != nil {
			logger.WarnContext(ctx, "record training result failed",
				slog.Int64("photo_id", p.PhotoID),
				slog.String("error", err.Error()),
			)
		}
		if progress != nil {
			progress(Progress{
				RunID:     run.ID,
				PersonID:  req.PersonID,
				Processed: i + 1,
				Total:     len(photos),
				Outcome:   outcome,
			})
		}
	}

	run.Status = domain.RunCompleted
	if err := l.finish(ctx, logger, run); err != nil {
		return nil, domain.Unavailable(err)
	}
	return run, nil
}

func (l *Labeler) finish(ctx context.Context, logger *slog.Logger, run *domain.TrainingRun) error {
	if err := l.runs.FinishRun(ctx, run); err != nil {
		logger.ErrorContext(ctx, "finish training run failed", slog.String("error", err.Error()))
		return err
	}
	logger.InfoContext(ctx, "training run finished",
		slog.String("status", string(run.Status)),
		slog.Int("bound", run.PhotosBound),
		slog.Int("failed", run.PhotosFailed),
	)
	return nil
}

// Run returns a recorded run with its per-photo results.
func (l *Labeler) Run(ctx context.Context, id uuid.UUID) (*domain.TrainingRun, error) {
	run, err := l.runs.GetRun(ctx, id)
	if err != nil {
		return nil, domain.Unavailable(err)
	}
	return run, nil
}

// LabelPhoto binds the person to the detection whose left-to-right rank
// equals the person's position in the photo's tag list. This assumes tags
// were entered left to right, which is not always true.
func (l *Labeler) LabelPhoto(ctx context.Context, personID int64, p domain.TrainingPhoto) domain.PhotoOutcome {
	outcome := domain.PhotoOutcome{PhotoID: p.PhotoID, Status: domain.OutcomeFailed}

	image, err := l.images.Load(ctx, p.FileName)
	if err != nil {
		outcome.Reason = fmt.Sprintf("load image: %v", err)
		return outcome
	}

	detections, err := l.detector.Detect(ctx, image)
	if err != nil {
		outcome.Reason = fmt.Sprintf("detect faces: %v", err)
		return outcome
	}
	outcome.FacesDetected = len(detections)

	switch {
	case len(detections) == 0:
		outcome.Reason = domain.ReasonNoFaces
		return outcome
	case len(detections) > l.maxFaces:
		outcome.Reason = domain.ReasonTooManyFaces
		return outcome
	}

	sort.SliceStable(detections, func(i, j int) bool {
		return detections[i].BoundingBox.Left < detections[j].BoundingBox.Left
	})

	pos := p.PositionOf(personID)
	if pos < 0 || pos >= len(detections) {
		outcome.Reason = domain.ReasonPositionMismatch
		return outcome
	}

	d := detections[pos]
	box := d.BoundingBox
	enc := &domain.FaceEncoding{
		PhotoID:             p.PhotoID,
		PersonID:            &personID,
		Descriptor:          d.Descriptor,
		BoundingBox:         &box,
		DetectionConfidence: d.Confidence,
	}

	_, err = l.writer.AddConfirmed(ctx, enc)
	switch {
	case errors.Is(err, domain.ErrEmbeddingExists):
		outcome.Status = domain.OutcomeRepresented
	case err != nil:
		outcome.Reason = fmt.Sprintf("store encoding: %v", err)
	default:
		outcome.Status = domain.OutcomeBound
		id := enc.ID
		outcome.FaceID = &id
	}
	return outcome
}
