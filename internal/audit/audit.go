package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// EventType defines the type of auditable event
type EventType string

const (
	EventEncodingAdded     EventType = "FACE_ENCODING_ADDED"
	EventEmbeddingAdded    EventType = "FACE_EMBEDDING_ADDED"
	EventFacesDetected     EventType = "FACES_DETECTED"
	EventFaceConfirmed     EventType = "FACE_CONFIRMED"
	EventFaceRejected      EventType = "FACE_REJECTED"
	EventEncodingsCleared  EventType = "FACE_ENCODINGS_CLEARED"
	EventTrainingCompleted EventType = "TRAINING_COMPLETED"
	EventAggregatesRebuilt EventType = "AGGREGATES_REBUILT"
)

// Event is one change to the face identity data that a gallery owner may
// want to trace later.
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType EventType         `json:"event_type"`
	FaceID    string            `json:"face_id,omitempty"`
	PhotoID   int64             `json:"photo_id,omitempty"`
	PersonID  *int64            `json:"person_id,omitempty"`
	Detector  string            `json:"detector,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type Logger interface {
	Log(ctx context.Context, event Event) error
}

// SlogLogger implements Logger using slog
type SlogLogger struct {
	logger *slog.Logger
}

func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{
		logger: logger.With("component", "audit"),
	}
}

func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to marshal audit event",
			slog.String("error", err.Error()),
			slog.String("event_type", string(event.EventType)),
		)
		return err
	}

	attrs := []any{
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.EventType)),
		slog.Bool("success", event.Success),
		slog.String("event_data", string(eventJSON)),
	}
	if event.FaceID != "" {
		attrs = append(attrs, slog.String("face_id", event.FaceID))
	}
	if event.PersonID != nil {
		attrs = append(attrs, slog.Int64("person_id", *event.PersonID))
	}

	l.logger.InfoContext(ctx, "audit_event", attrs...)
	return nil
}

// NoOpLogger discards events.
type NoOpLogger struct{}

func (l *NoOpLogger) Log(_ context.Context, _ Event) error {
	return nil
}
