package ws

import (
	"strings"
	"time"
)

type EventType string

const (
	EventFaceProposed      EventType = "review.proposed"
	EventFaceConfirmed     EventType = "review.confirmed"
	EventFaceRejected      EventType = "review.rejected"
	EventFacesCleared      EventType = "review.cleared"
	EventTrainingProgress  EventType = "training.progress"
	EventTrainingCompleted EventType = "training.completed"
	EventAggregatesRebuilt EventType = "training.aggregates_rebuilt"
)

// Topic is the part of the event type before the first dot. Clients may
// subscribe to a single topic.
func (t EventType) Topic() string {
	topic, _, _ := strings.Cut(string(t), ".")
	return topic
}

type Event struct {
	Type      EventType `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}
