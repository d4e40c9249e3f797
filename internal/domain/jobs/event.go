package jobs

import (
	"time"

	"github.com/google/uuid"
)

type EventLevel string

const (
	EventLevelInfo  EventLevel = "info"
	EventLevelError EventLevel = "error"
)

// Event is a transient progress/log message for one run. It is never persisted.
// Exactly one Event with Complete set is emitted per run, after its terminal status
// is stored.
type Event struct {
	RunID           uuid.UUID  `json:"run_id"`
	Level           EventLevel `json:"level"`
	Message         string     `json:"message"`
	Step            string     `json:"step,omitempty"`
	ProgressCurrent int        `json:"progress_current"`
	ProgressTotal   int        `json:"progress_total"`
	Complete        bool       `json:"complete,omitempty"`
	Status          RunStatus  `json:"status,omitempty"`
	Timestamp       time.Time  `json:"timestamp"`
}

// CompleteEvent builds the terminal event for a run.
func CompleteEvent(runID uuid.UUID, status RunStatus, message string) Event {
	level := EventLevelInfo
	if status == RunStatusFailed {
		level = EventLevelError
	}
	return Event{
		RunID:     runID,
		Level:     level,
		Message:   message,
		Complete:  true,
		Status:    status,
		Timestamp: time.Now().UTC(),
	}
}
