package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kinds of events an export run emits
type EventType string

const (
	EventDatasetExported EventType = "dataset.exported"
	EventRunCompleted    EventType = "run.completed"
)

const (
	eventSource  = "difficulty-export"
	eventVersion = "1.0"
)

// ExportEvent is the envelope for every published event
type ExportEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// DatasetExportedEvent is published after a dataset's export file is replaced
type DatasetExportedEvent struct {
	RunID   string `json:"run_id"`
	Dataset string `json:"dataset"`
	Path    string `json:"path"`
	Scale   string `json:"scale"`
	Entries int    `json:"entries"`
}

// RunCompletedEvent summarises one engine invocation
type RunCompletedEvent struct {
	RunID           string            `json:"run_id"`
	ReadOnly        bool              `json:"read_only"`
	RecordsScanned  int               `json:"records_scanned"`
	RecordsSkipped  int               `json:"records_skipped"`
	DatasetsUpdated int               `json:"datasets_updated"`
	Scales          map[string]string `json:"scales"`
	Switches        []string          `json:"switches"`
}

// NewExportEvent wraps a payload in an envelope with a fresh id
func NewExportEvent(eventType EventType, data interface{}) *ExportEvent {
	return &ExportEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

// GenerateEventID returns a random UUID string
func GenerateEventID() string {
	return uuid.NewString()
}
