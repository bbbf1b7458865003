// Package eventstream defines the events replyscope emits after local history
// changes, and the Publisher that ships them to a stream backend.
package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeAnalysisCompleted is emitted after a streamed analysis is saved.
	EventTypeAnalysisCompleted = "replyscope.analysis.completed"

	// EventTypeTaskSynced is emitted after a task snapshot is saved.
	EventTypeTaskSynced = "replyscope.task.synced"
)

// EventSource identifies the client that produced an event.
type EventSource struct {
	Host   string `json:"host,omitempty"`
	Target string `json:"target"`
}

// AnalysisCompletedEvent is a transport-neutral payload for a saved analysis.
type AnalysisCompletedEvent struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	EventID       string       `json:"event_id"`
	EmittedAt     time.Time    `json:"emitted_at"`
	Source        EventSource  `json:"source"`
	Analysis      AnalysisMeta `json:"analysis"`
}

// AnalysisMeta summarizes the saved analysis. The text itself stays local.
type AnalysisMeta struct {
	ID         string `json:"id"`
	TaskID     string `json:"task_id"`
	VideoTitle string `json:"video_title,omitempty"`
	TemplateID string `json:"template_id"`
	Protocol   string `json:"protocol"`
	Characters int    `json:"characters"`
	DurationMs int64  `json:"duration_ms"`
}

// NewAnalysisCompletedEvent stamps meta with a fresh event ID and time.
func NewAnalysisCompletedEvent(source EventSource, meta AnalysisMeta) *AnalysisCompletedEvent {
	return &AnalysisCompletedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeAnalysisCompleted,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Analysis:      meta,
	}
}

// TaskSyncedEvent is a transport-neutral payload for a saved task snapshot.
type TaskSyncedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	Task          TaskMeta    `json:"task"`
}

// TaskMeta is the synced state of one task.
type TaskMeta struct {
	TaskID       string `json:"task_id"`
	VideoID      string `json:"video_id"`
	VideoTitle   string `json:"video_title,omitempty"`
	Status       string `json:"status"`
	CommentCount int    `json:"comment_count"`
}

// NewTaskSyncedEvent stamps meta with a fresh event ID and time.
func NewTaskSyncedEvent(source EventSource, meta TaskMeta) *TaskSyncedEvent {
	return &TaskSyncedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeTaskSynced,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Task:          meta,
	}
}
