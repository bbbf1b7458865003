package eventstream

import "context"

// Publisher publishes history events to an event stream backend.
type Publisher interface {
	PublishAnalysis(ctx context.Context, event *AnalysisCompletedEvent) error
	PublishTask(ctx context.Context, event *TaskSyncedEvent) error
	Close() error
}
