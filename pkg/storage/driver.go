// Package storage persists the local analysis history and task snapshots.
package storage

import (
	"context"
)

// Driver defines the interface for persisting and retrieving analysis records
// and task snapshots in a storage backend.
type Driver interface {
	// SaveAnalysis stores a finished analysis. Saving a record whose ID already
	// exists is a no-op.
	SaveAnalysis(ctx context.Context, rec *AnalysisRecord) error

	// GetAnalysis retrieves an analysis by its ID.
	GetAnalysis(ctx context.Context, id string) (*AnalysisRecord, error)

	// ListAnalyses returns analyses newest first. An empty taskID lists all.
	ListAnalyses(ctx context.Context, taskID string) ([]*AnalysisRecord, error)

	// PutTask inserts or replaces the snapshot for snap.TaskID.
	PutTask(ctx context.Context, snap *TaskSnapshot) error

	// ListTasks returns every snapshot ordered by task ID.
	ListTasks(ctx context.Context) ([]*TaskSnapshot, error)

	// Close closes the store and releases any resources.
	Close() error
}
