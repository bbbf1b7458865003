// Package inmemory provides a map-backed storage driver for tests and
// ephemeral sessions.
package inmemory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/replyscope/replyscope/pkg/storage"
)

// Driver implements storage.Driver using in-memory maps.
type Driver struct {
	mu sync.RWMutex

	// analyses is keyed by record ID
	analyses map[string]*storage.AnalysisRecord

	// tasks is keyed by task ID
	tasks map[string]*storage.TaskSnapshot
}

var _ storage.Driver = (*Driver)(nil)

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		analyses: make(map[string]*storage.AnalysisRecord),
		tasks:    make(map[string]*storage.TaskSnapshot),
	}
}

// SaveAnalysis stores a copy of rec unless its ID is already present.
func (d *Driver) SaveAnalysis(_ context.Context, rec *storage.AnalysisRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.analyses[rec.ID]; ok {
		return nil
	}

	cp := *rec
	d.analyses[rec.ID] = &cp
	return nil
}

// GetAnalysis retrieves an analysis by ID.
func (d *Driver) GetAnalysis(_ context.Context, id string) (*storage.AnalysisRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rec, ok := d.analyses[id]
	if !ok {
		return nil, storage.NotFoundError{ID: id}
	}

	cp := *rec
	return &cp, nil
}

// ListAnalyses returns analyses newest first, optionally for one task.
func (d *Driver) ListAnalyses(_ context.Context, taskID string) ([]*storage.AnalysisRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*storage.AnalysisRecord, 0, len(d.analyses))
	for _, rec := range d.analyses {
		if taskID != "" && rec.TaskID != taskID {
			continue
		}
		cp := *rec
		out = append(out, &cp)
	}

	slices.SortFunc(out, func(a, b *storage.AnalysisRecord) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	return out, nil
}

// PutTask inserts or replaces a task snapshot.
func (d *Driver) PutTask(_ context.Context, snap *storage.TaskSnapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cp := *snap
	d.tasks[snap.TaskID] = &cp
	return nil
}

// ListTasks returns every snapshot ordered by task ID.
func (d *Driver) ListTasks(_ context.Context) ([]*storage.TaskSnapshot, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*storage.TaskSnapshot, 0, len(d.tasks))
	for _, snap := range d.tasks {
		cp := *snap
		out = append(out, &cp)
	}

	slices.SortFunc(out, func(a, b *storage.TaskSnapshot) int {
		return cmp.Compare(a.TaskID, b.TaskID)
	})

	return out, nil
}

// Count returns the number of stored analyses.
func (d *Driver) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.analyses)
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}
