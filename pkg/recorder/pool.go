// Package recorder provides an asynchronous worker pool for persisting finished
// analyses and task snapshots using the provided storage.Driver and announcing
// them on the provided eventstream.Publisher.
//
// The pool decouples storage and publishing from the streaming hot path so a
// slow database or broker never stalls rendering of analysis text.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/replyscope/replyscope/pkg/eventstream"
	"github.com/replyscope/replyscope/pkg/logger"
	"github.com/replyscope/replyscope/pkg/storage"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
	defaultJobTimeout        = 30 * time.Second
)

// Job is a unit of work for the pool. Exactly one of Analysis or Task is set.
type Job struct {
	Analysis *storage.AnalysisRecord

	// Duration is how long the analysis took to stream.
	Duration time.Duration

	Task *storage.TaskSnapshot
}

func (j Job) kind() string {
	switch {
	case j.Analysis != nil:
		return "analysis"
	case j.Task != nil:
		return "task"
	default:
		return "empty"
	}
}

func (j Job) taskID() string {
	switch {
	case j.Analysis != nil:
		return j.Analysis.TaskID
	case j.Task != nil:
		return j.Task.TaskID
	default:
		return ""
	}
}

// Config is the configuration options for the pool.
type Config struct {
	// Driver is the storage backend for persisting history.
	Driver storage.Driver

	// Publisher is the optional event publisher. Nil disables publishing.
	Publisher eventstream.Publisher

	// Source is stamped on every published event.
	Source eventstream.EventSource

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// JobTimeout bounds each storage and publish call (defaults to 30s).
	JobTimeout time.Duration

	Logger *slog.Logger
}

// Pool processes history jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *slog.Logger

	stored  atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.Driver == nil {
		return nil, errors.New("recorder requires a storage driver")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.JobTimeout == 0 {
		c.JobTimeout = defaultJobTimeout
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: log,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job being dropped
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"kind", job.kind(),
			"task_id", job.taskID(),
		)
		return true
	default:
		p.dropped.Add(1)
		p.logger.Error("job not queued, queue full, job dropped",
			"kind", job.kind(),
			"task_id", job.taskID(),
		)
		return false
	}
}

// EnqueueWait submits a job, waiting for queue space until ctx is done. Batch
// callers use it so a burst larger than the queue is not dropped.
func (p *Pool) EnqueueWait(ctx context.Context, job Job) error {
	select {
	case p.queue <- job:
		p.logger.Debug("job queued",
			"kind", job.kind(),
			"task_id", job.taskID(),
		)
		return nil
	case <-ctx.Done():
		p.dropped.Add(1)
		return fmt.Errorf("queueing %s job for %s: %w", job.kind(), job.taskID(), ctx.Err())
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Enqueue must not be called after Close.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// Stats reports how many jobs were stored, failed and dropped so far.
func (p *Pool) Stats() (stored, failed, dropped int64) {
	return p.stored.Load(), p.failed.Load(), p.dropped.Load()
}

// worker is the inner worker thread that continuously pulls jobs off the jobs queue
func (p *Pool) worker(id uint) {
	defer p.wg.Done()
	p.logger.Debug("worker started", "worker_id", id)

	for job := range p.queue {
		p.processJob(job)
	}

	p.logger.Debug("recorder worker stopped", "worker_id", id)
}

// processJob persists the job and then publishes its event. A publish failure
// is logged but does not count the job as failed.
func (p *Pool) processJob(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.JobTimeout)
	defer cancel()

	var err error
	switch {
	case job.Analysis != nil:
		err = p.recordAnalysis(ctx, job)
	case job.Task != nil:
		err = p.recordTask(ctx, job.Task)
	default:
		err = errors.New("job carries neither an analysis nor a task")
	}

	if err != nil {
		p.failed.Add(1)
		p.logger.Error("async history storage failed",
			"kind", job.kind(),
			"task_id", job.taskID(),
			"error", err,
		)
		return
	}

	p.stored.Add(1)
}

func (p *Pool) recordAnalysis(ctx context.Context, job Job) error {
	rec := job.Analysis
	if err := p.config.Driver.SaveAnalysis(ctx, rec); err != nil {
		return fmt.Errorf("storing analysis: %w", err)
	}

	p.logger.Info("analysis stored",
		"id", rec.ID,
		"task_id", rec.TaskID,
		"template_id", rec.TemplateID,
	)

	if p.config.Publisher == nil {
		return nil
	}

	event := eventstream.NewAnalysisCompletedEvent(p.config.Source, eventstream.AnalysisMeta{
		ID:         rec.ID,
		TaskID:     rec.TaskID,
		VideoTitle: rec.VideoTitle,
		TemplateID: rec.TemplateID,
		Protocol:   rec.Protocol,
		Characters: len([]rune(rec.Content)),
		DurationMs: job.Duration.Milliseconds(),
	})
	if err := p.config.Publisher.PublishAnalysis(ctx, event); err != nil {
		p.logger.Warn("failed to publish analysis event",
			"id", rec.ID,
			"error", err,
		)
	}

	return nil
}

func (p *Pool) recordTask(ctx context.Context, snap *storage.TaskSnapshot) error {
	if snap.SyncedAt.IsZero() {
		snap.SyncedAt = time.Now().UTC()
	}

	if err := p.config.Driver.PutTask(ctx, snap); err != nil {
		return fmt.Errorf("storing task snapshot: %w", err)
	}

	p.logger.Debug("task snapshot stored",
		"task_id", snap.TaskID,
		"status", snap.Status,
	)

	if p.config.Publisher == nil {
		return nil
	}

	event := eventstream.NewTaskSyncedEvent(p.config.Source, eventstream.TaskMeta{
		TaskID:       snap.TaskID,
		VideoID:      snap.VideoID,
		VideoTitle:   snap.VideoTitle,
		Status:       snap.Status,
		CommentCount: snap.CommentCount,
	})
	if err := p.config.Publisher.PublishTask(ctx, event); err != nil {
		p.logger.Warn("failed to publish task event",
			"task_id", snap.TaskID,
			"error", err,
		)
	}

	return nil
}
