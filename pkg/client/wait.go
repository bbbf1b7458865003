package client

import (
	"context"
	"fmt"
	"time"
)

// DefaultPollInterval is the progress polling cadence of WaitForTask.
const DefaultPollInterval = time.Second

// TaskFailedError is returned by WaitForTask when the task ends as failed.
type TaskFailedError struct {
	TaskID  string
	Message string
}

func (e *TaskFailedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("task %s failed", e.TaskID)
	}
	return fmt.Sprintf("task %s failed: %s", e.TaskID, e.Message)
}

// WaitForTask polls Progress until the task completes or fails. onProgress,
// when set, sees every poll result including the last one. Polling errors end
// the wait.
func (c *Client) WaitForTask(ctx context.Context, taskID string, interval time.Duration, onProgress func(*Progress)) (*Progress, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		p, err := c.Progress(ctx, taskID)
		if err != nil {
			return nil, err
		}

		if onProgress != nil {
			onProgress(p)
		}

		switch p.Status {
		case StatusCompleted:
			return p, nil
		case StatusFailed:
			return p, &TaskFailedError{TaskID: taskID, Message: p.Error}
		}

		select {
		case <-ctx.Done():
			return p, ctx.Err()
		case <-ticker.C:
		}
	}
}
