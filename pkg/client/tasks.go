package client

import (
	"context"
	"net/http"
	"strings"
)

// Tasks lists every known task.
func (c *Client) Tasks(ctx context.Context) ([]Task, error) {
	var out []Task
	if err := c.doJSON(ctx, http.MethodGet, "/api/v2/tasks", nil, &out, "failed to load tasks"); err != nil {
		return nil, err
	}
	return out, nil
}

// Task fetches one task with a short preview of its comments.
func (c *Client) Task(ctx context.Context, taskID string) (*Task, error) {
	var out Task
	if err := c.doJSON(ctx, http.MethodGet, taskPath("/api/v2/tasks", taskID), nil, &out, "failed to load task"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Templates lists the analysis templates, including the "custom" entry.
func (c *Client) Templates(ctx context.Context) ([]Template, error) {
	var out []Template
	if err := c.doJSON(ctx, http.MethodGet, "/api/v2/templates", nil, &out, "failed to load templates"); err != nil {
		return nil, err
	}
	return out, nil
}

// Preview renders a template against a sample of the task's comments.
func (c *Client) Preview(ctx context.Context, req PreviewRequest) (*Preview, error) {
	var out Preview
	if err := c.doJSON(ctx, http.MethodPost, "/api/v2/preview", req, &out, "failed to preview prompt"); err != nil {
		return nil, err
	}
	return &out, nil
}

// TaskCounts are the per-status counters shown above a task list.
type TaskCounts struct {
	Total     int
	Running   int
	Completed int
	Failed    int
}

// CountByStatus tallies tasks by status. Unknown statuses only count toward
// Total.
func CountByStatus(tasks []Task) TaskCounts {
	counts := TaskCounts{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case StatusRunning:
			counts.Running++
		case StatusCompleted:
			counts.Completed++
		case StatusFailed:
			counts.Failed++
		}
	}
	return counts
}

// FilterTasks returns the tasks with the given status. An empty status or
// "all" returns every task.
func FilterTasks(tasks []Task, status string) []Task {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" || status == "all" {
		return tasks
	}

	filtered := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == status {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// FindTemplate returns the template with the given id, or nil.
func FindTemplate(templates []Template, id string) *Template {
	for i := range templates {
		if templates[i].ID == id {
			return &templates[i]
		}
	}
	return nil
}
