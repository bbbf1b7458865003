package storage

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// AnalysisRecord is one completed analysis as kept in local history.
type AnalysisRecord struct {
	ID           string    `json:"id"`
	TaskID       string    `json:"task_id"`
	VideoTitle   string    `json:"video_title,omitempty"`
	TemplateID   string    `json:"template_id"`
	CustomPrompt string    `json:"custom_prompt,omitempty"`
	Protocol     string    `json:"protocol"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewAnalysisRecord returns a record with a fresh ID and creation time.
func NewAnalysisRecord(taskID, templateID, content string) *AnalysisRecord {
	return &AnalysisRecord{
		ID:         uuid.NewString(),
		TaskID:     taskID,
		TemplateID: templateID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
}

// Validate checks the fields every driver requires.
func (r *AnalysisRecord) Validate() error {
	switch {
	case r == nil:
		return errors.New("cannot store nil analysis")
	case r.ID == "":
		return errors.New("analysis id is required")
	case r.TaskID == "":
		return errors.New("analysis task id is required")
	}
	return nil
}

// TaskSnapshot is the last synced state of a backend task.
type TaskSnapshot struct {
	TaskID       string    `json:"task_id"`
	VideoID      string    `json:"video_id"`
	VideoTitle   string    `json:"video_title"`
	Status       string    `json:"status"`
	CommentCount int       `json:"comment_count"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	SyncedAt     time.Time `json:"synced_at"`
}

// Validate checks the fields every driver requires.
func (s *TaskSnapshot) Validate() error {
	switch {
	case s == nil:
		return errors.New("cannot store nil task snapshot")
	case s.TaskID == "":
		return errors.New("task snapshot id is required")
	}
	return nil
}
