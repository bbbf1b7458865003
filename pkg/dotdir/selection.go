package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	selectionFile = "selection.json"
)

// Selection is the persisted "current task" of the CLI.
type Selection struct {
	// TaskID is the selected scrape task.
	TaskID string `json:"task_id"`

	// VideoID and VideoTitle are cached for display only.
	VideoID    string `json:"video_id,omitempty"`
	VideoTitle string `json:"video_title,omitempty"`

	// TemplateID is the last analysis template used with the task.
	TemplateID string `json:"template_id,omitempty"`

	SelectedAt time.Time `json:"selected_at"`
}

// LoadSelection loads the selection from a target .replyscope/selection.json.
// Returns nil, nil if nothing is selected.
// If overrideDir is non-empty, it is used instead of the default location.
func (m *Manager) LoadSelection(overrideDir string) (*Selection, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, selectionFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading selection: %w", err)
	}

	sel := &Selection{}
	if err := json.Unmarshal(data, sel); err != nil {
		return nil, fmt.Errorf("parsing selection: %w", err)
	}

	return sel, nil
}

// SaveSelection persists the selection to a target .replyscope/selection.json.
func (m *Manager) SaveSelection(sel *Selection, overrideDir string) error {
	if sel == nil {
		return errors.New("cannot save nil selection")
	}
	if sel.TaskID == "" {
		return errors.New("cannot save selection without a task id")
	}

	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	if sel.SelectedAt.IsZero() {
		sel.SelectedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(sel, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling selection: %w", err)
	}

	path := filepath.Join(dir, selectionFile)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing selection: %w", err)
	}

	return nil
}

// ClearSelection removes the selection file.
// Returns nil if the file doesn't exist (already cleared).
func (m *Manager) ClearSelection(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, selectionFile)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing selection: %w", err)
	}

	return nil
}

// ResolveTaskID returns explicit when set, otherwise the selected task.
func (m *Manager) ResolveTaskID(explicit, overrideDir string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	sel, err := m.LoadSelection(overrideDir)
	if err != nil {
		return "", err
	}
	if sel == nil {
		return "", errors.New(`no task given and none selected (run "replyscope use <task-id>")`)
	}

	return sel.TaskID, nil
}
