// Package sqlitepath resolves where the local SQLite history database lives.
package sqlitepath

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFileName is the history database created inside the config dir.
const DefaultFileName = "replyscope.db"

// ResolveSQLitePath returns the history database path. Precedence: override,
// the REPLYSCOPE_SQLITE environment variable, an existing database in a known
// location, then DefaultFileName inside dotDir.
func ResolveSQLitePath(override, dotDir string) (string, error) {
	if override != "" {
		return override, nil
	}

	if envPath := strings.TrimSpace(os.Getenv("REPLYSCOPE_SQLITE")); envPath != "" {
		return envPath, nil
	}

	for _, candidate := range sqliteCandidates(dotDir) {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if dotDir == "" {
		return "", errors.New("could not find replyscope SQLite database; pass --sqlite")
	}

	return filepath.Join(dotDir, DefaultFileName), nil
}

func sqliteCandidates(dotDir string) []string {
	var candidates []string

	if dotDir != "" {
		candidates = append(candidates, filepath.Join(dotDir, DefaultFileName))
	}

	if xdgHome := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); xdgHome != "" {
		candidates = append(candidates, filepath.Join(xdgHome, "replyscope", DefaultFileName))
	}

	return candidates
}
