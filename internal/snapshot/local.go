package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Local writes snapshots into a directory.
type Local struct {
	baseDir string
}

// NewLocal validates the directory (creating it when missing) and returns a
// Local store.
func NewLocal(baseDir string) (*Local, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("snapshot base directory is required")
	}
	info, err := os.Stat(baseDir)
	switch {
	case os.IsNotExist(err):
		if mkErr := os.MkdirAll(baseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create snapshot directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("stat snapshot directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("snapshot path %s is not a directory", baseDir)
	}
	return &Local{baseDir: baseDir}, nil
}

// Put writes the snapshot and returns a file:// URI.
func (l *Local) Put(_ context.Context, name string, html []byte) (string, error) {
	full := filepath.Join(l.baseDir, filepath.Base(name))
	if err := os.WriteFile(full, html, 0o600); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return "file://" + full, nil
}
