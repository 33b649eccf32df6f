package files

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"aqicli/internal/config"
	apperrors "aqicli/internal/errors"
)

// Manager provides file management operations for a run
type Manager struct {
	paths *config.Paths
}

// NewManager creates a new file manager instance
func NewManager(paths *config.Paths) *Manager {
	return &Manager{paths: paths}
}

// FileExists checks if a regular file exists at the given path
func (m *Manager) FileExists(path string) bool {
	info, err := os.Stat(path)
	exists := err == nil && !info.IsDir()

	slog.Debug("FileExists check",
		slog.String("path", path),
		slog.Bool("exists", exists))

	return exists
}

// StationFile returns the path of a station's time-series file, or a
// NOT_FOUND error when it does not exist.
func (m *Manager) StationFile(fileName string) (string, error) {
	path := m.paths.GetStationPath(fileName)
	if !m.FileExists(path) {
		return path, apperrors.NewNotFoundError("station file "+path).
			WithContext("file_name", fileName)
	}
	return path, nil
}

// EnsureDirectory creates a directory and its parents
func (m *Manager) EnsureDirectory(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory "+path, err)
	}
	return nil
}

// WriteAtomic streams content into a temp file next to path and renames it
// into place once write succeeds, so readers never see a partial file.
func (m *Manager) WriteAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := m.EnsureDirectory(dir); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return apperrors.NewStorageError("failed to create temp file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperrors.NewStorageError("failed to sync "+path, err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewStorageError("failed to close "+path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return apperrors.NewStorageError("failed to chmod "+path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return apperrors.NewStorageError("failed to move "+path+" into place", err)
	}

	slog.Debug("Wrote file", slog.String("path", path))
	return nil
}

// Paths returns the resolved paths this manager works on
func (m *Manager) Paths() *config.Paths {
	return m.paths
}
