package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "aqicli/internal/errors"
)

// FileValidator checks run inputs and outputs before any work starts
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateRegistryFile requires a readable .xlsx or .csv file. Failures are
// structural.
func (v *FileValidator) ValidateRegistryFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return apperrors.NewStructuralError("registry unreadable", err).WithContext("path", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".csv" {
		v.logger.Error("Registry is neither a workbook nor a CSV file",
			slog.String("file", path),
			slog.String("extension", ext))
		return apperrors.NewStructuralError(fmt.Sprintf("unsupported registry extension %q", ext), nil).
			WithContext("path", path)
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		return apperrors.NewStructuralError("registry is a temporary Excel file", nil).
			WithContext("path", path)
	}
	return nil
}

// ValidateStationDirectory counts station series in dir. A missing or empty
// directory is only logged: every station then fails on its own.
func (v *FileValidator) ValidateStationDirectory(dir, ext string) int {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		v.logger.Warn("Station directory not found",
			slog.String("directory", dir))
		return 0
	}

	count, err := v.CountFiles(dir, "*"+ext)
	if err != nil {
		return 0
	}
	if count == 0 {
		v.logger.Warn("No station files found",
			slog.String("directory", dir),
			slog.String("pattern", "*"+ext))
		return 0
	}

	v.logger.Info("Station directory validated",
		slog.String("directory", dir),
		slog.Int("files_found", count))
	return count
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("failed to create output directory "+dir, err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("output directory "+dir+" is not writable", err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// CountFiles counts regular files matching a pattern in a directory
func (v *FileValidator) CountFiles(dir string, pattern string) (int, error) {
	fullPattern := filepath.Join(dir, pattern)
	matches, err := filepath.Glob(fullPattern)
	if err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}

	fileCount := 0
	for _, match := range matches {
		info, err := os.Stat(match)
		if err == nil && !info.IsDir() {
			fileCount++
		}
	}
	return fileCount, nil
}
