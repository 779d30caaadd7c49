package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrFileNotFound is returned when the dataset path does not exist.
	ErrFileNotFound = errors.New("file does not exist")
	// ErrNotRegularFile is returned for directories and special files.
	ErrNotRegularFile = errors.New("not a regular file")
	// ErrEmptyFile is returned for zero-byte files.
	ErrEmptyFile = errors.New("file is empty")
	// ErrFileTooLarge is returned when a file exceeds the configured limit.
	ErrFileTooLarge = errors.New("file exceeds size limit")
	// ErrUnsupportedExtension is returned when the extension is not accepted.
	ErrUnsupportedExtension = errors.New("unsupported file extension")
)

// DatasetExtensions lists the source formats the loader understands.
var DatasetExtensions = []string{".csv", ".xlsx"}

// FileValidator checks input and output paths before the loader and the
// exporters touch them.
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

// ValidateFile checks that path exists, is a regular file and is readable.
func (v *FileValidator) ValidateFile(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return nil, fmt.Errorf("%s: %w", path, ErrFileNotFound)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		v.logger.Error("Path is not a regular file",
			slog.String("path", path))
		return nil, fmt.Errorf("%s: %w", path, ErrNotRegularFile)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	return info, nil
}

// ValidateDatasetFile checks a sales source file. maxBytes <= 0 disables
// the size limit.
func (v *FileValidator) ValidateDatasetFile(path string, maxBytes int64) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !accepted(ext) {
		v.logger.Error("Unsupported dataset extension",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("%s (extension %q): %w", path, ext, ErrUnsupportedExtension)
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Refusing temporary spreadsheet lock file",
			slog.String("file", path))
		return fmt.Errorf("%s is a temporary spreadsheet file: %w", path, ErrNotRegularFile)
	}

	info, err := v.ValidateFile(path)
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		v.logger.Error("Dataset file is empty",
			slog.String("file", path))
		return fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		v.logger.Error("Dataset file exceeds size limit",
			slog.String("file", path),
			slog.Int64("size", info.Size()),
			slog.Int64("limit", maxBytes))
		return fmt.Errorf("%s is %d bytes (limit %d): %w", path, info.Size(), maxBytes, ErrFileTooLarge)
	}

	v.logger.Debug("Dataset file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Verify it's writable by creating a probe file
	probe := filepath.Join(dir, ".write_test")
	file, err := os.Create(probe)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(probe)

	v.logger.Info("Output directory validated",
		slog.String("directory", dir))
	return nil
}

func accepted(ext string) bool {
	for _, e := range DatasetExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
