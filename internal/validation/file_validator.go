// Package validation checks workbook paths before a pass touches them.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "admitcli/internal/errors"
)

// WorkbookExtensions are the accepted input extensions.
var WorkbookExtensions = []string{".xlsx", ".xlsm"}

// IsWorkbookName reports whether name has a workbook extension and is not an
// Excel lock file.
func IsWorkbookName(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "~$") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	for _, e := range WorkbookExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// FileValidator provides the file checks shared by the commands
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "validation")),
	}
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return apperrors.NewNotFoundError(path)
	}
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrTypeValidation, fmt.Sprintf("failed to stat file %s", path), err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewAppError(apperrors.ErrTypeValidation, fmt.Sprintf("file %s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateWorkbook checks that path is a readable .xlsx or .xlsm workbook
// and not a lock file left by Excel.
func (v *FileValidator) ValidateWorkbook(path string) error {
	if !IsWorkbookName(path) {
		v.logger.Error("File is not a workbook",
			slog.String("file", path),
			slog.String("extension", filepath.Ext(path)))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is not an .xlsx workbook", path))
	}
	return v.ValidateFile(path)
}

// ValidateOutput checks that path names an .xlsx file that does not
// overwrite any of inputs, and that its directory exists or can be created
// and is writable.
func (v *FileValidator) ValidateOutput(path string, inputs ...string) error {
	if strings.ToLower(filepath.Ext(path)) != ".xlsx" {
		return apperrors.NewAppValidationError(fmt.Sprintf("output %s must end in .xlsx", path))
	}
	out, err := filepath.Abs(path)
	if err != nil {
		return apperrors.NewAppError(apperrors.ErrTypeValidation, "invalid output path", err)
	}
	for _, in := range inputs {
		if abs, err := filepath.Abs(in); err == nil && abs == out {
			return apperrors.NewAppValidationError(fmt.Sprintf("output %s would overwrite an input", path))
		}
	}
	return v.ValidateOutputDirectory(filepath.Dir(path))
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewAppError(apperrors.ErrTypeValidation, fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	// Verify it's writable by creating a probe file
	probe, err := os.CreateTemp(dir, ".write_test*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewAppError(apperrors.ErrTypeValidation, fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	probe.Close()
	os.Remove(probe.Name())

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}
