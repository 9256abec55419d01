package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "admitcli/internal/errors"
	"admitcli/internal/shared/testutil"
)

func TestIsWorkbookName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"scores.xlsx", true},
		{"plan.XLSM", true},
		{"/tmp/计划.xlsx", true},
		{"old.xls", false},
		{"notes.csv", false},
		{"~$scores.xlsx", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWorkbookName(tt.name))
		})
	}
}

func TestFileValidator_ValidateWorkbook(t *testing.T) {
	dir := t.TempDir()
	workbook := filepath.Join(dir, "scores.xlsx")
	require.NoError(t, os.WriteFile(workbook, []byte("x"), 0o644))
	text := filepath.Join(dir, "scores.txt")
	require.NoError(t, os.WriteFile(text, []byte("x"), 0o644))
	folder := filepath.Join(dir, "folder.xlsx")
	require.NoError(t, os.Mkdir(folder, 0o755))

	tests := []struct {
		name     string
		path     string
		wantType apperrors.ErrorType
	}{
		{"readable workbook", workbook, ""},
		{"wrong extension", text, apperrors.ErrTypeValidation},
		{"missing", filepath.Join(dir, "missing.xlsx"), apperrors.ErrTypeNotFound},
		{"directory", folder, apperrors.ErrTypeValidation},
		{"lock file", filepath.Join(dir, "~$scores.xlsx"), apperrors.ErrTypeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			err := NewFileValidator(logger).ValidateWorkbook(tt.path)
			if tt.wantType == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
		})
	}
}

func TestFileValidator_ValidateOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "plan.xlsx")
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	v := NewFileValidator(nil)

	assert.NoError(t, v.ValidateOutput(filepath.Join(dir, "nested", "out.xlsx"), input))
	assert.DirExists(t, filepath.Join(dir, "nested"))

	err := v.ValidateOutput(filepath.Join(dir, "out.csv"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

	err = v.ValidateOutput(input, input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overwrite")

	err = v.ValidateOutput(filepath.Join(blocker, "out.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create output directory")
}

func TestFileValidator_ValidateOutputDirectoryLeavesNoProbe(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewFileValidator(nil).ValidateOutputDirectory(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
