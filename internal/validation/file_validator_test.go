package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "finsight/internal/errors"
)

func newValidator(t *testing.T) *UploadValidator {
	t.Helper()
	return NewUploadValidator(nil, []string{".csv", ".tsv", ".xlsx", ".xls", ".pdf", ".txt"}, 1024)
}

func TestValidateUpload(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name     string
		filename string
		size     int64
		wantCode string
	}{
		{"valid csv", "report.csv", 100, ""},
		{"valid uppercase extension", "REPORT.XLSX", 100, ""},
		{"path traversal", "../etc/passwd.csv", 100, "VALIDATION_FAILED"},
		{"nested path", "dir/report.csv", 100, "VALIDATION_FAILED"},
		{"office temp file", "~$budget.xlsx", 100, "VALIDATION_FAILED"},
		{"unsupported extension", "image.png", 100, "UNSUPPORTED_FORMAT"},
		{"no extension", "README", 100, "UNSUPPORTED_FORMAT"},
		{"empty file", "report.csv", 0, "VALIDATION_FAILED"},
		{"too large", "report.csv", 2048, "FILE_TOO_LARGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateUpload(tt.filename, tt.size)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			var apiErr *apierrors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
		})
	}
}

func TestValidateUploadExtensionNormalization(t *testing.T) {
	// Extensions configured without leading dots still match.
	v := NewUploadValidator(nil, []string{"csv", " TXT "}, 1024)

	assert.NoError(t, v.ValidateUpload("data.csv", 10))
	assert.NoError(t, v.ValidateUpload("notes.txt", 10))
	assert.Error(t, v.ValidateUpload("book.xlsx", 10))
}

func TestValidateStoredFile(t *testing.T) {
	v := newValidator(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "stored.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644))
	assert.NoError(t, v.ValidateStoredFile(path))

	assert.Error(t, v.ValidateStoredFile(filepath.Join(dir, "missing.csv")))
	assert.Error(t, v.ValidateStoredFile(dir))

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	err := v.ValidateStoredFile(empty)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "empty"))
}

func TestEnsureUploadDirectory(t *testing.T) {
	v := newValidator(t)
	dir := filepath.Join(t.TempDir(), "uploads", "nested")

	require.NoError(t, v.EnsureUploadDirectory(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
