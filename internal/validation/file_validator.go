package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apierrors "finsight/internal/errors"
)

// UploadValidator checks incoming uploads against the configured
// extension allowlist and size limit before anything touches disk.
type UploadValidator struct {
	logger            *slog.Logger
	allowedExtensions map[string]bool
	maxFileSize       int64
}

// NewUploadValidator creates a validator. Extensions are normalized to
// lowercase with a leading dot.
func NewUploadValidator(logger *slog.Logger, allowedExtensions []string, maxFileSize int64) *UploadValidator {
	if logger == nil {
		logger = slog.Default()
	}
	allowed := make(map[string]bool, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = true
	}
	return &UploadValidator{
		logger:            logger,
		allowedExtensions: allowed,
		maxFileSize:       maxFileSize,
	}
}

// MaxFileSize returns the configured upload size limit in bytes.
func (v *UploadValidator) MaxFileSize() int64 {
	return v.maxFileSize
}

// ValidateUpload checks the client-supplied filename and declared size.
// It returns an *apierrors.APIError suitable for rendering directly.
func (v *UploadValidator) ValidateUpload(filename string, size int64) error {
	base := filepath.Base(filename)
	if base == "" || base == "." || base == ".." || base != filename {
		v.logger.Warn("Rejected upload with unsafe filename",
			slog.String("filename", filename))
		return apierrors.ErrValidation("filename", "filename must not contain path separators")
	}
	if strings.ContainsAny(base, "\x00") {
		return apierrors.ErrValidation("filename", "filename contains invalid characters")
	}
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Rejected temporary office file",
			slog.String("filename", filename))
		return apierrors.ErrValidation("filename", "temporary office files are not accepted")
	}

	ext := strings.ToLower(filepath.Ext(base))
	if !v.allowedExtensions[ext] {
		v.logger.Warn("Rejected upload with unsupported extension",
			slog.String("filename", filename),
			slog.String("extension", ext))
		return apierrors.ErrUnsupportedFormat.WithDetails(
			fmt.Sprintf("extension %q is not supported", ext))
	}

	if size <= 0 {
		return apierrors.ErrValidation("file", "uploaded file is empty")
	}
	if size > v.maxFileSize {
		v.logger.Warn("Rejected oversized upload",
			slog.String("filename", filename),
			slog.Int64("size", size),
			slog.Int64("limit", v.maxFileSize))
		return apierrors.ErrFileTooLarge.WithDetails(
			fmt.Sprintf("file is %d bytes, limit is %d bytes", size, v.maxFileSize))
	}

	return nil
}

// ValidateStoredFile checks that a previously stored upload still exists
// on disk and is a readable regular file.
func (v *UploadValidator) ValidateStoredFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Stored file missing from disk",
			slog.String("path", path))
		return fmt.Errorf("stored file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("stat stored file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("stored file %s is empty", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("stored file %s is not readable: %w", path, err)
	}
	f.Close()
	return nil
}

// EnsureUploadDirectory creates the upload directory if needed and
// verifies it is writable.
func (v *UploadValidator) EnsureUploadDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create upload directory %s: %w", dir, err)
	}

	probe := filepath.Join(dir, ".write_test")
	f, err := os.Create(probe)
	if err != nil {
		v.logger.Error("Upload directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("upload directory %s is not writable: %w", dir, err)
	}
	f.Close()
	os.Remove(probe)
	return nil
}
