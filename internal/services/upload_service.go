package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"finsight/internal/dataset"
	apierrors "finsight/internal/errors"
	"finsight/internal/store"
	"finsight/internal/validation"
	"finsight/pkg/contracts/domain"
)

// FileStore is the slice of the file repository the upload service needs.
type FileStore interface {
	Insert(ctx context.Context, file *domain.FileRecord) error
	Get(ctx context.Context, id string) (*domain.FileRecord, error)
	List(ctx context.Context, limit, offset int) ([]*domain.FileRecord, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
}

// CacheInvalidator drops cached results for a file.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, fileID string)
}

// UploadService stores uploaded files on disk under generated ids and
// tracks their metadata in the store.
type UploadService struct {
	files       FileStore
	validator   *validation.UploadValidator
	invalidator CacheInvalidator
	uploadDir   string
	logger      *slog.Logger
}

// NewUploadService creates an upload service.
func NewUploadService(files FileStore, validator *validation.UploadValidator, invalidator CacheInvalidator, uploadDir string, logger *slog.Logger) *UploadService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadService{
		files:       files,
		validator:   validator,
		invalidator: invalidator,
		uploadDir:   uploadDir,
		logger:      logger,
	}
}

// MaxUploadBytes returns the upload size limit enforced on request bodies.
func (s *UploadService) MaxUploadBytes() int64 {
	return s.validator.MaxFileSize()
}

// Upload validates and stores one uploaded file. The stored name is the
// generated id plus the original extension; the client's filename is
// kept as metadata only.
func (s *UploadService) Upload(ctx context.Context, filename string, size int64, content io.Reader) (*domain.FileRecord, error) {
	if err := s.validator.ValidateUpload(filename, size); err != nil {
		return nil, err
	}

	format, err := dataset.DetectFormat(filename)
	if err != nil {
		return nil, apierrors.ErrUnsupportedFormat.WithDetails(
			fmt.Sprintf("no parser for %q", filepath.Ext(filename)))
	}

	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(filename))
	storagePath := filepath.Join(s.uploadDir, id+ext)

	written, err := s.writeFile(storagePath, content)
	if err != nil {
		return nil, apierrors.FileSystemError("upload", err)
	}
	if written == 0 {
		os.Remove(storagePath)
		return nil, apierrors.ErrValidation("file", "uploaded file is empty")
	}
	// The declared multipart size is client-controlled; re-check what was
	// actually written.
	if written > s.validator.MaxFileSize() {
		os.Remove(storagePath)
		return nil, apierrors.ErrFileTooLarge.WithDetails(
			fmt.Sprintf("file is %d bytes, limit is %d bytes", written, s.validator.MaxFileSize()))
	}

	record := &domain.FileRecord{
		ID:           id,
		OriginalName: filename,
		StoragePath:  storagePath,
		Format:       string(format),
		SizeBytes:    written,
		UploadedAt:   time.Now().UTC(),
	}
	if err := s.files.Insert(ctx, record); err != nil {
		os.Remove(storagePath)
		return nil, fmt.Errorf("record upload: %w", err)
	}

	s.logger.Info("File uploaded",
		slog.String("file_id", id),
		slog.String("original_name", filename),
		slog.String("format", string(format)),
		slog.Int64("size_bytes", written))
	return record, nil
}

// Get returns the metadata for one file.
func (s *UploadService) Get(ctx context.Context, id string) (*domain.FileRecord, error) {
	record, err := s.files.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apierrors.FileNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("look up file %s: %w", id, err)
	}
	return record, nil
}

// List returns stored files newest first along with the total count.
func (s *UploadService) List(ctx context.Context, limit, offset int) ([]*domain.FileRecord, int, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	files, err := s.files.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list files: %w", err)
	}
	total, err := s.files.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count files: %w", err)
	}
	return files, total, nil
}

// Delete removes a file: its cached results, its rows (results cascade),
// and finally the bytes on disk.
func (s *UploadService) Delete(ctx context.Context, id string) error {
	record, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	s.invalidator.Invalidate(ctx, id)

	if err := s.files.Delete(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete file record %s: %w", id, err)
	}

	if err := os.Remove(record.StoragePath); err != nil && !os.IsNotExist(err) {
		// metadata is gone; losing the orphaned bytes is recoverable
		s.logger.Warn("Stored file could not be removed",
			slog.String("file_id", id),
			slog.String("path", record.StoragePath),
			slog.String("error", err.Error()))
	}

	s.logger.Info("File deleted", slog.String("file_id", id))
	return nil
}

func (s *UploadService) writeFile(path string, content io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(f, content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return 0, err
	}
	return written, nil
}
