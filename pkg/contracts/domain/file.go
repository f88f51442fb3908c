package domain

import (
	"time"
)

// FileRecord represents an uploaded artifact and where it lives on disk.
// Records are immutable after creation; deletion removes the record, the
// stored content and every derived result.
type FileRecord struct {
	ID           string    `json:"file_id" db:"id" validate:"required,uuid"`
	OriginalName string    `json:"filename" db:"original_name" validate:"required"`
	StoragePath  string    `json:"-" db:"storage_path"`
	Format       string    `json:"file_type" db:"format"`
	SizeBytes    int64     `json:"file_size" db:"size_bytes"`
	UploadedAt   time.Time `json:"uploaded_at" db:"uploaded_at"`
}

// FileStatus represents the lifecycle state reported to clients.
type FileStatus string

const (
	FileStatusUploaded FileStatus = "uploaded"
	FileStatusDeleted  FileStatus = "deleted"
)
