package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finsight/pkg/contracts/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("record not found")

// FileRepository stores metadata for uploaded files. The bytes
// themselves live on disk under the upload directory.
type FileRepository struct {
	db *sql.DB
}

// Insert stores a new file record.
func (r *FileRepository) Insert(ctx context.Context, file *domain.FileRecord) error {
	query := `
		INSERT INTO files (id, original_name, storage_path, format, size_bytes, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		file.ID, file.OriginalName, file.StoragePath, file.Format, file.SizeBytes, file.UploadedAt)
	if err != nil {
		return fmt.Errorf("insert file record: %w", err)
	}
	return nil
}

// Get returns the file record with the given id, or ErrNotFound.
func (r *FileRepository) Get(ctx context.Context, id string) (*domain.FileRecord, error) {
	query := `
		SELECT id, original_name, storage_path, format, size_bytes, uploaded_at
		FROM files
		WHERE id = $1
	`
	var file domain.FileRecord
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&file.ID, &file.OriginalName, &file.StoragePath, &file.Format, &file.SizeBytes, &file.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select file record: %w", err)
	}
	return &file, nil
}

// List returns file records newest first, up to limit, skipping offset.
func (r *FileRepository) List(ctx context.Context, limit, offset int) ([]*domain.FileRecord, error) {
	query := `
		SELECT id, original_name, storage_path, format, size_bytes, uploaded_at
		FROM files
		ORDER BY uploaded_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list file records: %w", err)
	}
	defer rows.Close()

	var files []*domain.FileRecord
	for rows.Next() {
		var file domain.FileRecord
		if err := rows.Scan(&file.ID, &file.OriginalName, &file.StoragePath, &file.Format, &file.SizeBytes, &file.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan file record: %w", err)
		}
		files = append(files, &file)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file records: %w", err)
	}
	return files, nil
}

// Count returns the total number of stored files.
func (r *FileRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM files`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count file records: %w", err)
	}
	return count, nil
}

// Delete removes the file record; associated results cascade. Returns
// ErrNotFound when no row matched.
func (r *FileRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete file record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
