package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/askdocs/askdocs/internal/domain"
)

// CreateFile inserts a file record and fills in its ID and timestamps.
func (s *Store) CreateFile(ctx context.Context, f *domain.File) error {
	now := time.Now().UTC()
	f.CreatedAt = now
	f.UpdatedAt = now

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO files (name, type, size, status, chunk_count, error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Name, f.Type, f.Size, f.Status, f.ChunkCount, f.Error, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting file: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading file id: %w", err)
	}
	f.ID = id
	return nil
}

// GetFile returns the file with the given id.
func (s *Store) GetFile(ctx context.Context, id int64) (domain.File, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, type, size, status, chunk_count, error, created_at, updated_at
		 FROM files WHERE id = ?`, id)

	f, err := scanFile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.File{}, domain.ErrNotFound
		}
		return domain.File{}, fmt.Errorf("selecting file %d: %w", id, err)
	}
	return f, nil
}

// ListFiles returns all files ordered by creation time.
func (s *Store) ListFiles(ctx context.Context) ([]domain.File, error) {
	return s.listFiles(ctx,
		`SELECT id, name, type, size, status, chunk_count, error, created_at, updated_at
		 FROM files ORDER BY id`)
}

// ListFilesByStatus returns files with the given indexing status.
func (s *Store) ListFilesByStatus(ctx context.Context, status domain.IndexingStatus) ([]domain.File, error) {
	return s.listFiles(ctx,
		`SELECT id, name, type, size, status, chunk_count, error, created_at, updated_at
		 FROM files WHERE status = ? ORDER BY id`, status)
}

func (s *Store) listFiles(ctx context.Context, query string, args ...any) ([]domain.File, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("selecting files: %w", err)
	}
	defer rows.Close()

	var files []domain.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning file: %w", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating files: %w", err)
	}
	return files, nil
}

// UpdateFileStatus transitions a file's indexing status.
// errMsg is cleared on success statuses and recorded on StatusError.
func (s *Store) UpdateFileStatus(ctx context.Context, id int64, status domain.IndexingStatus, chunkCount int, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE files SET status = ?, chunk_count = ?, error = ?, updated_at = ? WHERE id = ?`,
		status, chunkCount, errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating file %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update of file %d: %w", id, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteFile removes a file record.
func (s *Store) DeleteFile(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting file %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete of file %d: %w", id, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (domain.File, error) {
	var f domain.File
	err := row.Scan(&f.ID, &f.Name, &f.Type, &f.Size, &f.Status,
		&f.ChunkCount, &f.Error, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}
