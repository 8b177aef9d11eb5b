package postgres

import (
	"context"
	"database/sql"

	"labrooms/internal/model"
	"labrooms/internal/repository"
)

// FilePostgres is a PostgreSQL implementation of repository.FileRepository.
type FilePostgres struct {
	db *sql.DB
}

// NewFilePostgres creates a new FilePostgres repository.
func NewFilePostgres(db *sql.DB) *FilePostgres {
	return &FilePostgres{db: db}
}

var _ repository.FileRepository = (*FilePostgres)(nil)

// Create inserts a new file row and returns the stored record.
func (r *FilePostgres) Create(ctx context.Context, f *model.File) (*model.File, error) {
	const q = `
		INSERT INTO files (id, room_code, filename, storage_key, url, category, content_type, size, uploader_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, room_code, filename, storage_key, url, category, content_type, size, uploader_id, created_at
	`
	row := r.db.QueryRowContext(ctx, q,
		f.ID,
		f.RoomCode,
		f.Filename,
		f.StorageKey,
		f.URL,
		f.Category,
		f.ContentType,
		f.Size,
		f.UploaderID,
		f.CreatedAt,
	)
	return scanFile(row)
}

// FindByID fetches a single file by its ID.
func (r *FilePostgres) FindByID(ctx context.Context, id string) (*model.File, error) {
	const q = `
		SELECT id, room_code, filename, storage_key, url, category, content_type, size, uploader_id, created_at
		FROM files
		WHERE id = $1
	`
	return scanFile(r.db.QueryRowContext(ctx, q, id))
}

// ListByRoom returns a room's files newest first.
func (r *FilePostgres) ListByRoom(ctx context.Context, roomCode string) ([]model.File, error) {
	const q = `
		SELECT id, room_code, filename, storage_key, url, category, content_type, size, uploader_id, created_at
		FROM files
		WHERE room_code = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, q, roomCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := make([]model.File, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

// Delete removes a file by ID. Returns sql.ErrNoRows if nothing matched.
func (r *FilePostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM files WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanFile(row rowScanner) (*model.File, error) {
	var f model.File
	if err := row.Scan(
		&f.ID,
		&f.RoomCode,
		&f.Filename,
		&f.StorageKey,
		&f.URL,
		&f.Category,
		&f.ContentType,
		&f.Size,
		&f.UploaderID,
		&f.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}
