package repository

import (
	"context"

	"labrooms/internal/model"
)

// FileRepository defines data access for uploaded file metadata.
type FileRepository interface {
	// Create inserts a new file record and returns the stored row.
	Create(ctx context.Context, f *model.File) (*model.File, error)

	// FindByID returns a file by its ID.
	FindByID(ctx context.Context, id string) (*model.File, error)

	// ListByRoom returns a room's files newest first.
	ListByRoom(ctx context.Context, roomCode string) ([]model.File, error)

	// Delete removes a file by ID. Returns sql.ErrNoRows if no row matched.
	Delete(ctx context.Context, id string) error
}
