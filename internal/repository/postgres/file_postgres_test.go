package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"labrooms/internal/model"
)

func fileRows(files ...*model.File) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "room_code", "filename", "storage_key", "url", "category", "content_type", "size", "uploader_id", "created_at"})
	for _, f := range files {
		rows.AddRow(f.ID, f.RoomCode, f.Filename, f.StorageKey, f.URL, f.Category, f.ContentType, f.Size, f.UploaderID, f.CreatedAt)
	}
	return rows
}

func TestFilePostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	file := &model.File{
		ID:          "file-uuid",
		RoomCode:    "AB12CD",
		Filename:    "notes.txt",
		StorageKey:  "rooms/AB12CD/file-uuid.txt",
		Category:    model.FileCategoryText,
		ContentType: "text/plain",
		Size:        123,
		UploaderID:  "member-1",
		CreatedAt:   time.Now().UTC(),
	}

	mock.ExpectQuery("INSERT INTO files").
		WithArgs(file.ID, file.RoomCode, file.Filename, file.StorageKey, file.URL, file.Category, file.ContentType, file.Size, file.UploaderID, file.CreatedAt).
		WillReturnRows(fileRows(file))

	result, err := repo.Create(ctx, file)

	assert.NoError(t, err)
	assert.Equal(t, file.ID, result.ID)
	assert.Equal(t, model.FileCategoryText, result.Category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		file := &model.File{ID: "file-1", RoomCode: "AB12CD", Filename: "scan.pdf", CreatedAt: time.Now()}
		mock.ExpectQuery("SELECT (.+) FROM files WHERE id = ?").
			WithArgs("file-1").
			WillReturnRows(fileRows(file))

		got, err := repo.FindByID(ctx, "file-1")

		assert.NoError(t, err)
		assert.Equal(t, "file-1", got.ID)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM files WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, got)
	})
}

func TestFilePostgres_ListByRoom(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	newer := &model.File{ID: "file-2", RoomCode: "AB12CD", Filename: "b.png", CreatedAt: now}
	older := &model.File{ID: "file-1", RoomCode: "AB12CD", Filename: "a.png", CreatedAt: now.Add(-time.Hour)}

	mock.ExpectQuery("SELECT (.+) FROM files WHERE room_code = ?").
		WithArgs("AB12CD").
		WillReturnRows(fileRows(newer, older))

	files, err := repo.ListByRoom(ctx, "AB12CD")

	assert.NoError(t, err)
	assert.Len(t, files, 2)
	assert.Equal(t, "file-2", files[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM files WHERE id = ?").
			WithArgs("file-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, "file-1"))
	})

	t.Run("missing", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM files WHERE id = ?").
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(ctx, "missing"), sql.ErrNoRows)
	})
}
