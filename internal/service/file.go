package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"labrooms/internal/model"
	"labrooms/internal/relay"
	"labrooms/internal/repository"
	"labrooms/internal/storage"
)

var (
	ErrReaderNil        = errors.New("reader is nil")
	ErrFilenameRequired = errors.New("filename is required")
	ErrFileTooLarge     = errors.New("file exceeds the size limit")
	ErrFileNotFound     = errors.New("file not found")
	ErrNotRoomMember    = errors.New("requester is not a member of the room")
	ErrNotFileOwner     = errors.New("requester is neither the uploader nor the room host")
)

// DefaultMaxUploadBytes is the upload ceiling applied when no override is
// configured. A file of exactly this size is accepted.
const DefaultMaxUploadBytes int64 = 50 << 20

const presignExpiry = 24 * time.Hour

// Notifier pushes server-originated events to a room's relay channel.
// The relay hub implements it.
type Notifier interface {
	Notify(roomCode, event string, data any)
}

// FileService defines the use cases for room-scoped file handling.
type FileService interface {
	// Upload stores the content in object storage under a room-scoped key,
	// persists metadata, and emits a file_uploaded relay event. The
	// uploader must be a member of the room.
	Upload(ctx context.Context, roomCode string, r io.Reader, filename, contentType string, size int64, uploaderID string) (*model.File, error)

	// List returns the room's files newest first. Members only.
	List(ctx context.Context, roomCode, requesterID string) ([]model.File, error)

	// Delete removes the object and its metadata. Allowed for the uploader
	// and the room host.
	Delete(ctx context.Context, fileID, requesterID string) error
}

// fileService is a concrete implementation of FileService.
type fileService struct {
	store    storage.Storage
	files    repository.FileRepository
	rooms    repository.RoomRepository
	notifier Notifier
	maxBytes int64
}

// NewFileService constructs a new FileService. maxBytes <= 0 applies
// DefaultMaxUploadBytes.
func NewFileService(store storage.Storage, files repository.FileRepository, rooms repository.RoomRepository, notifier Notifier, maxBytes int64) FileService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &fileService{
		store:    store,
		files:    files,
		rooms:    rooms,
		notifier: notifier,
		maxBytes: maxBytes,
	}
}

func (s *fileService) Upload(ctx context.Context, roomCode string, r io.Reader, filename, contentType string, size int64, uploaderID string) (*model.File, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	if filename == "" {
		return nil, ErrFilenameRequired
	}
	if size > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	member, err := s.requireMember(ctx, roomCode, uploaderID)
	if err != nil {
		return nil, err
	}

	// Stored name is UUID + original extension under a room-scoped folder.
	ext := filepath.Ext(filename)
	key := filepath.ToSlash(filepath.Join("rooms", roomCode, uuid.NewString()+ext))

	objInfo, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": filename,
			"uploader":          member.Name,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	// Download URL is best effort; metadata stays valid without it.
	url, err := s.store.PresignGet(ctx, key, presignExpiry)
	if err != nil {
		logService("warn", "file_presign_failed", map[string]any{"key": key, "error": err.Error()})
		url = ""
	}

	file := &model.File{
		ID:          uuid.NewString(),
		RoomCode:    roomCode,
		Filename:    filename,
		StorageKey:  objInfo.Key,
		URL:         url,
		Category:    ClassifyFile(contentType, filename),
		ContentType: contentType,
		Size:        objInfo.Size,
		UploaderID:  uploaderID,
		CreatedAt:   time.Now().UTC(),
	}
	stored, err := s.files.Create(ctx, file)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}

	if s.notifier != nil {
		s.notifier.Notify(roomCode, relay.EventFileUploaded, stored)
	}
	return stored, nil
}

func (s *fileService) List(ctx context.Context, roomCode, requesterID string) ([]model.File, error) {
	if _, err := s.requireMember(ctx, roomCode, requesterID); err != nil {
		return nil, err
	}
	return s.files.ListByRoom(ctx, roomCode)
}

func (s *fileService) Delete(ctx context.Context, fileID, requesterID string) error {
	if fileID == "" {
		return ErrIDRequired
	}

	file, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrFileNotFound
		}
		return err
	}

	if file.UploaderID != requesterID {
		// Not the uploader: the requester must be the room host. When the
		// room itself is already gone only the uploader may delete.
		room, err := s.rooms.FindByCode(ctx, file.RoomCode)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFileOwner
			}
			return err
		}
		member, err := s.rooms.FindMember(ctx, room.ID, requesterID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFileOwner
			}
			return err
		}
		if member.Role != model.RoleHost {
			return ErrNotFileOwner
		}
	}

	// Delete from storage first; if this fails, keep the metadata row so
	// the object reference is not lost.
	if err := s.store.Delete(ctx, file.StorageKey); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	if err := s.files.Delete(ctx, fileID); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	if s.notifier != nil {
		s.notifier.Notify(file.RoomCode, relay.EventFileDeleted, map[string]string{
			"id":       file.ID,
			"filename": file.Filename,
		})
	}
	return nil
}

// requireMember resolves the room by code and checks the requester's
// membership.
func (s *fileService) requireMember(ctx context.Context, roomCode, requesterID string) (*model.Member, error) {
	room, err := s.rooms.FindByCode(ctx, roomCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if requesterID == "" {
		return nil, ErrNotRoomMember
	}
	member, err := s.rooms.FindMember(ctx, room.ID, requesterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotRoomMember
		}
		return nil, err
	}
	return member, nil
}
