package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"labrooms/internal/model"
	"labrooms/internal/repository"
)

var (
	ErrIDRequired         = errors.New("id is required")
	ErrRoomNameRequired   = errors.New("room name is required")
	ErrMemberNameRequired = errors.New("member name is required")
	ErrRoomNotFound       = errors.New("room not found")
	ErrWrongPassword      = errors.New("wrong room password")
	ErrCodeSpaceExhausted = errors.New("could not generate a unique room code")
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6

	// Collisions are resolved by retrying against the unique index; the
	// bound turns a pathological collision streak into an explicit error
	// instead of a spin.
	maxCodeAttempts = 10

	defaultPageLimit = 50
)

// expiryPresets maps the client-facing expiry choices to durations.
// Unrecognized presets fall back to the shortest one.
var expiryPresets = map[string]time.Duration{
	"2h": 2 * time.Hour,
	"1d": 24 * time.Hour,
	"7d": 7 * 24 * time.Hour,
	"1y": 365 * 24 * time.Hour,
}

const defaultExpiry = 2 * time.Hour

// RoomListResult is the service-level DTO for paginated rooms.
type RoomListResult struct {
	Items []model.Room `json:"data"`
	Total int          `json:"total"`
}

// MessageListResult is the service-level DTO for paginated chat messages.
type MessageListResult struct {
	Items []model.ChatMessage `json:"data"`
	Total int                 `json:"total"`
}

// RoomService defines the use cases for room lifecycle, membership and chat
// history.
type RoomService interface {
	// Create generates a unique room code, stores the room and seeds the
	// membership list with the host.
	Create(ctx context.Context, name, hostName, expiryPreset, password string, metadata map[string]string) (*model.Room, error)

	// GetByID returns a room by ID, without members.
	GetByID(ctx context.Context, id string) (*model.Room, error)

	// GetByCode returns a room by code with its membership list loaded.
	GetByCode(ctx context.Context, code string) (*model.Room, error)

	// List returns rooms matching the allow-listed filter.
	List(ctx context.Context, f repository.RoomFilter, limit, offset int) (*RoomListResult, error)

	// Delete hard-deletes a room by ID.
	Delete(ctx context.Context, id string) error

	// Join adds a member to the room. Joining again under a name that
	// differs only in case returns the existing member unchanged.
	Join(ctx context.Context, code, name, password string) (*model.Member, error)

	// Members returns the room's membership list in join order.
	Members(ctx context.Context, code string) ([]model.Member, error)

	// Messages returns the room's chat history, oldest first.
	Messages(ctx context.Context, code string, limit, offset int) (*MessageListResult, error)

	// SaveChatMessage persists a relayed chat message against the room.
	SaveChatMessage(ctx context.Context, code string, msg *model.ChatMessage) error

	// RunSweeper deletes expired rooms on the given interval until the
	// context is cancelled.
	RunSweeper(ctx context.Context, interval time.Duration)
}

// roomService is a concrete implementation of RoomService.
type roomService struct {
	repo repository.RoomRepository
}

// NewRoomService constructs a new RoomService.
func NewRoomService(repo repository.RoomRepository) RoomService {
	return &roomService{repo: repo}
}

func (s *roomService) Create(ctx context.Context, name, hostName, expiryPreset, password string, metadata map[string]string) (*model.Room, error) {
	name = strings.TrimSpace(name)
	hostName = strings.TrimSpace(hostName)
	if name == "" {
		return nil, ErrRoomNameRequired
	}
	if hostName == "" {
		return nil, ErrMemberNameRequired
	}

	now := time.Now().UTC()
	ttl, ok := expiryPresets[expiryPreset]
	if !ok {
		ttl = defaultExpiry
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := generateCode()
		if err != nil {
			return nil, fmt.Errorf("generate room code: %w", err)
		}

		room := &model.Room{
			ID:        uuid.NewString(),
			Code:      code,
			Name:      name,
			Password:  password,
			Metadata:  metadata,
			CreatedAt: now,
			ExpiresAt: now.Add(ttl),
		}
		host := &model.Member{
			ID:       uuid.NewString(),
			Name:     hostName,
			Role:     model.RoleHost,
			Online:   true,
			JoinedAt: now,
		}

		stored, err := s.repo.Create(ctx, room, host)
		if errors.Is(err, repository.ErrDuplicateCode) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return stored, nil
	}
	return nil, ErrCodeSpaceExhausted
}

func (s *roomService) GetByID(ctx context.Context, id string) (*model.Room, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

func (s *roomService) GetByCode(ctx context.Context, code string) (*model.Room, error) {
	room, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.ListMembers(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	room.Members = members
	return room, nil
}

func (s *roomService) List(ctx context.Context, f repository.RoomFilter, limit, offset int) (*RoomListResult, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	res, err := s.repo.List(ctx, f, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &RoomListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *roomService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRoomNotFound
		}
		return err
	}
	return nil
}

func (s *roomService) Join(ctx context.Context, code, name, password string) (*model.Member, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMemberNameRequired
	}

	room, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if room.HasPassword() && room.Password != password {
		return nil, ErrWrongPassword
	}

	member := &model.Member{
		ID:       uuid.NewString(),
		Name:     name,
		Role:     model.RoleMember,
		Online:   true,
		JoinedAt: time.Now().UTC(),
	}
	stored, _, err := s.repo.AddMember(ctx, room.ID, member)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *roomService) Members(ctx context.Context, code string) ([]model.Member, error) {
	room, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, room.ID)
}

func (s *roomService) Messages(ctx context.Context, code string, limit, offset int) (*MessageListResult, error) {
	room, err := s.findByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	res, err := s.repo.ListMessages(ctx, room.ID, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &MessageListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *roomService) SaveChatMessage(ctx context.Context, code string, msg *model.ChatMessage) error {
	room, err := s.findByCode(ctx, code)
	if err != nil {
		return err
	}
	msg.RoomID = room.ID
	return s.repo.AppendMessage(ctx, msg)
}

// RunSweeper gives rooms TTL-index semantics: anything past its expiry is
// removed on the next tick, cascading members and messages.
func (s *roomService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.repo.DeleteExpired(ctx, time.Now().UTC())
			if err != nil {
				logService("error", "room_sweep_failed", map[string]any{"error": err.Error()})
				continue
			}
			if n > 0 {
				logService("info", "room_sweep", map[string]any{"rooms_deleted": n})
			}
		}
	}
}

func (s *roomService) findByCode(ctx context.Context, code string) (*model.Room, error) {
	if code == "" {
		return nil, ErrRoomNotFound
	}
	room, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

// generateCode draws codeLength characters from the fixed alphabet.
// Bytes at or above the largest multiple of the alphabet size are rejected
// so every character is drawn with equal probability.
func generateCode() (string, error) {
	const limit = byte(256 - 256%len(codeAlphabet))

	code := make([]byte, 0, codeLength)
	buf := make([]byte, codeLength)
	for len(code) < codeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			code = append(code, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(code) == codeLength {
				break
			}
		}
	}
	return string(code), nil
}

func logService(level, event string, fields map[string]any) {
	entry := map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"level":     level,
		"component": "service",
		"event":     event,
	}
	for k, v := range fields {
		entry[k] = v
	}
	if b, err := json.Marshal(entry); err == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
