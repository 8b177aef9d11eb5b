package repository

import (
	"context"
	"time"

	"labrooms/internal/model"
)

// RoomRepository defines data access for rooms and their embedded members
// and chat messages. No business logic here — strictly persistence operations.
type RoomRepository interface {
	// Create inserts a new room row and seeds its host member in one
	// transaction. Returns the stored room with the host in Members.
	Create(ctx context.Context, room *model.Room, host *model.Member) (*model.Room, error)

	// FindByID returns a room by its ID, without members.
	FindByID(ctx context.Context, id string) (*model.Room, error)

	// FindByCode returns a room by its code, without members.
	FindByCode(ctx context.Context, code string) (*model.Room, error)

	// List returns a paginated list of rooms matching the allow-listed
	// filter, plus the total row count for that filter.
	List(ctx context.Context, f RoomFilter, pq PageQuery) (*PageResult[model.Room], error)

	// Delete removes a room by ID. Returns sql.ErrNoRows if no row matched.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes all rooms whose expiry is at or before now and
	// returns how many were removed. Members and messages cascade.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)

	// AddMember inserts a member unless one with the same name (compared
	// case-insensitively) already exists in the room. The bool reports
	// whether a row was inserted; on conflict the existing member is
	// returned unchanged.
	AddMember(ctx context.Context, roomID string, m *model.Member) (*model.Member, bool, error)

	// ListMembers returns the room's members in join order.
	ListMembers(ctx context.Context, roomID string) ([]model.Member, error)

	// FindMember returns a member of the room by member ID.
	FindMember(ctx context.Context, roomID, memberID string) (*model.Member, error)

	// AppendMessage inserts a chat message row.
	AppendMessage(ctx context.Context, msg *model.ChatMessage) error

	// ListMessages returns the room's messages oldest first with paging.
	ListMessages(ctx context.Context, roomID string, pq PageQuery) (*PageResult[model.ChatMessage], error)
}

// RoomFilter is the allow-listed set of room list filters. Client input is
// bound to these typed fields only; it is never translated into query
// operators dynamically.
type RoomFilter struct {
	// Name matches rooms whose name contains the value, case-insensitively.
	Name string

	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	ExpiresAfter  *time.Time
	ExpiresBefore *time.Time
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
