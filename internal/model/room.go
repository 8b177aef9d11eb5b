package model

import "time"

// Member roles within a room. The host is the creator seeded at room
// creation and is the only member allowed to delete other members' files.
const (
	RoleHost   = "host"
	RoleMember = "member"
)

// Chat message types. System messages are generated by the server
// (join notices and the like), normal messages come from clients.
const (
	MessageTypeNormal = "message"
	MessageTypeSystem = "system"
)

// Room is a time-boxed collaborative session identified by a short code.
// The code is globally unique and immutable after creation. Rooms past
// ExpiresAt are removed by the background sweeper.
type Room struct {
	ID        string            `json:"id"`
	Code      string            `json:"code"`
	Name      string            `json:"name"`
	Password  string            `json:"-"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt time.Time         `json:"expires_at"`

	// Members is populated by lookups that load the membership list.
	Members []Member `json:"members,omitempty"`
}

// HasPassword reports whether joining the room requires a password.
func (r *Room) HasPassword() bool { return r.Password != "" }

// Member is a named participant of a room. Display names are unique
// case-insensitively within a room; members are never removed.
type Member struct {
	ID       string    `json:"id"`
	RoomID   string    `json:"-"`
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	Online   bool      `json:"online"`
	JoinedAt time.Time `json:"joined_at"`
}

// ChatMessage is an append-only chat entry owned by its room.
type ChatMessage struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"-"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"timestamp"`
}
