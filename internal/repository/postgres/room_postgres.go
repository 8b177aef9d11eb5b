package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"labrooms/internal/model"
	"labrooms/internal/repository"
)

// RoomPostgres is a PostgreSQL implementation of repository.RoomRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type RoomPostgres struct {
	db *sql.DB
}

// NewRoomPostgres creates a new RoomPostgres repository.
func NewRoomPostgres(db *sql.DB) *RoomPostgres {
	return &RoomPostgres{db: db}
}

var _ repository.RoomRepository = (*RoomPostgres)(nil)

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// Create inserts the room and its host member in a single transaction.
// A code collision surfaces as repository.ErrDuplicateCode.
func (r *RoomPostgres) Create(ctx context.Context, room *model.Room, host *model.Member) (*model.Room, error) {
	meta := room.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const qRoom = `
		INSERT INTO rooms (id, code, name, password, metadata, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, code, name, password, metadata, created_at, expires_at
	`
	row := tx.QueryRowContext(ctx, qRoom,
		room.ID,
		room.Code,
		room.Name,
		room.Password,
		metaJSON,
		room.CreatedAt,
		room.ExpiresAt,
	)
	out, err := scanRoom(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicateCode
		}
		return nil, err
	}

	const qMember = `
		INSERT INTO room_members (id, room_id, name, role, online, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.ExecContext(ctx, qMember,
		host.ID,
		out.ID,
		host.Name,
		host.Role,
		host.Online,
		host.JoinedAt,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	seeded := *host
	seeded.RoomID = out.ID
	out.Members = []model.Member{seeded}
	return out, nil
}

// FindByID fetches a single room by its ID.
func (r *RoomPostgres) FindByID(ctx context.Context, id string) (*model.Room, error) {
	const q = `
		SELECT id, code, name, password, metadata, created_at, expires_at
		FROM rooms
		WHERE id = $1
	`
	return scanRoom(r.db.QueryRowContext(ctx, q, id))
}

// FindByCode fetches a single room by its code.
func (r *RoomPostgres) FindByCode(ctx context.Context, code string) (*model.Room, error) {
	const q = `
		SELECT id, code, name, password, metadata, created_at, expires_at
		FROM rooms
		WHERE code = $1
	`
	return scanRoom(r.db.QueryRowContext(ctx, q, code))
}

// List returns rooms matching the typed filter using LIMIT/OFFSET pagination
// and a total count. Filter values bind to fixed predicates only.
func (r *RoomPostgres) List(ctx context.Context, f repository.RoomFilter, pq repository.PageQuery) (*repository.PageResult[model.Room], error) {
	conds := make([]string, 0, 5)
	args := make([]any, 0, 7)

	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Name != "" {
		add("name ILIKE $%d", "%"+f.Name+"%")
	}
	if f.CreatedAfter != nil {
		add("created_at > $%d", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		add("created_at < $%d", *f.CreatedBefore)
	}
	if f.ExpiresAfter != nil {
		add("expires_at > $%d", *f.ExpiresAfter)
	}
	if f.ExpiresBefore != nil {
		add("expires_at < $%d", *f.ExpiresBefore)
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rooms"+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	qList := fmt.Sprintf(`
		SELECT id, code, name, password, metadata, created_at, expires_at
		FROM rooms%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, pq.Limit, pq.Offset)

	rows, err := r.db.QueryContext(ctx, qList, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *room)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Room]{Items: items, Total: total}, nil
}

// Delete removes a room by ID. Returns sql.ErrNoRows if nothing matched.
func (r *RoomPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM rooms WHERE id = $1`
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

// DeleteExpired removes rooms whose expiry has passed. Member and message
// rows go with them via ON DELETE CASCADE.
func (r *RoomPostgres) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const q = `DELETE FROM rooms WHERE expires_at <= $1`
	res, err := r.db.ExecContext(ctx, q, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// AddMember inserts a member, relying on the unique index over
// (room_id, lower(name)) for the case-insensitive dedup. On conflict the
// existing member is returned with inserted=false.
func (r *RoomPostgres) AddMember(ctx context.Context, roomID string, m *model.Member) (*model.Member, bool, error) {
	const qInsert = `
		INSERT INTO room_members (id, room_id, name, role, online, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (room_id, lower(name)) DO NOTHING
		RETURNING id, room_id, name, role, online, joined_at
	`
	row := r.db.QueryRowContext(ctx, qInsert, m.ID, roomID, m.Name, m.Role, m.Online, m.JoinedAt)
	inserted, err := scanMember(row)
	if err == nil {
		return inserted, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, err
	}

	// Conflict path: fetch the member that already holds the name.
	const qExisting = `
		SELECT id, room_id, name, role, online, joined_at
		FROM room_members
		WHERE room_id = $1 AND lower(name) = lower($2)
	`
	existing, err := scanMember(r.db.QueryRowContext(ctx, qExisting, roomID, m.Name))
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// ListMembers returns the room's members in join order.
func (r *RoomPostgres) ListMembers(ctx context.Context, roomID string) ([]model.Member, error) {
	const q = `
		SELECT id, room_id, name, role, online, joined_at
		FROM room_members
		WHERE room_id = $1
		ORDER BY joined_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]model.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// FindMember fetches a member of the given room by member ID.
func (r *RoomPostgres) FindMember(ctx context.Context, roomID, memberID string) (*model.Member, error) {
	const q = `
		SELECT id, room_id, name, role, online, joined_at
		FROM room_members
		WHERE room_id = $1 AND id = $2
	`
	return scanMember(r.db.QueryRowContext(ctx, q, roomID, memberID))
}

// AppendMessage inserts a chat message row.
func (r *RoomPostgres) AppendMessage(ctx context.Context, msg *model.ChatMessage) error {
	const q = `
		INSERT INTO messages (id, room_id, sender, content, type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, q,
		msg.ID,
		msg.RoomID,
		msg.Sender,
		msg.Content,
		msg.Type,
		msg.CreatedAt,
	)
	return err
}

// ListMessages returns messages oldest first with LIMIT/OFFSET pagination.
func (r *RoomPostgres) ListMessages(ctx context.Context, roomID string, pq repository.PageQuery) (*repository.PageResult[model.ChatMessage], error) {
	const qCount = `SELECT COUNT(*) FROM messages WHERE room_id = $1`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount, roomID).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT id, room_id, sender, content, type, created_at
		FROM messages
		WHERE room_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, qList, roomID, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.ChatMessage, 0)
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.RoomID, &m.Sender, &m.Content, &m.Type, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.ChatMessage]{Items: items, Total: total}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (*model.Room, error) {
	var (
		r    model.Room
		meta []byte
	)
	if err := row.Scan(&r.ID, &r.Code, &r.Name, &r.Password, &meta, &r.CreatedAt, &r.ExpiresAt); err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &r.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &r, nil
}

func scanMember(row rowScanner) (*model.Member, error) {
	var m model.Member
	if err := row.Scan(&m.ID, &m.RoomID, &m.Name, &m.Role, &m.Online, &m.JoinedAt); err != nil {
		return nil, err
	}
	return &m, nil
}
