package relay

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"labrooms/internal/model"
)

// MessageStore persists chat messages flowing through the relay. The room
// service implements it.
type MessageStore interface {
	SaveChatMessage(ctx context.Context, roomCode string, msg *model.ChatMessage) error
}

const persistTimeout = 5 * time.Second

// Hub is the process-wide channel-subscription table: it maps room codes to
// the clients currently subscribed to them, with explicit join/leave and
// lookup-by-room, torn down when clients disconnect.
//
// Broadcasts are fire-and-forget. Chat messages are persisted asynchronously;
// a persistence failure is logged and does not block or cancel the broadcast.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool

	store  MessageStore
	bridge *Bridge
}

// NewHub creates a hub. store may be nil to disable chat persistence and
// bridge may be nil for single-instance deployments.
func NewHub(store MessageStore, bridge *Bridge) *Hub {
	h := &Hub{
		rooms:  make(map[string]map[*Client]bool),
		store:  store,
		bridge: bridge,
	}
	if bridge != nil {
		bridge.onRemote = h.deliverLocal
	}
	return h
}

// Join subscribes the client to the room's channel.
func (h *Hub) Join(roomCode string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomCode] == nil {
		h.rooms[roomCode] = make(map[*Client]bool)
	}
	h.rooms[roomCode][c] = true
}

// Leave removes the client from the room's channel, dropping the room entry
// once it is empty. The client's send channel is closed here, which stops
// its write pump.
func (h *Hub) Leave(roomCode string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.rooms[roomCode]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.rooms, roomCode)
	}
}

// Subscribers returns how many clients are subscribed to the room.
func (h *Hub) Subscribers(roomCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomCode])
}

// Broadcast delivers an event to every subscriber of the room except the
// sender, locally and — when a bridge is configured — on every other
// instance. sender may be nil for server-originated events.
func (h *Hub) Broadcast(roomCode, event string, data any, sender *Client) {
	frame, err := encodeEvent(event, roomCode, data)
	if err != nil {
		logRelay("error", "relay_encode_failed", roomCode, err)
		return
	}
	h.deliver(roomCode, frame, sender)
	if h.bridge != nil {
		if err := h.bridge.Publish(context.Background(), roomCode, frame); err != nil {
			logRelay("error", "relay_bridge_publish_failed", roomCode, err)
		}
	}
}

// Notify implements the Notifier used by the file service: a broadcast with
// no sender to exclude.
func (h *Hub) Notify(roomCode, event string, data any) {
	h.Broadcast(roomCode, event, data, nil)
}

// HandleChat stamps a chat payload, kicks off best-effort persistence and
// broadcasts it as receive-message to the other subscribers of the room.
func (h *Hub) HandleChat(roomCode string, payload *ChatPayload, sender *Client) {
	payload.Stamp(time.Now())

	if h.store != nil {
		go func(msg *model.ChatMessage) {
			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()
			if err := h.store.SaveChatMessage(ctx, roomCode, msg); err != nil {
				logRelay("error", "chat_persist_failed", roomCode, err)
			}
		}(payload.Message())
	}

	h.Broadcast(roomCode, EventReceiveMessage, payload, sender)
}

// deliver fans a frame out to local subscribers only. The sends happen under
// the read lock: they never block, and Leave closes send channels under the
// write lock, so a send can never race a close.
func (h *Hub) deliver(roomCode string, frame []byte, sender *Client) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[roomCode] {
		if c == sender {
			continue
		}
		// Non-blocking send so one slow client cannot stall the room.
		select {
		case c.send <- frame:
		default:
			logRelay("warn", "relay_client_send_full", roomCode, nil)
		}
	}
}

// deliverLocal is the bridge callback for frames published by other instances.
func (h *Hub) deliverLocal(roomCode string, frame []byte) {
	h.deliver(roomCode, frame, nil)
}

func logRelay(level, event, roomCode string, err error) {
	entry := map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"level":     level,
		"component": "relay",
		"event":     event,
		"room_code": roomCode,
	}
	if err != nil {
		entry["error"] = err.Error()
	}
	if b, mErr := json.Marshal(entry); mErr == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
