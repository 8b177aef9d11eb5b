package relay

import (
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum frame size allowed from peer. Drawing frames carry stroke
	// batches, so this is generous.
	maxMessageSize = 64 << 10

	sendBuffer = 256
)

// Client is one websocket connection attached to the hub. Its lifecycle is
// connected → joined(room) → disconnected; events other than join-room are
// ignored until the client has joined a room.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	room string
	send chan []byte
}

// NewClient wraps an upgraded connection. conn may be nil in tests that
// exercise the hub directly through the send channel.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
}

// Serve runs the write pump in the background and blocks on the read pump
// until the peer disconnects.
func (c *Client) Serve() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		if c.room != "" {
			c.hub.Leave(c.room, c)
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logRelay("warn", "relay_read_error", c.room, err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			logRelay("warn", "relay_bad_frame", c.room, err)
			continue
		}
		c.handleEvent(&ev)
	}
}

func (c *Client) handleEvent(ev *Event) {
	if ev.Event == EventJoinRoom {
		if ev.Room == "" || c.room != "" {
			return
		}
		c.room = ev.Room
		c.hub.Join(c.room, c)
		return
	}

	// Everything else requires a joined room.
	if c.room == "" {
		return
	}

	switch ev.Event {
	case EventSendMessage:
		var payload ChatPayload
		if len(ev.Data) > 0 {
			if err := json.Unmarshal(ev.Data, &payload); err != nil {
				logRelay("warn", "relay_bad_chat_payload", c.room, err)
				return
			}
		}
		c.hub.HandleChat(c.room, &payload, c)
	case EventDrawing, EventCanvasState, EventClearCanvas:
		c.hub.Broadcast(c.room, ev.Event, ev.Data, c)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel on Leave.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
