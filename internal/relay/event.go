package relay

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"labrooms/internal/model"
)

// Event names understood by the relay. Clients send join-room once, then
// send-message and the drawing events; receive-message, file_uploaded and
// file_deleted are only ever emitted by the server.
const (
	EventJoinRoom       = "join-room"
	EventSendMessage    = "send-message"
	EventReceiveMessage = "receive-message"
	EventFileUploaded   = "file_uploaded"
	EventFileDeleted    = "file_deleted"
	EventDrawing        = "drawing"
	EventCanvasState    = "canvasState"
	EventClearCanvas    = "clearCanvas"
)

// Event is the wire envelope for every relay frame, in both directions.
type Event struct {
	Event string          `json:"event"`
	Room  string          `json:"room,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ChatPayload is the data body of send-message and receive-message frames.
type ChatPayload struct {
	ID        string    `json:"id,omitempty"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Type      string    `json:"type,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Stamp fills in the id, timestamp and type when the client left them out.
// Every broadcast chat payload carries all three.
func (p *ChatPayload) Stamp(now time.Time) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Timestamp.IsZero() {
		p.Timestamp = now.UTC()
	}
	if p.Type == "" {
		p.Type = model.MessageTypeNormal
	}
}

// Message converts the payload into the persistence model.
func (p *ChatPayload) Message() *model.ChatMessage {
	return &model.ChatMessage{
		ID:        p.ID,
		Sender:    p.Sender,
		Content:   p.Content,
		Type:      p.Type,
		CreatedAt: p.Timestamp,
	}
}

func encodeEvent(event, room string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Event: event, Room: room, Data: raw})
}
