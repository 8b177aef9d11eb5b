package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labrooms/internal/model"
)

type recordingStore struct {
	saved chan model.ChatMessage
	err   error
}

func (s *recordingStore) SaveChatMessage(ctx context.Context, roomCode string, msg *model.ChatMessage) error {
	s.saved <- *msg
	return s.err
}

func receiveEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case frame := <-c.send:
		var ev Event
		require.NoError(t, json.Unmarshal(frame, &ev))
		return ev
	case <-time.After(time.Second):
		t.Fatal("no frame received")
		return Event{}
	}
}

func TestHubBroadcastScopedToRoom(t *testing.T) {
	hub := NewHub(nil, nil)

	sender := NewClient(hub, nil)
	peer := NewClient(hub, nil)
	outsider := NewClient(hub, nil)

	hub.Join("AAAAAA", sender)
	hub.Join("AAAAAA", peer)
	hub.Join("BBBBBB", outsider)

	hub.Broadcast("AAAAAA", EventDrawing, map[string]any{"x": 1}, sender)

	ev := receiveEvent(t, peer)
	assert.Equal(t, EventDrawing, ev.Event)
	assert.Equal(t, "AAAAAA", ev.Room)

	// Neither the sender nor the other room's subscriber sees the frame.
	assert.Empty(t, sender.send)
	assert.Empty(t, outsider.send)
}

func TestHubHandleChatStampsPayload(t *testing.T) {
	store := &recordingStore{saved: make(chan model.ChatMessage, 1)}
	hub := NewHub(store, nil)

	sender := NewClient(hub, nil)
	peer := NewClient(hub, nil)
	hub.Join("CCCCCC", sender)
	hub.Join("CCCCCC", peer)

	hub.HandleChat("CCCCCC", &ChatPayload{Sender: "alice", Content: "hi"}, sender)

	ev := receiveEvent(t, peer)
	assert.Equal(t, EventReceiveMessage, ev.Event)

	var payload ChatPayload
	require.NoError(t, json.Unmarshal(ev.Data, &payload))
	assert.NotEmpty(t, payload.ID)
	assert.False(t, payload.Timestamp.IsZero())
	assert.Equal(t, model.MessageTypeNormal, payload.Type)
	assert.Equal(t, "alice", payload.Sender)

	select {
	case saved := <-store.saved:
		assert.Equal(t, payload.ID, saved.ID)
	case <-time.After(time.Second):
		t.Fatal("message was not persisted")
	}
}

func TestHubHandleChatKeepsClientStamps(t *testing.T) {
	hub := NewHub(nil, nil)
	peer := NewClient(hub, nil)
	hub.Join("DDDDDD", peer)

	ts := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	hub.HandleChat("DDDDDD", &ChatPayload{
		ID:        "client-id",
		Sender:    "bob",
		Content:   "x",
		Type:      model.MessageTypeSystem,
		Timestamp: ts,
	}, nil)

	ev := receiveEvent(t, peer)
	var payload ChatPayload
	require.NoError(t, json.Unmarshal(ev.Data, &payload))
	assert.Equal(t, "client-id", payload.ID)
	assert.Equal(t, model.MessageTypeSystem, payload.Type)
	assert.True(t, payload.Timestamp.Equal(ts))
}

func TestHubBroadcastsDespitePersistenceFailure(t *testing.T) {
	store := &recordingStore{saved: make(chan model.ChatMessage, 1), err: errors.New("db down")}
	hub := NewHub(store, nil)

	peer := NewClient(hub, nil)
	hub.Join("EEEEEE", peer)

	hub.HandleChat("EEEEEE", &ChatPayload{Sender: "carol", Content: "still delivered"}, nil)

	ev := receiveEvent(t, peer)
	assert.Equal(t, EventReceiveMessage, ev.Event)
	<-store.saved
}

func TestHubLeaveTearsDownRoom(t *testing.T) {
	hub := NewHub(nil, nil)
	c := NewClient(hub, nil)

	hub.Join("FFFFFF", c)
	assert.Equal(t, 1, hub.Subscribers("FFFFFF"))

	hub.Leave("FFFFFF", c)
	assert.Equal(t, 0, hub.Subscribers("FFFFFF"))

	// send channel closed so the write pump exits.
	_, open := <-c.send
	assert.False(t, open)

	// Leaving twice is harmless.
	hub.Leave("FFFFFF", c)
}

func TestHubBroadcastDuringMemberChurn(t *testing.T) {
	hub := NewHub(nil, nil)

	done := make(chan struct{})
	var wg sync.WaitGroup
	panics := make(chan any, 4)

	// Broadcast continuously while clients join and leave the same room.
	// Leaving closes the client's send channel, so a send outside the hub
	// lock would panic here.
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					panics <- r
				}
			}()
			for {
				select {
				case <-done:
					return
				default:
					hub.Broadcast("HHHHHH", EventDrawing, map[string]int{"x": 1}, nil)
				}
			}
		}()
	}

	for i := 0; i < 500; i++ {
		c := NewClient(hub, nil)
		hub.Join("HHHHHH", c)
		hub.Leave("HHHHHH", c)
	}

	close(done)
	wg.Wait()

	select {
	case r := <-panics:
		t.Fatalf("broadcast panicked during churn: %v", r)
	default:
	}
	assert.Equal(t, 0, hub.Subscribers("HHHHHH"))
}

func TestHubNotify(t *testing.T) {
	hub := NewHub(nil, nil)
	peer := NewClient(hub, nil)
	hub.Join("GGGGGG", peer)

	hub.Notify("GGGGGG", EventFileUploaded, map[string]string{"id": "f1"})

	ev := receiveEvent(t, peer)
	assert.Equal(t, EventFileUploaded, ev.Event)
}
