package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"labrooms/internal/config"
)

const channelPrefix = "labrooms.room."

// bridgeFrame wraps a broadcast frame on the Redis channel. Origin lets each
// instance skip frames it published itself.
type bridgeFrame struct {
	Origin  string          `json:"origin"`
	Room    string          `json:"room"`
	Payload json.RawMessage `json:"payload"`
}

// Bridge fans relay broadcasts out to other instances over Redis pub/sub.
// It delivers on a best-effort basis, matching the relay's fire-and-forget
// contract.
type Bridge struct {
	client *redis.Client
	origin string

	// onRemote is set by the hub; it receives frames published elsewhere.
	onRemote func(roomCode string, frame []byte)
}

// NewBridge connects to Redis and verifies the connection with a short ping.
func NewBridge(cfg config.RedisConfig) (*Bridge, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Bridge{
		client: client,
		origin: uuid.NewString(),
	}, nil
}

// Publish sends a frame to the room's Redis channel.
func (b *Bridge) Publish(ctx context.Context, roomCode string, frame []byte) error {
	wrapped, err := json.Marshal(bridgeFrame{
		Origin:  b.origin,
		Room:    roomCode,
		Payload: frame,
	})
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channelPrefix+roomCode, wrapped).Err()
}

// Run subscribes to all room channels and forwards remote frames to the hub
// until the context is cancelled.
func (b *Bridge) Run(ctx context.Context) {
	sub := b.client.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var frame bridgeFrame
			if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
				logRelay("warn", "relay_bridge_bad_frame", "", err)
				continue
			}
			if frame.Origin == b.origin {
				continue
			}
			room := frame.Room
			if room == "" {
				room = strings.TrimPrefix(msg.Channel, channelPrefix)
			}
			if b.onRemote != nil {
				b.onRemote(room, frame.Payload)
			}
		}
	}
}

// Close releases the Redis connection.
func (b *Bridge) Close() error {
	return b.client.Close()
}
