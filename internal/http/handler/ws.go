package handler

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"labrooms/internal/relay"
)

// WebSocketUpgrade rejects non-upgrade requests on the relay endpoint.
func WebSocketUpgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// RoomSocket upgrades the connection and hands it to the relay hub. The
// client announces its room with a join-room event after connecting.
func RoomSocket(hub *relay.Hub) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		relay.NewClient(hub, conn).Serve()
	})
}
