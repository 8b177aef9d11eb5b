package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"labrooms/internal/relay"
	"labrooms/internal/service"
)

// HealthCheck reports readiness: the database must answer a ping.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a plain liveness check with no dependencies.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Keep handlers minimal and free of business logic.
func RegisterRoutes(app *fiber.App, db *sql.DB, roomSvc service.RoomService, fileSvc service.FileService, hub *relay.Hub) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Post("/rooms", CreateRoom(roomSvc))
	app.Get("/rooms", ListRooms(roomSvc))
	app.Get("/rooms/code/:code", GetRoomByCode(roomSvc))
	app.Get("/rooms/:id", GetRoom(roomSvc))
	app.Delete("/rooms/:id", DeleteRoom(roomSvc))

	app.Post("/rooms/:code/members", JoinRoom(roomSvc))
	app.Get("/rooms/:code/members", ListMembers(roomSvc))
	app.Get("/rooms/:code/messages", ListMessages(roomSvc))

	app.Post("/rooms/:code/files", UploadFile(fileSvc))
	app.Get("/rooms/:code/files", ListFiles(fileSvc))
	app.Delete("/files/:id", DeleteFile(fileSvc))

	if hub != nil {
		app.Use("/ws", WebSocketUpgrade())
		app.Get("/ws", RoomSocket(hub))
	}
}
