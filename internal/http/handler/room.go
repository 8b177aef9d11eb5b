package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"labrooms/internal/repository"
	"labrooms/internal/service"
)

// createRoomRequest is the payload for POST /rooms.
type createRoomRequest struct {
	Name     string            `json:"name"`
	HostName string            `json:"host_name"`
	Expiry   string            `json:"expiry"`
	Password string            `json:"password"`
	Metadata map[string]string `json:"metadata"`
}

// joinRoomRequest is the payload for POST /rooms/:code/members.
type joinRoomRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// CreateRoom handles POST /rooms.
//
//	@Summary	Create a room
//	@Tags		rooms
//	@Accept		json
//	@Produce	json
//	@Param		room	body		createRoomRequest	true	"room to create"
//	@Success	201		{object}	model.Room
//	@Failure	400		{object}	errorPayload
//	@Router		/rooms [post]
func CreateRoom(svc service.RoomService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createRoomRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		room, err := svc.Create(c.UserContext(), req.Name, req.HostName, req.Expiry, req.Password, req.Metadata)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(room)
	}
}

// ListRooms handles GET /rooms with limit/offset pagination and the
// allow-listed filter parameters: name, created_after, created_before,
// expires_after, expires_before (RFC 3339 timestamps).
//
//	@Summary	List rooms
//	@Tags		rooms
//	@Produce	json
//	@Param		limit	query		int		false	"page size"
//	@Param		offset	query		int		false	"page offset"
//	@Param		name	query		string	false	"filter by name substring"
//	@Success	200		{object}	service.RoomListResult
//	@Failure	400		{object}	errorPayload
//	@Router		/rooms [get]
func ListRooms(svc service.RoomService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "50"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		var f repository.RoomFilter
		f.Name = c.Query("name")
		for q, dst := range map[string]**time.Time{
			"created_after":  &f.CreatedAfter,
			"created_before": &f.CreatedBefore,
			"expires_after":  &f.ExpiresAfter,
			"expires_before": &f.ExpiresBefore,
		} {
			raw := c.Query(q)
			if raw == "" {
				continue
			}
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_FILTER", "invalid "+q+" timestamp")
			}
			*dst = &t
		}

		res, err := svc.List(c.UserContext(), f, limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetRoom handles GET /rooms/:id.
//
//	@Summary	Get a room by ID
//	@Tags		rooms
//	@Produce	json
//	@Param		id	path		string	true	"room ID"
//	@Success	200	{object}	model.Room
//	@Failure	404	{object}	errorPayload
//	@Router		/rooms/{id} [get]
func GetRoom(svc service.RoomService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		room, err := svc.GetByID(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(room)
	}
}

// GetRoomByCode handles GET /rooms/code/:code. Codes are stored uppercase;
// lookups normalize so a lowercased link still resolves.
//
//	@Summary	Get a room by code
//	@Tags		rooms
//	@Produce	json
//	@Param		code	path		string	true	"room code"
//	@Success	200		{object}	model.Room
//	@Failure	404		{object}	errorPayload
//	@Router		/rooms/code/{code} [get]
func GetRoomByCode(svc service.RoomService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := strings.ToUpper(c.Params("code"))
		room, err := svc.GetByCode(c.UserContext(), code)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(room)
	}
}

// DeleteRoom handles DELETE /rooms/:id.
//
//	@Summary	Delete a room
//	@Tags		rooms
//	@Param		id	path	string	true	"room ID"
//	@Success	204
//	@Failure	404	{object}	errorPayload
//	@Router		/rooms/{id} [delete]
func DeleteRoom(svc service.RoomService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// JoinRoom handles POST /rooms/:code/members.
//
//	@Summary	Join a room
//	@Tags		rooms
//	@Accept		json
//	@Produce	json
//	@Param		code	path		string			true	"room code"
//	@Param		member	body		joinRoomRequest	true	"member joining"
//	@Success	201		{object}	model.Member
//	@Failure	403		{object}	errorPayload
//	@Router		/rooms/{code}/members [post]
func JoinRoom(svc service.RoomService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req joinRoomRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}

		code := strings.ToUpper(c.Params("code"))
		member, err := svc.Join(c.UserContext(), code, req.Name, req.Password)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(member)
	}
}

// ListMembers handles GET /rooms/:code/members.
//
//	@Summary	List room members
//	@Tags		rooms
//	@Produce	json
//	@Param		code	path		string	true	"room code"
//	@Success	200		{array}		model.Member
//	@Failure	404		{object}	errorPayload
//	@Router		/rooms/{code}/members [get]
func ListMembers(svc service.RoomService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := strings.ToUpper(c.Params("code"))
		members, err := svc.Members(c.UserContext(), code)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(members)
	}
}

// ListMessages handles GET /rooms/:code/messages, oldest first.
//
//	@Summary	List room chat history
//	@Tags		rooms
//	@Produce	json
//	@Param		code	path		string	true	"room code"
//	@Param		limit	query		int		false	"page size"
//	@Param		offset	query		int		false	"page offset"
//	@Success	200		{object}	service.MessageListResult
//	@Failure	404		{object}	errorPayload
//	@Router		/rooms/{code}/messages [get]
func ListMessages(svc service.RoomService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "50"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		code := strings.ToUpper(c.Params("code"))
		res, err := svc.Messages(c.UserContext(), code, limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}
