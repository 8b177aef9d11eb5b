package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"labrooms/internal/http/middleware"
	"labrooms/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// requesterFromCtx extracts the caller's member ID stored by middleware.Requester.
func requesterFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequesterLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError maps service-layer sentinel errors onto the failure
// taxonomy: validation → 400, authorization → 403, not-found → 404,
// anything else → generic 500 with no internal detail.
func writeServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		return writeError(c, fiber.StatusNotFound, "ROOM_NOT_FOUND", "room not found")
	case errors.Is(err, service.ErrFileNotFound):
		return writeError(c, fiber.StatusNotFound, "FILE_NOT_FOUND", "file not found")
	case errors.Is(err, service.ErrWrongPassword):
		return writeError(c, fiber.StatusForbidden, "WRONG_PASSWORD", "wrong room password")
	case errors.Is(err, service.ErrNotRoomMember):
		return writeError(c, fiber.StatusForbidden, "NOT_A_MEMBER", "requester is not a member of the room")
	case errors.Is(err, service.ErrNotFileOwner):
		return writeError(c, fiber.StatusForbidden, "FORBIDDEN", "only the uploader or the room host may delete this file")
	case errors.Is(err, service.ErrFileTooLarge):
		return writeError(c, fiber.StatusBadRequest, "FILE_TOO_LARGE", "file exceeds the size limit")
	case errors.Is(err, service.ErrRoomNameRequired):
		return writeError(c, fiber.StatusBadRequest, "NAME_REQUIRED", "room name is required")
	case errors.Is(err, service.ErrMemberNameRequired):
		return writeError(c, fiber.StatusBadRequest, "NAME_REQUIRED", "member name is required")
	case errors.Is(err, service.ErrFilenameRequired):
		return writeError(c, fiber.StatusBadRequest, "FILENAME_REQUIRED", "filename is required")
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "ID_REQUIRED", "id is required")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
