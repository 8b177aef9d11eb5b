package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"labrooms/internal/service"
)

// UploadFile handles POST /rooms/:code/files (multipart/form-data, field
// name: file). The caller identifies itself via X-Member-ID and must be a
// member of the room.
//
//	@Summary	Upload a file to a room
//	@Tags		files
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		code		path		string	true	"room code"
//	@Param		X-Member-ID	header		string	true	"member ID of the uploader"
//	@Param		file		formData	file	true	"file content"
//	@Success	201			{object}	model.File
//	@Failure	400			{object}	errorPayload
//	@Failure	403			{object}	errorPayload
//	@Router		/rooms/{code}/files [post]
func UploadFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		code := strings.ToUpper(c.Params("code"))
		file, err := svc.Upload(c.UserContext(), code, f, fh.Filename, ct, fh.Size, requesterFromCtx(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(file)
	}
}

// ListFiles handles GET /rooms/:code/files, newest first. Members only.
//
//	@Summary	List a room's files
//	@Tags		files
//	@Produce	json
//	@Param		code		path		string	true	"room code"
//	@Param		X-Member-ID	header		string	true	"member ID of the caller"
//	@Success	200			{array}		model.File
//	@Failure	403			{object}	errorPayload
//	@Router		/rooms/{code}/files [get]
func ListFiles(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := strings.ToUpper(c.Params("code"))
		files, err := svc.List(c.UserContext(), code, requesterFromCtx(c))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(files)
	}
}

// DeleteFile handles DELETE /files/:id. Allowed for the uploader and the
// room host.
//
//	@Summary	Delete a file
//	@Tags		files
//	@Param		id			path	string	true	"file ID"
//	@Param		X-Member-ID	header	string	true	"member ID of the caller"
//	@Success	204
//	@Failure	403	{object}	errorPayload
//	@Failure	404	{object}	errorPayload
//	@Router		/files/{id} [delete]
func DeleteFile(svc service.FileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id, requesterFromCtx(c)); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
