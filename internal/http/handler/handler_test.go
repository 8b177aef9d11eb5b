package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"labrooms/internal/http/middleware"
	"labrooms/internal/model"
	"labrooms/internal/repository"
	"labrooms/internal/service"
	serviceMocks "labrooms/internal/service/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	app := fiber.New()
	app.Get("/health", HealthCheck(db))

	t.Run("healthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(nil)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		dbMock.ExpectPing().WillReturnError(errors.New("db error"))

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateRoom(t *testing.T) {
	mockSvc := new(serviceMocks.MockRoomService)
	app := fiber.New()
	app.Post("/rooms", CreateRoom(mockSvc))

	t.Run("success", func(t *testing.T) {
		expected := &model.Room{ID: uuid.NewString(), Code: "AB12CD", Name: "Physics Lab"}
		mockSvc.On("Create", mock.Anything, "Physics Lab", "Ada", "1d", "", mock.Anything).
			Return(expected, nil).Once()

		body := `{"name":"Physics Lab","host_name":"Ada","expiry":"1d"}`
		req := httptest.NewRequest(http.MethodPost, "/rooms", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result model.Room
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "AB12CD", result.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/rooms", strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_BODY", res.Error.Code)
	})

	t.Run("missing name", func(t *testing.T) {
		mockSvc.On("Create", mock.Anything, "", "Ada", "", "", mock.Anything).
			Return(nil, service.ErrRoomNameRequired).Once()

		req := httptest.NewRequest(http.MethodPost, "/rooms", strings.NewReader(`{"host_name":"Ada"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NAME_REQUIRED", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestListRooms(t *testing.T) {
	mockSvc := new(serviceMocks.MockRoomService)
	app := fiber.New()
	app.Get("/rooms", ListRooms(mockSvc))

	t.Run("success", func(t *testing.T) {
		expected := &service.RoomListResult{
			Items: []model.Room{{ID: uuid.NewString(), Code: "AB12CD"}},
			Total: 1,
		}
		mockSvc.On("List", mock.Anything, mock.Anything, 10, 0).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/rooms?limit=10&offset=0", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.RoomListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 1, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/rooms?limit=abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_LIMIT", res.Error.Code)
	})

	t.Run("invalid filter timestamp", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/rooms?created_after=yesterday", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_FILTER", res.Error.Code)
	})

	t.Run("name filter reaches the service", func(t *testing.T) {
		expected := &service.RoomListResult{Items: []model.Room{}, Total: 0}
		mockSvc.On("List", mock.Anything, mock.MatchedBy(func(f repository.RoomFilter) bool {
			return f.Name == "Physics"
		}), 50, 0).Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/rooms?name=Physics", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetRoom(t *testing.T) {
	mockSvc := new(serviceMocks.MockRoomService)
	app := fiber.New()
	app.Get("/rooms/:id", GetRoom(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("GetByID", mock.Anything, id).Return(&model.Room{ID: id, Code: "AB12CD"}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/rooms/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/rooms/not-a-uuid", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_ID", res.Error.Code)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("GetByID", mock.Anything, id).Return(nil, service.ErrRoomNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/rooms/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "ROOM_NOT_FOUND", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetRoomByCode(t *testing.T) {
	mockSvc := new(serviceMocks.MockRoomService)
	app := fiber.New()
	app.Get("/rooms/code/:code", GetRoomByCode(mockSvc))

	t.Run("normalizes code to uppercase", func(t *testing.T) {
		mockSvc.On("GetByCode", mock.Anything, "AB12CD").
			Return(&model.Room{ID: uuid.NewString(), Code: "AB12CD"}, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/rooms/code/ab12cd", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc.On("GetByCode", mock.Anything, "ZZZZZZ").Return(nil, service.ErrRoomNotFound).Once()

		req := httptest.NewRequest(http.MethodGet, "/rooms/code/ZZZZZZ", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestDeleteRoom(t *testing.T) {
	mockSvc := new(serviceMocks.MockRoomService)
	app := fiber.New()
	app.Delete("/rooms/:id", DeleteRoom(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Delete", mock.Anything, id).Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/rooms/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Delete", mock.Anything, id).Return(service.ErrRoomNotFound).Once()

		req := httptest.NewRequest(http.MethodDelete, "/rooms/"+id, nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestJoinRoom(t *testing.T) {
	mockSvc := new(serviceMocks.MockRoomService)
	app := fiber.New()
	app.Post("/rooms/:code/members", JoinRoom(mockSvc))

	t.Run("success", func(t *testing.T) {
		expected := &model.Member{ID: uuid.NewString(), Name: "Grace", Role: model.RoleMember}
		mockSvc.On("Join", mock.Anything, "AB12CD", "Grace", "").Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/rooms/AB12CD/members", strings.NewReader(`{"name":"Grace"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result model.Member
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, "Grace", result.Name)
		mockSvc.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		mockSvc.On("Join", mock.Anything, "AB12CD", "Grace", "nope").
			Return(nil, service.ErrWrongPassword).Once()

		req := httptest.NewRequest(http.MethodPost, "/rooms/AB12CD/members", strings.NewReader(`{"name":"Grace","password":"nope"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "WRONG_PASSWORD", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestListMessages(t *testing.T) {
	mockSvc := new(serviceMocks.MockRoomService)
	app := fiber.New()
	app.Get("/rooms/:code/messages", ListMessages(mockSvc))

	expected := &service.MessageListResult{
		Items: []model.ChatMessage{{ID: uuid.NewString(), Content: "hello"}},
		Total: 1,
	}
	mockSvc.On("Messages", mock.Anything, "AB12CD", 50, 0).Return(expected, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/rooms/AB12CD/messages", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result service.MessageListResult
	json.NewDecoder(resp.Body).Decode(&result)
	assert.Len(t, result.Items, 1)
	mockSvc.AssertExpectations(t)
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	part.Write([]byte(content))
	writer.Close()
	return body, writer.FormDataContentType()
}

func TestUploadFile(t *testing.T) {
	mockSvc := new(serviceMocks.MockFileService)
	app := fiber.New()
	app.Use(middleware.Requester())
	app.Post("/rooms/:code/files", UploadFile(mockSvc))

	t.Run("success", func(t *testing.T) {
		expected := &model.File{ID: uuid.NewString(), Filename: "notes.txt", Category: model.FileCategoryText}
		mockSvc.On("Upload", mock.Anything, "AB12CD", mock.Anything, "notes.txt", mock.Anything, mock.Anything, "member-1").
			Return(expected, nil).Once()

		body, ct := multipartBody(t, "notes.txt", "hello world")
		req := httptest.NewRequest(http.MethodPost, "/rooms/AB12CD/files", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set(middleware.RequesterHeader, "member-1")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var result model.File
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, expected.ID, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("no file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/rooms/AB12CD/files", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "FILE_REQUIRED", res.Error.Code)
	})

	t.Run("not a member", func(t *testing.T) {
		mockSvc.On("Upload", mock.Anything, "AB12CD", mock.Anything, "notes.txt", mock.Anything, mock.Anything, "").
			Return(nil, service.ErrNotRoomMember).Once()

		body, ct := multipartBody(t, "notes.txt", "hello")
		req := httptest.NewRequest(http.MethodPost, "/rooms/AB12CD/files", body)
		req.Header.Set("Content-Type", ct)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_A_MEMBER", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("too large", func(t *testing.T) {
		mockSvc.On("Upload", mock.Anything, "AB12CD", mock.Anything, "big.bin", mock.Anything, mock.Anything, "member-1").
			Return(nil, service.ErrFileTooLarge).Once()

		body, ct := multipartBody(t, "big.bin", "xx")
		req := httptest.NewRequest(http.MethodPost, "/rooms/AB12CD/files", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set(middleware.RequesterHeader, "member-1")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "FILE_TOO_LARGE", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})
}

func TestListFiles(t *testing.T) {
	mockSvc := new(serviceMocks.MockFileService)
	app := fiber.New()
	app.Use(middleware.Requester())
	app.Get("/rooms/:code/files", ListFiles(mockSvc))

	t.Run("success", func(t *testing.T) {
		expected := []model.File{{ID: uuid.NewString(), Filename: "scan.pdf"}}
		mockSvc.On("List", mock.Anything, "AB12CD", "member-1").Return(expected, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/rooms/AB12CD/files", nil)
		req.Header.Set(middleware.RequesterHeader, "member-1")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result []model.File
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result, 1)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not a member", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, "AB12CD", "").Return(nil, service.ErrNotRoomMember).Once()

		req := httptest.NewRequest(http.MethodGet, "/rooms/AB12CD/files", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestDeleteFile(t *testing.T) {
	mockSvc := new(serviceMocks.MockFileService)
	app := fiber.New()
	app.Use(middleware.Requester())
	app.Delete("/files/:id", DeleteFile(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Delete", mock.Anything, id, "member-1").Return(nil).Once()

		req := httptest.NewRequest(http.MethodDelete, "/files/"+id, nil)
		req.Header.Set(middleware.RequesterHeader, "member-1")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("forbidden", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Delete", mock.Anything, id, "member-2").Return(service.ErrNotFileOwner).Once()

		req := httptest.NewRequest(http.MethodDelete, "/files/"+id, nil)
		req.Header.Set(middleware.RequesterHeader, "member-2")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "FORBIDDEN", res.Error.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.NewString()
		mockSvc.On("Delete", mock.Anything, id, "member-1").Return(service.ErrFileNotFound).Once()

		req := httptest.NewRequest(http.MethodDelete, "/files/"+id, nil)
		req.Header.Set(middleware.RequesterHeader, "member-1")
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	roomSvc := new(serviceMocks.MockRoomService)
	fileSvc := new(serviceMocks.MockFileService)
	RegisterRoutes(app, db, roomSvc, fileSvc, nil)

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})
}
