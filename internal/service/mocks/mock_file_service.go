package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"labrooms/internal/model"
)

type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) Upload(ctx context.Context, roomCode string, r io.Reader, filename, contentType string, size int64, uploaderID string) (*model.File, error) {
	args := m.Called(ctx, roomCode, r, filename, contentType, size, uploaderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileService) List(ctx context.Context, roomCode, requesterID string) ([]model.File, error) {
	args := m.Called(ctx, roomCode, requesterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.File), args.Error(1)
}

func (m *MockFileService) Delete(ctx context.Context, fileID, requesterID string) error {
	args := m.Called(ctx, fileID, requesterID)
	return args.Error(0)
}
