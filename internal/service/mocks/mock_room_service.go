package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"labrooms/internal/model"
	"labrooms/internal/repository"
	"labrooms/internal/service"
)

type MockRoomService struct {
	mock.Mock
}

func (m *MockRoomService) Create(ctx context.Context, name, hostName, expiryPreset, password string, metadata map[string]string) (*model.Room, error) {
	args := m.Called(ctx, name, hostName, expiryPreset, password, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Room), args.Error(1)
}

func (m *MockRoomService) GetByID(ctx context.Context, id string) (*model.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Room), args.Error(1)
}

func (m *MockRoomService) GetByCode(ctx context.Context, code string) (*model.Room, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Room), args.Error(1)
}

func (m *MockRoomService) List(ctx context.Context, f repository.RoomFilter, limit, offset int) (*service.RoomListResult, error) {
	args := m.Called(ctx, f, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RoomListResult), args.Error(1)
}

func (m *MockRoomService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRoomService) Join(ctx context.Context, code, name, password string) (*model.Member, error) {
	args := m.Called(ctx, code, name, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Member), args.Error(1)
}

func (m *MockRoomService) Members(ctx context.Context, code string) ([]model.Member, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Member), args.Error(1)
}

func (m *MockRoomService) Messages(ctx context.Context, code string, limit, offset int) (*service.MessageListResult, error) {
	args := m.Called(ctx, code, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.MessageListResult), args.Error(1)
}

func (m *MockRoomService) SaveChatMessage(ctx context.Context, code string, msg *model.ChatMessage) error {
	args := m.Called(ctx, code, msg)
	return args.Error(0)
}

func (m *MockRoomService) RunSweeper(ctx context.Context, interval time.Duration) {
	m.Called(ctx, interval)
}
