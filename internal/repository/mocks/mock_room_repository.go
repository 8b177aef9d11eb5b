package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"labrooms/internal/model"
	"labrooms/internal/repository"
)

type MockRoomRepository struct {
	mock.Mock
}

func (m *MockRoomRepository) Create(ctx context.Context, room *model.Room, host *model.Member) (*model.Room, error) {
	args := m.Called(ctx, room, host)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Room), args.Error(1)
}

func (m *MockRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Room), args.Error(1)
}

func (m *MockRoomRepository) FindByCode(ctx context.Context, code string) (*model.Room, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Room), args.Error(1)
}

func (m *MockRoomRepository) List(ctx context.Context, f repository.RoomFilter, pq repository.PageQuery) (*repository.PageResult[model.Room], error) {
	args := m.Called(ctx, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.Room]), args.Error(1)
}

func (m *MockRoomRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRoomRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRoomRepository) AddMember(ctx context.Context, roomID string, member *model.Member) (*model.Member, bool, error) {
	args := m.Called(ctx, roomID, member)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Member), args.Bool(1), args.Error(2)
}

func (m *MockRoomRepository) ListMembers(ctx context.Context, roomID string) ([]model.Member, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Member), args.Error(1)
}

func (m *MockRoomRepository) FindMember(ctx context.Context, roomID, memberID string) (*model.Member, error) {
	args := m.Called(ctx, roomID, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Member), args.Error(1)
}

func (m *MockRoomRepository) AppendMessage(ctx context.Context, msg *model.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockRoomRepository) ListMessages(ctx context.Context, roomID string, pq repository.PageQuery) (*repository.PageResult[model.ChatMessage], error) {
	args := m.Called(ctx, roomID, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.ChatMessage]), args.Error(1)
}
