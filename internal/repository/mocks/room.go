package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jkarlos000/sw1-p1/internal/domain"
)

type RoomRepository struct {
	mock.Mock
}

func (m *RoomRepository) FindByID(ctx context.Context, id uint) (*domain.Room, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*domain.Room)
	return r, args.Error(1)
}

func (m *RoomRepository) FindByName(ctx context.Context, name string) (*domain.Room, error) {
	args := m.Called(ctx, name)
	r, _ := args.Get(0).(*domain.Room)
	return r, args.Error(1)
}

func (m *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *RoomRepository) UpdateDiagram(ctx context.Context, name, diagram string) error {
	args := m.Called(ctx, name, diagram)
	return args.Error(0)
}

func (m *RoomRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type AttendanceRepository struct {
	mock.Mock
}

func (m *AttendanceRepository) Add(ctx context.Context, userID, roomID uint) error {
	args := m.Called(ctx, userID, roomID)
	return args.Error(0)
}

func (m *AttendanceRepository) Exists(ctx context.Context, userID, roomID uint) (bool, error) {
	args := m.Called(ctx, userID, roomID)
	return args.Bool(0), args.Error(1)
}

func (m *AttendanceRepository) Remove(ctx context.Context, userID, roomID uint) (int64, error) {
	args := m.Called(ctx, userID, roomID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *AttendanceRepository) Count(ctx context.Context, roomID uint) (int64, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *AttendanceRepository) Collaborators(ctx context.Context, roomID uint) ([]domain.Collaborator, error) {
	args := m.Called(ctx, roomID)
	c, _ := args.Get(0).([]domain.Collaborator)
	return c, args.Error(1)
}
