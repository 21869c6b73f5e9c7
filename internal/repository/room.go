package repository

import (
	"context"

	"github.com/jkarlos000/sw1-p1/internal/domain"
)

// RoomRepository stores diagram rooms.
type RoomRepository interface {
	FindByID(ctx context.Context, id uint) (*domain.Room, error)
	FindByName(ctx context.Context, name string) (*domain.Room, error)
	// Create inserts a new room and fills its ID. A taken name yields
	// ErrDuplicateEntry.
	Create(ctx context.Context, room *domain.Room) error
	// UpdateDiagram overwrites the stored diagram. It returns
	// ErrRoomNotFound when no room has that name.
	UpdateDiagram(ctx context.Context, name, diagram string) error
	Delete(ctx context.Context, id uint) error
}

// AttendanceRepository stores durable room membership.
type AttendanceRepository interface {
	Add(ctx context.Context, userID, roomID uint) error
	Exists(ctx context.Context, userID, roomID uint) (bool, error)
	// Remove deletes every row of the pair and reports how many were removed.
	Remove(ctx context.Context, userID, roomID uint) (int64, error)
	Count(ctx context.Context, roomID uint) (int64, error)
	// Collaborators lists the emails behind every attendance row of the room.
	Collaborators(ctx context.Context, roomID uint) ([]domain.Collaborator, error)
}
