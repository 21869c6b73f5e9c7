package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jkarlos000/sw1-p1/internal/domain"
	"github.com/jkarlos000/sw1-p1/internal/repository"
)

// GormRoomRepository implements repository.RoomRepository.
type GormRoomRepository struct {
	db *gorm.DB
}

func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	if db == nil {
		panic("database connection cannot be nil for GormRoomRepository")
	}
	return &GormRoomRepository{db: db}
}

func (r *GormRoomRepository) FindByID(ctx context.Context, id uint) (*domain.Room, error) {
	var room domain.Room
	err := conn(ctx, r.db).First(&room, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by id %d: %w", id, err)
	}
	return &room, nil
}

func (r *GormRoomRepository) FindByName(ctx context.Context, name string) (*domain.Room, error) {
	var room domain.Room
	err := conn(ctx, r.db).Where("nombre_sala = ?", name).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by name '%s': %w", name, err)
	}
	return &room, nil
}

func (r *GormRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	if err := conn(ctx, r.db).Create(room).Error; err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: create room '%s': %w", room.Name, err)
	}
	return nil
}

func (r *GormRoomRepository) UpdateDiagram(ctx context.Context, name, diagram string) error {
	result := conn(ctx, r.db).Model(&domain.Room{}).Where("nombre_sala = ?", name).Update("informacion", diagram)
	if result.Error != nil {
		return fmt.Errorf("gorm: update diagram of room '%s': %w", name, result.Error)
	}
	if result.RowsAffected == 0 {
		// mysql reports 0 affected rows when the value is unchanged
		var count int64
		if err := conn(ctx, r.db).Model(&domain.Room{}).Where("nombre_sala = ?", name).Count(&count).Error; err != nil {
			return fmt.Errorf("gorm: check room '%s': %w", name, err)
		}
		if count == 0 {
			return repository.ErrRoomNotFound
		}
	}
	return nil
}

func (r *GormRoomRepository) Delete(ctx context.Context, id uint) error {
	if err := conn(ctx, r.db).Delete(&domain.Room{}, id).Error; err != nil {
		return fmt.Errorf("gorm: delete room %d: %w", id, err)
	}
	return nil
}
