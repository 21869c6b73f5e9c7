package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jkarlos000/sw1-p1/internal/domain"
	"github.com/jkarlos000/sw1-p1/internal/repository"
)

// GormAIConfigRepository implements repository.AIConfigRepository.
type GormAIConfigRepository struct {
	db *gorm.DB
}

func NewGormAIConfigRepository(db *gorm.DB) *GormAIConfigRepository {
	if db == nil {
		panic("database connection cannot be nil for GormAIConfigRepository")
	}
	return &GormAIConfigRepository{db: db}
}

func (r *GormAIConfigRepository) FindByRoom(ctx context.Context, roomID uint) (*domain.AIConfig, error) {
	var cfg domain.AIConfig
	if err := conn(ctx, r.db).Where("id_sala = ?", roomID).First(&cfg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrConfigNotFound
		}
		return nil, fmt.Errorf("gorm: find ai config of room %d: %w", roomID, err)
	}
	return &cfg, nil
}

// Upsert inserts the config or overwrites the existing row of the same room.
func (r *GormAIConfigRepository) Upsert(ctx context.Context, cfg *domain.AIConfig) error {
	err := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id_sala"}},
		DoUpdates: clause.AssignmentColumns([]string{"modelo", "temperatura", "max_tokens", "system_prompt"}),
	}).Create(cfg).Error
	if err != nil {
		return fmt.Errorf("gorm: upsert ai config of room %d: %w", cfg.RoomID, err)
	}
	return nil
}
