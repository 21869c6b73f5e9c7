package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/jkarlos000/sw1-p1/internal/domain"
	"github.com/jkarlos000/sw1-p1/internal/repository"
)

// GormConversationRepository implements repository.ConversationRepository.
type GormConversationRepository struct {
	db *gorm.DB
}

func NewGormConversationRepository(db *gorm.DB) *GormConversationRepository {
	if db == nil {
		panic("database connection cannot be nil for GormConversationRepository")
	}
	return &GormConversationRepository{db: db}
}

func (r *GormConversationRepository) FindActiveByRoom(ctx context.Context, roomID uint) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := conn(ctx, r.db).
		Where("id_sala = ? AND activa = ?", roomID, true).
		Order("fecha_ultima_actualizacion DESC, id_conversacion DESC").
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrConversationNotFound
		}
		return nil, fmt.Errorf("gorm: find active conversation of room %d: %w", roomID, err)
	}
	return &conv, nil
}

func (r *GormConversationRepository) FindByID(ctx context.Context, id uint) (*domain.Conversation, error) {
	var conv domain.Conversation
	if err := conn(ctx, r.db).First(&conv, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrConversationNotFound
		}
		return nil, fmt.Errorf("gorm: find conversation %d: %w", id, err)
	}
	return &conv, nil
}

func (r *GormConversationRepository) DeactivateAll(ctx context.Context, roomID uint) error {
	err := conn(ctx, r.db).Model(&domain.Conversation{}).
		Where("id_sala = ? AND activa = ?", roomID, true).
		Update("activa", false).Error
	if err != nil {
		return fmt.Errorf("gorm: deactivate conversations of room %d: %w", roomID, err)
	}
	return nil
}

func (r *GormConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	if err := conn(ctx, r.db).Create(conv).Error; err != nil {
		return fmt.Errorf("gorm: create conversation for room %d: %w", conv.RoomID, err)
	}
	return nil
}

func (r *GormConversationRepository) Touch(ctx context.Context, id uint) error {
	err := conn(ctx, r.db).Model(&domain.Conversation{}).
		Where("id_conversacion = ?", id).
		Update("fecha_ultima_actualizacion", time.Now()).Error
	if err != nil {
		return fmt.Errorf("gorm: touch conversation %d: %w", id, err)
	}
	return nil
}
