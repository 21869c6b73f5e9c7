package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/jkarlos000/sw1-p1/internal/domain"
)

// GormSnapshotRepository implements repository.SnapshotRepository.
type GormSnapshotRepository struct {
	db *gorm.DB
}

func NewGormSnapshotRepository(db *gorm.DB) *GormSnapshotRepository {
	if db == nil {
		panic("database connection cannot be nil for GormSnapshotRepository")
	}
	return &GormSnapshotRepository{db: db}
}

func (r *GormSnapshotRepository) Save(ctx context.Context, snap *domain.DiagramSnapshot) error {
	if err := conn(ctx, r.db).Create(snap).Error; err != nil {
		return fmt.Errorf("gorm: save snapshot for conversation %d: %w", snap.ConversationID, err)
	}
	return nil
}

func (r *GormSnapshotRepository) ListByConversation(ctx context.Context, conversationID uint) ([]domain.DiagramSnapshot, error) {
	snaps := make([]domain.DiagramSnapshot, 0)
	err := conn(ctx, r.db).
		Where("id_conversacion = ?", conversationID).
		Order("fecha_creacion DESC, id_snapshot DESC").
		Find(&snaps).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list snapshots of conversation %d: %w", conversationID, err)
	}
	return snaps, nil
}
