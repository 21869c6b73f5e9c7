package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jkarlos000/sw1-p1/internal/domain"
	"github.com/jkarlos000/sw1-p1/internal/repository"
)

// GormMessageRepository implements repository.MessageRepository.
type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	if db == nil {
		panic("database connection cannot be nil for GormMessageRepository")
	}
	return &GormMessageRepository{db: db}
}

// withAuthor selects message columns plus the author's email.
func (r *GormMessageRepository) withAuthor(ctx context.Context) *gorm.DB {
	return conn(ctx, r.db).Model(&domain.Message{}).
		Select("mensaje_chat_ia.*, usuario.email AS usuario_email").
		Joins("LEFT JOIN usuario ON usuario.id_usuario = mensaje_chat_ia.id_usuario")
}

func (r *GormMessageRepository) Append(ctx context.Context, msg *domain.Message) error {
	if err := conn(ctx, r.db).Create(msg).Error; err != nil {
		return fmt.Errorf("gorm: append message to conversation %d: %w", msg.ConversationID, err)
	}
	return nil
}

func (r *GormMessageRepository) FindByID(ctx context.Context, id uint) (*domain.Message, error) {
	var msg domain.Message
	err := r.withAuthor(ctx).Where("mensaje_chat_ia.id_mensaje = ?", id).First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrMessageNotFound
		}
		return nil, fmt.Errorf("gorm: find message %d: %w", id, err)
	}
	return &msg, nil
}

func (r *GormMessageRepository) List(ctx context.Context, conversationID uint, limit, offset int) ([]domain.Message, error) {
	msgs := make([]domain.Message, 0)
	err := r.withAuthor(ctx).
		Where("mensaje_chat_ia.id_conversacion = ?", conversationID).
		Order("mensaje_chat_ia.fecha_envio ASC, mensaje_chat_ia.id_mensaje ASC").
		Limit(limit).Offset(offset).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list messages of conversation %d: %w", conversationID, err)
	}
	return msgs, nil
}

func (r *GormMessageRepository) Recent(ctx context.Context, conversationID uint, n int, excludeID uint) ([]domain.Message, error) {
	msgs := make([]domain.Message, 0, n)
	q := conn(ctx, r.db).Where("id_conversacion = ?", conversationID)
	if excludeID != 0 {
		q = q.Where("id_mensaje <> ?", excludeID)
	}
	err := q.Order("fecha_envio DESC, id_mensaje DESC").Limit(n).Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: recent messages of conversation %d: %w", conversationID, err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
