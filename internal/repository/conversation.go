package repository

import (
	"context"

	"github.com/jkarlos000/sw1-p1/internal/domain"
)

// ConversationRepository stores AI conversations.
type ConversationRepository interface {
	// FindActiveByRoom returns the most recently updated active conversation
	// or ErrConversationNotFound.
	FindActiveByRoom(ctx context.Context, roomID uint) (*domain.Conversation, error)
	FindByID(ctx context.Context, id uint) (*domain.Conversation, error)
	DeactivateAll(ctx context.Context, roomID uint) error
	Create(ctx context.Context, conv *domain.Conversation) error
	// Touch bumps the last-updated timestamp.
	Touch(ctx context.Context, id uint) error
}

// MessageRepository stores the append-only message log.
type MessageRepository interface {
	Append(ctx context.Context, msg *domain.Message) error
	// FindByID loads a message together with its author's email.
	FindByID(ctx context.Context, id uint) (*domain.Message, error)
	// List returns messages in send order, oldest first.
	List(ctx context.Context, conversationID uint, limit, offset int) ([]domain.Message, error)
	// Recent returns at most n of the newest messages, oldest first,
	// skipping excludeID.
	Recent(ctx context.Context, conversationID uint, n int, excludeID uint) ([]domain.Message, error)
}

// SnapshotRepository stores diagram snapshots.
type SnapshotRepository interface {
	Save(ctx context.Context, snap *domain.DiagramSnapshot) error
	// ListByConversation returns snapshots newest first.
	ListByConversation(ctx context.Context, conversationID uint) ([]domain.DiagramSnapshot, error)
}

// AIConfigRepository stores at most one assistant configuration per room.
type AIConfigRepository interface {
	FindByRoom(ctx context.Context, roomID uint) (*domain.AIConfig, error)
	Upsert(ctx context.Context, cfg *domain.AIConfig) error
}
