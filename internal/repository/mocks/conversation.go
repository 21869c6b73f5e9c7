package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jkarlos000/sw1-p1/internal/domain"
)

type ConversationRepository struct {
	mock.Mock
}

func (m *ConversationRepository) FindActiveByRoom(ctx context.Context, roomID uint) (*domain.Conversation, error) {
	args := m.Called(ctx, roomID)
	c, _ := args.Get(0).(*domain.Conversation)
	return c, args.Error(1)
}

func (m *ConversationRepository) FindByID(ctx context.Context, id uint) (*domain.Conversation, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*domain.Conversation)
	return c, args.Error(1)
}

func (m *ConversationRepository) DeactivateAll(ctx context.Context, roomID uint) error {
	return m.Called(ctx, roomID).Error(0)
}

func (m *ConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	return m.Called(ctx, conv).Error(0)
}

func (m *ConversationRepository) Touch(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

type MessageRepository struct {
	mock.Mock
}

func (m *MessageRepository) Append(ctx context.Context, msg *domain.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MessageRepository) FindByID(ctx context.Context, id uint) (*domain.Message, error) {
	args := m.Called(ctx, id)
	msg, _ := args.Get(0).(*domain.Message)
	return msg, args.Error(1)
}

func (m *MessageRepository) List(ctx context.Context, conversationID uint, limit, offset int) ([]domain.Message, error) {
	args := m.Called(ctx, conversationID, limit, offset)
	msgs, _ := args.Get(0).([]domain.Message)
	return msgs, args.Error(1)
}

func (m *MessageRepository) Recent(ctx context.Context, conversationID uint, n int, excludeID uint) ([]domain.Message, error) {
	args := m.Called(ctx, conversationID, n, excludeID)
	msgs, _ := args.Get(0).([]domain.Message)
	return msgs, args.Error(1)
}

type SnapshotRepository struct {
	mock.Mock
}

func (m *SnapshotRepository) Save(ctx context.Context, snap *domain.DiagramSnapshot) error {
	return m.Called(ctx, snap).Error(0)
}

func (m *SnapshotRepository) ListByConversation(ctx context.Context, conversationID uint) ([]domain.DiagramSnapshot, error) {
	args := m.Called(ctx, conversationID)
	s, _ := args.Get(0).([]domain.DiagramSnapshot)
	return s, args.Error(1)
}

type AIConfigRepository struct {
	mock.Mock
}

func (m *AIConfigRepository) FindByRoom(ctx context.Context, roomID uint) (*domain.AIConfig, error) {
	args := m.Called(ctx, roomID)
	c, _ := args.Get(0).(*domain.AIConfig)
	return c, args.Error(1)
}

func (m *AIConfigRepository) Upsert(ctx context.Context, cfg *domain.AIConfig) error {
	return m.Called(ctx, cfg).Error(0)
}
