package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jkarlos000/sw1-p1/internal/ai"
	"github.com/jkarlos000/sw1-p1/internal/domain"
	"github.com/jkarlos000/sw1-p1/internal/repository"

	"github.com/sirupsen/logrus"
)

const (
	DefaultConversationTitle = "Nueva conversación"
	AssistantChatTitle       = "Chat con IA"
	ConversationGreeting     = "Conversación iniciada. Puedo ayudarte a crear y modificar tu diagrama UML."

	DefaultHistoryLimit = 50
	emptyContext        = domain.JSONText("{}")
)

// ConversationService manages AI conversations, their history and the
// per-room assistant configuration.
type ConversationService struct {
	convRepo   repository.ConversationRepository
	msgRepo    repository.MessageRepository
	configRepo repository.AIConfigRepository
	tx         repository.Transactor
}

func NewConversationService(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	configRepo repository.AIConfigRepository,
	tx repository.Transactor,
) *ConversationService {
	if convRepo == nil || msgRepo == nil || configRepo == nil || tx == nil {
		panic("all dependencies must be non-nil for ConversationService")
	}
	return &ConversationService{convRepo: convRepo, msgRepo: msgRepo, configRepo: configRepo, tx: tx}
}

// Active returns the room's active conversation, or nil when there is none.
func (s *ConversationService) Active(ctx context.Context, roomID uint) (*domain.Conversation, error) {
	if roomID == 0 {
		return nil, ErrInvalidInput
	}
	conv, err := s.convRepo.FindActiveByRoom(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return nil, nil
		}
		logrus.WithError(err).WithField("room_id", roomID).Error("Active: repository error")
		return nil, ErrInternalServer
	}
	return conv, nil
}

// Start deactivates the room's conversations, creates a new active one and
// seeds it with the greeting message.
func (s *ConversationService) Start(ctx context.Context, roomID uint, title string, initialDiagram domain.JSONText) (*domain.Conversation, error) {
	if roomID == 0 {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(title) == "" {
		title = DefaultConversationTitle
	}
	return s.open(ctx, roomID, title, initialDiagram, true)
}

// EnsureActive returns the active conversation, opening one titled
// AssistantChatTitle when the room has none.
func (s *ConversationService) EnsureActive(ctx context.Context, roomID uint, diagram domain.JSONText) (*domain.Conversation, error) {
	conv, err := s.Active(ctx, roomID)
	if err != nil || conv != nil {
		return conv, err
	}
	return s.open(ctx, roomID, AssistantChatTitle, diagram, false)
}

// Conversation loads a conversation by id.
func (s *ConversationService) Conversation(ctx context.Context, id uint) (*domain.Conversation, error) {
	conv, err := s.convRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return nil, ErrConversationNotFound
		}
		logrus.WithError(err).WithField("conversation_id", id).Error("Conversation: repository error")
		return nil, ErrInternalServer
	}
	return conv, nil
}

func (s *ConversationService) open(ctx context.Context, roomID uint, title string, initial domain.JSONText, greet bool) (*domain.Conversation, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "title": title})
	if initial == "" {
		initial = emptyContext
	}
	conv := &domain.Conversation{RoomID: roomID, Title: title, InitialContext: initial, Active: true}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.convRepo.DeactivateAll(ctx, roomID); err != nil {
			return err
		}
		if err := s.convRepo.Create(ctx, conv); err != nil {
			return err
		}
		if !greet {
			return nil
		}
		return s.msgRepo.Append(ctx, &domain.Message{
			ConversationID: conv.ID,
			Kind:           domain.MessageKindSystem,
			Content:        ConversationGreeting,
		})
	})
	if err != nil {
		logCtx.WithError(err).Error("Failed to open conversation")
		return nil, ErrInternalServer
	}
	logCtx.WithField("conversation_id", conv.ID).Info("Conversation opened")
	return conv, nil
}

// History returns messages oldest first. A non-positive limit uses
// DefaultHistoryLimit.
func (s *ConversationService) History(ctx context.Context, conversationID uint, limit, offset int) ([]domain.Message, error) {
	if conversationID == 0 {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	msgs, err := s.msgRepo.List(ctx, conversationID, limit, offset)
	if err != nil {
		logrus.WithError(err).WithField("conversation_id", conversationID).Error("History: repository error")
		return nil, ErrInternalServer
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return msgs, nil
}

// ConfigInput carries optional overrides for SaveConfig. Nil fields take the
// endpoint defaults.
type ConfigInput struct {
	RoomID       uint
	Model        *string
	Temperature  *float64
	MaxTokens    *int
	SystemPrompt *string
}

// SaveConfig upserts the room's assistant configuration.
func (s *ConversationService) SaveConfig(ctx context.Context, in ConfigInput) (*domain.AIConfig, error) {
	if in.RoomID == 0 {
		return nil, ErrInvalidInput
	}
	cfg := &domain.AIConfig{
		RoomID:       in.RoomID,
		Model:        ai.ConfigEndpointModel,
		Temperature:  0.7,
		MaxTokens:    2000,
		SystemPrompt: ai.ConfigEndpointPrompt,
	}
	if in.Model != nil && *in.Model != "" {
		cfg.Model = *in.Model
	}
	if in.Temperature != nil {
		cfg.Temperature = *in.Temperature
	}
	if in.MaxTokens != nil && *in.MaxTokens > 0 {
		cfg.MaxTokens = *in.MaxTokens
	}
	if in.SystemPrompt != nil && *in.SystemPrompt != "" {
		cfg.SystemPrompt = *in.SystemPrompt
	}
	if err := s.configRepo.Upsert(ctx, cfg); err != nil {
		logrus.WithError(err).WithField("room_id", in.RoomID).Error("SaveConfig: repository error")
		return nil, ErrInternalServer
	}
	return cfg, nil
}
