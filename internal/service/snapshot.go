package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jkarlos000/sw1-p1/internal/domain"
	"github.com/jkarlos000/sw1-p1/internal/repository"

	"github.com/sirupsen/logrus"
)

const (
	ManualSnapshotDescription    = "Snapshot manual"
	SuggestedSnapshotDescription = "Modificación sugerida por IA"
)

// SnapshotService stores point-in-time copies of a conversation's diagram.
type SnapshotService struct {
	snapshotRepo repository.SnapshotRepository
	convRepo     repository.ConversationRepository
}

func NewSnapshotService(snapshotRepo repository.SnapshotRepository, convRepo repository.ConversationRepository) *SnapshotService {
	if snapshotRepo == nil || convRepo == nil {
		panic("all dependencies must be non-nil for SnapshotService")
	}
	return &SnapshotService{snapshotRepo: snapshotRepo, convRepo: convRepo}
}

// Save stores diagram under the conversation. messageID may be nil.
func (s *SnapshotService) Save(ctx context.Context, conversationID uint, messageID *uint, diagram domain.JSONText, description string) (*domain.DiagramSnapshot, error) {
	logCtx := logrus.WithField("conversation_id", conversationID)
	if conversationID == 0 || diagram == "" {
		return nil, ErrInvalidInput
	}
	if !json.Valid([]byte(diagram)) {
		b, _ := json.Marshal(string(diagram))
		diagram = domain.JSONText(b)
	}
	if description == "" {
		description = ManualSnapshotDescription
	}

	if _, err := s.convRepo.FindByID(ctx, conversationID); err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			logCtx.Warn("Snapshot rejected: conversation not found")
			return nil, ErrConversationNotFound
		}
		logCtx.WithError(err).Error("Snapshot: conversation lookup failed")
		return nil, ErrInternalServer
	}

	snap := &domain.DiagramSnapshot{
		ConversationID: conversationID,
		MessageID:      messageID,
		Diagram:        diagram,
		Description:    description,
	}
	if err := s.snapshotRepo.Save(ctx, snap); err != nil {
		logCtx.WithError(err).Error("Failed to save snapshot")
		return nil, ErrInternalServer
	}
	logCtx.WithField("snapshot_id", snap.ID).Info("Snapshot saved")
	return snap, nil
}

// List returns the conversation's snapshots, newest first.
func (s *SnapshotService) List(ctx context.Context, conversationID uint) ([]domain.DiagramSnapshot, error) {
	if conversationID == 0 {
		return nil, ErrInvalidInput
	}
	snaps, err := s.snapshotRepo.ListByConversation(ctx, conversationID)
	if err != nil {
		logrus.WithError(err).WithField("conversation_id", conversationID).Error("List snapshots: repository error")
		return nil, ErrInternalServer
	}
	if snaps == nil {
		snaps = []domain.DiagramSnapshot{}
	}
	return snaps, nil
}
