package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/jkarlos000/sw1-p1/internal/service"
	"github.com/jkarlos000/sw1-p1/internal/tasks"
)

// ChatRunner runs one assistant turn. *service.AssistantService implements it.
type ChatRunner interface {
	Chat(ctx context.Context, in service.ChatInput) (*service.ChatResult, error)
}

// FailureReporter tells the requesting connection that its turn failed.
// *hub.RelayBroadcaster implements it.
type FailureReporter interface {
	ReportChatFailure(connID string)
}

// AIChatHandler processes ai:chat tasks.
type AIChatHandler struct {
	assistant ChatRunner
	reporter  FailureReporter
}

func NewAIChatHandler(assistant ChatRunner, reporter FailureReporter) *AIChatHandler {
	if assistant == nil {
		panic("ChatRunner cannot be nil for AIChatHandler")
	}
	if reporter == nil {
		panic("FailureReporter cannot be nil for AIChatHandler")
	}
	return &AIChatHandler{assistant: assistant, reporter: reporter}
}

// ProcessTask implements asynq.Handler. Model failures are answered inside
// Chat, so only bad payloads and storage problems fail the task. Tasks are
// enqueued without retries, so a failed turn is reported to the requester
// right away.
func (h *AIChatHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
	})

	payload, err := tasks.ParseAIChatPayload(t.Payload())
	if err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal task payload")
		if payload.ConnID != "" {
			h.reporter.ReportChatFailure(payload.ConnID)
		}
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	logCtx = logCtx.WithFields(logrus.Fields{"room": payload.RoomName, "user_id": payload.UserID, "conn_id": payload.ConnID})
	logCtx.Info("Processing assistant chat task...")

	res, err := h.assistant.Chat(ctx, service.ChatInput{
		ConversationID: payload.ConversationID,
		RoomID:         payload.RoomID,
		RoomName:       payload.RoomName,
		UserID:         payload.UserID,
		Content:        payload.Content,
		Diagram:        payload.Diagram,
	})
	if err != nil {
		logCtx.WithError(err).Error("Assistant chat task failed")
		h.reporter.ReportChatFailure(payload.ConnID)
		if errors.Is(err, service.ErrInvalidInput) || errors.Is(err, service.ErrConversationNotFound) || errors.Is(err, service.ErrRoomNotFound) {
			return fmt.Errorf("assistant chat rejected: %v: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("assistant chat failed: %w", err)
	}

	fields := logrus.Fields{"has_edit_script": res != nil && res.EditScript != nil}
	if res != nil && res.Conversation != nil {
		fields["conversation_id"] = res.Conversation.ID
	}
	logCtx.WithFields(fields).Info("Assistant chat task processed successfully")
	return nil
}
