package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/jkarlos000/sw1-p1/internal/domain"

	"github.com/hibiken/asynq"
)

// Task types.
const (
	TypeAIChat = "ai:chat"
)

// QueueAI is the queue AI chat tasks are enqueued on.
const QueueAI = "critical"

// AIChatPayload is one user turn sent to the assistant from a real-time
// connection. It mirrors service.ChatInput.
type AIChatPayload struct {
	ConversationID uint            `json:"id_conversacion,omitempty"`
	RoomID         uint            `json:"id_sala"`
	RoomName       string          `json:"sala"`
	UserID         uint            `json:"id_usuario"`
	Content        string          `json:"contenido"`
	Diagram        domain.JSONText `json:"diagrama_actual,omitempty"`
	ConnID         string          `json:"conn_id,omitempty"`
}

// NewAIChatTask builds an ai:chat task. It is not retried: a failed model
// call is already answered with an apology, and a retry would duplicate the
// persisted user message.
func NewAIChatTask(p AIChatPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("tasks: marshal ai chat payload: %w", err)
	}
	return asynq.NewTask(TypeAIChat, payload, asynq.Queue(QueueAI), asynq.MaxRetry(0)), nil
}

// ParseAIChatPayload decodes and checks an ai:chat payload.
func ParseAIChatPayload(b []byte) (AIChatPayload, error) {
	var p AIChatPayload
	if err := json.Unmarshal(b, &p); err != nil {
		return p, fmt.Errorf("tasks: unmarshal ai chat payload: %w", err)
	}
	if p.Content == "" || (p.RoomID == 0 && p.ConversationID == 0) {
		return p, fmt.Errorf("tasks: ai chat payload without content or room")
	}
	return p, nil
}
