package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/jkarlos000/sw1-p1/internal/ai"
	"github.com/jkarlos000/sw1-p1/internal/domain"
	"github.com/jkarlos000/sw1-p1/internal/metrics"
	"github.com/jkarlos000/sw1-p1/internal/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Real-time events emitted by the assistant.
const (
	EventAssistantMessage  = "nuevo-mensaje-chat-ia"
	EventDiagramSuggestion = "modificacion-diagrama-ia"
)

// Completer produces a model reply. *ai.Dispatcher implements it.
type Completer interface {
	Complete(ctx context.Context, req ai.Request) (ai.Completion, error)
}

// Broadcaster delivers an event to every connection joined to a room channel.
type Broadcaster interface {
	EmitToRoom(room, event string, payload any)
}

// ChatInput is one user turn addressed to the assistant. Either
// ConversationID or RoomID must be set.
type ChatInput struct {
	ConversationID uint
	RoomID         uint
	// RoomName is the channel to broadcast on. It is looked up from RoomID
	// when empty.
	RoomName string
	UserID   uint
	Content  string
	// Diagram is the client's current diagram, if it sent one.
	Diagram domain.JSONText
}

// ChatResult is what Chat persisted and broadcast.
type ChatResult struct {
	Conversation     *domain.Conversation
	UserMessage      *domain.Message
	AssistantMessage *domain.Message
	EditScript       *ai.EditScript
	RoomName         string
}

// DiagramSuggestion is the payload of EventDiagramSuggestion.
type DiagramSuggestion struct {
	Diagram     *ai.EditScript `json:"diagrama"`
	Description string         `json:"descripcion"`
}

// AssistantService mediates between a room's chat and the model backends.
type AssistantService struct {
	conversations *ConversationService
	msgRepo       repository.MessageRepository
	configRepo    repository.AIConfigRepository
	roomRepo      repository.RoomRepository
	snapshotRepo  repository.SnapshotRepository
	completer     Completer
	broadcaster   Broadcaster
	defaults      ai.Defaults
}

func NewAssistantService(
	conversations *ConversationService,
	msgRepo repository.MessageRepository,
	configRepo repository.AIConfigRepository,
	roomRepo repository.RoomRepository,
	snapshotRepo repository.SnapshotRepository,
	completer Completer,
	defaults ai.Defaults,
) *AssistantService {
	if conversations == nil || msgRepo == nil || configRepo == nil || roomRepo == nil || snapshotRepo == nil || completer == nil {
		panic("all dependencies must be non-nil for AssistantService")
	}
	if defaults.HistoryLimit <= 0 {
		defaults.HistoryLimit = ai.BuiltinDefaults().HistoryLimit
	}
	return &AssistantService{
		conversations: conversations,
		msgRepo:       msgRepo,
		configRepo:    configRepo,
		roomRepo:      roomRepo,
		snapshotRepo:  snapshotRepo,
		completer:     completer,
		defaults:      defaults,
	}
}

// SetBroadcaster wires the real-time fan-out. The hub is built after the
// services, so this cannot be a constructor argument.
func (s *AssistantService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Chat persists the user's message, asks the configured model, persists and
// broadcasts the reply. A failing model never fails the call: the reply
// becomes ai.Apology.
func (s *AssistantService) Chat(ctx context.Context, in ChatInput) (*ChatResult, error) {
	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" || (in.ConversationID == 0 && in.RoomID == 0) {
		return nil, ErrInvalidInput
	}
	logCtx := logrus.WithFields(logrus.Fields{"room_id": in.RoomID, "conversation_id": in.ConversationID, "user_id": in.UserID})

	conv, err := s.resolveConversation(ctx, in)
	if err != nil {
		return nil, err
	}
	if in.RoomID == 0 {
		in.RoomID = conv.RoomID
	}
	logCtx = logCtx.WithField("conversation_id", conv.ID)

	userMsg, err := s.appendUserMessage(ctx, conv.ID, in)
	if err != nil {
		logCtx.WithError(err).Error("Chat: failed to persist user message")
		return nil, ErrInternalServer
	}

	var (
		cfg      ai.Defaults
		history  []domain.Message
		roomName = in.RoomName
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cfg = s.resolveConfig(gctx, in.RoomID)
		return nil
	})
	g.Go(func() error {
		var err error
		history, err = s.msgRepo.Recent(gctx, conv.ID, s.defaults.HistoryLimit, userMsg.ID)
		return err
	})
	if roomName == "" {
		g.Go(func() error {
			room, err := s.roomRepo.FindByID(gctx, in.RoomID)
			if err != nil {
				logCtx.WithError(err).Warn("Chat: could not resolve room name, reply will not be broadcast")
				return nil
			}
			roomName = room.Name
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logCtx.WithError(err).Error("Chat: failed to load conversation history")
		return nil, ErrInternalServer
	}

	current, err := ai.ParseDiagram([]byte(in.Diagram))
	if err != nil {
		logCtx.WithError(err).Warn("Chat: current diagram is not valid JSON, ignoring it")
		current = nil
	}

	req := ai.Request{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		System:      cfg.SystemPrompt,
		Turns:       buildTurns(history, in.Content, current),
	}
	completion, elapsed := s.complete(ctx, req, logCtx)

	script := ai.ExtractEditScript(completion.Text)
	meta, _ := json.Marshal(domain.MessageMetadata{
		Model:          cfg.Model,
		TokensUsed:     completion.TokensUsed,
		ResponseTimeMs: elapsed.Milliseconds(),
	})
	assistantMsg := &domain.Message{
		ConversationID: conv.ID,
		Kind:           domain.MessageKindAssistant,
		Content:        completion.Text,
		Metadata:       domain.JSONText(meta),
	}
	if err := s.msgRepo.Append(ctx, assistantMsg); err != nil {
		logCtx.WithError(err).Error("Chat: failed to persist assistant message")
		return nil, ErrInternalServer
	}
	assistantMsg.UserEmail = domain.AssistantEmail
	if err := s.conversations.convRepo.Touch(ctx, conv.ID); err != nil {
		logCtx.WithError(err).Warn("Chat: failed to bump conversation timestamp")
	}

	if script != nil {
		metrics.EditScripts.Inc()
		s.saveSuggestion(ctx, conv.ID, assistantMsg.ID, current, script, logCtx)
	}

	s.broadcast(roomName, assistantMsg, script)
	logCtx.WithFields(logrus.Fields{
		"tokens":      completion.TokensUsed,
		"elapsed_ms":  elapsed.Milliseconds(),
		"edit_script": script != nil,
	}).Info("Assistant reply stored")

	return &ChatResult{
		Conversation:     conv,
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		EditScript:       script,
		RoomName:         roomName,
	}, nil
}

func (s *AssistantService) resolveConversation(ctx context.Context, in ChatInput) (*domain.Conversation, error) {
	if in.ConversationID != 0 {
		return s.conversations.Conversation(ctx, in.ConversationID)
	}
	diagram := in.Diagram
	if diagram == "" {
		diagram = emptyContext
	}
	return s.conversations.EnsureActive(ctx, in.RoomID, diagram)
}

func (s *AssistantService) appendUserMessage(ctx context.Context, conversationID uint, in ChatInput) (*domain.Message, error) {
	msg := &domain.Message{ConversationID: conversationID, Kind: domain.MessageKindUser, Content: in.Content}
	if in.UserID != 0 {
		uid := in.UserID
		msg.UserID = &uid
	}
	if err := s.msgRepo.Append(ctx, msg); err != nil {
		return nil, err
	}
	stored, err := s.msgRepo.FindByID(ctx, msg.ID)
	if err != nil {
		logrus.WithError(err).WithField("message_id", msg.ID).Warn("Could not reload user message with author")
		return msg, nil
	}
	return stored, nil
}

// resolveConfig returns the room's configuration with blanks filled from
// the defaults. Lookup failures fall back to the defaults.
func (s *AssistantService) resolveConfig(ctx context.Context, roomID uint) ai.Defaults {
	cfg := s.defaults
	stored, err := s.configRepo.FindByRoom(ctx, roomID)
	if err != nil {
		if !errors.Is(err, repository.ErrConfigNotFound) {
			logrus.WithError(err).WithField("room_id", roomID).Warn("AI config lookup failed, using defaults")
		}
		return cfg
	}
	if stored.Model != "" {
		cfg.Model = stored.Model
	}
	if stored.Temperature > 0 {
		cfg.Temperature = stored.Temperature
	}
	if stored.MaxTokens > 0 {
		cfg.MaxTokens = stored.MaxTokens
	}
	if stored.SystemPrompt != "" {
		cfg.SystemPrompt = stored.SystemPrompt
	}
	return cfg
}

// buildTurns maps stored messages to model turns and appends the new
// question, wrapped with the rendered diagram when one was supplied.
func buildTurns(history []domain.Message, question string, current ai.Diagram) []ai.Turn {
	turns := make([]ai.Turn, 0, len(history)+1)
	for _, m := range history {
		role := ai.RoleAssistant
		if m.Kind == domain.MessageKindUser {
			role = ai.RoleUser
		}
		turns = append(turns, ai.Turn{Role: role, Content: m.Content})
	}
	final := question
	if current != nil {
		final = ai.WrapWithDiagram(question, ai.Describe(current))
	}
	return append(turns, ai.Turn{Role: ai.RoleUser, Content: final})
}

func (s *AssistantService) complete(ctx context.Context, req ai.Request, logCtx *logrus.Entry) (ai.Completion, time.Duration) {
	backend := backendLabel(req.Model)
	start := time.Now()
	completion, err := s.completer.Complete(ctx, req)
	elapsed := time.Since(start)
	metrics.AILatency.WithLabelValues(backend).Observe(elapsed.Seconds())

	switch {
	case err != nil:
		logCtx.WithError(err).WithField("model", req.Model).Error("Assistant backend failed, replying with apology")
		metrics.AIRequests.WithLabelValues(backend, metrics.ResultError).Inc()
		return ai.Completion{Text: ai.Apology, Model: req.Model}, elapsed
	case completion.Canned:
		metrics.AIRequests.WithLabelValues(backend, metrics.ResultCanned).Inc()
	default:
		metrics.AIRequests.WithLabelValues(backend, metrics.ResultOK).Inc()
	}
	return completion, elapsed
}

// saveSuggestion stores the diagram the script would produce, or the script
// itself when no current diagram was supplied.
func (s *AssistantService) saveSuggestion(ctx context.Context, conversationID, messageID uint, current ai.Diagram, script *ai.EditScript, logCtx *logrus.Entry) {
	var doc any = script
	if current != nil {
		res := ai.Apply(current, *script)
		for _, f := range res.Failures {
			logCtx.WithError(f).Warn("Edit script action skipped")
		}
		doc = res.Diagram
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		logCtx.WithError(err).Error("Could not encode suggested diagram")
		return
	}
	mid := messageID
	snap := &domain.DiagramSnapshot{
		ConversationID: conversationID,
		MessageID:      &mid,
		Diagram:        domain.JSONText(raw),
		Description:    SuggestedSnapshotDescription,
	}
	if err := s.snapshotRepo.Save(ctx, snap); err != nil {
		logCtx.WithError(err).Error("Failed to save suggested snapshot")
	}
}

func (s *AssistantService) broadcast(roomName string, msg *domain.Message, script *ai.EditScript) {
	if s.broadcaster == nil || roomName == "" {
		return
	}
	s.broadcaster.EmitToRoom(roomName, EventAssistantMessage, msg)
	if script != nil {
		s.broadcaster.EmitToRoom(roomName, EventDiagramSuggestion, DiagramSuggestion{
			Diagram:     script,
			Description: SuggestedSnapshotDescription,
		})
	}
}

// ApplyScript applies an edit script to a diagram document.
func (s *AssistantService) ApplyScript(diagram domain.JSONText, script ai.EditScript) (ai.ApplyResult, error) {
	d, err := ai.ParseDiagram([]byte(diagram))
	if err != nil {
		return ai.ApplyResult{}, ErrInvalidInput
	}
	if d == nil {
		d = ai.Diagram{"cells": []any{}}
	}
	return ai.Apply(d, script), nil
}

// GenerateCollection asks the model for a Postman collection and recovers
// the JSON document from its reply.
func (s *AssistantService) GenerateCollection(ctx context.Context, prompt string) (any, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrInvalidInput
	}
	text, err := s.passthrough(ctx, ai.Request{
		Model:       ai.CollectionModel,
		MaxTokens:   ai.CollectionMaxTokens,
		Temperature: ai.CollectionTemperature,
		Turns:       []ai.Turn{{Role: ai.RoleUser, Content: prompt}},
	})
	if err != nil {
		return nil, err
	}
	doc, err := ai.ExtractCollection(text)
	if err != nil {
		logrus.WithField("reply_bytes", len(text)).Warn("GenerateCollection: no JSON document in reply")
		return nil, ErrCollectionUnparseable
	}
	return doc, nil
}

// GenerateCode asks the model for a code skeleton of the described diagram.
func (s *AssistantService) GenerateCode(ctx context.Context, language, info string) (string, error) {
	if strings.TrimSpace(language) == "" || strings.TrimSpace(info) == "" {
		return "", ErrInvalidInput
	}
	return s.passthrough(ctx, ai.Request{
		Model:     ai.CodeModel,
		MaxTokens: ai.CodeMaxTokens,
		Turns:     []ai.Turn{{Role: ai.RoleUser, Content: ai.CodePrompt(language, info)}},
	})
}

// passthrough sends a single prompt and treats simulated replies as a
// missing backend.
func (s *AssistantService) passthrough(ctx context.Context, req ai.Request) (string, error) {
	logCtx := logrus.WithField("model", req.Model)
	completion, err := s.completer.Complete(ctx, req)
	if err != nil {
		logCtx.WithError(err).Error("Prompt passthrough failed")
		metrics.AIRequests.WithLabelValues(backendLabel(req.Model), metrics.ResultError).Inc()
		return "", ErrAIUnavailable
	}
	if completion.Canned {
		logCtx.Warn("Prompt passthrough needs a configured backend")
		return "", ErrAIUnavailable
	}
	metrics.AIRequests.WithLabelValues(backendLabel(req.Model), metrics.ResultOK).Inc()
	return completion.Text, nil
}

func backendLabel(model string) string {
	if ai.IsClaudeModel(model) {
		return "anthropic"
	}
	return "openai"
}
