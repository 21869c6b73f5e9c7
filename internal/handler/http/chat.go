package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/jkarlos000/sw1-p1/internal/ai"
	"github.com/jkarlos000/sw1-p1/internal/domain"
	"github.com/jkarlos000/sw1-p1/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Conversations is implemented by *service.ConversationService.
type Conversations interface {
	Active(ctx context.Context, roomID uint) (*domain.Conversation, error)
	Start(ctx context.Context, roomID uint, title string, initialDiagram domain.JSONText) (*domain.Conversation, error)
	History(ctx context.Context, conversationID uint, limit, offset int) ([]domain.Message, error)
	SaveConfig(ctx context.Context, in service.ConfigInput) (*domain.AIConfig, error)
}

// Snapshots is implemented by *service.SnapshotService.
type Snapshots interface {
	Save(ctx context.Context, conversationID uint, messageID *uint, diagram domain.JSONText, description string) (*domain.DiagramSnapshot, error)
	List(ctx context.Context, conversationID uint) ([]domain.DiagramSnapshot, error)
}

// Assistant is implemented by *service.AssistantService.
type Assistant interface {
	Chat(ctx context.Context, in service.ChatInput) (*service.ChatResult, error)
	ApplyScript(diagram domain.JSONText, script ai.EditScript) (ai.ApplyResult, error)
	GenerateCollection(ctx context.Context, prompt string) (any, error)
	GenerateCode(ctx context.Context, language, info string) (string, error)
}

// ChatHandler serves the assistant endpoints under /chat-ia plus /codigoIA.
type ChatHandler struct {
	conversations Conversations
	snapshots     Snapshots
	assistant     Assistant
}

func NewChatHandler(conversations Conversations, snapshots Snapshots, assistant Assistant) *ChatHandler {
	if conversations == nil || snapshots == nil || assistant == nil {
		panic("Conversations, Snapshots and Assistant cannot be nil for ChatHandler")
	}
	return &ChatHandler{conversations: conversations, snapshots: snapshots, assistant: assistant}
}

const (
	msgMissingFields    = "Faltan datos requeridos"
	msgRoomIDRequired   = "El id_sala es requerido"
	msgConvIDRequired   = "El id_conversacion es requerido"
	defaultHistoryLimit = 50
	manualSnapshotLabel = "Snapshot manual"
	defaultConversation = "Nueva conversación"
)

type StartConversationRequest struct {
	RoomID         uint            `json:"id_sala" binding:"required"`
	Title          string          `json:"titulo"`
	InitialDiagram domain.JSONText `json:"diagrama_inicial"`
}

// ChatMessageRequest needs either a conversation or a room. Without a
// conversation the room's active one is used or started.
type ChatMessageRequest struct {
	ConversationID uint            `json:"id_conversacion"`
	RoomID         uint            `json:"id_sala" binding:"required_without=ConversationID"`
	UserID         uint            `json:"id_usuario"`
	Content        string          `json:"contenido" binding:"required"`
	Diagram        domain.JSONText `json:"diagrama_actual"`
}

type SnapshotRequest struct {
	ConversationID uint            `json:"id_conversacion" binding:"required"`
	Diagram        domain.JSONText `json:"diagrama_json" binding:"required"`
	Description    string          `json:"descripcion"`
}

type ConfigRequest struct {
	RoomID       uint     `json:"id_sala" binding:"required"`
	Model        *string  `json:"modelo"`
	Temperature  *float64 `json:"temperatura"`
	MaxTokens    *int     `json:"max_tokens"`
	SystemPrompt *string  `json:"system_prompt"`
}

type ApplyRequest struct {
	Diagram domain.JSONText `json:"diagrama" binding:"required"`
	Script  *ai.EditScript  `json:"modificaciones" binding:"required"`
}

type CollectionRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

type CodeRequest struct {
	Language string `json:"lenguaje" binding:"required"`
	Info     string `json:"info" binding:"required"`
}

// ActiveConversation handles GET /chat-ia/conversacion/sala/:id_sala.
func (h *ChatHandler) ActiveConversation(c *gin.Context) {
	roomID, ok := uintParam(c, "id_sala")
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, msgRoomIDRequired)
		return
	}
	conv, err := h.conversations.Active(c.Request.Context(), roomID)
	if err != nil {
		HandleServiceError(c, err, nil)
		return
	}
	if conv == nil {
		SuccessResponse(c, http.StatusOK, gin.H{"conversacion": nil, "mensaje": "No hay conversación activa"})
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"conversacion": conv})
}

// StartConversation handles POST /chat-ia/conversacion.
func (h *ChatHandler) StartConversation(c *gin.Context) {
	var req StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, msgRoomIDRequired)
		return
	}
	title := req.Title
	if title == "" {
		title = defaultConversation
	}
	conv, err := h.conversations.Start(c.Request.Context(), req.RoomID, title, req.InitialDiagram)
	if err != nil {
		HandleServiceError(c, err, nil)
		return
	}
	logrus.WithFields(logrus.Fields{"room_id": req.RoomID, "conversation_id": conv.ID}).Info("Handler.StartConversation: conversation created")
	SuccessResponse(c, http.StatusOK, gin.H{"conversacion": conv, "mensaje": "Conversación creada exitosamente"})
}

// History handles GET /chat-ia/mensajes/:id_conversacion.
func (h *ChatHandler) History(c *gin.Context) {
	convID, ok := uintParam(c, "id_conversacion")
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, msgConvIDRequired)
		return
	}
	limit := queryInt(c, "limite", defaultHistoryLimit)
	offset := queryInt(c, "offset", 0)

	msgs, err := h.conversations.History(c.Request.Context(), convID, limit, offset)
	if err != nil {
		HandleServiceError(c, err, nil)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"mensajes": msgs, "total": len(msgs)})
}

// SendMessage handles POST /chat-ia/mensaje. The assistant turn runs inline
// and the reply is also broadcast to the room.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, msgMissingFields)
		return
	}
	res, err := h.assistant.Chat(c.Request.Context(), service.ChatInput{
		ConversationID: req.ConversationID,
		RoomID:         req.RoomID,
		UserID:         req.UserID,
		Content:        req.Content,
		Diagram:        req.Diagram,
	})
	if err != nil {
		HandleServiceError(c, err, errorReplies{
			service.ErrInvalidInput:         {http.StatusBadRequest, msgMissingFields},
			service.ErrConversationNotFound: {http.StatusNotFound, "Conversación no encontrada"},
			service.ErrRoomNotFound:         {http.StatusNotFound, msgRoomNotFound},
			service.ErrInternalServer:       {http.StatusInternalServerError, "Error al procesar mensaje con IA"},
		})
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{
		"mensaje_usuario":       res.UserMessage,
		"mensaje_ia":            res.AssistantMessage,
		"modificacion_diagrama": res.EditScript,
	})
}

// SaveSnapshot handles POST /chat-ia/snapshot.
func (h *ChatHandler) SaveSnapshot(c *gin.Context) {
	var req SnapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, msgMissingFields)
		return
	}
	desc := req.Description
	if desc == "" {
		desc = manualSnapshotLabel
	}
	snap, err := h.snapshots.Save(c.Request.Context(), req.ConversationID, nil, req.Diagram, desc)
	if err != nil {
		HandleServiceError(c, err, errorReplies{
			service.ErrInternalServer: {http.StatusInternalServerError, "Error al guardar snapshot"},
		})
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"snapshot": snap, "mensaje": "Snapshot guardado exitosamente"})
}

// Snapshots handles GET /chat-ia/snapshots/:id_conversacion.
func (h *ChatHandler) Snapshots(c *gin.Context) {
	convID, ok := uintParam(c, "id_conversacion")
	if !ok {
		ErrorResponse(c, http.StatusBadRequest, msgConvIDRequired)
		return
	}
	list, err := h.snapshots.List(c.Request.Context(), convID)
	if err != nil {
		HandleServiceError(c, err, errorReplies{
			service.ErrInternalServer: {http.StatusInternalServerError, "Error al obtener snapshots"},
		})
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"snapshots": list})
}

// SaveConfig handles POST /chat-ia/config.
func (h *ChatHandler) SaveConfig(c *gin.Context) {
	var req ConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, msgRoomIDRequired)
		return
	}
	cfg, err := h.conversations.SaveConfig(c.Request.Context(), service.ConfigInput{
		RoomID:       req.RoomID,
		Model:        req.Model,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
		SystemPrompt: req.SystemPrompt,
	})
	if err != nil {
		HandleServiceError(c, err, nil)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"config": cfg, "mensaje": "Configuración guardada exitosamente"})
}

// ApplyEdits handles POST /chat-ia/aplicar.
func (h *ChatHandler) ApplyEdits(c *gin.Context) {
	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, msgMissingFields)
		return
	}
	res, err := h.assistant.ApplyScript(req.Diagram, *req.Script)
	if err != nil {
		HandleServiceError(c, err, errorReplies{
			service.ErrInvalidInput: {http.StatusBadRequest, "Diagrama inválido"},
		})
		return
	}
	if len(res.Failures) > 0 {
		logrus.WithFields(logrus.Fields{"applied": res.Applied, "failed": len(res.Failures)}).Warn("Handler.ApplyEdits: some actions were skipped")
	}
	SuccessResponse(c, http.StatusOK, gin.H{"diagrama": res.Diagram})
}

// GenerateCollection handles POST /chat-ia/generar-postman.
func (h *ChatHandler) GenerateCollection(c *gin.Context) {
	var req CollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "El prompt es requerido")
		return
	}
	doc, err := h.assistant.GenerateCollection(c.Request.Context(), req.Prompt)
	if err != nil {
		failed := errorReply{http.StatusInternalServerError, "Error al generar colección de Postman"}
		HandleServiceError(c, err, errorReplies{
			service.ErrInvalidInput:          {http.StatusBadRequest, "El prompt es requerido"},
			service.ErrCollectionUnparseable: failed,
			service.ErrAIUnavailable:         failed,
		})
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"coleccion": doc})
}

// GenerateCode handles POST /codigoIA.
func (h *ChatHandler) GenerateCode(c *gin.Context) {
	var req CodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, msgMissingFields)
		return
	}
	code, err := h.assistant.GenerateCode(c.Request.Context(), req.Language, req.Info)
	if err != nil {
		HandleServiceError(c, err, errorReplies{
			service.ErrInvalidInput:  {http.StatusBadRequest, msgMissingFields},
			service.ErrAIUnavailable: {http.StatusInternalServerError, "Error en pedir la informacion a la IA"},
		})
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"infoCodigo": code})
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

func queryInt(c *gin.Context, name string, def int) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil || n < 0 {
		return def
	}
	return n
}
