package hub

import (
	"encoding/json"
	"time"

	"github.com/jkarlos000/sw1-p1/internal/domain"
	"github.com/jkarlos000/sw1-p1/internal/service"
)

// Inbound event names.
const (
	EventInitGeneralChat    = "init-chatGeneral"
	EventEnterChatRoom      = "entra-sala"
	EventInitPrivateRoom    = "init-sala-privada"
	EventNewPrivateEvent    = "evento-new-sp"
	EventDeletePrivateEvent = "delete-evento-sp"
	EventNewMeeting         = "nueva-reunion"
	EventJoinMeeting        = "unirse-reunion"
	EventDiagramChanged     = "changed-diagrama"
	EventAssistantChat      = "mensaje-chat-ia"
	EventTyping             = "usuario-escribiendo-chat"
	EventDiagramSuggestion  = service.EventDiagramSuggestion

	// Kept for older clients.
	EventRoomData      = "data-sala-trabajo"
	EventEnterWorkRoom = "entrar-sala-trabajo"
	EventLeaveWorkRoom = "salir-sala-trabajo"
	EventMessage       = "mensaje"
	EventClientMessage = "mensaje-cliente"
)

// Outbound event names.
const (
	EventConnected        = "connected"
	EventError            = "error-msg-servidor"
	EventGeneralRoster    = "clientes-conectados"
	EventChatRoster       = "clientes-conectados-sala"
	EventPrivateRoster    = "clientes-conectados-sala-privada"
	EventPrivateEvents    = "updated-eventos"
	EventCollaborators    = "colaboradores-sala-trabajo"
	EventAssistantMessage = service.EventAssistantMessage
	EventNewMessage       = "mensaje-nuevo"
	EventServerMessage    = "mensaje-servidor"
)

// Texts of directed error-msg-servidor frames.
const (
	errEnterRoom          = "Datos incompletos para entrar a sala"
	errGeneralChat        = "Datos incompletos para entrar al chat general"
	errPrivateRoom        = "Datos incompletos para iniciar sala privada"
	errAddEvent           = "Datos incompletos para agregar evento"
	errDeleteEvent        = "Datos incompletos para eliminar evento"
	errCreateMeetingInput = "Datos incompletos para crear reunión"
	errUserNotFound       = "Usuario no encontrado"
	errRoomTaken          = "Ya existe una sala con ese nombre"
	errCreateMeeting      = "Error al crear la reunión en BD"
	errJoinMeetingInput   = "Datos incompletos para unirse a reunión"
	errRoomNotFound       = "Sala no encontrada"
	errJoinMeeting        = "Error al unirse a la reunión"
	errRoomDataInput      = "No sea recibido la información necesaria"
	errRoomDataSave       = "No sea guardo cambios de la sala en la BD"
	errEnterWorkRoom      = "No se ha podido crear la sala"
	errLeaveWorkRoom      = "No se ha podido salir de la sala"
	errChatInput          = "Datos incompletos para enviar el mensaje a la IA"
	errChat               = "Error al procesar el mensaje para la IA"
	errRelayInput         = "Datos incompletos: falta la sala"
	errMalformed          = "Formato de mensaje inválido"
	errRateLimited        = "Demasiados eventos, intenta nuevamente en unos segundos"
	errInternal           = "Error interno del servidor"
)

// inbound is the frame every client sends: {"event": ..., "data": ...}.
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// outbound is the frame written to clients.
type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type connectedPayload struct {
	ID string `json:"id"`
}

type chatRoomPayload struct {
	User *domain.Presence `json:"usuario" validate:"required"`
	Room string           `json:"sala" validate:"required"`
}

type privateRoomPayload struct {
	User   *domain.Presence  `json:"usuario" validate:"required"`
	RoomID domain.FlexibleID `json:"idSala" validate:"required"`
}

type privateEventPayload struct {
	RoomID domain.FlexibleID `json:"idSala" validate:"required"`
	Event  string            `json:"evento" validate:"required"`
}

type meetingPayload struct {
	UserID domain.FlexibleID `json:"id" validate:"required"`
	Name   string            `json:"nombre" validate:"required"`
}

type meetingRoom struct {
	ID   uint   `json:"id"`
	Name string `json:"nombre"`
	Host string `json:"host"`
}

type meetingAck struct {
	OK            bool                  `json:"ok"`
	Room          meetingRoom           `json:"sala"`
	Collaborators []domain.Collaborator `json:"colaboradores,omitempty"`
}

type collaboratorsPayload struct {
	Attendees []domain.Collaborator `json:"asistentes"`
	Room      string                `json:"sala"`
	OK        bool                  `json:"ok"`
}

// roomScoped reads only the room of events relayed verbatim.
type roomScoped struct {
	Room string `json:"sala"`
}

type assistantChatPayload struct {
	Room           string            `json:"sala" validate:"required"`
	RoomID         domain.FlexibleID `json:"id_sala" validate:"required"`
	ConversationID domain.FlexibleID `json:"id_conversacion"`
	UserID         domain.FlexibleID `json:"id_usuario" validate:"required"`
	Content        string            `json:"contenido" validate:"required"`
	Diagram        domain.JSONText   `json:"diagrama_actual"`
	UserEmail      string            `json:"usuario_email"`
}

// chatEcho is how a user's message to the assistant appears to the other
// members of the room before the reply arrives.
type chatEcho struct {
	ConversationID *uint              `json:"id_conversacion"`
	RoomID         uint               `json:"id_sala"`
	UserID         uint               `json:"id_usuario"`
	UserEmail      string             `json:"usuario_email,omitempty"`
	Content        string             `json:"contenido"`
	Kind           domain.MessageKind `json:"tipo_mensaje"`
	SentAt         time.Time          `json:"fecha_envio"`
}

type roomDataPayload struct {
	Client   string          `json:"cliente"`
	RoomName string          `json:"nombre_sala" validate:"required"`
	Info     json.RawMessage `json:"informacion" validate:"required"`
}

type workRoomPayload struct {
	RoomName string `json:"nombreSala" validate:"required"`
}

type serverMessage struct {
	From string `json:"de"`
	Body string `json:"cuerpo"`
}
