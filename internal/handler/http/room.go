package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jkarlos000/sw1-p1/internal/domain"
	"github.com/jkarlos000/sw1-p1/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Rooms is implemented by *service.RoomService.
type Rooms interface {
	CreateRoom(ctx context.Context, hostEmail, name string) (*domain.Room, error)
	FindByName(ctx context.Context, name string) (*domain.Room, error)
	SaveDiagram(ctx context.Context, name, diagram string) error
	AddAttendance(ctx context.Context, email, roomName string) error
	RemoveAttendance(ctx context.Context, email, roomName string) error
	IsHost(ctx context.Context, email, roomName string) error
	Attendees(ctx context.Context, name string) ([]domain.Collaborator, error)
	DeleteIfEmpty(ctx context.Context, name string) (bool, error)
}

// RoomHandler serves the durable room endpoints.
type RoomHandler struct {
	roomService Rooms
}

func NewRoomHandler(roomService Rooms) *RoomHandler {
	if roomService == nil {
		panic("Rooms cannot be nil for RoomHandler")
	}
	return &RoomHandler{roomService: roomService}
}

const (
	msgUserAndRoomRequired = "Usuario y sala son requeridos"
	msgRoomRequired        = "Sala es requerida"
	msgRoomNotFound        = "Sala no encontrada"
)

// UserRoomRequest names a user by email and a room by name.
type UserRoomRequest struct {
	User string `json:"usuario" binding:"required"`
	Room string `json:"sala" binding:"required"`
}

// RoomRequest names a room.
type RoomRequest struct {
	Room string `json:"sala" binding:"required"`
}

// SaveDiagramRequest carries a serialized diagram, either as a JSON string
// or as a JSON document.
type SaveDiagramRequest struct {
	Diagram json.RawMessage `json:"diagrama" binding:"required"`
}

// CreateRoom handles POST /salaCreate.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req UserRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, msgUserAndRoomRequired)
		return
	}
	room, err := h.roomService.CreateRoom(c.Request.Context(), req.User, req.Room)
	if err != nil {
		conflict := errorReply{http.StatusConflict, "Error en la creacion de una sala"}
		HandleServiceError(c, err, errorReplies{
			service.ErrInvalidInput:  {http.StatusBadRequest, msgUserAndRoomRequired},
			service.ErrUserNotFound:  conflict,
			service.ErrRoomNameTaken: conflict,
		})
		return
	}
	logrus.WithFields(logrus.Fields{"room": room.Name, "host": room.HostEmail}).Info("Handler.CreateRoom: room created")
	SuccessResponse(c, http.StatusOK, gin.H{"host": room.HostEmail, "sala": room.Name})
}

// RoomData handles POST /salaData.
func (h *RoomHandler) RoomData(c *gin.Context) {
	var req RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, msgRoomRequired)
		return
	}
	room, err := h.roomService.FindByName(c.Request.Context(), req.Room)
	if err != nil {
		HandleServiceError(c, err, errorReplies{
			service.ErrRoomNotFound: {http.StatusConflict, "Error en la consulta de una sala"},
		})
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"sala": room.Name, "data": room.Diagram})
}

// GetDiagram handles GET /salas/:nombreSala.
func (h *RoomHandler) GetDiagram(c *gin.Context) {
	name := strings.TrimSpace(c.Param("nombreSala"))
	if name == "" {
		ErrorResponse(c, http.StatusBadRequest, "Nombre de sala es requerido")
		return
	}
	room, err := h.roomService.FindByName(c.Request.Context(), name)
	if err != nil {
		HandleServiceError(c, err, errorReplies{
			service.ErrRoomNotFound: {http.StatusNotFound, msgRoomNotFound},
		})
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"sala": room.Name, "diagrama": room.Diagram})
}

// SaveDiagram handles PUT /salas/:nombreSala.
func (h *RoomHandler) SaveDiagram(c *gin.Context) {
	name := strings.TrimSpace(c.Param("nombreSala"))
	var req SaveDiagramRequest
	if err := c.ShouldBindJSON(&req); err != nil || name == "" {
		ErrorResponse(c, http.StatusBadRequest, "Sala y diagrama son requeridos")
		return
	}
	if err := h.roomService.SaveDiagram(c.Request.Context(), name, domain.DiagramText(req.Diagram)); err != nil {
		HandleServiceError(c, err, errorReplies{
			service.ErrRoomNotFound: {http.StatusNotFound, msgRoomNotFound},
		})
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"sala": name})
}

// JoinByCode handles POST /unirseSalaXcodigo.
func (h *RoomHandler) JoinByCode(c *gin.Context) {
	var req RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, msgRoomRequired)
		return
	}
	room, err := h.roomService.FindByName(c.Request.Context(), req.Room)
	if err != nil {
		HandleServiceError(c, err, errorReplies{
			service.ErrRoomNotFound: {http.StatusConflict, "La sala no existe"},
		})
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"sala": room.Name})
}

// AddAttendance handles POST /asistenciaAnotar.
func (h *RoomHandler) AddAttendance(c *gin.Context) {
	var req UserRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, msgUserAndRoomRequired)
		return
	}
	if err := h.roomService.AddAttendance(c.Request.Context(), req.User, req.Room); err != nil {
		conflict := errorReply{http.StatusConflict, "Error en la asistencia a una sala"}
		HandleServiceError(c, err, errorReplies{
			service.ErrUserNotFound: conflict,
			service.ErrRoomNotFound: conflict,
		})
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"usuario": req.User, "sala": req.Room})
}

// RemoveAttendance handles POST /asistenciaBorrar.
func (h *RoomHandler) RemoveAttendance(c *gin.Context) {
	var req UserRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, msgUserAndRoomRequired)
		return
	}
	if err := h.roomService.RemoveAttendance(c.Request.Context(), req.User, req.Room); err != nil {
		conflict := errorReply{http.StatusConflict, "Error en la eliminacion de la asistencia a una sala"}
		HandleServiceError(c, err, errorReplies{
			service.ErrAttendanceNotFound: conflict,
			service.ErrUserNotFound:       conflict,
			service.ErrRoomNotFound:       conflict,
		})
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"usuario": req.User, "sala": req.Room})
}

// IsHost handles POST /esHost.
func (h *RoomHandler) IsHost(c *gin.Context) {
	var req UserRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, msgUserAndRoomRequired)
		return
	}
	if err := h.roomService.IsHost(c.Request.Context(), req.User, req.Room); err != nil {
		notHost := errorReply{http.StatusConflict, "El usuario no es el host de la sala"}
		HandleServiceError(c, err, errorReplies{
			service.ErrNotHost:      notHost,
			service.ErrRoomNotFound: notHost,
		})
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"usuario": req.User, "sala": req.Room})
}

// Attendees handles POST /asistentesSala.
func (h *RoomHandler) Attendees(c *gin.Context) {
	var req RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, msgRoomRequired)
		return
	}
	list, err := h.roomService.Attendees(c.Request.Context(), req.Room)
	if err != nil {
		conflict := errorReply{http.StatusConflict, "Error en la consulta de asistentes de una sala"}
		HandleServiceError(c, err, errorReplies{
			service.ErrNoAttendees:  conflict,
			service.ErrRoomNotFound: conflict,
		})
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"asistentes": list, "sala": req.Room})
}

// DeleteRoom handles POST /borrarSala. A room with attendance rows is kept
// and the call still succeeds.
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	var req RoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, msgRoomRequired)
		return
	}
	deleted, err := h.roomService.DeleteIfEmpty(c.Request.Context(), req.Room)
	if err != nil {
		HandleServiceError(c, err, errorReplies{
			service.ErrRoomNotFound: {http.StatusNotFound, msgRoomNotFound},
		})
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"eliminada": deleted})
}
