package http

import (
	"errors"
	"net/http"

	"github.com/jkarlos000/sw1-p1/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// msgStorage is the reply for any failure the caller cannot act on.
const msgStorage = "Error en consulta BD"

// errorReply is the status and text written for one service error.
type errorReply struct {
	Status  int
	Message string
}

// errorReplies lets a route answer specific service errors its own way.
type errorReplies map[error]errorReply

var defaultStatus = []struct {
	err    error
	status int
}{
	{service.ErrInvalidInput, http.StatusBadRequest},
	{service.ErrUserExists, http.StatusBadRequest},
	{service.ErrAuthenticationFailed, http.StatusBadRequest},
	{service.ErrRoomNotFound, http.StatusNotFound},
	{service.ErrConversationNotFound, http.StatusNotFound},
	{service.ErrUserNotFound, http.StatusConflict},
	{service.ErrRoomNameTaken, http.StatusConflict},
	{service.ErrAttendanceNotFound, http.StatusConflict},
	{service.ErrNoAttendees, http.StatusConflict},
	{service.ErrNotHost, http.StatusConflict},
	{service.ErrCollectionUnparseable, http.StatusBadGateway},
	{service.ErrAIUnavailable, http.StatusServiceUnavailable},
}

// HandleServiceError maps a service error onto the response. replies is
// consulted first and may be nil.
func HandleServiceError(c *gin.Context, err error, replies errorReplies) {
	for target, reply := range replies {
		if errors.Is(err, target) {
			ErrorResponse(c, reply.Status, reply.Message)
			return
		}
	}
	for _, m := range defaultStatus {
		if errors.Is(err, m.err) {
			ErrorResponse(c, m.status, m.err.Error())
			return
		}
	}
	logrus.WithError(err).WithField("path", c.FullPath()).Error("Unhandled internal server error")
	ErrorResponse(c, http.StatusInternalServerError, msgStorage)
}
