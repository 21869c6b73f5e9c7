package http

import (
	"context"
	"net/http"

	"github.com/jkarlos000/sw1-p1/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Authenticator is implemented by *service.AuthService.
type Authenticator interface {
	Register(ctx context.Context, email, password string) (*service.Session, error)
	Login(ctx context.Context, email, password string) (*service.Session, error)
}

// AuthHandler serves account registration and login.
type AuthHandler struct {
	authService Authenticator
}

func NewAuthHandler(authService Authenticator) *AuthHandler {
	if authService == nil {
		panic("Authenticator cannot be nil for AuthHandler")
	}
	return &AuthHandler{authService: authService}
}

// CredentialsRequest is the body of both login and registration.
type CredentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

const msgCredentialsRequired = "Email y password son requeridos"

// Register handles POST /users.
func (h *AuthHandler) Register(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.Register: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, msgCredentialsRequired)
		return
	}

	session, err := h.authService.Register(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		HandleServiceError(c, err, errorReplies{
			service.ErrInvalidInput: {http.StatusBadRequest, msgCredentialsRequired},
			service.ErrUserExists:   {http.StatusBadRequest, "El usuario ya existe"},
		})
		return
	}

	logrus.WithField("user_id", session.User.ID).Info("Handler.Register: User registered successfully")
	SuccessResponse(c, http.StatusOK, sessionBody(session))
}

// Login handles POST /users/confirm-login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithError(err).Warn("Handler.Login: Invalid input format")
		ErrorResponse(c, http.StatusBadRequest, msgCredentialsRequired)
		return
	}

	session, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		HandleServiceError(c, err, errorReplies{
			service.ErrInvalidInput:         {http.StatusBadRequest, msgCredentialsRequired},
			service.ErrUserNotFound:         {http.StatusConflict, "Este usuario no existe REGISTRE!!!"},
			service.ErrAuthenticationFailed: {http.StatusBadRequest, "El usuario no existe o la contraseña es incorrecta"},
		})
		return
	}

	logrus.WithField("user_id", session.User.ID).Info("Handler.Login: User logged in successfully")
	SuccessResponse(c, http.StatusOK, sessionBody(session))
}

func sessionBody(s *service.Session) gin.H {
	return gin.H{
		"id":    s.User.ID,
		"email": s.User.Email,
		"token": s.Token,
	}
}
