package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
)

// ContextUserID is the gin context key holding the authenticated user id.
const ContextUserID = "user_id"

// ErrMissingToken means neither the Authorization header nor the token query
// parameter carried a token.
var ErrMissingToken = errors.New("missing bearer token")

// Auth rejects requests without a valid token.
func Auth(jwtSecret string) gin.HandlerFunc {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty for Auth middleware")
	}

	return func(c *gin.Context) {
		tokenStr, err := extractToken(c)
		if err != nil {
			if errors.Is(err, ErrMissingToken) {
				logrus.Warn("Auth middleware: missing token")
				abort(c, http.StatusUnauthorized, "Token requerido")
			} else {
				logrus.WithError(err).Warn("Auth middleware: malformed Authorization header")
				abort(c, http.StatusUnauthorized, "Formato de token inválido")
			}
			return
		}

		userID, err := userIDFromToken(tokenStr, jwtSecret)
		if err != nil {
			logTokenError(err)
			abort(c, http.StatusUnauthorized, "Token inválido o expirado")
			return
		}

		c.Set(ContextUserID, userID)
		logrus.WithField("user_id", userID).Debug("Auth middleware: user authenticated via JWT")
		c.Next()
	}
}

// OptionalAuth sets the user id when a valid token is present and lets
// every request through. A bad token is logged and ignored.
func OptionalAuth(jwtSecret string) gin.HandlerFunc {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty for OptionalAuth middleware")
	}

	return func(c *gin.Context) {
		tokenStr, err := extractToken(c)
		if err != nil {
			c.Next()
			return
		}
		userID, err := userIDFromToken(tokenStr, jwtSecret)
		if err != nil {
			logTokenError(err)
			c.Next()
			return
		}
		c.Set(ContextUserID, userID)
		c.Next()
	}
}

// UserID returns the id set by Auth or OptionalAuth.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

func abort(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"ok": false, "mensaje": message})
}

// extractToken reads "Authorization: Bearer <token>", falling back to the
// token query parameter that browsers use for websocket upgrades.
func extractToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if q := c.Query("token"); q != "" {
			return q, nil
		}
		return "", ErrMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", jwt.ErrTokenMalformed
	}
	return parts[1], nil
}

func userIDFromToken(tokenStr, secret string) (uint, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return 0, fmt.Errorf("token validation failed: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, errors.New("invalid token or claims type")
	}

	// JWT numbers decode as float64.
	raw, ok := claims[ContextUserID].(float64)
	if !ok || raw <= 0 || raw != float64(uint(raw)) {
		return 0, fmt.Errorf("invalid user_id claim: %v", claims[ContextUserID])
	}
	return uint(raw), nil
}

func logTokenError(err error) {
	logCtx := logrus.WithError(err)
	var validationError *jwt.ValidationError
	if errors.As(err, &validationError) {
		if validationError.Errors&jwt.ValidationErrorExpired != 0 {
			logCtx = logCtx.WithField("reason", "expired")
		}
		if validationError.Errors&jwt.ValidationErrorSignatureInvalid != 0 {
			logCtx = logCtx.WithField("reason", "signature")
		}
	}
	logCtx.Warn("Auth middleware: invalid token")
}
