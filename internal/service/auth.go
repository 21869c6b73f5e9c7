package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jkarlos000/sw1-p1/internal/domain"
	"github.com/jkarlos000/sw1-p1/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles account registration and login.
type AuthService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
	jwtExpiry time.Duration
}

// Session is what a successful login or registration hands back.
type Session struct {
	User  *domain.User
	Token string
}

func NewAuthService(userRepo repository.UserRepository, jwtSecretKey string, jwtExpiryHours int) (*AuthService, error) {
	if userRepo == nil {
		panic("UserRepository cannot be nil for AuthService")
	}
	if jwtSecretKey == "" {
		return nil, fmt.Errorf("JWT secret key cannot be empty")
	}
	if jwtExpiryHours <= 0 {
		jwtExpiryHours = 24
	}
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecretKey),
		jwtExpiry: time.Duration(jwtExpiryHours) * time.Hour,
	}, nil
}

// Register creates an account. An email that is already registered yields
// ErrUserExists.
func (s *AuthService) Register(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	logCtx := logrus.WithField("email", email)
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		logCtx.Warn("Registration rejected: email already registered")
		return nil, ErrUserExists
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		logCtx.WithError(err).Error("Registration failed: error looking up email")
		return nil, ErrInternalServer
	}

	hashed, err := hashPassword(password)
	if err != nil {
		logCtx.WithError(err).Error("Failed to hash password during registration")
		return nil, ErrInternalServer
	}
	user := &domain.User{Email: email, Password: hashed}
	if err := s.userRepo.Save(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			logCtx.WithError(err).Warn("Registration rejected: email taken concurrently")
			return nil, ErrUserExists
		}
		logCtx.WithError(err).Error("Database error during user creation")
		return nil, ErrInternalServer
	}

	token, err := s.generateJWT(user.ID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to generate JWT token during registration")
		return nil, ErrInternalServer
	}
	logCtx.WithField("user_id", user.ID).Info("User registered successfully")
	user.Password = ""
	return &Session{User: user, Token: token}, nil
}

// Login checks credentials. An unknown email yields ErrUserNotFound and a
// wrong password ErrAuthenticationFailed. Accounts still holding a
// plaintext password are rehashed on their first successful login.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	logCtx := logrus.WithField("email", email)
	if email == "" || password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			logCtx.Warn("Login attempt failed: user not found")
			return nil, ErrUserNotFound
		}
		logCtx.WithError(err).Error("Login attempt failed: error finding user")
		return nil, ErrInternalServer
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	ok, legacy := checkPassword(password, user.Password)
	if !ok {
		logCtx.Warn("Login attempt failed: invalid password")
		return nil, ErrAuthenticationFailed
	}
	if legacy {
		s.upgradePassword(ctx, user, password)
	}

	token, err := s.generateJWT(user.ID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to generate JWT token during login")
		return nil, ErrInternalServer
	}
	logCtx.WithField("user_id", user.ID).Info("User logged in successfully")
	user.Password = ""
	return &Session{User: user, Token: token}, nil
}

// upgradePassword replaces a plaintext password with its hash. Failure is
// logged and does not affect the login.
func (s *AuthService) upgradePassword(ctx context.Context, user *domain.User, password string) {
	logCtx := logrus.WithField("user_id", user.ID)
	hashed, err := hashPassword(password)
	if err != nil {
		logCtx.WithError(err).Warn("Could not hash legacy password")
		return
	}
	user.Password = hashed
	if err := s.userRepo.Save(ctx, user); err != nil {
		logCtx.WithError(err).Warn("Could not store upgraded password hash")
		return
	}
	logCtx.Info("Legacy plaintext password upgraded to bcrypt")
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to generate hash from password: %w", err)
	}
	return string(bytes), nil
}

// checkPassword reports whether password matches stored and whether stored
// was a legacy plaintext value.
func checkPassword(password, stored string) (ok, legacy bool) {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil, false
	}
	return stored != "" && stored == password, true
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}

func (s *AuthService) generateJWT(userID uint) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(s.jwtExpiry).Unix(),
		"iat":     time.Now().Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}
