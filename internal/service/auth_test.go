package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jkarlos000/sw1-p1/internal/domain"
	"github.com/jkarlos000/sw1-p1/internal/repository"
	"github.com/jkarlos000/sw1-p1/internal/repository/mocks"
	"github.com/jkarlos000/sw1-p1/internal/service"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "very-secret-key"

func newAuthService(t *testing.T, repo *mocks.UserRepository) *service.AuthService {
	t.Helper()
	s, err := service.NewAuthService(repo, testSecret, 1)
	require.NoError(t, err)
	return s
}

func TestNewAuthService_EmptySecret(t *testing.T) {
	_, err := service.NewAuthService(new(mocks.UserRepository), "", 1)
	assert.Error(t, err)
}

func TestAuthService_Register_Success(t *testing.T) {
	// Arrange
	repo := new(mocks.UserRepository)
	s := newAuthService(t, repo)
	ctx := context.Background()
	email, password := "ana@example.com", "StrongPass123"

	repo.On("FindByEmail", ctx, email).Return(nil, repository.ErrUserNotFound).Once()
	repo.On("Save", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == email && bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.User).ID = 5
	}).Return(nil).Once()

	// Act
	session, err := s.Register(ctx, email, password)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint(5), session.User.ID)
	assert.Empty(t, session.User.Password)
	assert.NotEmpty(t, session.Token)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(session.Token, claims, func(*jwt.Token) (interface{}, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	assert.Equal(t, float64(5), claims["user_id"])
	repo.AssertExpectations(t)
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	repo := new(mocks.UserRepository)
	s := newAuthService(t, repo)
	ctx := context.Background()

	repo.On("FindByEmail", ctx, "ana@example.com").Return(&domain.User{ID: 1, Email: "ana@example.com"}, nil).Once()

	_, err := s.Register(ctx, "ana@example.com", "pw")

	assert.True(t, errors.Is(err, service.ErrUserExists))
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAuthService_Register_DuplicateOnSave(t *testing.T) {
	repo := new(mocks.UserRepository)
	s := newAuthService(t, repo)
	ctx := context.Background()

	repo.On("FindByEmail", ctx, "b@example.com").Return(nil, repository.ErrUserNotFound).Once()
	repo.On("Save", ctx, mock.AnythingOfType("*domain.User")).Return(repository.ErrDuplicateEntry).Once()

	_, err := s.Register(ctx, "b@example.com", "pw")

	assert.ErrorIs(t, err, service.ErrUserExists)
	repo.AssertExpectations(t)
}

func TestAuthService_Register_MissingFields(t *testing.T) {
	s := newAuthService(t, new(mocks.UserRepository))
	_, err := s.Register(context.Background(), " ", "pw")
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestAuthService_Login_Success(t *testing.T) {
	repo := new(mocks.UserRepository)
	s := newAuthService(t, repo)
	ctx := context.Background()
	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	repo.On("FindByEmail", ctx, "ana@example.com").
		Return(&domain.User{ID: 1, Email: "ana@example.com", Password: string(hashed)}, nil).Once()

	session, err := s.Login(ctx, "ana@example.com", "password123")

	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, uint(1), session.User.ID)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	repo := new(mocks.UserRepository)
	s := newAuthService(t, repo)
	ctx := context.Background()
	repo.On("FindByEmail", ctx, "nobody@example.com").Return(nil, repository.ErrUserNotFound).Once()

	_, err := s.Login(ctx, "nobody@example.com", "x")

	assert.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	repo := new(mocks.UserRepository)
	s := newAuthService(t, repo)
	ctx := context.Background()
	hashed, _ := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.DefaultCost)
	repo.On("FindByEmail", ctx, "ana@example.com").
		Return(&domain.User{ID: 1, Email: "ana@example.com", Password: string(hashed)}, nil).Once()

	_, err := s.Login(ctx, "ana@example.com", "wrong")

	assert.ErrorIs(t, err, service.ErrAuthenticationFailed)
}

func TestAuthService_Login_UpgradesLegacyPlaintext(t *testing.T) {
	repo := new(mocks.UserRepository)
	s := newAuthService(t, repo)
	ctx := context.Background()
	repo.On("FindByEmail", ctx, "old@example.com").
		Return(&domain.User{ID: 3, Email: "old@example.com", Password: "plain"}, nil).Once()
	repo.On("Save", ctx, mock.MatchedBy(func(u *domain.User) bool {
		return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("plain")) == nil
	})).Return(nil).Once()

	session, err := s.Login(ctx, "old@example.com", "plain")

	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	repo.AssertExpectations(t)
}

func TestAuthService_Login_LegacyPlaintextMismatch(t *testing.T) {
	repo := new(mocks.UserRepository)
	s := newAuthService(t, repo)
	ctx := context.Background()
	repo.On("FindByEmail", ctx, "old@example.com").
		Return(&domain.User{ID: 3, Email: "old@example.com", Password: "plain"}, nil).Once()

	_, err := s.Login(ctx, "old@example.com", "other")

	assert.ErrorIs(t, err, service.ErrAuthenticationFailed)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}
