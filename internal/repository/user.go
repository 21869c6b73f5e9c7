package repository

import (
	"context"

	"github.com/jkarlos000/sw1-p1/internal/domain"
)

// UserRepository stores accounts.
type UserRepository interface {
	// FindByEmail returns ErrUserNotFound when no account has that email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uint) (*domain.User, error)
	// Save inserts when ID is zero and updates otherwise. A taken email
	// yields ErrDuplicateEntry.
	Save(ctx context.Context, user *domain.User) error
}
