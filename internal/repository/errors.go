package repository

import "errors"

var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry means a write violated a unique constraint.
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
)

var (
	ErrUserNotFound         = ErrNotFound
	ErrRoomNotFound         = ErrNotFound
	ErrConversationNotFound = ErrNotFound
	ErrMessageNotFound      = ErrNotFound
	ErrConfigNotFound       = ErrNotFound
)
