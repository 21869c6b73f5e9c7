package service

import "errors"

// Business errors returned by the services. Handlers map them to status
// codes and client messages.
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrUserExists            = errors.New("user already exists")
	ErrAuthenticationFailed  = errors.New("authentication failed")
	ErrRoomNotFound          = errors.New("room not found")
	ErrRoomNameTaken         = errors.New("room name already taken")
	ErrAttendanceNotFound    = errors.New("attendance not found")
	ErrNoAttendees           = errors.New("room has no attendees")
	ErrNotHost               = errors.New("user is not the room host")
	ErrConversationNotFound  = errors.New("conversation not found")
	ErrInvalidInput          = errors.New("invalid input")
	ErrCollectionUnparseable = errors.New("collection could not be parsed from the reply")
	ErrAIUnavailable         = errors.New("assistant backend unavailable")
	ErrInternalServer        = errors.New("internal server error")
)
