package domain

// Presence is a roster entry kept in memory for chat and private rooms.
// It is never persisted.
type Presence struct {
	ID     FlexibleID `json:"id" validate:"required"`
	Name   string     `json:"nombre"`
	ConnID string     `json:"-"`
}
