package ai

import (
	"context"
	"errors"
)

// Turn roles understood by every backend.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrMissingCredential is returned by a backend that has no API key.
var ErrMissingCredential = errors.New("ai: backend credential not configured")

// Turn is one message of the context sent to a model.
type Turn struct {
	Role    string
	Content string
}

// Request carries everything a backend needs for a single completion.
type Request struct {
	Model       string
	Temperature float64
	MaxTokens   int
	System      string
	Turns       []Turn
}

// Completion is a model reply.
type Completion struct {
	Text       string
	Model      string
	TokensUsed int
	// Canned is set when the reply was produced locally instead of by a provider.
	Canned bool
}

// Backend is a chat-completion provider.
type Backend interface {
	Name() string
	// Configured reports whether the backend holds a credential.
	Configured() bool
	Complete(ctx context.Context, req Request) (Completion, error)
}
