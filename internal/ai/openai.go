package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

const defaultOpenAIModel = "gpt-4"

// OpenAIBackend talks to the chat-completions API.
type OpenAIBackend struct {
	client *openai.Client
	apiKey string
}

// NewOpenAIBackend builds the backend. An empty apiKey leaves it
// unconfigured; an empty baseURL keeps the library default.
func NewOpenAIBackend(apiKey, baseURL string) *OpenAIBackend {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIBackend{client: openai.NewClientWithConfig(cfg), apiKey: apiKey}
}

func (o *OpenAIBackend) Name() string     { return "openai" }
func (o *OpenAIBackend) Configured() bool { return o.apiKey != "" }

func (o *OpenAIBackend) Complete(ctx context.Context, req Request) (Completion, error) {
	if !o.Configured() {
		return Completion{}, ErrMissingCredential
	}
	model := req.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Turns)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, t := range req.Turns {
		role := openai.ChatMessageRoleAssistant
		switch t.Role {
		case RoleUser:
			role = openai.ChatMessageRoleUser
		case RoleSystem:
			role = openai.ChatMessageRoleSystem
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		logrus.WithError(err).WithField("model", model).Error("OpenAIBackend: chat completion failed")
		return Completion{}, fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, errors.New("openai: no choices returned")
	}
	return Completion{
		Text:       resp.Choices[0].Message.Content,
		Model:      model,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}
