package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	anthropicAPIVersion     = "2023-06-01"
	DefaultAnthropicURL     = "https://api.anthropic.com/v1/messages"
	anthropicRequestTimeout = 120 * time.Second
)

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// AnthropicBackend speaks the Messages REST API.
type AnthropicBackend struct {
	httpClient *http.Client
	apiKey     string
	url        string
}

// NewAnthropicBackend builds the backend. An empty url uses DefaultAnthropicURL.
func NewAnthropicBackend(apiKey, url string) *AnthropicBackend {
	if url == "" {
		url = DefaultAnthropicURL
	}
	return &AnthropicBackend{
		httpClient: &http.Client{Timeout: anthropicRequestTimeout},
		apiKey:     apiKey,
		url:        url,
	}
}

func (a *AnthropicBackend) Name() string     { return "anthropic" }
func (a *AnthropicBackend) Configured() bool { return a.apiKey != "" }

// Complete maps req.Model through the alias table unless it is already a
// dated model id. System turns are folded out of the message list.
func (a *AnthropicBackend) Complete(ctx context.Context, req Request) (Completion, error) {
	if !a.Configured() {
		return Completion{}, ErrMissingCredential
	}
	model := req.Model
	if _, alias := claudeAliases[model]; alias || !isDatedClaudeID(model) {
		model = ClaudeModelID(model)
	}

	payload := anthropicRequest{
		Model:       model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		System:      req.System,
	}
	for _, t := range req.Turns {
		if t.Role == RoleSystem {
			continue
		}
		role := RoleAssistant
		if t.Role == RoleUser {
			role = RoleUser
		}
		payload.Messages = append(payload.Messages, anthropicMessage{Role: role, Content: t.Content})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Completion{}, fmt.Errorf("anthropic: marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return Completion{}, fmt.Errorf("anthropic: build request: %w", err)
	}
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return Completion{}, fmt.Errorf("anthropic: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Completion{}, fmt.Errorf("anthropic: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		logrus.WithFields(logrus.Fields{"status": resp.StatusCode, "model": model}).
			Error("AnthropicBackend: provider returned an error status")
		return Completion{}, fmt.Errorf("anthropic: status %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}

	var out anthropicResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return Completion{}, fmt.Errorf("anthropic: decode response: %w", err)
	}
	if out.Error != nil {
		return Completion{}, fmt.Errorf("anthropic: %s: %s", out.Error.Type, out.Error.Message)
	}
	if len(out.Content) == 0 {
		return Completion{}, errors.New("anthropic: empty content")
	}
	return Completion{
		Text:       out.Content[0].Text,
		Model:      model,
		TokensUsed: out.Usage.InputTokens + out.Usage.OutputTokens,
	}, nil
}

// isDatedClaudeID matches full ids such as claude-sonnet-4-20250514.
func isDatedClaudeID(model string) bool {
	if len(model) < 9 {
		return false
	}
	suffix := model[len(model)-9:]
	if suffix[0] != '-' {
		return false
	}
	for _, r := range suffix[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
