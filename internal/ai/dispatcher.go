package ai

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

const defaultClaudeModel = "claude-sonnet-4-20250514"

var claudeAliases = map[string]string{
	"claude-sonnet-4.5": "claude-sonnet-4-20250514",
	"claude-sonnet-4":   "claude-sonnet-4-20250514",
	"claude-opus":       "claude-opus-4-20250514",
	"claude-3.5-sonnet": "claude-3-5-sonnet-20241022",
	"claude-3-opus":     "claude-3-opus-20240229",
	"claude-3-sonnet":   "claude-3-sonnet-20240229",
}

// ClaudeModelID maps a configured model name to an Anthropic model id.
// Unknown names map to the default Sonnet model.
func ClaudeModelID(model string) string {
	if id, ok := claudeAliases[model]; ok {
		return id
	}
	return defaultClaudeModel
}

// IsClaudeModel reports whether model should be served by Anthropic.
func IsClaudeModel(model string) bool {
	return strings.Contains(model, "claude") || strings.Contains(model, "sonnet") || strings.Contains(model, "opus")
}

// Dispatcher routes a request to one of two backends by model name.
type Dispatcher struct {
	openai    Backend
	anthropic Backend
	pick      func(n int) int
}

func NewDispatcher(openai, anthropic Backend) *Dispatcher {
	if openai == nil || anthropic == nil {
		panic("NewDispatcher requires both backends")
	}
	return &Dispatcher{openai: openai, anthropic: anthropic, pick: defaultPick}
}

// Route returns the backend that serves model.
func (d *Dispatcher) Route(model string) Backend {
	if IsClaudeModel(model) {
		return d.anthropic
	}
	return d.openai
}

// Complete sends req to the routed backend. A backend without a credential
// yields a canned reply and no error.
func (d *Dispatcher) Complete(ctx context.Context, req Request) (Completion, error) {
	backend := d.Route(req.Model)
	if !backend.Configured() {
		logrus.WithFields(logrus.Fields{"backend": backend.Name(), "model": req.Model}).
			Warn("Dispatcher: no credential configured, using simulated reply")
		return Completion{Text: cannedReply(d.pick), Model: req.Model, Canned: true}, nil
	}
	return backend.Complete(ctx, req)
}
