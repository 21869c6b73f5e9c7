package ai

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

const (
	// Generation parameters for collection requests.
	CollectionModel       = "claude-sonnet-4-20250514"
	CollectionMaxTokens   = 16000
	CollectionTemperature = 0.2

	collectionName   = "API REST - Gestión de Datos"
	collectionSchema = "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"
)

var ErrNoCollection = errors.New("ai: no collection document in reply")

var (
	fencePattern         = regexp.MustCompile("```(?:json|javascript)?\\n?")
	trailingCommaPattern = regexp.MustCompile(`,(\s*[}\]])`)
	blankLinesPattern    = regexp.MustCompile(`\n\s*\n`)
)

type collectionParser func(reply string) (any, bool)

// ExtractCollection recovers a Postman collection from a model reply. It
// tries, in order, the raw reply, the reply without code fences, and the
// outermost brace span after light repairs. A bare array is wrapped in a
// collection envelope.
func ExtractCollection(reply string) (any, error) {
	for _, parse := range []collectionParser{parseDirect, parseUnfenced, parseRepairedSpan} {
		if doc, ok := parse(reply); ok {
			return wrapCollection(doc), nil
		}
	}
	return nil, ErrNoCollection
}

func parseDirect(reply string) (any, bool) {
	return decodeDocument(strings.TrimSpace(reply))
}

func parseUnfenced(reply string) (any, bool) {
	return decodeDocument(strings.TrimSpace(fencePattern.ReplaceAllString(reply, "")))
}

func parseRepairedSpan(reply string) (any, bool) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	span := reply[start : end+1]
	span = trailingCommaPattern.ReplaceAllString(span, "$1")
	span = blankLinesPattern.ReplaceAllString(span, "\n")
	span = strings.ReplaceAll(span, "\t", "  ")
	return decodeDocument(span)
}

func decodeDocument(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	var doc any
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return nil, false
	}
	switch doc.(type) {
	case map[string]any, []any:
		return doc, true
	}
	return nil, false
}

func wrapCollection(doc any) any {
	items, ok := doc.([]any)
	if !ok {
		return doc
	}
	return map[string]any{
		"info": map[string]any{"name": collectionName, "schema": collectionSchema},
		"item": items,
	}
}
