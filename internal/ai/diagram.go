// Package ai turns chat requests about a diagram into model calls and turns
// model replies back into structured diagram edits.
package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Diagram is the decoded JSON document produced by the diagram editor:
// an object with a "cells" array. Only the fields read here are relied on.
type Diagram map[string]any

var classCellTypes = map[string]bool{
	"uml.Class":                  true,
	"standard.Rectangle":         true,
	"standard.HeaderedRectangle": true,
}

// ParseDiagram decodes a diagram sent either as a JSON object or as a JSON
// string that itself holds the object. Empty input yields (nil, nil).
func ParseDiagram(raw []byte) (Diagram, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(trimmed), &inner); err != nil {
			return nil, fmt.Errorf("decode diagram string: %w", err)
		}
		return ParseDiagram([]byte(inner))
	}
	var d Diagram
	if err := json.Unmarshal([]byte(trimmed), &d); err != nil {
		return nil, fmt.Errorf("decode diagram: %w", err)
	}
	return d, nil
}

// Cells returns the cell list, skipping anything that is not an object.
func (d Diagram) Cells() []map[string]any {
	raw, _ := d["cells"].([]any)
	cells := make([]map[string]any, 0, len(raw))
	for _, c := range raw {
		if m, ok := c.(map[string]any); ok {
			cells = append(cells, m)
		}
	}
	return cells
}

// lookup walks nested objects and returns the string at path, or "".
func lookup(v any, path ...string) string {
	for _, key := range path {
		m, ok := v.(map[string]any)
		if !ok {
			return ""
		}
		v = m[key]
	}
	s, _ := v.(string)
	return s
}

func firstNonEmpty(cell map[string]any, paths ...[]string) string {
	for _, p := range paths {
		if s := lookup(cell, p...); s != "" {
			return s
		}
	}
	return ""
}

func cellType(cell map[string]any) string {
	t, _ := cell["type"].(string)
	return t
}

func cellID(cell map[string]any) string {
	switch v := cell["id"].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func isRelationCell(cell map[string]any) bool {
	return strings.Contains(strings.ToLower(cellType(cell)), "link")
}

func isClassCell(cell map[string]any) bool {
	if isRelationCell(cell) {
		return false
	}
	if classCellTypes[cellType(cell)] {
		return true
	}
	return firstNonEmpty(cell, []string{"attrs", "headerText", "text"}, []string{"attrs", ".header-text", "text"}, []string{"attrs", "label", "text"}) != ""
}

// className follows the tolerant lookup order used when describing a
// diagram; fallback is used when no candidate field holds text.
func className(cell map[string]any, fallback string) string {
	name := firstNonEmpty(cell,
		[]string{"attrs", "headerText", "text"},
		[]string{"attrs", ".header-text", "text"},
		[]string{"name"},
		[]string{"attrs", "name", "text"},
		[]string{"attrs", "label", "text"},
		[]string{"attrs", "text", "text"},
	)
	if name == "" {
		return fallback
	}
	return name
}

// matchName is the narrower lookup used when an edit script refers to a
// class by name.
func matchName(cell map[string]any) string {
	return firstNonEmpty(cell,
		[]string{"attrs", "headerText", "text"},
		[]string{"attrs", "label", "text"},
		[]string{"name"},
	)
}

func classAttributes(cell map[string]any) string {
	if s := firstNonEmpty(cell,
		[]string{"attrs", "bodyText", "textWrap", "text"},
		[]string{"attrs", "wrappedText", "text"},
		[]string{"attrs", ".wrapped-text", "text"},
		[]string{"attrs", "body", "text"},
	); s != "" {
		return s
	}
	return joinStrings(cell["attributes"])
}

func joinStrings(v any) string {
	list, ok := v.([]any)
	if !ok {
		return ""
	}
	parts := make([]string, 0, len(list))
	for _, item := range list {
		parts = append(parts, fmt.Sprint(item))
	}
	return strings.Join(parts, ", ")
}

func endpointID(cell map[string]any, side string) (string, bool) {
	end, ok := cell[side].(map[string]any)
	if !ok {
		return "", false
	}
	switch v := end["id"].(type) {
	case string:
		return v, true
	case nil:
		return "", true
	default:
		return fmt.Sprint(v), true
	}
}

func relationLabel(cell map[string]any) string {
	labels, ok := cell["labels"].([]any)
	if !ok || len(labels) == 0 {
		return ""
	}
	return lookup(labels[0], "attrs", "text", "text")
}

// Describe renders the diagram as a deterministic text listing of its
// classes and relations, for inclusion in a prompt.
func Describe(d Diagram) string {
	if d == nil {
		return "No hay diagrama disponible"
	}
	cells := d.Cells()
	if len(cells) == 0 {
		return "El diagrama está vacío (sin elementos)"
	}

	var classes, relations []map[string]any
	for _, c := range cells {
		switch {
		case isRelationCell(c):
			relations = append(relations, c)
		case isClassCell(c):
			classes = append(classes, c)
		}
	}

	var lines []string
	names := make(map[string]string, len(classes))
	if len(classes) > 0 {
		lines = append(lines, fmt.Sprintf("\nCLASES EXISTENTES (%d):", len(classes)))
		for i, c := range classes {
			name := className(c, fmt.Sprintf("Clase%d", i+1))
			id := cellID(c)
			names[id] = name
			lines = append(lines, fmt.Sprintf("  %d. Clase \"%s\" (ID: %s)", i+1, name, id))
			if attrs := classAttributes(c); attrs != "" {
				lines = append(lines, "     - Atributos:\n       "+strings.ReplaceAll(attrs, "\n", "\n       "))
			}
			if methods := joinStrings(c["methods"]); methods != "" {
				lines = append(lines, "     - Métodos: "+methods)
			}
		}
	}

	if len(relations) > 0 {
		lines = append(lines, fmt.Sprintf("\nRELACIONES EXISTENTES (%d):", len(relations)))
		for i, r := range relations {
			kind := cellType(r)
			if kind == "" {
				kind = "Relación"
			}
			lines = append(lines, fmt.Sprintf("  %d. %s (ID: %s)", i+1, kind, cellID(r)))
			src, okSrc := endpointID(r, "source")
			dst, okDst := endpointID(r, "target")
			if okSrc && okDst {
				lines = append(lines, fmt.Sprintf("     - De: \"%s\" → A: \"%s\"", resolve(names, src), resolve(names, dst)))
			}
			if label := relationLabel(r); label != "" {
				lines = append(lines, "     - Cardinalidad: "+label)
			}
		}
	}

	if len(lines) == 0 {
		return fmt.Sprintf("Diagrama con %d elementos sin clasificar", len(cells))
	}
	return strings.Join(lines, "\n")
}

func resolve(names map[string]string, id string) string {
	if n, ok := names[id]; ok {
		return n
	}
	return id
}
