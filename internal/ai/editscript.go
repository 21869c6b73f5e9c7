package ai

import (
	"encoding/json"
	"strings"
)

// EditMarker introduces a machine-applicable edit script in a reply.
const EditMarker = "[MODIFICAR_DIAGRAMA]"

const (
	ActionClear  = "limpiar"
	ActionRemove = "eliminar"
	ActionAdd    = "agregar"

	ElementClass    = "clase"
	ElementRelation = "relacion"
)

// EditAction is one step of an edit script. Which fields matter depends on
// Type and Element.
type EditAction struct {
	Type        string   `json:"tipo"`
	Element     string   `json:"elemento,omitempty"`
	Name        string   `json:"nombre,omitempty"`
	Attributes  []string `json:"atributos,omitempty"`
	Origin      string   `json:"origen,omitempty"`
	Destination string   `json:"destino,omitempty"`
	Cardinality string   `json:"cardinalidad,omitempty"`
}

// EditScript is an ordered list of actions.
type EditScript struct {
	Actions []EditAction `json:"acciones"`
}

type scriptParser func(afterMarker string) (*EditScript, bool)

// ExtractEditScript looks for EditMarker and decodes the script that follows
// it. It returns nil when there is no marker or nothing after it parses.
func ExtractEditScript(reply string) *EditScript {
	idx := strings.Index(reply, EditMarker)
	if idx < 0 {
		return nil
	}
	rest := reply[idx+len(EditMarker):]
	for _, parse := range []scriptParser{parseFencedScript, parseBraceScript} {
		if script, ok := parse(rest); ok {
			return script
		}
	}
	return nil
}

// parseFencedScript reads a ```json block that directly follows the marker.
func parseFencedScript(s string) (*EditScript, bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	const fence = "```"
	if len(s) < len(fence)+4 || !strings.EqualFold(s[:len(fence)+4], fence+"json") {
		return nil, false
	}
	body := s[len(fence)+4:]
	end := strings.Index(body, fence)
	if end < 0 {
		return nil, false
	}
	return decodeScript(strings.TrimSpace(body[:end]))
}

// parseBraceScript reads a bare object that starts right after the marker
// and ends at the first closing brace followed by a blank line or the end
// of the reply.
func parseBraceScript(s string) (*EditScript, bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	for i := 1; i < len(s); i++ {
		if s[i] != '}' {
			continue
		}
		if i == len(s)-1 || strings.HasPrefix(s[i+1:], "\n\n") {
			return decodeScript(s[:i+1])
		}
	}
	return nil, false
}

func decodeScript(doc string) (*EditScript, bool) {
	var script EditScript
	if err := json.Unmarshal([]byte(doc), &script); err != nil {
		return nil, false
	}
	if script.Actions == nil {
		return nil, false
	}
	return &script, true
}
