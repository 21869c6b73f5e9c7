package ai

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Grid placement for classes added by an edit script.
const (
	gridColumnWidth = 220
	gridRowHeight   = 200
	gridMarginLeft  = 100
	gridMarginTop   = 100
	gridColumns     = 3

	classWidth         = 200
	classMinHeight     = 150
	classBaseHeight    = 100
	classAttrHeight    = 15
	classColor         = "#31d0c6"
	defaultCardinality = "1...*"
)

var (
	ErrClassNotFound    = errors.New("class not found")
	ErrRelationNotFound = errors.New("relation not found")
	ErrUnknownAction    = errors.New("unknown action")
)

// ApplyResult reports what an edit script did to a diagram.
type ApplyResult struct {
	Diagram Diagram
	Applied int
	// Failures holds one entry per action that could not be applied. Later
	// actions still run.
	Failures []error
}

// GridPosition returns the top-left corner of the n-th class added in a batch.
func GridPosition(n int) (x, y int) {
	return gridMarginLeft + (n%gridColumns)*gridColumnWidth, gridMarginTop + (n/gridColumns)*gridRowHeight
}

type applier struct {
	cells []map[string]any
	added int
	newID func() string
}

// Apply runs script against d in order and returns the resulting diagram.
// d is not modified. The placement counter starts at zero for each call.
func Apply(d Diagram, script EditScript) ApplyResult {
	return applyWith(d, script, uuid.NewString)
}

func applyWith(d Diagram, script EditScript, newID func() string) ApplyResult {
	a := &applier{cells: append([]map[string]any(nil), d.Cells()...), newID: newID}
	res := ApplyResult{}
	for i, action := range script.Actions {
		if err := a.apply(action); err != nil {
			res.Failures = append(res.Failures, fmt.Errorf("action %d (%s %s): %w", i+1, action.Type, action.Element, err))
			continue
		}
		res.Applied++
	}

	out := make(Diagram, len(d)+1)
	for k, v := range d {
		out[k] = v
	}
	cells := make([]any, len(a.cells))
	for i, c := range a.cells {
		cells[i] = c
	}
	out["cells"] = cells
	res.Diagram = out
	return res
}

func (a *applier) apply(action EditAction) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch action.Type {
	case ActionClear:
		a.cells = a.cells[:0]
		return nil
	case ActionRemove:
		switch action.Element {
		case ElementClass:
			return a.removeClass(action.Name)
		case ElementRelation:
			return a.removeRelation(action.Origin, action.Destination)
		}
	case ActionAdd:
		switch action.Element {
		case ElementClass:
			return a.addClass(action.Name, action.Attributes)
		case ElementRelation:
			return a.addRelation(action.Origin, action.Destination, action.Cardinality)
		}
	}
	return ErrUnknownAction
}

func (a *applier) findClass(name string) (int, map[string]any) {
	for i, c := range a.cells {
		if isRelationCell(c) {
			continue
		}
		if matchName(c) == name {
			return i, c
		}
	}
	return -1, nil
}

func (a *applier) removeClass(name string) error {
	idx, cell := a.findClass(name)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrClassNotFound, name)
	}
	id := cellID(cell)
	kept := a.cells[:0]
	for i, c := range a.cells {
		if i == idx {
			continue
		}
		if isRelationCell(c) {
			src, _ := endpointID(c, "source")
			dst, _ := endpointID(c, "target")
			if src == id || dst == id {
				continue
			}
		}
		kept = append(kept, c)
	}
	a.cells = kept
	return nil
}

func (a *applier) removeRelation(origin, destination string) error {
	_, from := a.findClass(origin)
	_, to := a.findClass(destination)
	if from == nil || to == nil {
		return fmt.Errorf("%w: %q or %q", ErrClassNotFound, origin, destination)
	}
	fromID, toID := cellID(from), cellID(to)
	for i, c := range a.cells {
		if !isRelationCell(c) {
			continue
		}
		src, _ := endpointID(c, "source")
		dst, _ := endpointID(c, "target")
		if src == fromID && dst == toID {
			a.cells = append(a.cells[:i], a.cells[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %q → %q", ErrRelationNotFound, origin, destination)
}

func (a *applier) addClass(name string, attributes []string) error {
	if name == "" {
		return fmt.Errorf("%w: empty class name", ErrUnknownAction)
	}
	x, y := GridPosition(a.added)
	a.added++

	height := classBaseHeight + len(attributes)*classAttrHeight
	if height < classMinHeight {
		height = classMinHeight
	}
	body := ""
	for i, attr := range attributes {
		if i > 0 {
			body += "\n"
		}
		body += attr
	}

	a.cells = append(a.cells, map[string]any{
		"id":       a.newID(),
		"type":     "standard.HeaderedRectangle",
		"position": map[string]any{"x": x, "y": y},
		"size":     map[string]any{"width": classWidth, "height": height},
		"attrs": map[string]any{
			"body": map[string]any{
				"fill": "transparent", "stroke": classColor, "strokeWidth": 2, "strokeDasharray": "0",
			},
			"header": map[string]any{
				"stroke": classColor, "fill": classColor, "strokeWidth": 2, "strokeDasharray": "0", "height": 30,
			},
			"headerText": map[string]any{
				"text": name, "fill": "#000000", "fontFamily": "Averia Libre", "fontWeight": "Bold",
				"fontSize": 14, "strokeWidth": 0, "y": 15,
			},
			"bodyText": map[string]any{
				"textWrap": map[string]any{"text": body, "width": -10, "height": -40, "ellipsis": true},
				"fill":     "#FFFFFF", "fontFamily": "Averia Libre", "fontWeight": "Bold",
				"fontSize": 11, "strokeWidth": 0, "y": "calc(h/2 + 15)",
			},
		},
	})
	return nil
}

func (a *applier) addRelation(origin, destination, cardinality string) error {
	_, from := a.findClass(origin)
	_, to := a.findClass(destination)
	if from == nil || to == nil {
		return fmt.Errorf("%w: %q or %q", ErrClassNotFound, origin, destination)
	}
	if cardinality == "" {
		cardinality = defaultCardinality
	}
	a.cells = append(a.cells, map[string]any{
		"id":        a.newID(),
		"type":      "app.Link",
		"router":    map[string]any{"name": "normal"},
		"connector": map[string]any{"name": "rounded"},
		"labels": []any{
			map[string]any{"attrs": map[string]any{"text": map[string]any{"text": cardinality, "fill": "#000000"}}},
		},
		"source": map[string]any{"id": cellID(from)},
		"target": map[string]any{"id": cellID(to)},
		"attrs":  map[string]any{},
	})
	return nil
}
