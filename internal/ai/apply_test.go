package ai

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func classNames(d Diagram) []string {
	var names []string
	for _, c := range d.Cells() {
		if !isRelationCell(c) {
			names = append(names, matchName(c))
		}
	}
	return names
}

func relations(d Diagram) []map[string]any {
	var out []map[string]any
	for _, c := range d.Cells() {
		if isRelationCell(c) {
			out = append(out, c)
		}
	}
	return out
}

func addClass(name string, attrs ...string) EditAction {
	return EditAction{Type: ActionAdd, Element: ElementClass, Name: name, Attributes: attrs}
}

func TestApply_AddClassesOnGrid(t *testing.T) {
	script := EditScript{Actions: []EditAction{
		addClass("A"), addClass("B"), addClass("C"), addClass("D", "-x", "-y", "-z", "-w"),
	}}

	res := applyWith(Diagram{"cells": []any{}}, script, sequentialIDs())

	require.Empty(t, res.Failures)
	assert.Equal(t, 4, res.Applied)
	cells := res.Diagram.Cells()
	require.Len(t, cells, 4)

	expect := [][2]int{{100, 100}, {320, 100}, {540, 100}, {100, 300}}
	for i, c := range cells {
		pos := c["position"].(map[string]any)
		assert.Equal(t, expect[i][0], pos["x"], "x of class %d", i)
		assert.Equal(t, expect[i][1], pos["y"], "y of class %d", i)
		assert.Equal(t, fmt.Sprintf("id-%d", i+1), c["id"])
		assert.Equal(t, "standard.HeaderedRectangle", c["type"])
	}
	size := cells[3]["size"].(map[string]any)
	assert.Equal(t, 200, size["width"])
	assert.Equal(t, 160, size["height"])
	assert.Equal(t, 150, cells[0]["size"].(map[string]any)["height"])
	assert.Equal(t, "-x\n-y\n-z\n-w", lookup(cells[3], "attrs", "bodyText", "textWrap", "text"))
}

func TestApply_PlacementResetsPerBatch(t *testing.T) {
	first := Apply(Diagram{"cells": []any{}}, EditScript{Actions: []EditAction{addClass("A"), addClass("B")}})
	second := Apply(first.Diagram, EditScript{Actions: []EditAction{addClass("C")}})

	cells := second.Diagram.Cells()
	require.Len(t, cells, 3)
	pos := cells[2]["position"].(map[string]any)
	assert.Equal(t, 100, pos["x"])
	assert.Equal(t, 100, pos["y"])
	assert.NotEqual(t, cells[0]["id"], cells[2]["id"])
}

func TestGridPosition_UniqueWithinBatch(t *testing.T) {
	seen := map[[2]int]bool{}
	for n := 0; n < 30; n++ {
		x, y := GridPosition(n)
		key := [2]int{x, y}
		assert.False(t, seen[key], "position %v repeated", key)
		seen[key] = true
	}
}

func TestApply_RelationsAndRemoval(t *testing.T) {
	script := EditScript{Actions: []EditAction{
		addClass("A"), addClass("B"), addClass("C"),
		{Type: ActionAdd, Element: ElementRelation, Origin: "A", Destination: "B"},
		{Type: ActionAdd, Element: ElementRelation, Origin: "B", Destination: "C", Cardinality: "0..1"},
		{Type: ActionAdd, Element: ElementRelation, Origin: "A", Destination: "Missing"},
		{Type: ActionRemove, Element: ElementRelation, Origin: "A", Destination: "B"},
		{Type: ActionRemove, Element: ElementClass, Name: "Nope"},
		addClass("D"),
	}}

	res := applyWith(Diagram{"cells": []any{}}, script, sequentialIDs())

	assert.Len(t, res.Failures, 2)
	assert.Equal(t, 7, res.Applied)
	assert.Equal(t, []string{"A", "B", "C", "D"}, classNames(res.Diagram))
	rels := relations(res.Diagram)
	require.Len(t, rels, 1)
	assert.Equal(t, "0..1", relationLabel(rels[0]))
	src, _ := endpointID(rels[0], "source")
	dst, _ := endpointID(rels[0], "target")
	assert.Equal(t, "id-2", src)
	assert.Equal(t, "id-3", dst)
}

func TestApply_DefaultCardinality(t *testing.T) {
	res := Apply(Diagram{}, EditScript{Actions: []EditAction{
		addClass("A"), addClass("B"),
		{Type: ActionAdd, Element: ElementRelation, Origin: "A", Destination: "B"},
	}})
	rels := relations(res.Diagram)
	require.Len(t, rels, 1)
	assert.Equal(t, "1...*", relationLabel(rels[0]))
	assert.Equal(t, "app.Link", rels[0]["type"])
}

func TestApply_RemoveClassDropsConnectedRelations(t *testing.T) {
	res := applyWith(Diagram{}, EditScript{Actions: []EditAction{
		addClass("A"), addClass("B"),
		{Type: ActionAdd, Element: ElementRelation, Origin: "A", Destination: "B"},
		{Type: ActionRemove, Element: ElementClass, Name: "A"},
	}}, sequentialIDs())

	require.Empty(t, res.Failures)
	assert.Equal(t, []string{"B"}, classNames(res.Diagram))
	assert.Empty(t, relations(res.Diagram))
}

func TestApply_ClearThenAdd(t *testing.T) {
	d, err := ParseDiagram([]byte(sampleDiagram))
	require.NoError(t, err)

	res := Apply(d, EditScript{Actions: []EditAction{{Type: ActionClear}, addClass("Nueva")}})

	assert.Equal(t, []string{"Nueva"}, classNames(res.Diagram))
	// the input diagram is left untouched
	assert.Len(t, d.Cells(), 4)
}

func TestApply_UnknownActionDoesNotAbort(t *testing.T) {
	res := Apply(Diagram{}, EditScript{Actions: []EditAction{
		{Type: "mover", Element: ElementClass, Name: "A"},
		addClass("A"),
	}})
	require.Len(t, res.Failures, 1)
	assert.ErrorIs(t, res.Failures[0], ErrUnknownAction)
	assert.Equal(t, []string{"A"}, classNames(res.Diagram))
}

func TestApply_MatchesExistingClassByName(t *testing.T) {
	d, err := ParseDiagram([]byte(sampleDiagram))
	require.NoError(t, err)

	res := Apply(d, EditScript{Actions: []EditAction{
		{Type: ActionRemove, Element: ElementRelation, Origin: "Usuario", Destination: "Pedido"},
	}})

	require.Empty(t, res.Failures)
	assert.Len(t, relations(res.Diagram), 1)
}
