package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractEditScript(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		actions int
	}{
		{
			name:    "no marker",
			reply:   `Aquí tienes {"acciones":[{"tipo":"limpiar"}]}`,
			actions: -1,
		},
		{
			name:    "fenced block",
			reply:   "Listo.\n[MODIFICAR_DIAGRAMA]\n```json\n{\"acciones\":[{\"tipo\":\"limpiar\"},{\"tipo\":\"agregar\",\"elemento\":\"clase\",\"nombre\":\"A\"}]}\n```\nFin.",
			actions: 2,
		},
		{
			name:    "fenced block with uppercase tag",
			reply:   "[MODIFICAR_DIAGRAMA] ```JSON\n{\"acciones\":[]}\n```",
			actions: 0,
		},
		{
			name:    "brace object up to blank line",
			reply:   "[MODIFICAR_DIAGRAMA]\n{\"acciones\":[{\"tipo\":\"limpiar\"}]}\n\nEspero que sirva.",
			actions: 1,
		},
		{
			name:    "brace object at end of reply",
			reply:   "Hecho [MODIFICAR_DIAGRAMA] {\"acciones\":[{\"tipo\":\"eliminar\",\"elemento\":\"clase\",\"nombre\":\"X\"}]}",
			actions: 1,
		},
		{
			name:    "invalid json",
			reply:   "[MODIFICAR_DIAGRAMA]\n```json\n{acciones: nope}\n```",
			actions: -1,
		},
		{
			name:    "object without actions",
			reply:   "[MODIFICAR_DIAGRAMA] {\"otra\":1}",
			actions: -1,
		},
		{
			name:    "marker with nothing after",
			reply:   "[MODIFICAR_DIAGRAMA]",
			actions: -1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			script := ExtractEditScript(tc.reply)
			if tc.actions < 0 {
				assert.Nil(t, script)
				return
			}
			require.NotNil(t, script)
			assert.Len(t, script.Actions, tc.actions)
		})
	}
}

func TestExtractEditScript_DecodesFields(t *testing.T) {
	reply := "[MODIFICAR_DIAGRAMA]\n```json\n" +
		`{"acciones":[{"tipo":"agregar","elemento":"relacion","origen":"A","destino":"B","cardinalidad":"1..1"},` +
		`{"tipo":"agregar","elemento":"clase","nombre":"C","atributos":["-id:integer"]}]}` +
		"\n```"

	script := ExtractEditScript(reply)

	require.NotNil(t, script)
	require.Len(t, script.Actions, 2)
	assert.Equal(t, EditAction{Type: ActionAdd, Element: ElementRelation, Origin: "A", Destination: "B", Cardinality: "1..1"}, script.Actions[0])
	assert.Equal(t, []string{"-id:integer"}, script.Actions[1].Attributes)
}
