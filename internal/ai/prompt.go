package ai

import "strings"

const ruler = "═══════════════════════════════════════════════════════════"

// WrapWithDiagram builds the final user turn: the rendered diagram, the
// user's question, and a reminder to refer to classes by name.
func WrapWithDiagram(question, renderedDiagram string) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(ruler + "\n")
	b.WriteString("📋 CONTEXTO DEL DIAGRAMA UML ACTUAL\n")
	b.WriteString(ruler + "\n\n")
	b.WriteString(renderedDiagram)
	b.WriteString("\n\n")
	b.WriteString(ruler + "\n")
	b.WriteString("❓ PREGUNTA DEL USUARIO\n")
	b.WriteString(ruler + "\n\n")
	b.WriteString(question)
	b.WriteString("\n\nIMPORTANTE: Usa SIEMPRE los nombres de las clases (no los IDs) cuando te refieras a ellas.\n")
	return b.String()
}

// CodePrompt asks for a code skeleton of the described diagram in language.
func CodePrompt(language, info string) string {
	return "\n        ESTO SON LOS ELEMENTO DE UN DIAGRAMA DE SECUENCIA:\n        " + info +
		"\n        (Solo quiero codigo de programacion no quiero nada de explicaciones argumentos opiniones " +
		"\n          de parte tuya solo quiero que me des el codigo como respuesta, quiero una base para que " +
		"\n          el usuario pueda guiar que lo use como una base para empezar en el lenguaje de programacion " + language + ".)\n        "
}

// Generation parameters for code-scaffold requests.
const (
	CodeModel     = "claude-3-opus-20240229"
	CodeMaxTokens = 1024
)
