package ai

import "math/rand"

// Apology is persisted in place of a reply when the provider call fails.
const Apology = "Lo siento, no puedo procesar tu solicitud en este momento. Por favor, intenta nuevamente."

var cannedReplies = []string{
	"Entiendo que quieres trabajar en tu diagrama UML. Por favor, describe más detalles sobre lo que necesitas.",
	"Puedo ayudarte a crear o modificar elementos en tu diagrama. ¿Qué te gustaría hacer específicamente?",
	"He analizado tu solicitud. Para el diagrama UML, sugiero que consideres las relaciones entre las clases.",
	"Claro, puedo ayudarte con eso. ¿Qué tipo de elemento UML necesitas agregar?",
}

// CannedReplies returns the simulated replies used when no credential is set.
func CannedReplies() []string {
	return append([]string(nil), cannedReplies...)
}

func cannedReply(pick func(n int) int) string {
	return cannedReplies[pick(len(cannedReplies))]
}

func defaultPick(n int) int { return rand.Intn(n) }
