package ai

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultSystemPrompt documents the edit-script format to the model.
const DefaultSystemPrompt = `Eres un asistente experto en diagramas UML. Puedes ayudar a analizar, entender y modificar diagramas de clases.

Para modificar el diagrama, incluye en tu respuesta la palabra clave [MODIFICAR_DIAGRAMA] seguida de un bloque JSON con las acciones a realizar.

Formato de comandos:
{
  "acciones": [
    {"tipo": "eliminar", "elemento": "clase", "nombre": "NombreClase"},
    {"tipo": "eliminar", "elemento": "relacion", "origen": "ClaseA", "destino": "ClaseB"},
    {"tipo": "agregar", "elemento": "clase", "nombre": "NuevaClase", "atributos": ["-id:integer", "-nombre:text"]},
    {"tipo": "agregar", "elemento": "relacion", "origen": "ClaseA", "destino": "ClaseB", "cardinalidad": "1...*"},
    {"tipo": "limpiar"}
  ]
}

La acción "limpiar" elimina todas las clases y relaciones del diagrama.`

// Values written by the config endpoint when the caller omits them.
const (
	ConfigEndpointModel  = "gpt-4"
	ConfigEndpointPrompt = "Eres un asistente experto en diagramas UML."
)

// Defaults apply to rooms without a stored configuration.
type Defaults struct {
	Model        string  `yaml:"model"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	SystemPrompt string  `yaml:"system_prompt"`
	// HistoryLimit bounds the number of stored messages sent as context.
	HistoryLimit int `yaml:"history_limit"`
}

func BuiltinDefaults() Defaults {
	return Defaults{
		Model:        "claude-sonnet-4.5",
		Temperature:  0.7,
		MaxTokens:    2000,
		SystemPrompt: DefaultSystemPrompt,
		HistoryLimit: 10,
	}
}

// LoadDefaults overlays the YAML file at path onto the builtin defaults.
// An empty path returns the builtins. Fields missing from the file keep
// their builtin values.
func LoadDefaults(path string) (Defaults, error) {
	d := BuiltinDefaults()
	if path == "" {
		return d, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return d, fmt.Errorf("ai: read defaults %s: %w", path, err)
	}
	var override Defaults
	if err := yaml.Unmarshal(raw, &override); err != nil {
		return d, fmt.Errorf("ai: parse defaults %s: %w", path, err)
	}
	if override.Model != "" {
		d.Model = override.Model
	}
	if override.Temperature > 0 {
		d.Temperature = override.Temperature
	}
	if override.MaxTokens > 0 {
		d.MaxTokens = override.MaxTokens
	}
	if override.SystemPrompt != "" {
		d.SystemPrompt = override.SystemPrompt
	}
	if override.HistoryLimit > 0 {
		d.HistoryLimit = override.HistoryLimit
	}
	return d, nil
}
