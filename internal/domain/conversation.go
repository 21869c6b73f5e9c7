package domain

import "time"

// MessageKind is the stored tipo_mensaje value.
type MessageKind string

const (
	MessageKindUser      MessageKind = "usuario"
	MessageKindAssistant MessageKind = "ia"
	MessageKindSystem    MessageKind = "sistema"
)

// AssistantEmail is the display address attached to assistant messages.
const AssistantEmail = "IA"

// Conversation groups AI chat messages of one room. At most one
// conversation per room is active at a time.
type Conversation struct {
	ID             uint      `gorm:"column:id_conversacion;primaryKey" json:"id_conversacion"`
	RoomID         uint      `gorm:"column:id_sala;index;not null" json:"id_sala"`
	Title          string    `gorm:"column:titulo;size:255" json:"titulo"`
	InitialContext JSONText  `gorm:"column:contexto_inicial;type:mediumtext" json:"contexto_inicial"`
	CreatedAt      time.Time `gorm:"column:fecha_creacion;autoCreateTime" json:"fecha_creacion"`
	UpdatedAt      time.Time `gorm:"column:fecha_ultima_actualizacion;autoUpdateTime" json:"fecha_ultima_actualizacion"`
	Active         bool      `gorm:"column:activa;not null" json:"activa"`
}

func (Conversation) TableName() string { return "conversacion_ia" }

// Message is an append-only chat entry. UserEmail is filled by queries that
// join the author and is never written.
type Message struct {
	ID             uint        `gorm:"column:id_mensaje;primaryKey" json:"id_mensaje"`
	ConversationID uint        `gorm:"column:id_conversacion;index;not null" json:"id_conversacion"`
	UserID         *uint       `gorm:"column:id_usuario" json:"id_usuario"`
	Kind           MessageKind `gorm:"column:tipo_mensaje;type:varchar(16);not null" json:"tipo_mensaje"`
	Content        string      `gorm:"column:contenido;type:mediumtext" json:"contenido"`
	Metadata       JSONText    `gorm:"column:metadata;type:text" json:"metadata"`
	SentAt         time.Time   `gorm:"column:fecha_envio;autoCreateTime" json:"fecha_envio"`
	UserEmail      string      `gorm:"column:usuario_email;->;-:migration" json:"usuario_email,omitempty"`
}

func (Message) TableName() string { return "mensaje_chat_ia" }

// MessageMetadata is stored on assistant messages.
type MessageMetadata struct {
	Model          string `json:"modelo"`
	TokensUsed     int    `json:"tokens_usados"`
	ResponseTimeMs int64  `json:"tiempo_respuesta"`
}

// DiagramSnapshot is a point-in-time copy of a diagram, usually tied to the
// assistant message that proposed an edit.
type DiagramSnapshot struct {
	ID             uint      `gorm:"column:id_snapshot;primaryKey" json:"id_snapshot"`
	ConversationID uint      `gorm:"column:id_conversacion;index;not null" json:"id_conversacion"`
	MessageID      *uint     `gorm:"column:id_mensaje" json:"id_mensaje"`
	Diagram        JSONText  `gorm:"column:diagrama_json;type:mediumtext" json:"diagrama_json"`
	Description    string    `gorm:"column:descripcion;size:255" json:"descripcion"`
	CreatedAt      time.Time `gorm:"column:fecha_creacion;autoCreateTime" json:"fecha_creacion"`
}

func (DiagramSnapshot) TableName() string { return "snapshot_diagrama" }

// AIConfig is the per-room assistant configuration.
type AIConfig struct {
	ID           uint    `gorm:"column:id_config;primaryKey" json:"id_config"`
	RoomID       uint    `gorm:"column:id_sala;uniqueIndex:idx_config_ia_sala;not null" json:"id_sala"`
	Model        string  `gorm:"column:modelo;size:100" json:"modelo"`
	Temperature  float64 `gorm:"column:temperatura" json:"temperatura"`
	MaxTokens    int     `gorm:"column:max_tokens" json:"max_tokens"`
	SystemPrompt string  `gorm:"column:system_prompt;type:text" json:"system_prompt"`
}

func (AIConfig) TableName() string { return "config_ia" }
