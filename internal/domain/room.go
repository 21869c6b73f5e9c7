package domain

import "time"

// Room is a durable diagram room. Name doubles as the real-time channel key
// and Diagram is the last serialized diagram any participant persisted.
type Room struct {
	ID        uint   `gorm:"column:id_sala;primaryKey" json:"id_sala"`
	Name      string `gorm:"column:nombre_sala;type:varchar(191);uniqueIndex:idx_sala_nombre;not null" json:"nombre_sala"`
	HostEmail string `gorm:"column:host_sala;type:varchar(191)" json:"host_sala"`
	Diagram   string `gorm:"column:informacion;type:mediumtext" json:"informacion"`
}

func (Room) TableName() string { return "sala" }

// Attendance records that a user joined a room. Several rows per
// (user, room) pair are allowed.
type Attendance struct {
	ID       uint      `gorm:"column:id_asistencia;primaryKey"`
	UserID   uint      `gorm:"column:id_usuario;index;not null"`
	RoomID   uint      `gorm:"column:id_sala;index;not null"`
	JoinedAt time.Time `gorm:"column:fecha_hora;autoCreateTime"`
}

func (Attendance) TableName() string { return "asistencia" }

// Collaborator is one row of a room's attendee roster.
type Collaborator struct {
	Email string `json:"email"`
}
