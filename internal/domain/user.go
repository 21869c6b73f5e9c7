// Package domain holds the persisted and in-memory models shared by every layer.
package domain

// User is an account that can host and attend diagram rooms.
// Password holds a bcrypt hash; rows written by older deployments may still
// carry plaintext until the owner logs in again.
type User struct {
	ID       uint   `gorm:"column:id_usuario;primaryKey" json:"id_usuario"`
	Email    string `gorm:"column:email;type:varchar(191);uniqueIndex:idx_usuario_email;not null" json:"email"`
	Password string `gorm:"column:password;type:text;not null" json:"-"`
}

func (User) TableName() string { return "usuario" }
