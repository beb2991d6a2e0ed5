package auth

import "time"

type Session struct {
	SessionID string    `gorm:"primaryKey" json:"-"`
	UserID    int64     `gorm:"not null;unique" json:"-"`
	ExpiresAt time.Time `gorm:"not null"`
}

type User struct {
	ID               int64  `gorm:"primaryKey" json:"id"`
	Nombre           string `json:"nombre"`
	Email            string `gorm:"uniqueIndex;not null" json:"email"`
	Contrasena       string `json:"contrasena,omitempty" gorm:"-"`
	HashedContrasena string `json:"-"`
	Rol              string `gorm:"default:'contador'" json:"rol"`
}

func (Session) TableName() string { return "app_auth.sessions" }
func (User) TableName() string    { return "app_auth.usuarios" }
