package auth

import (
	"gorm.io/gorm"

	"github.com/ContaSync/CS-Backend/internal/utils"
)

// SessionInfo resolves session cookies for the middleware, carrying the
// user's role along so route groups can gate on it without another lookup.
type SessionInfo struct {
	db *gorm.DB
}

func NewSessionFetcher(gdb *gorm.DB) SessionInfo {
	return SessionInfo{db: gdb}
}

func (si SessionInfo) FindSessionByID(id string) (utils.SessionData, error) {
	var session Session
	if err := si.db.First(&session, "session_id = ?", id).Error; err != nil {
		return utils.SessionData{}, err
	}

	var user User
	if err := si.db.First(&user, "id = ?", session.UserID).Error; err != nil {
		return utils.SessionData{}, err
	}

	return utils.SessionData{
		UserID:    session.UserID,
		Rol:       user.Rol,
		ExpiresAt: session.ExpiresAt,
	}, nil
}
