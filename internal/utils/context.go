package utils

import (
	"context"
	"time"
)

type contextKey string

const ContextUserIDKey contextKey = "userID"

// SessionData is the resolved session shape shared between the auth module and
// the session middleware.
type SessionData struct {
	UserID    int64
	Rol       string
	ExpiresAt time.Time
}

func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID := ctx.Value(ContextUserIDKey)
	id, ok := userID.(int64)
	return id, ok
}
