package auth

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// SessionUserIDKey is the session key holding the id of the logged in user.
const SessionUserIDKey = "user_id"

// SessionUserID returns the user id stored in the session, if any.
func SessionUserID(c *gin.Context) (uint, bool) {
	session := sessions.Default(c)
	switch v := session.Get(SessionUserIDKey).(type) {
	case uint:
		return v, v != 0
	default:
		return 0, false
	}
}

// StartSession marks the session as authenticated as userID.
func StartSession(c *gin.Context, userID uint) error {
	session := sessions.Default(c)
	session.Clear()
	session.Set(SessionUserIDKey, userID)
	return session.Save()
}

// EndSession drops everything stored in the session, including pending flashes.
func EndSession(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	return session.Save()
}
