package auth

import "github.com/gin-gonic/gin"

const sessionContextKey = "session"

// Session is the resolved identity of the current caller.
type Session struct {
	UserID string
	Name   string
	Email  string
	Image  string
}

// SetSession stores the session on the request context.
func SetSession(c *gin.Context, session Session) {
	c.Set(sessionContextKey, session)
}

// SessionFromContext returns the session placed by the auth middleware.
func SessionFromContext(c *gin.Context) (Session, bool) {
	value, ok := c.Get(sessionContextKey)
	if !ok {
		return Session{}, false
	}
	session, ok := value.(Session)
	return session, ok
}
