package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"realtime-chat/internal/auth"
)

// ResolveSession extracts the session token from the Authorization header or
// the session cookie and, when valid, places the session on the context. It
// never aborts; the Require* middlewares below decide what a missing session
// means for their route class.
func ResolveSession(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			if cookie, err := c.Cookie(auth.SessionCookie); err == nil {
				token = cookie
			}
		}
		if token != "" {
			if session, err := jwtService.VerifyToken(token); err == nil {
				auth.SetSession(c, session)
			}
		}
		c.Next()
	}
}

// RequireSession guards API routes: no valid session means 401.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.SessionFromContext(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// RequirePage guards page routes: unauthenticated visitors are sent to the
// login page instead of receiving a JSON error.
func RequirePage() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.SessionFromContext(c); !ok {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RedirectAuthenticated sends already signed-in visitors of the login page to
// the dashboard.
func RedirectAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.SessionFromContext(c); ok {
			c.Redirect(http.StatusFound, "/dashboard")
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
