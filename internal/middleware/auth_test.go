package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"realtime-chat/internal/auth"
	"realtime-chat/internal/config"
)

func setupRouter(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtService := auth.NewJWTService(&config.Config{
		JWTSecret:  []byte("test-secret"),
		SessionTTL: time.Hour,
	})

	r := gin.New()
	r.Use(ResolveSession(jwtService))
	r.GET("/api/me", RequireSession(), func(c *gin.Context) {
		session, _ := auth.SessionFromContext(c)
		c.JSON(http.StatusOK, gin.H{"id": session.UserID})
	})
	r.GET("/dashboard", RequirePage(), func(c *gin.Context) {
		c.String(http.StatusOK, "dashboard")
	})
	r.GET("/login", RedirectAuthenticated(), func(c *gin.Context) {
		c.String(http.StatusOK, "login")
	})
	return r, jwtService
}

func TestRequireSessionMissingToken(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireSessionBearerToken(t *testing.T) {
	router, jwtService := setupRouter(t)

	token, err := jwtService.CreateToken(auth.Session{UserID: "u1"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequirePageRedirectsToLogin(t *testing.T) {
	router, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestLoginRedirectsAuthenticated(t *testing.T) {
	router, jwtService := setupRouter(t)

	token, err := jwtService.CreateToken(auth.Session{UserID: "u1"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/dashboard", rec.Header().Get("Location"))
}
