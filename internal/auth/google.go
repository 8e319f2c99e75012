package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"realtime-chat/internal/config"
	"realtime-chat/internal/models"
	"realtime-chat/internal/repositories"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SessionCookie is the cookie carrying the session token for page routes and
// websocket upgrades. API callers may send the same token as a bearer header.
const SessionCookie = "chat_session"

const stateCookie = "oauth_state"

// GoogleOAuth runs the sign-in flow against the identity provider and
// provisions the user record on first sign-in.
type GoogleOAuth struct {
	OAuthConfig *oauth2.Config
	users       repositories.UserRepository
	jwtService  *JWTService
	config      *config.Config
	logger      *slog.Logger
}

// Profile returned by the identity provider's userinfo endpoint.
type providerProfile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

// NewGoogleOAuth wires the provider config and dependencies.
func NewGoogleOAuth(users repositories.UserRepository, jwtService *JWTService, cfg *config.Config, logger *slog.Logger) *GoogleOAuth {
	return &GoogleOAuth{
		OAuthConfig: &oauth2.Config{
			RedirectURL:  cfg.BaseURL + "/oauth2/callback",
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		users:      users,
		jwtService: jwtService,
		config:     cfg,
		logger:     logger,
	}
}

// HandleLogin redirects to the provider's consent page.
func (auth *GoogleOAuth) HandleLogin(ctx *gin.Context) {
	state := newState()
	ctx.SetCookie(stateCookie, state, 300, "/", "", false, true)
	ctx.Redirect(http.StatusTemporaryRedirect, auth.OAuthConfig.AuthCodeURL(state))
}

// HandleCallback exchanges the code, syncs the user record and issues the
// session token.
func (auth *GoogleOAuth) HandleCallback(ctx *gin.Context) {
	state, err := ctx.Cookie(stateCookie)
	if err != nil || state == "" || ctx.Query("state") != state {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid oauth state"})
		return
	}

	code := ctx.Query("code")
	if code == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}

	token, err := auth.OAuthConfig.Exchange(ctx.Request.Context(), code)
	if err != nil {
		auth.logger.Error("oauth code exchange failed", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	profile, err := auth.fetchProfile(ctx.Request.Context(), token)
	if err != nil {
		auth.logger.Error("userinfo fetch failed", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	user := models.User{
		ID:    profile.ID,
		Name:  profile.Name,
		Email: profile.Email,
		Image: profile.Picture,
	}
	if err := auth.syncUser(ctx.Request.Context(), user); err != nil {
		auth.logger.Error("user provisioning failed", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	sessionToken, err := auth.jwtService.CreateToken(Session{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Image:  user.Image,
	})
	if err != nil {
		auth.logger.Error("session token creation failed", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	ctx.SetCookie(SessionCookie, sessionToken, int(auth.config.SessionTTL.Seconds()), "/", "", false, true)
	ctx.Redirect(http.StatusTemporaryRedirect, "/dashboard")
}

// HandleLogout clears the session cookie. The JWT itself stays valid until
// expiry; there is no server-side revocation list.
func (auth *GoogleOAuth) HandleLogout(ctx *gin.Context) {
	ctx.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	ctx.Redirect(http.StatusFound, "/login")
}

func (auth *GoogleOAuth) fetchProfile(ctx context.Context, token *oauth2.Token) (providerProfile, error) {
	client := auth.OAuthConfig.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return providerProfile{}, err
	}
	defer resp.Body.Close()

	var profile providerProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return providerProfile{}, err
	}
	if profile.ID == "" || profile.Email == "" {
		return providerProfile{}, errors.New("incomplete profile from provider")
	}
	return profile, nil
}

// syncUser writes the record on first sign-in and refreshes the profile
// fields on later sign-ins so they stay in sync with the provider.
func (auth *GoogleOAuth) syncUser(ctx context.Context, user models.User) error {
	existing, err := auth.users.GetUser(ctx, user.ID)
	if err != nil && !errors.Is(err, repositories.ErrUserNotFound) {
		return err
	}
	if err == nil && existing == user {
		return nil
	}
	return auth.users.CreateUser(ctx, user)
}

func newState() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "state"
	}
	return base64.URLEncoding.EncodeToString(buf)
}
