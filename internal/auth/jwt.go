package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"realtime-chat/internal/config"
)

const issuer = "realtime-chat"

// JWTService issues and verifies the session tokens this service hands out
// after the OAuth callback.
type JWTService struct {
	config *config.Config
}

// SessionClaims carries the profile fields alongside the registered claims so
// handlers never need a store round-trip to know who the caller is.
type SessionClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image"`
	jwt.RegisteredClaims
}

func NewJWTService(config *config.Config) *JWTService {
	return &JWTService{config: config}
}

func (service *JWTService) CreateToken(session Session) (string, error) {
	claims := SessionClaims{
		Name:  session.Name,
		Email: session.Email,
		Image: session.Image,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   session.UserID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(service.config.SessionTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(service.config.JWTSecret)
}

func (service *JWTService) VerifyToken(signedToken string) (Session, error) {
	parser := jwt.NewParser(jwt.WithLeeway(30 * time.Second))

	parsedToken, err := parser.ParseWithClaims(signedToken, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		// Check the signing method to avoid the [alg: none] trick
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return service.config.JWTSecret, nil
	})
	if err != nil {
		return Session{}, err
	}

	claims, ok := parsedToken.Claims.(*SessionClaims)
	if !(ok && parsedToken.Valid) {
		return Session{}, jwt.ErrTokenInvalidClaims
	}

	if claims.Issuer != issuer {
		return Session{}, fmt.Errorf("invalid issuer")
	}
	if claims.Subject == "" {
		return Session{}, fmt.Errorf("missing subject")
	}

	return Session{
		UserID: claims.Subject,
		Name:   claims.Name,
		Email:  claims.Email,
		Image:  claims.Image,
	}, nil
}
