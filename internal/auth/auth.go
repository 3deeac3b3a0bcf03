// Package auth extracts the user identity from a websocket handshake request.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingIdentity = errors.New("missing user identity")
	ErrInvalidToken    = errors.New("invalid token")
)

// Claims carries the user id in a "userId" claim. Tokens minted elsewhere may
// use the registered subject instead.
type Claims struct {
	UserID string `json:"userId,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator resolves the connecting user. With no secret the identity is
// trusted as sent, matching a deployment behind an authenticating proxy.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	a := &Authenticator{}
	if secret != "" {
		a.secret = []byte(secret)
	}
	return a
}

// RequiresToken reports whether a signed token is mandatory.
func (a *Authenticator) RequiresToken() bool {
	return len(a.secret) > 0
}

func (a *Authenticator) Authenticate(r *http.Request) (string, error) {
	if !a.RequiresToken() {
		userID := strings.TrimSpace(r.URL.Query().Get("userId"))
		if userID == "" {
			userID = strings.TrimSpace(r.Header.Get("X-User-ID"))
		}
		if userID == "" {
			return "", ErrMissingIdentity
		}
		return userID, nil
	}

	token := bearerToken(r)
	if token == "" {
		return "", ErrMissingIdentity
	}
	return a.userFromToken(token)
}

func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

func (a *Authenticator) userFromToken(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return "", ErrMissingIdentity
	}
	return userID, nil
}

// GenerateToken signs a token for userID. It is used by tests and by the
// token command of the server binary.
func GenerateToken(userID string, secret []byte, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
	})
	return token.SignedString(secret)
}
