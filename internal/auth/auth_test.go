package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Tyrowin/gochat-relay/internal/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate_WithoutSecret(t *testing.T) {
	a := auth.NewAuthenticator("")

	tests := []struct {
		name    string
		target  string
		header  string
		want    string
		wantErr error
	}{
		{name: "query parameter", target: "/ws?userId=A", want: "A"},
		{name: "header", target: "/ws", header: "B", want: "B"},
		{name: "query wins over header", target: "/ws?userId=A", header: "B", want: "A"},
		{name: "missing", target: "/ws", wantErr: auth.ErrMissingIdentity},
		{name: "blank", target: "/ws?userId=%20", wantErr: auth.ErrMissingIdentity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				r.Header.Set("X-User-ID", tt.header)
			}
			got, err := a.Authenticate(r)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestAuthenticate_WithSecret(t *testing.T) {
	req := require.New(t)
	secret := []byte("test-secret")
	a := auth.NewAuthenticator(string(secret))
	req.True(a.RequiresToken())

	token, err := auth.GenerateToken("A", secret, time.Minute)
	req.NoError(err)

	// Query parameter
	r := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	userID, err := a.Authenticate(r)
	req.NoError(err)
	req.Equal("A", userID)

	// Bearer header
	r = httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	userID, err = a.Authenticate(r)
	req.NoError(err)
	req.Equal("A", userID)

	// A bare userId is not enough once tokens are required
	r = httptest.NewRequest(http.MethodGet, "/ws?userId=A", nil)
	_, err = a.Authenticate(r)
	req.ErrorIs(err, auth.ErrMissingIdentity)
}

func TestAuthenticate_RejectsBadTokens(t *testing.T) {
	secret := []byte("test-secret")
	a := auth.NewAuthenticator(string(secret))

	expired, err := auth.GenerateToken("A", secret, -time.Minute)
	require.NoError(t, err)
	forged, err := auth.GenerateToken("A", []byte("other-secret"), time.Minute)
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, auth.Claims{UserID: "A"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired": expired,
		"forged":  forged,
		"none":    none,
		"garbage": "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
			_, err := a.Authenticate(r)
			require.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}
}

func TestAuthenticate_SubjectFallback(t *testing.T) {
	secret := []byte("test-secret")
	a := auth.NewAuthenticator(string(secret))

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "C",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString(secret)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.Header.Set("Authorization", "bearer "+token)
	userID, err := a.Authenticate(r)
	require.NoError(t, err)
	require.Equal(t, "C", userID)
}
