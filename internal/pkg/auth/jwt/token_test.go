package jwt

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestGenerateAndParseToken(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(&Payload{UserID: "u1", Username: "alice"}, testSecret)
	req.NoError(err)
	req.NotEmpty(token)

	payload, err := ParseToken(token, testSecret)
	req.NoError(err)
	req.Equal("u1", payload.UserID)
	req.Equal("alice", payload.Username)
	req.Equal(TokenIssuer, payload.Issuer)
}

func TestParseTokenWrongSecret(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(&Payload{UserID: "u1", Username: "alice"}, testSecret)
	req.NoError(err)

	_, err = ParseToken(token, "other-secret")
	req.ErrorIs(err, ErrTokenInvalid)
}

func TestParseTokenExpired(t *testing.T) {
	req := require.New(t)

	expired := gojwt.NewWithClaims(gojwt.SigningMethodHS256, &Payload{
		StandardClaims: gojwt.StandardClaims{
			ExpiresAt: time.Now().Add(-time.Hour).Unix(),
			IssuedAt:  time.Now().Add(-2 * time.Hour).Unix(),
			Issuer:    TokenIssuer,
		},
		UserID:   "u1",
		Username: "alice",
	})
	tokenString, err := expired.SignedString([]byte(testSecret))
	req.NoError(err)

	_, err = ParseToken(tokenString, testSecret)
	req.ErrorIs(err, ErrTokenInvalid)
}

func TestParseTokenMissingUserID(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(&Payload{Username: "alice"}, testSecret)
	req.NoError(err)

	_, err = ParseToken(token, testSecret)
	req.ErrorIs(err, ErrTokenInvalid)
}

func TestEmptySecretIsServerError(t *testing.T) {
	req := require.New(t)

	_, err := GenerateToken(&Payload{UserID: "u1"}, "")
	req.ErrorIs(err, ErrSecretUnconfigured)

	_, err = ParseToken("whatever", "")
	req.ErrorIs(err, ErrSecretUnconfigured)
}

func TestParseTokenEmptyString(t *testing.T) {
	_, err := ParseToken("", testSecret)
	require.ErrorIs(t, err, ErrTokenMissing)
}

func TestTokenFromRequestPrecedence(t *testing.T) {
	req := require.New(t)

	r := httptest.NewRequest(http.MethodGet, "/ws?token=from-query", nil)
	req.Equal("from-query", TokenFromRequest(r))

	r.Header.Set("Authorization", "Bearer from-header")
	req.Equal("from-header", TokenFromRequest(r))

	r.AddCookie(&http.Cookie{Name: "auth_token", Value: "from-cookie"})
	req.Equal("from-cookie", TokenFromRequest(r))
}

func TestIdentityExtractorMiddleware(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken(&Payload{UserID: "u1", Username: "alice"}, testSecret)
	req.NoError(err)

	var got *Payload
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetPayloadFromContext(r)
	})
	handler := IdentityExtractorMiddleware(testSecret)(next)

	// A valid token populates the context.
	r := httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	r.AddCookie(&http.Cookie{Name: "auth_token", Value: token})
	handler.ServeHTTP(httptest.NewRecorder(), r)
	req.NotNil(got)
	req.Equal("u1", got.UserID)

	// No token: the request proceeds anonymously.
	got = nil
	r = httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	handler.ServeHTTP(httptest.NewRecorder(), r)
	req.Nil(got)

	// A garbage token is treated the same as no token.
	r = httptest.NewRequest(http.MethodGet, "/api/whoami", nil)
	r.AddCookie(&http.Cookie{Name: "auth_token", Value: "garbage"})
	handler.ServeHTTP(httptest.NewRecorder(), r)
	req.Nil(got)
}
