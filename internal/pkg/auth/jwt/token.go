/*
Package jwt implements the credential verifier: issuing and validating the
signed identity tokens presented at websocket handshake and on REST calls.

Verification is a pure function of (token, secret). Client-side failures
(missing, malformed, bad signature, expired) and server misconfiguration
(empty secret) are reported as distinct errors so the caller can map them to
the right failure class.
*/
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

const (
	// IdentityExpiration is the lifetime of an issued identity token.
	IdentityExpiration = 24 * time.Hour

	// TokenIssuer identifies this server as the token issuer.
	TokenIssuer = "wirechat-server"
)

// ErrSecretUnconfigured reports a missing signing secret. This is a server
// misconfiguration, never a client auth failure.
var ErrSecretUnconfigured = errors.New("token secret is not configured")

// ErrTokenMissing reports an empty credential.
var ErrTokenMissing = errors.New("no auth token presented")

// ErrTokenInvalid reports a malformed, tampered or expired credential.
var ErrTokenInvalid = errors.New("invalid or expired token")

// GenerateToken signs a new identity token for the given payload.
func GenerateToken(payload *Payload, secretKey string) (string, error) {
	if secretKey == "" {
		return "", ErrSecretUnconfigured
	}

	now := time.Now()
	payload.StandardClaims = jwt.StandardClaims{
		ExpiresAt: now.Add(IdentityExpiration).Unix(),
		IssuedAt:  now.Unix(),
		Issuer:    TokenIssuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, payload)

	return token.SignedString([]byte(secretKey))
}

// ParseToken validates the token string against the secret and returns the
// decoded payload. All client-side failures collapse to ErrTokenInvalid.
func ParseToken(tokenString string, secretKey string) (*Payload, error) {
	if secretKey == "" {
		return nil, ErrSecretUnconfigured
	}
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	claims := &Payload{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secretKey), nil
	})

	if err != nil {
		return nil, ErrTokenInvalid
	}

	if !token.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
