package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the JWT claims bound to a wirechat identity token.
type Payload struct {
	// StandardClaims embeds Exp, Iat and Iss, which drive token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// UserID is the persisted id of the account the token was issued to.
	UserID string `json:"userId"`

	// Username is the public display name at issuance time. Informational
	// only; the identity resolver re-reads the account on every handshake.
	Username string `json:"username"`
}
