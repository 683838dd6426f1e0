/*
Package handler provides the HTTP handlers and routing for the wirechat server.

This file holds the auth endpoints that issue the identity tokens the
websocket handshake consumes.
*/
package handler

import (
	"errors"
	"net/http"
	"regexp"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"wirechat/internal/app/chat"
	"wirechat/internal/app/db"
	"wirechat/internal/pkg/auth/jwt"
	"wirechat/internal/pkg/errs"
	"wirechat/internal/pkg/logx"
	"wirechat/internal/pkg/req"
	"wirechat/internal/pkg/resp"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

// CredentialsInput is the request body for register and login.
type CredentialsInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleRegister creates a new account and issues its identity token.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input CredentialsInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if !usernameRegex.MatchString(input.Username) {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidUsername))
			return
		}

		passwordLen := utf8.RuneCountInString(input.Password)
		if passwordLen < 6 || passwordLen > 50 {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidPassword))
			return
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		account, err := deps.Store.CreateUser(r.Context(), input.Username, string(hashed))
		if err != nil {
			if db.IsUniqueViolation(err) {
				logx.Warn("Registration conflict: username already exists", "username", input.Username)
				resp.RespondError(w, r, errs.NewError(errs.ErrUserAlreadyExists))
				return
			}

			logx.Error(err, "Failed to create user")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		respondWithToken(w, r, deps, account.ID, account.Username)
	}
}

// HandleLogin verifies the credentials and issues an identity token.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input CredentialsInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		account, err := deps.Store.GetUserByUsername(r.Context(), input.Username)
		if err != nil {
			if errors.Is(err, chat.ErrNotFound) {
				resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
				return
			}
			logx.Error(err, "Login lookup failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)) != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		respondWithToken(w, r, deps, account.ID, account.Username)
	}
}

// respondWithToken issues the JWT as an auth_token cookie and in the body,
// matching what the websocket handshake accepts.
func respondWithToken(w http.ResponseWriter, r *http.Request, deps *AppDeps, userID, username string) {
	payload := &jwt.Payload{
		UserID:   userID,
		Username: username,
	}

	tokenString, err := jwt.GenerateToken(payload, deps.Config.JWTSecret)
	if err != nil {
		logx.Error(err, "Failed to generate identity token")
		resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    tokenString,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   deps.Config.Environment != "development",
		MaxAge:   int(jwt.IdentityExpiration.Seconds()),
	})

	resp.RespondSuccess(w, r, map[string]any{
		"token": tokenString,
		"user": map[string]any{
			"id":       userID,
			"username": username,
		},
	})
}
