/*
Package handler provides the HTTP handlers and routing for the wirechat server.

This file contains the websocket handshake handler. The credential is
verified and the identity resolved BEFORE the connection is admitted: a
failure at either step rejects the upgrade (or tears the fresh transport
down), so a partially-authenticated connection is never visible to the
real-time core.
*/
package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"wirechat/internal/app/chat"
	"wirechat/internal/pkg/auth/jwt"
	"wirechat/internal/pkg/errs"
	"wirechat/internal/pkg/limiter"
	"wirechat/internal/pkg/logx"
	"wirechat/internal/pkg/resp"
)

// HandleWebSocket processes websocket connection requests: rate limit,
// credential verification, identity resolution, upgrade, then session
// registration and the read/write pumps.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		// Credential verification: presented once at establishment, never
		// renegotiated mid-connection.
		tokenString := jwt.TokenFromRequest(r)
		payload, err := jwt.ParseToken(tokenString, deps.Config.JWTSecret)
		if err != nil {
			if errors.Is(err, jwt.ErrSecretUnconfigured) {
				logx.Error(err, "WebSocket connection rejected: server misconfiguration")
				resp.RespondError(w, r, errs.NewError(errs.ErrSecretUnconfigured))
				return
			}
			logx.Warn("WebSocket connection rejected: invalid credential", "error", err)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		// Identity resolution: a valid token for a deleted account is a
		// normal failure, handled like any other auth rejection.
		currentUser, err := deps.Store.GetUserByID(r.Context(), payload.UserID)
		if err != nil {
			if errors.Is(err, chat.ErrNotFound) {
				logx.Warn("WebSocket connection rejected: account no longer exists", "user_id", payload.UserID)
				resp.RespondError(w, r, errs.NewError(errs.ErrUserNotFound))
				return
			}
			logx.Error(err, "WebSocket connection rejected: identity lookup failed")
			resp.RespondError(w, r, errs.NewError(errs.ErrStoreFailure))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		session := chat.NewSession(deps.Hub, conn, currentUser)

		go session.WritePump()

		deps.Hub.Register(r.Context(), session)

		logx.Info("WebSocket connection established", "user_id", currentUser.ID, "conn_id", session.ID())

		// ReadPump blocks for the life of the connection and owns cleanup.
		session.ReadPump()
	}
}
