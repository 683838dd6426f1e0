/*
Package chat contains the real-time core for wirechat.

This file defines the Hub, the top-level owner of the connection registry.
It wires the registry and the persistence collaborator together and carries
the connect/disconnect lifecycle: a session becomes visible to presence and
broadcast only once Register runs, and Unregister is the single place a
session leaves the shared state.
*/
package chat

import (
	"context"

	"github.com/rs/zerolog"

	"wirechat/internal/pkg/logx"
)

// Hub owns the process-wide registry and dispatches every domain event to
// the right subset of live sessions. One Hub exists per process; it is
// injected into the transport layer, never reached through a global.
type Hub struct {
	registry  *Registry
	directory Directory
	logger    zerolog.Logger
}

// NewHub creates a Hub over the given persistence collaborator.
func NewHub(directory Directory) *Hub {
	return &Hub{
		registry:  NewRegistry(),
		directory: directory,
		logger:    logx.Logger().With().Str("component", "Hub").Logger(),
	}
}

// Registry exposes the connection registry for the transport layer and tests.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Register admits an authenticated session into the registry and announces
// its arrival to every online peer sharing a chat with it. Before this call
// the session is invisible to all other components.
func (h *Hub) Register(ctx context.Context, s *Session) {
	h.registry.Insert(s)

	s.logger.Info().
		Str("conn_id", s.ID()).
		Int("total_sessions", h.registry.Len()).
		Msg("Session registered")

	h.announcePresence(ctx, s, TypeUserConnected)
}

// Unregister removes the session from the registry, releases its room, and
// announces the departure to online peers. Idempotent: repeated calls for
// the same session do nothing after the first.
func (h *Hub) Unregister(ctx context.Context, s *Session) {
	if !h.registry.Remove(s) {
		return
	}

	s.logger.Info().
		Str("conn_id", s.ID()).
		Int("total_sessions", h.registry.Len()).
		Msg("Session unregistered")

	// The departed session is already out of the snapshot, so it cannot
	// receive its own departure notice.
	h.announcePresence(ctx, s, TypeUserDisconnected)
}

// Shutdown force-closes every live session. Closing the send queue makes
// each WritePump emit a close frame and exit.
func (h *Hub) Shutdown() {
	sessions := h.registry.Snapshot()
	for _, s := range sessions {
		h.registry.Remove(s)
	}

	h.logger.Info().Int("closed_sessions", len(sessions)).Msg("Hub shutdown complete")
}
