/*
Package chat contains the real-time core for wirechat.

This file implements room membership: selecting, clearing, and forcibly
clearing the room a session is viewing. Membership is authorized against the
store on every selection; nothing is assumed from prior state, because a
participant can be removed between two selections.
*/
package chat

import (
	"context"
	"errors"
)

// SelectRoom points the session at a chat room after a fresh participant
// check. A Forbidden or not-found outcome signals the generic error and
// leaves the prior room state untouched. Any previously selected room is
// released before the new one is joined, so a session is never concurrently
// in two rooms. Selecting the already-selected room is a no-op beyond the
// re-check.
func (h *Hub) SelectRoom(ctx context.Context, s *Session, chatID string) {
	if chatID == "" {
		s.SendError()
		return
	}

	exists, err := h.directory.ChatExists(ctx, chatID)
	if err != nil {
		s.logger.Warn().Err(err).Str("chat_id", chatID).Msg("Room selection aborted: chat lookup failed")
		s.SendError()
		return
	}
	if !exists {
		s.logger.Warn().Str("chat_id", chatID).Msg("Room selection rejected: chat not found")
		s.SendError()
		return
	}

	isParticipant, err := h.directory.IsParticipant(ctx, s.UserID(), chatID)
	if err != nil {
		s.logger.Warn().Err(err).Str("chat_id", chatID).Msg("Room selection aborted: participant lookup failed")
		s.SendError()
		return
	}
	if !isParticipant {
		s.logger.Warn().Str("chat_id", chatID).Msg("Room selection rejected: not a participant")
		s.SendError()
		return
	}

	previous := h.registry.SetRoom(s, chatID)
	if previous != chatID {
		s.logger.Debug().Str("chat_id", chatID).Str("previous", previous).Msg("Room selected")
	}
}

// ClearRoom releases the session's selected room, returning it to idle, and
// confirms to the client. Idempotent: clearing an idle session just
// re-confirms.
func (h *Hub) ClearRoom(s *Session) {
	h.registry.SetRoom(s, "")
	s.SendEvent(TypeRoomCleared, nil)
}

// forceClearRoom migrates a session out of a room that no longer exists (or
// that the user was removed from) and tells the client it was forced out.
// Distinct from ClearRoom so clients can tell a server-side eviction from
// the echo of their own request.
func (h *Hub) forceClearRoom(s *Session) {
	h.registry.SetRoom(s, "")
	s.SendEvent(TypeForceClearRoom, nil)
}

// isNotFound reports whether the collaborator failure is the expected stale
// reference case rather than an infrastructure error.
func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
