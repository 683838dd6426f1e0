/*
Package chat contains the real-time core for wirechat.

This file implements the presence calculator. Presence is derived, never
stored: each query unions the participant ids across the user's chats and
intersects them with a snapshot of the registry. Recomputing per call trades
a linear scan for immunity to the staleness bugs of cached presence sets;
see OnlinePeers for the scan that would be the first target of an index if
recipient counts ever grow.
*/
package chat

import (
	"context"
	"sort"
)

// OnlinePeers returns the deduplicated, sorted user ids of online peers who
// share at least one chat with the user. The user appears in their own
// result when online, since they participate in their own chats. Identical
// state yields identical output regardless of the asker.
func (h *Hub) OnlinePeers(ctx context.Context, userID string) ([]string, error) {
	chats, err := h.directory.GetUserChats(ctx, userID)
	if err != nil {
		return nil, err
	}

	peerIDs := make(map[string]struct{})
	for _, chat := range chats {
		for _, id := range chat.ParticipantIDs {
			peerIDs[id] = struct{}{}
		}
	}

	online := make([]string, 0, len(peerIDs))
	seen := make(map[string]struct{})
	for _, s := range h.registry.Snapshot() {
		uid := s.UserID()
		if _, isPeer := peerIDs[uid]; !isPeer {
			continue
		}
		if _, dup := seen[uid]; dup {
			continue
		}
		seen[uid] = struct{}{}
		online = append(online, uid)
	}

	sort.Strings(online)
	return online, nil
}

// onlinePeerSessions returns every live session owned by a peer of the user,
// the fan-out set for connect/disconnect and account-deletion notices.
func (h *Hub) onlinePeerSessions(ctx context.Context, userID string) ([]*Session, error) {
	chats, err := h.directory.GetUserChats(ctx, userID)
	if err != nil {
		return nil, err
	}

	peerIDs := make(map[string]struct{})
	for _, chat := range chats {
		for _, id := range chat.ParticipantIDs {
			peerIDs[id] = struct{}{}
		}
	}

	var sessions []*Session
	for _, s := range h.registry.Snapshot() {
		if _, isPeer := peerIDs[s.UserID()]; isPeer {
			sessions = append(sessions, s)
		}
	}
	return sessions, nil
}

// pushOnlinePeers recomputes and delivers the presence set to one session.
// Used for the client query and for server-initiated recomputes after the
// peer set changes.
func (h *Hub) pushOnlinePeers(ctx context.Context, s *Session) {
	peers, err := h.OnlinePeers(ctx, s.UserID())
	if err != nil {
		s.logger.Warn().Err(err).Msg("Presence recompute failed")
		s.SendError()
		return
	}

	s.SendEvent(TypeOnlinePeers, OnlinePeersPayload{UserIDs: peers})
}

// HandleOnlinePeersQuery answers the client-pollable presence query.
func (h *Hub) HandleOnlinePeersQuery(ctx context.Context, s *Session) {
	h.pushOnlinePeers(ctx, s)
}

// announcePresence notifies every online peer of the session's arrival or
// departure. Lookup failures degrade to the generic error on the triggering
// session; peers already notified stay notified.
func (h *Hub) announcePresence(ctx context.Context, s *Session, eventType EventType) {
	peers, err := h.onlinePeerSessions(ctx, s.UserID())
	if err != nil {
		s.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("Presence announcement failed")
		s.SendError()
		return
	}

	frame, err := NewEvent(eventType, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build presence announcement")
		return
	}

	for _, peer := range peers {
		peer.Queue(frame)
	}
}
