/*
Package chat contains the real-time core for wirechat.

This file implements the event broadcaster: per-event-kind fan-out of chat
lifecycle changes to exactly the sessions that should see them. Delivery is
best effort per recipient: a full or closed queue drops the frame, a later
failure never rolls back recipients already notified, and presence recompute
pushes run as their own goroutine per recipient so one slow store call never
stalls the rest of the fan-out.
*/
package chat

import (
	"context"

	"wirechat/internal/app/user"
)

// broadcastToRoom queues one event to every session currently viewing the
// room. Sessions that disconnect mid-iteration simply drop the frame.
func (h *Hub) broadcastToRoom(roomID string, eventType EventType, payload any) {
	frame, err := NewEvent(eventType, payload)
	if err != nil {
		h.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Failed to build room broadcast")
		return
	}

	for _, viewer := range h.registry.SessionsInRoom(roomID) {
		viewer.Queue(frame)
	}
}

// HandleMessage fans a sent message out to every session viewing the chat.
// The sender must still be a participant, checked fresh against the store.
// The raw creator linkage is stripped and replaced with the public creator
// record before anything reaches a recipient.
func (h *Hub) HandleMessage(ctx context.Context, s *Session, p MessagePayload) {
	sender, err := h.directory.GetUserByID(ctx, s.UserID())
	if err != nil {
		s.logger.Warn().Err(err).Msg("Message rejected: sender lookup failed")
		s.SendError()
		return
	}

	exists, err := h.directory.ChatExists(ctx, p.ChatID)
	if err != nil || !exists {
		s.logger.Warn().Err(err).Str("chat_id", p.ChatID).Msg("Message rejected: chat unavailable")
		s.SendError()
		return
	}

	isParticipant, err := h.directory.IsParticipant(ctx, sender.ID, p.ChatID)
	if err != nil {
		s.SendError()
		return
	}
	if !isParticipant {
		s.logger.Warn().Str("chat_id", p.ChatID).Msg("Message rejected: not a participant")
		s.SendError()
		return
	}

	msg := p.Message
	msg.ChatID = p.ChatID
	msg.CreatorID = ""
	msg.Creator = &user.User{ID: sender.ID, Username: sender.Username}

	h.broadcastToRoom(p.ChatID, TypeMessage, MessageEventPayload{Message: msg})
}

// HandleMessageDelete notifies every session viewing the chat that one
// message is gone.
func (h *Hub) HandleMessageDelete(ctx context.Context, s *Session, p MessageDeletePayload) {
	h.broadcastToRoom(p.ChatID, TypeMessageDeleted, MessageDeletedPayload{MessageID: p.MessageID})
}

// HandleMessageDeleteAll notifies every session viewing the chat that the
// actor's messages were bulk-deleted.
func (h *Hub) HandleMessageDeleteAll(ctx context.Context, s *Session, chatID string) {
	actor, err := h.directory.GetUserByID(ctx, s.UserID())
	if err != nil {
		s.SendError()
		return
	}

	h.broadcastToRoom(chatID, TypeAllMessagesDeleted, AllMessagesDeletedPayload{UserID: actor.ID})
}

// HandleChatCreate tells every online participant of the new chat that it
// appeared, and pushes each a fresh presence set, since their peer set just
// grew.
func (h *Hub) HandleChatCreate(ctx context.Context, s *Session, chatID string) {
	participantIDs, err := h.directory.GetChatParticipantIDs(ctx, chatID)
	if err != nil {
		s.logger.Warn().Err(err).Str("chat_id", chatID).Msg("Chat create fanout aborted: participant lookup failed")
		s.SendError()
		return
	}

	members := make(map[string]struct{}, len(participantIDs))
	for _, id := range participantIDs {
		members[id] = struct{}{}
	}

	for _, peer := range h.registry.Snapshot() {
		if _, ok := members[peer.UserID()]; !ok {
			continue
		}
		peer.SendEvent(TypeChatAppeared, nil)
		go h.pushOnlinePeers(ctx, peer)
	}
}

// HandleChatDelete tells every online participant the chat is gone and
// forces any session still viewing it back to idle, so no session is left
// referencing a room that no longer exists.
func (h *Hub) HandleChatDelete(ctx context.Context, s *Session, p ChatDeletePayload) {
	members := make(map[string]struct{}, len(p.ParticipantIDs))
	for _, id := range p.ParticipantIDs {
		members[id] = struct{}{}
	}

	for _, peer := range h.registry.Snapshot() {
		if _, ok := members[peer.UserID()]; ok {
			peer.SendEvent(TypeChatDisappeared, ChatDisappearedPayload{ChatID: p.ChatID})
		}
	}

	for _, viewer := range h.registry.SessionsInRoom(p.ChatID) {
		h.forceClearRoom(viewer)
	}
}

// HandleParticipantAdd notifies the new participant's sessions that a chat
// appeared for them, shows the participant's public record to everyone
// viewing the room, and pushes presence recomputes to both groups.
func (h *Hub) HandleParticipantAdd(ctx context.Context, s *Session, p ParticipantChangePayload) {
	participant, err := h.directory.GetUserByID(ctx, p.ParticipantID)
	if err != nil {
		s.logger.Warn().Err(err).Str("participant_id", p.ParticipantID).Msg("Participant add fanout aborted")
		s.SendError()
		return
	}

	for _, own := range h.registry.SessionsOfUser(participant.ID) {
		own.SendEvent(TypeChatAppeared, nil)
		go h.pushOnlinePeers(ctx, own)
	}

	for _, viewer := range h.registry.SessionsInRoom(p.ChatID) {
		viewer.SendEvent(TypeParticipantAppeared, ParticipantAppearedPayload{Participant: participant})
		go h.pushOnlinePeers(ctx, viewer)
	}
}

// HandleParticipantRemove fans out a participant's removal: a personal
// notice to the removed user's sessions not viewing the room (skipped when
// they removed themselves, since the acting connection already knows), a
// room-wide notice to everyone viewing the room, and a forced room clear for
// the removed user's sessions still viewing it.
func (h *Hub) HandleParticipantRemove(ctx context.Context, s *Session, p ParticipantChangePayload) {
	actor, err := h.directory.GetUserByID(ctx, s.UserID())
	if err != nil {
		s.SendError()
		return
	}

	participant, err := h.directory.GetUserByID(ctx, p.ParticipantID)
	if err != nil {
		s.logger.Warn().Err(err).Str("participant_id", p.ParticipantID).Msg("Participant remove fanout aborted")
		s.SendError()
		return
	}

	exists, err := h.directory.ChatExists(ctx, p.ChatID)
	if err != nil || !exists {
		s.SendError()
		return
	}

	notice := ParticipantDisappearedPayload{UserID: participant.ID, ChatID: p.ChatID}

	if participant.ID != actor.ID {
		for _, own := range h.registry.SessionsOfUser(participant.ID) {
			if own.Room() != p.ChatID {
				own.SendEvent(TypeParticipantDisappeared, notice)
			}
		}
	}

	h.broadcastToRoom(p.ChatID, TypeParticipantDisappeared, notice)

	for _, own := range h.registry.SessionsOfUser(participant.ID) {
		if own.Room() == p.ChatID {
			h.forceClearRoom(own)
		}
	}
}

// HandleAccountDelete fans out an account deletion and its cascade: every
// chat the account created was removed with it, so participants of surviving
// chats get a personal notice, every affected room gets its room-wide
// notices, and sessions left viewing a cascaded-away chat are migrated back
// to idle. The fan-out is best effort; recipients notified before a failure
// stay notified.
func (h *Hub) HandleAccountDelete(ctx context.Context, s *Session, chatIDs []string) {
	deletedUserID := s.UserID()

	peerIDs := make(map[string]struct{})
	deletedChats := make(map[string]struct{})

	for _, chatID := range chatIDs {
		participantIDs, err := h.directory.GetChatParticipantIDs(ctx, chatID)
		if err != nil {
			if isNotFound(err) {
				// The cascade already removed this chat.
				deletedChats[chatID] = struct{}{}
				continue
			}
			s.logger.Warn().Err(err).Str("chat_id", chatID).Msg("Account delete fanout aborted: participant lookup failed")
			s.SendError()
			return
		}
		for _, id := range participantIDs {
			peerIDs[id] = struct{}{}
		}
	}

	for _, peer := range h.registry.Snapshot() {
		if _, ok := peerIDs[peer.UserID()]; ok {
			peer.SendEvent(TypeAccountDisappeared, AccountDisappearedPayload{UserID: deletedUserID})
		}
	}

	for _, chatID := range chatIDs {
		h.broadcastToRoom(chatID, TypeAllMessagesDeleted, AllMessagesDeletedPayload{UserID: deletedUserID})
		h.broadcastToRoom(chatID, TypeParticipantDisappeared, ParticipantDisappearedPayload{UserID: deletedUserID, ChatID: chatID})
	}

	for _, viewer := range h.registry.Snapshot() {
		if _, ok := deletedChats[viewer.Room()]; ok {
			h.forceClearRoom(viewer)
		}
	}
}
