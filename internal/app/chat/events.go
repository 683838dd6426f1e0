/*
Package chat contains the real-time core for wirechat.

This file defines the wire protocol: one JSON envelope in both directions
carrying a tagged event type and a type-specific payload. Payloads are
decoded and validated at the boundary before dispatch; unknown event types
are logged and ignored.
*/
package chat

import (
	"encoding/json"

	"wirechat/internal/app/user"
)

// EventType tags the kind of an inbound or outbound event.
type EventType string

// Inbound event types (client to server).
const (
	TypeSelectRoom        EventType = "SELECT_ROOM"
	TypeClearRoom         EventType = "CLEAR_ROOM"
	TypeMessage           EventType = "MESSAGE"
	TypeMessageDelete     EventType = "MESSAGE_DELETE"
	TypeMessageDeleteAll  EventType = "MESSAGE_DELETE_ALL"
	TypeChatCreate        EventType = "CHAT_CREATE"
	TypeChatDelete        EventType = "CHAT_DELETE"
	TypeParticipantAdd    EventType = "PARTICIPANT_ADD"
	TypeParticipantRemove EventType = "PARTICIPANT_REMOVE"
	TypeAccountDelete     EventType = "ACCOUNT_DELETE"
	TypeOnlinePeersQuery  EventType = "ONLINE_PEERS"
)

// Outbound event types (server to client). TypeMessage and TypeOnlinePeers
// reuse their inbound names: the query and its answer share a tag.
const (
	TypeError                  EventType = "ERROR"
	TypeRoomCleared            EventType = "ROOM_CLEARED"
	TypeForceClearRoom         EventType = "FORCE_CLEAR_ROOM"
	TypeOnlinePeers            EventType = "ONLINE_PEERS"
	TypeMessageDeleted         EventType = "MESSAGE_DELETED"
	TypeAllMessagesDeleted     EventType = "ALL_MESSAGES_DELETED"
	TypeChatAppeared           EventType = "CHAT_APPEARED"
	TypeChatDisappeared        EventType = "CHAT_DISAPPEARED"
	TypeParticipantAppeared    EventType = "PARTICIPANT_APPEARED"
	TypeParticipantDisappeared EventType = "PARTICIPANT_DISAPPEARED"
	TypeUserConnected          EventType = "USER_CONNECTED"
	TypeUserDisconnected       EventType = "USER_DISCONNECTED"
	TypeAccountDisappeared     EventType = "ACCOUNT_DISAPPEARED"
)

// Envelope is the framing for every event on the wire.
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ChatMessage is a chat message as carried over the wire. The raw CreatorID
// is accepted inbound but stripped before broadcast; recipients only see the
// public Creator record.
type ChatMessage struct {
	ID        string     `json:"id"`
	Value     string     `json:"value"`
	Timestamp string     `json:"timestamp"`
	ChatID    string     `json:"chatId"`
	CreatorID string     `json:"creatorId,omitempty"`
	Creator   *user.User `json:"messageCreator,omitempty"`
}

// Inbound payload shapes.
type (
	// SelectRoomPayload selects the chat the connection is viewing.
	SelectRoomPayload struct {
		ChatID string `json:"chatId"`
	}

	// MessagePayload carries a newly persisted message for fan-out.
	MessagePayload struct {
		ChatID  string      `json:"chatId"`
		Message ChatMessage `json:"message"`
	}

	// MessageDeletePayload identifies one deleted message.
	MessageDeletePayload struct {
		ChatID    string `json:"chatId"`
		MessageID string `json:"messageId"`
	}

	// MessageDeleteAllPayload announces bulk deletion of the actor's messages.
	MessageDeleteAllPayload struct {
		ChatID string `json:"chatId"`
	}

	// ChatCreatePayload announces a newly persisted chat.
	ChatCreatePayload struct {
		ChatID string `json:"chatId"`
	}

	// ChatDeletePayload announces a deleted chat. The participant ids ride
	// along because the membership rows are already gone from the store.
	ChatDeletePayload struct {
		ChatID         string   `json:"chatId"`
		ParticipantIDs []string `json:"participantIds"`
	}

	// ParticipantChangePayload identifies a participant added to or removed
	// from a chat.
	ParticipantChangePayload struct {
		ChatID        string `json:"chatId"`
		ParticipantID string `json:"participantId"`
	}

	// AccountDeletePayload announces the actor's account deletion, listing
	// every chat the account belonged to before the cascade.
	AccountDeletePayload struct {
		ChatIDs []string `json:"chatIds"`
	}
)

// Outbound payload shapes.
type (
	// OnlinePeersPayload answers the presence query.
	OnlinePeersPayload struct {
		UserIDs []string `json:"userIds"`
	}

	// MessageEventPayload wraps a broadcast message.
	MessageEventPayload struct {
		Message ChatMessage `json:"message"`
	}

	// MessageDeletedPayload identifies the deleted message.
	MessageDeletedPayload struct {
		MessageID string `json:"messageId"`
	}

	// AllMessagesDeletedPayload identifies whose messages were bulk-deleted.
	AllMessagesDeletedPayload struct {
		UserID string `json:"userId"`
	}

	// ChatDisappearedPayload identifies the deleted chat.
	ChatDisappearedPayload struct {
		ChatID string `json:"chatId"`
	}

	// ParticipantAppearedPayload carries the new participant's public record.
	ParticipantAppearedPayload struct {
		Participant user.User `json:"participant"`
	}

	// ParticipantDisappearedPayload identifies who left which chat.
	ParticipantDisappearedPayload struct {
		UserID string `json:"userId"`
		ChatID string `json:"chatId"`
	}

	// AccountDisappearedPayload identifies the deleted account.
	AccountDisappearedPayload struct {
		UserID string `json:"userId"`
	}
)

// NewEvent marshals an outbound event into its wire form. A nil payload
// produces an envelope with the type tag only.
func NewEvent(eventType EventType, payload any) ([]byte, error) {
	env := Envelope{Type: eventType}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Payload = raw
	}

	return json.Marshal(env)
}
