/*
Package chat contains the real-time core: the connection registry, per-connection
sessions, room membership, online-presence computation, and event fan-out.

This file defines the Directory interface, the persistence collaborator the
core consumes. Lookups are authoritative and may be stale the instant they
return; the core therefore re-reads membership on every event that depends on
it and never caches results across events.
*/
package chat

import (
	"context"
	"errors"

	"wirechat/internal/app/user"
)

// ErrNotFound is returned by Directory lookups when the referenced user or
// chat does not exist. It is a normal failure path: still-valid credentials
// for deleted accounts and stale chat references are expected.
var ErrNotFound = errors.New("not found")

// Directory is the persistence collaborator consumed by the real-time core.
// Implementations must be safe for concurrent use; every call may block on
// I/O, so callers never hold registry locks across a Directory call.
type Directory interface {
	// GetUserByID resolves a verified identity to its stored account.
	GetUserByID(ctx context.Context, userID string) (user.User, error)

	// GetUserChats returns every chat the user participates in, each with the
	// full participant id list.
	GetUserChats(ctx context.Context, userID string) ([]user.ChatMembership, error)

	// GetChatParticipantIDs returns the participant ids of one chat.
	GetChatParticipantIDs(ctx context.Context, chatID string) ([]string, error)

	// IsParticipant reports whether the user currently participates in the chat.
	IsParticipant(ctx context.Context, userID, chatID string) (bool, error)

	// ChatExists reports whether the chat is currently persisted.
	ChatExists(ctx context.Context, chatID string) (bool, error)
}
