/*
Package user contains the data structures shared between the persistence
layer and the real-time core for user identity.
*/
package user

// User is the public record of an account, the only user shape that ever
// reaches the wire. Password hashes never leave the store.
type User struct {
	// ID is the persisted unique identifier of the account.
	ID string `json:"id"`

	// Username is the public display name.
	Username string `json:"username"`
}

// ChatMembership describes one chat a user belongs to together with the ids
// of every participant, the shape the presence calculator consumes. It is
// fetched fresh per event and never cached beyond a single event's handling.
type ChatMembership struct {
	// ChatID is the persisted id of the chat.
	ChatID string `json:"chatId"`

	// ParticipantIDs lists the user ids of every chat participant.
	ParticipantIDs []string `json:"participantIds"`
}
