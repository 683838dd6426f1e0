/*
Package store implements the persistence collaborator over PostgreSQL.

It satisfies chat.Directory for the real-time core and adds the account
queries the auth handlers need. All lookups are authoritative reads against
the database; the real-time layer calls them fresh per event and treats
pgx.ErrNoRows as the expected stale-reference case.
*/
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wirechat/internal/app/chat"
	"wirechat/internal/app/user"
)

// Store runs queries against the connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store over the given pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// UserWithHash is the internal account row including the password hash. It
// never leaves the store/handler boundary.
type UserWithHash struct {
	user.User
	PasswordHash string
}

// GetUserByID resolves an account by id. Returns chat.ErrNotFound for a
// missing account, e.g. a still-valid token for a deleted user.
func (st *Store) GetUserByID(ctx context.Context, userID string) (user.User, error) {
	var u user.User

	err := st.pool.QueryRow(ctx,
		`SELECT id, username FROM users WHERE id = $1`, userID,
	).Scan(&u.ID, &u.Username)

	if errors.Is(err, pgx.ErrNoRows) {
		return user.User{}, chat.ErrNotFound
	}
	if err != nil {
		return user.User{}, fmt.Errorf("get user by id: %w", err)
	}

	return u, nil
}

// GetUserByUsername resolves an account with its password hash for login.
func (st *Store) GetUserByUsername(ctx context.Context, username string) (UserWithHash, error) {
	var u UserWithHash

	err := st.pool.QueryRow(ctx,
		`SELECT id, username, password_hash FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash)

	if errors.Is(err, pgx.ErrNoRows) {
		return UserWithHash{}, chat.ErrNotFound
	}
	if err != nil {
		return UserWithHash{}, fmt.Errorf("get user by username: %w", err)
	}

	return u, nil
}

// CreateUser inserts a new account and returns its public record.
func (st *Store) CreateUser(ctx context.Context, username, passwordHash string) (user.User, error) {
	var u user.User

	err := st.pool.QueryRow(ctx,
		`INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id, username`,
		username, passwordHash,
	).Scan(&u.ID, &u.Username)

	if err != nil {
		return user.User{}, fmt.Errorf("create user: %w", err)
	}

	return u, nil
}

// GetUserChats returns every chat the user participates in together with the
// full participant id list of each, the shape the presence calculator needs.
func (st *Store) GetUserChats(ctx context.Context, userID string) ([]user.ChatMembership, error) {
	rows, err := st.pool.Query(ctx,
		`SELECT peer.chat_id, peer.user_id
		 FROM chat_participants own
		 JOIN chat_participants peer ON peer.chat_id = own.chat_id
		 WHERE own.user_id = $1
		 ORDER BY peer.chat_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("get user chats: %w", err)
	}
	defer rows.Close()

	var memberships []user.ChatMembership
	byChat := make(map[string]int)

	for rows.Next() {
		var chatID, participantID string
		if err := rows.Scan(&chatID, &participantID); err != nil {
			return nil, fmt.Errorf("get user chats: %w", err)
		}

		idx, ok := byChat[chatID]
		if !ok {
			idx = len(memberships)
			byChat[chatID] = idx
			memberships = append(memberships, user.ChatMembership{ChatID: chatID})
		}
		memberships[idx].ParticipantIDs = append(memberships[idx].ParticipantIDs, participantID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get user chats: %w", err)
	}

	return memberships, nil
}

// GetChatParticipantIDs returns the participant ids of one chat, or
// chat.ErrNotFound when the chat does not exist.
func (st *Store) GetChatParticipantIDs(ctx context.Context, chatID string) ([]string, error) {
	rows, err := st.pool.Query(ctx,
		`SELECT user_id FROM chat_participants WHERE chat_id = $1`, chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("get chat participants: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("get chat participants: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get chat participants: %w", err)
	}

	if len(ids) == 0 {
		// Participant-less chats do not occur; distinguish a deleted chat
		// from an empty one before reporting.
		exists, err := st.ChatExists(ctx, chatID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, chat.ErrNotFound
		}
	}

	return ids, nil
}

// IsParticipant reports whether the user currently participates in the chat.
func (st *Store) IsParticipant(ctx context.Context, userID, chatID string) (bool, error) {
	var isParticipant bool

	err := st.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM chat_participants WHERE user_id = $1 AND chat_id = $2)`,
		userID, chatID,
	).Scan(&isParticipant)

	if err != nil {
		return false, fmt.Errorf("is participant: %w", err)
	}

	return isParticipant, nil
}

// ChatExists reports whether the chat is currently persisted.
func (st *Store) ChatExists(ctx context.Context, chatID string) (bool, error) {
	var exists bool

	err := st.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM chats WHERE id = $1)`, chatID,
	).Scan(&exists)

	if err != nil {
		return false, fmt.Errorf("chat exists: %w", err)
	}

	return exists, nil
}
