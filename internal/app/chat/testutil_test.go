package chat

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"wirechat/internal/app/user"
)

// fakeDirectory is an in-memory Directory. Chats map chat id to participant
// ids; mutating them between calls models concurrent membership changes.
type fakeDirectory struct {
	mu    sync.Mutex
	users map[string]user.User
	chats map[string][]string
	fail  bool
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		users: make(map[string]user.User),
		chats: make(map[string][]string),
	}
}

func (d *fakeDirectory) addUser(userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[userID] = user.User{ID: userID, Username: "user-" + userID}
}

func (d *fakeDirectory) addChat(chatID string, participantIDs ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.chats[chatID] = append([]string(nil), participantIDs...)
	for _, id := range participantIDs {
		if _, ok := d.users[id]; !ok {
			d.users[id] = user.User{ID: id, Username: "user-" + id}
		}
	}
}

func (d *fakeDirectory) removeParticipant(chatID, userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var remaining []string
	for _, id := range d.chats[chatID] {
		if id != userID {
			remaining = append(remaining, id)
		}
	}
	d.chats[chatID] = remaining
}

func (d *fakeDirectory) dropChat(chatID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.chats, chatID)
}

func (d *fakeDirectory) GetUserByID(ctx context.Context, userID string) (user.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return user.User{}, errors.New("store unavailable")
	}
	u, ok := d.users[userID]
	if !ok {
		return user.User{}, ErrNotFound
	}
	return u, nil
}

func (d *fakeDirectory) GetUserChats(ctx context.Context, userID string) ([]user.ChatMembership, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return nil, errors.New("store unavailable")
	}

	var memberships []user.ChatMembership
	for chatID, participants := range d.chats {
		for _, id := range participants {
			if id == userID {
				memberships = append(memberships, user.ChatMembership{
					ChatID:         chatID,
					ParticipantIDs: append([]string(nil), participants...),
				})
				break
			}
		}
	}
	sort.Slice(memberships, func(i, j int) bool { return memberships[i].ChatID < memberships[j].ChatID })
	return memberships, nil
}

func (d *fakeDirectory) GetChatParticipantIDs(ctx context.Context, chatID string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return nil, errors.New("store unavailable")
	}
	participants, ok := d.chats[chatID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]string(nil), participants...), nil
}

func (d *fakeDirectory) IsParticipant(ctx context.Context, userID, chatID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return false, errors.New("store unavailable")
	}
	for _, id := range d.chats[chatID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

func (d *fakeDirectory) ChatExists(ctx context.Context, chatID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return false, errors.New("store unavailable")
	}
	_, ok := d.chats[chatID]
	return ok, nil
}

// addSession registers a new session for the user and discards the connect
// announcements so tests start from a quiet queue.
func addSession(t *testing.T, h *Hub, userID string) *Session {
	t.Helper()

	s := NewSession(h, nil, user.User{ID: userID, Username: "user-" + userID})
	h.Register(context.Background(), s)
	return s
}

// drainEvents empties the session's queue and decodes every envelope.
func drainEvents(t *testing.T, s *Session) []Envelope {
	t.Helper()

	var events []Envelope
	for {
		select {
		case frame, ok := <-s.send:
			if !ok {
				return events
			}
			var env Envelope
			require.NoError(t, json.Unmarshal(frame, &env))
			events = append(events, env)
		default:
			return events
		}
	}
}

// flush discards everything queued on the given sessions.
func flush(t *testing.T, sessions ...*Session) {
	t.Helper()
	for _, s := range sessions {
		drainEvents(t, s)
	}
}

// eventTypes projects the envelopes to their type tags, in order.
func eventTypes(events []Envelope) []EventType {
	types := make([]EventType, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type)
	}
	return types
}

// countType counts occurrences of one event type.
func countType(events []Envelope, eventType EventType) int {
	n := 0
	for _, e := range events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

// unmarshalPayload decodes an envelope's payload into dst.
func unmarshalPayload(env Envelope, dst any) error {
	return json.Unmarshal(env.Payload, dst)
}

// findEvent returns the first envelope of the given type.
func findEvent(t *testing.T, events []Envelope, eventType EventType) Envelope {
	t.Helper()
	for _, e := range events {
		if e.Type == eventType {
			return e
		}
	}
	t.Fatalf("no %s event found in %v", eventType, eventTypes(events))
	return Envelope{}
}
