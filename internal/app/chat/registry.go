/*
Package chat contains the real-time core for wirechat.

This file defines the Registry, the single shared mutable structure of the
layer. It owns every live Session for its lifetime, assigns connection ids,
and maintains the derived room index (room id to viewing sessions) under the
same lock. All reads hand out consistent snapshots; locks are never held
across collaborator I/O.

Lock order: Registry.mu before Session.mu, never the reverse.
*/
package chat

import (
	"sync"

	"github.com/google/uuid"
)

// Registry tracks every live session in the process. It is injected into the
// Hub explicitly; there is no package-level instance.
type Registry struct {
	mu sync.RWMutex

	// sessions maps connection id to its session.
	sessions map[string]*Session

	// rooms is the derived index from room id to the sessions viewing it.
	// A room entry exists only while at least one session has it selected.
	rooms map[string]map[string]*Session
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		rooms:    make(map[string]map[string]*Session),
	}
}

// Insert assigns the session its connection id, marks it idle, and makes it
// visible to presence and broadcast. A session is never inserted before its
// identity is bound, so other components only ever observe authenticated
// sessions.
func (reg *Registry) Insert(s *Session) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	s.mu.Lock()
	if s.id == "" {
		s.id = uuid.NewString()
	}
	s.state = StateIdle
	s.mu.Unlock()

	reg.sessions[s.id] = s
}

// Remove takes the session out of the registry and the room index, marks it
// closed, and closes its send queue. Idempotent: removing an unknown or
// already-removed session reports false and changes nothing.
func (reg *Registry) Remove(s *Session) bool {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, ok := reg.sessions[s.id]; !ok {
		return false
	}
	delete(reg.sessions, s.id)

	s.mu.Lock()
	room := s.room
	s.room = ""
	s.state = StateClosed
	if !s.sendClosed {
		s.sendClosed = true
		close(s.send)
	}
	s.mu.Unlock()

	reg.dropFromRoom(room, s.id)
	return true
}

// SetRoom points the session at roomID, moving it in the room index. An
// empty roomID clears the selection. Returns the previously selected room.
// The old room is always released before the new one is joined, so a session
// is never indexed under two rooms.
func (reg *Registry) SetRoom(s *Session, roomID string) (previous string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ""
	}
	previous = s.room
	s.room = roomID
	if roomID == "" {
		s.state = StateIdle
	} else {
		s.state = StateRoomSelected
	}
	s.mu.Unlock()

	if previous == roomID {
		return previous
	}

	reg.dropFromRoom(previous, s.id)

	if roomID != "" {
		viewers, ok := reg.rooms[roomID]
		if !ok {
			viewers = make(map[string]*Session)
			reg.rooms[roomID] = viewers
		}
		viewers[s.id] = s
	}

	return previous
}

// dropFromRoom removes the connection from a room's viewer set, deleting the
// room entry once empty. Caller holds reg.mu.
func (reg *Registry) dropFromRoom(roomID, connID string) {
	if roomID == "" {
		return
	}
	if viewers, ok := reg.rooms[roomID]; ok {
		delete(viewers, connID)
		if len(viewers) == 0 {
			delete(reg.rooms, roomID)
		}
	}
}

// Snapshot returns all live sessions at one instant. The slice is a copy;
// it may be stale the moment it is returned, which presence accepts.
func (reg *Registry) Snapshot() []*Session {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	sessions := make([]*Session, 0, len(reg.sessions))
	for _, s := range reg.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

// SessionsOfUser returns every live session owned by the user. Multi-device
// is permitted, so this can return more than one session.
func (reg *Registry) SessionsOfUser(userID string) []*Session {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	var sessions []*Session
	for _, s := range reg.sessions {
		if s.user.ID == userID {
			sessions = append(sessions, s)
		}
	}
	return sessions
}

// SessionsInRoom returns every session currently viewing the room.
func (reg *Registry) SessionsInRoom(roomID string) []*Session {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	viewers, ok := reg.rooms[roomID]
	if !ok {
		return nil
	}

	sessions := make([]*Session, 0, len(viewers))
	for _, s := range viewers {
		sessions = append(sessions, s)
	}
	return sessions
}

// Len reports the number of live sessions.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.sessions)
}
