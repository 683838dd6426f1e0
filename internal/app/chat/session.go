/*
Package chat contains the real-time core for wirechat.

This file defines the Session, the per-connection state record: the owning
user bound at handshake, the currently selected room, and the lifecycle
state. It also holds the websocket read and write loops. Inbound events are
processed strictly in arrival order by the connection's own goroutine;
outbound delivery goes through a buffered queue so one slow peer never stalls
a broadcast.
*/
package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"wirechat/internal/app/user"
	"wirechat/internal/pkg/logx"
)

const (
	// writeWait bounds a single write to the websocket.
	writeWait = 10 * time.Second

	// pongWait is how long the server waits for a pong before dropping the
	// connection.
	pongWait = 60 * time.Second

	// pingPeriod is the heartbeat interval. Must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps an inbound frame in bytes.
	maxMessageSize = 8192

	// sendQueueSize is the outbound buffer per session. Events beyond it are
	// dropped, per the best-effort delivery policy.
	sendQueueSize = 256
)

// State is the lifecycle state of a session.
type State int

const (
	// StateConnecting covers the handshake: verifier and resolver run here.
	// A session in this state is never visible to other components.
	StateConnecting State = iota

	// StateIdle is authenticated and registered, with no room selected.
	StateIdle

	// StateRoomSelected additionally holds exactly one selected room.
	StateRoomSelected

	// StateClosed is terminal: removed from the registry, queue closed.
	StateClosed
)

// Session represents one authenticated transport connection.
type Session struct {
	// id is the registry-assigned connection id, opaque to clients.
	id string

	// user is the owning account, immutable after the handshake.
	user user.User

	hub  *Hub
	conn *websocket.Conn

	// send queues outbound frames for WritePump.
	send chan []byte

	// mu guards state, room and sendClosed. The registry acquires it after
	// its own lock when moving the session between rooms.
	mu         sync.Mutex
	state      State
	room       string
	sendClosed bool

	logger zerolog.Logger
}

// NewSession builds a session for an authenticated user. The session stays
// in StateConnecting and invisible to the rest of the core until the hub
// registers it.
func NewSession(hub *Hub, conn *websocket.Conn, u user.User) *Session {
	return &Session{
		user:   u,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, sendQueueSize),
		state:  StateConnecting,
		logger: logx.Logger().With().Str("user_id", u.ID).Logger(),
	}
}

// ID returns the registry-assigned connection id.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// UserID returns the owning user's id.
func (s *Session) UserID() string {
	return s.user.ID
}

// Room returns the currently selected room id, empty when idle.
func (s *Session) Room() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Queue enqueues a frame for delivery. Delivery is best effort: frames to a
// closed session or past a full buffer are dropped and false is returned.
func (s *Session) Queue(frame []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sendClosed || s.state == StateClosed {
		return false
	}

	select {
	case s.send <- frame:
		return true
	default:
		s.logger.Warn().Int("queue_len", len(s.send)).Msg("Session send queue full, dropping event")
		return false
	}
}

// SendEvent marshals and queues one outbound event.
func (s *Session) SendEvent(eventType EventType, payload any) bool {
	frame, err := NewEvent(eventType, payload)
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Failed to build outbound event")
		return false
	}
	return s.Queue(frame)
}

// SendError queues the generic error signal. No failure detail crosses the
// connection boundary.
func (s *Session) SendError() {
	s.SendEvent(TypeError, nil)
}

// ReadPump reads inbound frames and dispatches them in arrival order. It
// owns connection cleanup: when the loop exits, the session is unregistered
// and the transport torn down.
func (s *Session) ReadPump() {
	defer s.cleanupOnDisconnect()

	s.conn.SetReadLimit(maxMessageSize)

	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Info().Err(err).Msg("Error reading frame (client close/going away)")
			}
			break
		}

		s.dispatch(context.Background(), frame)
	}
}

// cleanupOnDisconnect unregisters the session and closes the transport once
// the read loop ends, whether the client left or the transport failed.
func (s *Session) cleanupOnDisconnect() {
	s.hub.Unregister(context.Background(), s)

	if err := s.conn.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("Session connection close error")
	}
}

// dispatch decodes one inbound envelope and routes it to the hub. Decode
// failures and unknown types are logged and dropped; they never close the
// connection.
func (s *Session) dispatch(ctx context.Context, frame []byte) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		s.logger.Warn().Err(err).Msg("Client sent invalid JSON")
		return
	}

	switch env.Type {
	case TypeSelectRoom:
		var p SelectRoomPayload
		if !s.decode(env.Payload, &p) {
			return
		}
		s.hub.SelectRoom(ctx, s, p.ChatID)

	case TypeClearRoom:
		s.hub.ClearRoom(s)

	case TypeMessage:
		var p MessagePayload
		if !s.decode(env.Payload, &p) {
			return
		}
		s.hub.HandleMessage(ctx, s, p)

	case TypeMessageDelete:
		var p MessageDeletePayload
		if !s.decode(env.Payload, &p) {
			return
		}
		s.hub.HandleMessageDelete(ctx, s, p)

	case TypeMessageDeleteAll:
		var p MessageDeleteAllPayload
		if !s.decode(env.Payload, &p) {
			return
		}
		s.hub.HandleMessageDeleteAll(ctx, s, p.ChatID)

	case TypeChatCreate:
		var p ChatCreatePayload
		if !s.decode(env.Payload, &p) {
			return
		}
		s.hub.HandleChatCreate(ctx, s, p.ChatID)

	case TypeChatDelete:
		var p ChatDeletePayload
		if !s.decode(env.Payload, &p) {
			return
		}
		s.hub.HandleChatDelete(ctx, s, p)

	case TypeParticipantAdd:
		var p ParticipantChangePayload
		if !s.decode(env.Payload, &p) {
			return
		}
		s.hub.HandleParticipantAdd(ctx, s, p)

	case TypeParticipantRemove:
		var p ParticipantChangePayload
		if !s.decode(env.Payload, &p) {
			return
		}
		s.hub.HandleParticipantRemove(ctx, s, p)

	case TypeAccountDelete:
		var p AccountDeletePayload
		if !s.decode(env.Payload, &p) {
			return
		}
		s.hub.HandleAccountDelete(ctx, s, p.ChatIDs)

	case TypeOnlinePeersQuery:
		s.hub.HandleOnlinePeersQuery(ctx, s)

	default:
		s.logger.Warn().Str("event_type", string(env.Type)).Msg("Client sent unsupported event type")
	}
}

// decode unmarshals an inbound payload, signaling the generic error on
// malformed input.
func (s *Session) decode(raw json.RawMessage, dst any) bool {
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Warn().Err(err).Msg("Client sent invalid event payload")
		s.SendError()
		return false
	}
	return true
}

// WritePump drains the send queue onto the websocket and keeps the
// heartbeat alive.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := s.conn.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Session connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-s.send:
			if !s.writeQueuedFrame(frame, ok) {
				return
			}

		case <-ticker.C:
			if !s.writePing() {
				return
			}
		}
	}
}

// writeQueuedFrame writes one frame, or the close frame when the queue has
// been closed. Returns false when the loop should terminate.
func (s *Session) writeQueuedFrame(frame []byte, ok bool) bool {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := s.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			s.logger.Debug().Err(err).Msg("Error writing close frame")
		}
		return false
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		s.logger.Error().Err(err).Msg("Error writing frame")
		return false
	}

	return true
}

// writePing sends the heartbeat ping. Returns false on write failure.
func (s *Session) writePing() bool {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		s.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
