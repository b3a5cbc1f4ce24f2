package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/realtime"
)

// Emitter delivers hub frames to live gorilla connections. Every connection
// carries its own write lock so hub fan-out, acks and the ping loop never
// interleave writes on one socket.
type Emitter struct {
	conns sync.Map // key: uuid.UUID -> *boundConn
}

var _ realtime.Emitter = (*Emitter)(nil)

type boundConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewEmitter() *Emitter {
	return &Emitter{}
}

// Attach binds a connection id to its socket. Must happen before the first
// frame for that id reaches the hub.
func (em *Emitter) Attach(id uuid.UUID, conn *websocket.Conn) {
	em.conns.Store(id, &boundConn{conn: conn})
}

// Detach forgets the socket. Safe to call more than once.
func (em *Emitter) Detach(id uuid.UUID) {
	em.conns.Delete(id)
}

// Emit marshals one frame and writes it as a single text message. A failed
// write closes the socket so the read loop exits and finalizes the session.
func (em *Emitter) Emit(connID uuid.UUID, frame any) error {
	v, ok := em.conns.Load(connID)
	if !ok {
		return fmt.Errorf("connection %s is not attached", connID)
	}
	bound := v.(*boundConn)

	payload, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	bound.mu.Lock()
	defer bound.mu.Unlock()

	_ = bound.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := bound.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		_ = bound.conn.Close()
		return err
	}
	return nil
}

// Ping sends a ping control frame under the connection's write lock.
func (em *Emitter) Ping(connID uuid.UUID) error {
	v, ok := em.conns.Load(connID)
	if !ok {
		return fmt.Errorf("connection %s is not attached", connID)
	}
	bound := v.(*boundConn)

	bound.mu.Lock()
	defer bound.mu.Unlock()

	_ = bound.conn.SetWriteDeadline(time.Now().Add(ctrlTimeout))
	return bound.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctrlTimeout))
}

// CloseWith sends a close control frame with the given code and reason.
// Best effort; the peer may already be gone.
func (em *Emitter) CloseWith(connID uuid.UUID, code int, reason string) {
	v, ok := em.conns.Load(connID)
	if !ok {
		return
	}
	bound := v.(*boundConn)

	bound.mu.Lock()
	defer bound.mu.Unlock()

	_ = bound.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	_ = bound.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(wsCloseAckWindow),
	)
}

// shutdown closes the socket outright to unblock its reader.
func (em *Emitter) shutdown(connID uuid.UUID) {
	if v, ok := em.conns.Load(connID); ok {
		_ = v.(*boundConn).conn.Close()
	}
}
