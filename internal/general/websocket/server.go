package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/logger"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/realtime"
)

const (
	wsWriteTimeout   = 5 * time.Second
	wsCloseAckWindow = 2 * time.Second
	ctrlTimeout      = 5 * time.Second

	// Clients must authenticate within this window; afterwards the read
	// deadline rides on traffic and pongs.
	authWindow   = 10 * time.Second
	readIdle     = 60 * time.Second
	pingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Server terminates tracking websockets and feeds raw frames into the hub.
// Authentication happens in-band: the first frame the hub accepts for a
// session must be an authenticate event, so the transport stays protocol
// agnostic and only manages deadlines around the returned session state.
type Server struct {
	logger  *logger.Logger
	hub     *realtime.Hub
	emitter *Emitter
}

func NewServer(log *logger.Logger, hub *realtime.Hub, emitter *Emitter) *Server {
	return &Server{logger: log, hub: hub, emitter: emitter}
}

// HandleTracking upgrades the request and runs the read loop until the
// session ends. Every exit path funnels through hub.Disconnect exactly once.
func (srv *Server) HandleTracking(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		srv.logger.Error(r.Context(), "websocket_upgrade_failed", "Failed to upgrade to WebSocket", err, nil)
		return
	}

	id := srv.hub.Connect(r.Context())
	ctx := srv.logger.WithConnID(r.Context(), id.String())
	srv.emitter.Attach(id, conn)

	// Teardown order (LIFO on return):
	defer conn.Close()                                       // 3) close the socket last
	defer srv.emitter.Detach(id)                             // 2) forget the socket
	defer srv.hub.Disconnect(context.WithoutCancel(ctx), id) // 1) finalize the session

	conn.SetReadLimit(1 << 20) // 1 MiB
	if err := conn.SetReadDeadline(time.Now().Add(authWindow)); err != nil {
		srv.logger.Error(ctx, "ws_set_deadline_failed", "Failed to set initial read deadline", err, nil)
		return
	}

	srv.logger.Info(ctx, "ws_connected", "Tracking WebSocket connected", map[string]any{
		"remote_addr": r.RemoteAddr,
	})

	pingDone := make(chan struct{})
	defer close(pingDone)

	authenticated := false
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				srv.logger.Error(ctx, "ws_unexpected_close", "Connection closed unexpectedly", err, nil)
				srv.emitter.CloseWith(id, websocket.CloseInternalServerErr, "internal error")
			} else {
				srv.logger.Info(ctx, "ws_connection_closed", "Connection closed", nil)
				srv.emitter.CloseWith(id, websocket.CloseNormalClosure, "bye")
			}
			return
		}

		snap := srv.hub.Handle(ctx, id, payload)

		// First successful authenticate arms pongs and the ping loop.
		if !authenticated && snap.Authenticated() {
			authenticated = true
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(readIdle))
			})
			srv.startPingLoop(ctx, id, pingDone)
		}
		if authenticated {
			_ = conn.SetReadDeadline(time.Now().Add(readIdle))
		}
	}
}

// startPingLoop pings every pingInterval until the session ends. A failed
// ping closes the socket to unblock the reader.
func (srv *Server) startPingLoop(ctx context.Context, id uuid.UUID, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := srv.emitter.Ping(id); err != nil {
					srv.logger.Error(ctx, "ws_ping_failed", "Failed to send ping", err, nil)
					srv.emitter.shutdown(id)
					return
				}
			}
		}
	}()
}
