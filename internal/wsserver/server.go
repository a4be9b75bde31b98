// Package wsserver exposes the update broadcaster (C9) over a WebSocket
// endpoint (C13): every DocUpdate published after a client connects is
// pushed to it as JSON. It also serves the process's registered Prometheus
// collectors at /metrics.
package wsserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/namba3/patrol/internal/realtime"
)

const (
	writeTimeout  = 10 * time.Second
	pongTimeout   = 60 * time.Second
	pingInterval  = 54 * time.Second
	listenAddress = "0.0.0.0:3000"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server pushes the broadcaster's DocUpdate stream to connected WebSocket
// clients at "/", and serves Prometheus metrics at "/metrics".
type Server struct {
	broadcaster *realtime.Broadcaster
	log         *slog.Logger
	httpServer  *http.Server
}

// New returns a Server backed by broadcaster.
func New(broadcaster *realtime.Broadcaster, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "wsserver")

	s := &Server{broadcaster: broadcaster, log: log}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWebSocket)
	mux.Handle("/metrics", promhttp.Handler())
	s.httpServer = &http.Server{Addr: listenAddress, Handler: mux}
	return s
}

// Run starts listening and blocks until ctx is cancelled, then shuts the
// HTTP server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("websocket server listening", "addr", listenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("failed to upgrade websocket connection", "error", err, "remote_addr", r.RemoteAddr)
		return
	}

	sub := s.broadcaster.Subscribe()
	s.log.Info("websocket client connected", "remote_addr", conn.RemoteAddr().String(), "subscriber_id", sub.ID())

	go s.readPump(conn, sub)
	s.writePump(conn, sub)
}

// writePump pushes every DocUpdate the subscriber receives to conn as JSON,
// and pings the client on an interval to keep intermediaries from closing
// an idle connection. It returns (and tears the subscription down) once
// the connection or subscriber closes.
func (s *Server) writePump(conn *websocket.Conn, sub *realtime.Subscriber) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer s.broadcaster.Unsubscribe(sub)
	defer conn.Close()

	for {
		select {
		case update := <-sub.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(update); err != nil {
				s.log.Warn("failed to write websocket message", "error", err, "subscriber_id", sub.ID())
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.log.Debug("ping failed, closing connection", "error", err, "subscriber_id", sub.ID())
				return
			}
		case <-sub.Done():
			return
		}
	}
}

// readPump only exists to process control frames (pong/close) and notice
// when the client disconnects; Patrol's clients never send application
// messages.
func (s *Server) readPump(conn *websocket.Conn, sub *realtime.Subscriber) {
	defer sub.Close()

	_ = conn.SetReadDeadline(time.Now().Add(pongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongTimeout))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
