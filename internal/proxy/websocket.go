// Package proxy exposes the shared engine's devtools socket to local
// debugging clients.
package proxy

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const dialTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// DevtoolsSource resolves the websocket endpoint of the running engine.
type DevtoolsSource interface {
	DevtoolsURL(ctx context.Context) (string, error)
}

type Server struct {
	engine DevtoolsSource
	log    *zap.Logger
}

func NewServer(engine DevtoolsSource, log *zap.Logger) *Server {
	return &Server{
		engine: engine,
		log:    log,
	}
}

// HandleDebugConnection pipes frames between the client and the engine until
// either side closes.
func (s *Server) HandleDebugConnection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), dialTimeout)
	defer cancel()

	engineURL, err := s.engine.DevtoolsURL(ctx)
	if err != nil {
		s.log.Warn("⚠️ engine devtools unavailable", zap.Error(err))
		http.Error(w, "Engine is not available", http.StatusServiceUnavailable)
		return
	}

	engineConn, _, err := websocket.DefaultDialer.DialContext(ctx, engineURL, nil)
	if err != nil {
		s.log.Error("❌ failed to connect to engine", zap.String("url", engineURL), zap.Error(err))
		http.Error(w, "Failed to connect to engine", http.StatusBadGateway)
		return
	}
	defer engineConn.Close()

	clientConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("failed to upgrade connection", zap.Error(err))
		return
	}
	defer clientConn.Close()

	s.log.Info("✅ debug client connected", zap.String("remote", r.RemoteAddr))

	errChan := make(chan error, 2)

	go func() {
		errChan <- s.proxyMessages(clientConn, engineConn, "client→engine")
	}()

	go func() {
		errChan <- s.proxyMessages(engineConn, clientConn, "engine→client")
	}()

	// Wait for either direction to close
	err = <-errChan
	if err != nil && err != io.EOF && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		s.log.Debug("proxy closed", zap.Error(err))
	}

	s.log.Info("debug client disconnected", zap.String("remote", r.RemoteAddr))
}

func (s *Server) proxyMessages(src, dst *websocket.Conn, direction string) error {
	for {
		messageType, message, err := src.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Warn("websocket error", zap.String("direction", direction), zap.Error(err))
			}
			return err
		}

		if err := dst.WriteMessage(messageType, message); err != nil {
			s.log.Warn("failed to write message", zap.String("direction", direction), zap.Error(err))
			return err
		}
	}
}
