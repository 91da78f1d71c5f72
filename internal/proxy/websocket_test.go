package proxy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticSource struct {
	url string
	err error
}

func (s staticSource) DevtoolsURL(ctx context.Context) (string, error) {
	return s.url, s.err
}

func wsURL(u string) string {
	return "ws" + strings.TrimPrefix(u, "http")
}

// echoEngine answers every frame with the same frame.
func echoEngine(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, msg); err != nil {
				return
			}
		}
	}))
}

func TestHandleDebugConnectionPipesFrames(t *testing.T) {
	engine := echoEngine(t)
	defer engine.Close()

	srv := NewServer(staticSource{url: wsURL(engine.URL)}, zap.NewNop())
	front := httptest.NewServer(http.HandlerFunc(srv.HandleDebugConnection))
	defer front.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(front.URL), nil)
	require.NoError(t, err)
	defer conn.Close()

	msg := `{"id":1,"method":"Browser.getVersion"}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))

	mt, got, err := conn.ReadMessage()
	require.NoError(t, err)
	require.Equal(t, websocket.TextMessage, mt)
	require.Equal(t, msg, string(got))
}

func TestHandleDebugConnectionEngineUnavailable(t *testing.T) {
	srv := NewServer(staticSource{err: errors.New("not launched")}, zap.NewNop())

	rec := httptest.NewRecorder()
	srv.HandleDebugConnection(rec, httptest.NewRequest(http.MethodGet, "/v1/engine/ws", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleDebugConnectionDialFailure(t *testing.T) {
	srv := NewServer(staticSource{url: "ws://127.0.0.1:1/devtools/browser/x"}, zap.NewNop())

	rec := httptest.NewRecorder()
	srv.HandleDebugConnection(rec, httptest.NewRequest(http.MethodGet, "/v1/engine/ws", nil))
	require.Equal(t, http.StatusBadGateway, rec.Code)
}
