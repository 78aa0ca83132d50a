package stream

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()

	h := NewHub()
	h.now = func() time.Time { return time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC) }
	r := gin.New()
	r.GET("/ws/quotes", h.Handler())
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})
	return h, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/quotes"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

func TestHub_PublishFansOut(t *testing.T) {
	t.Parallel()

	h, url := startHub(t)
	a := dial(t, url)
	b := dial(t, url)
	require.Eventually(t, func() bool { return h.Clients() == 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, h.Publish("watchlist", []map[string]any{{"symbol": "AAPL", "available": true}}))

	for _, conn := range []*websocket.Conn{a, b} {
		env := readEnvelope(t, conn)
		assert.Equal(t, "watchlist", env.Event)
		assert.JSONEq(t, `[{"symbol":"AAPL","available":true}]`, string(env.Data))
		assert.Equal(t, time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC), env.TS)
	}
}

func TestHub_NewClientReceivesLatest(t *testing.T) {
	t.Parallel()

	h, url := startHub(t)
	require.NoError(t, h.Publish("watchlist", "first"))
	require.NoError(t, h.Publish("watchlist", "second"))

	env := readEnvelope(t, dial(t, url))
	assert.JSONEq(t, `"second"`, string(env.Data))
}

func TestHub_ClientDisconnect(t *testing.T) {
	t.Parallel()

	h, url := startHub(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return h.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return h.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.NoError(t, h.Publish("watchlist", "nobody listening"))
}

func TestHub_PublishUnencodable(t *testing.T) {
	t.Parallel()

	h := NewHub()
	assert.Error(t, h.Publish("bad", func() {}))
}

func TestHub_Close(t *testing.T) {
	t.Parallel()

	h, url := startHub(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return h.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	h.Close()
	assert.Equal(t, 0, h.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
