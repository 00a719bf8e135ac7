package services

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"portfolio-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialHub registers one server-side connection per dial under the given id
func dialHub(t *testing.T, hub *WSHub, id string) *websocket.Conn {
	t.Helper()

	registered := make(chan struct{})
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(id, conn)
		close(registered)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	select {
	case <-registered:
	case <-time.After(5 * time.Second):
		t.Fatal("connection was not registered")
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestWSHub_NotifyImagesChangedReachesEverySession(t *testing.T) {
	hub := NewWSHub()
	a := dialHub(t, hub, "a")
	b := dialHub(t, hub, "b")
	require.Equal(t, 2, hub.Count())

	hub.NotifyImagesChanged(models.CategoryEscalierDetails)

	for _, conn := range []*websocket.Conn{a, b} {
		var msg WSMessage
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, WSTypeImagesChanged, msg.Type)
		assert.Equal(t, models.CategoryEscalierDetails, msg.Category)
		assert.NotZero(t, msg.Timestamp)
	}
}

func TestWSHub_SendToAndUnregister(t *testing.T) {
	hub := NewWSHub()
	conn := dialHub(t, hub, "a")

	require.NoError(t, hub.SendTo("a", WSMessage{Type: WSTypePong}))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, WSTypePong, msg.Type)

	assert.Error(t, hub.SendTo("missing", WSMessage{Type: WSTypePong}))

	hub.Unregister("a")
	assert.Equal(t, 0, hub.Count())
	assert.Error(t, hub.SendTo("a", WSMessage{Type: WSTypePong}))
}

func TestWSHub_CloseAll(t *testing.T) {
	hub := NewWSHub()
	dialHub(t, hub, "a")
	dialHub(t, hub, "b")

	hub.CloseAll()

	assert.Equal(t, 0, hub.Count())
}

func TestWSHub_StalledSessionDoesNotBlockBroadcast(t *testing.T) {
	hub := NewWSHub()
	dialHub(t, hub, "stalled") // never read from
	live := dialHub(t, hub, "live")

	payload := strings.Repeat("x", 1<<20)
	start := time.Now()
	for i := 0; i < 80; i++ {
		hub.Broadcast(WSMessage{Type: WSTypeError, Message: payload})
		if i == 0 {
			var msg WSMessage
			require.NoError(t, live.ReadJSON(&msg))
		}
	}

	assert.Less(t, time.Since(start), wsWriteTimeout/2)
	assert.Eventually(t, func() bool { return hub.Count() < 2 }, 2*wsWriteTimeout, 10*time.Millisecond)
}
