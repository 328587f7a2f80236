package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/community-hub/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()
	hub := NewHub([]string{"*"}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.Serve(w, r, domain.Actor{ID: "u-res", Role: domain.RoleResident})
	}))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, srv, cancel
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BroadcastsNotificationsToClients(t *testing.T) {
	hub, srv, _ := startHub(t)
	first, second := dial(t, srv), dial(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	n := domain.Notification{NotificationID: "n1", Title: "Water Shutdown", Type: domain.TypeAlert}
	require.NoError(t, hub.Dispatch(context.Background(), n))

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var got struct {
			Type string              `json:"type"`
			Data domain.Notification `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, EventNotificationCreated, got.Type)
		assert.Equal(t, "n1", got.Data.NotificationID)
	}
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub, srv, _ := startHub(t)
	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub, srv, cancel := startHub(t)
	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_DispatchFailsWhenBacklogFull(t *testing.T) {
	hub := NewHub(nil, nil)
	for i := 0; i < broadcastBacklog; i++ {
		require.NoError(t, hub.Dispatch(context.Background(), domain.Notification{}))
	}
	assert.ErrorIs(t, hub.Dispatch(context.Background(), domain.Notification{}), ErrBacklogFull)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://hub.example.com"})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://hub.example.com")
	assert.True(t, check(r))

	r.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(r))
}
