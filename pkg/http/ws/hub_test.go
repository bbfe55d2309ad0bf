package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// pumpServer upgrades one connection, shrinks the keepalive timings so the
// test can outlive several deadline windows, and forwards every inbound
// message to received.
func pumpServer(t *testing.T, received chan<- Message) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sock, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		conn := NewConnection(sock, zerolog.Nop())
		conn.pongWait = 250 * time.Millisecond
		conn.pingPeriod = 100 * time.Millisecond

		go conn.WritePump()
		conn.ReadPump(func(msg Message) error {
			received <- msg
			return nil
		})
	}))
}

// An idle client must not be dropped: the server's pings keep extending the
// read deadline while a creator waits for an opponent.
func TestIdleConnectionSurvivesReadDeadline(t *testing.T) {
	received := make(chan Message, 1)
	srv := pumpServer(t, received)
	defer srv.Close()

	wsURL := strings.Replace(srv.URL, "http", "ws", 1)
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer client.Close()

	// The default ping handler answers with pongs, but only while a read
	// is in flight; park a reader like a real client would.
	clientErr := make(chan error, 1)
	go func() {
		for {
			if _, _, err := client.ReadMessage(); err != nil {
				clientErr <- err
				return
			}
		}
	}()

	// Sit idle for several pongWait windows, then speak.
	select {
	case err := <-clientErr:
		t.Fatalf("connection dropped while idle: %v", err)
	case <-time.After(1 * time.Second):
	}

	require.NoError(t, client.WriteJSON(Message{Type: "create"}))
	select {
	case msg := <-received:
		assert.Equal(t, "create", msg.Type)
	case <-time.After(time.Second):
		t.Fatal("server never saw the message sent after the idle period")
	}
}

// A client that answers no pings must still be reaped by the read deadline.
func TestSilentConnectionIsReaped(t *testing.T) {
	received := make(chan Message, 1)
	srv := pumpServer(t, received)
	defer srv.Close()

	wsURL := strings.Replace(srv.URL, "http", "ws", 1)
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer client.Close()
	// No reader: pings are never answered, so the server side must close.

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		buf := make([]byte, 1)
		for {
			if err := client.UnderlyingConn().SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
				return
			}
			if _, err := client.UnderlyingConn().Read(buf); err != nil {
				return
			}
		}
	}()

	select {
	case <-closed:
	case <-time.After(3 * time.Second):
		t.Fatal("server kept a connection that never answered pings")
	}
}

func TestPublishFansOutToSubscribers(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	sockA, srvA := pipePair(t)
	defer srvA()
	sockB, srvB := pipePair(t)
	defer srvB()

	connA := NewConnection(sockA, zerolog.Nop())
	connB := NewConnection(sockB, zerolog.Nop())
	idA := hub.Register(connA)
	idB := hub.Register(connB)

	hub.Subscribe("room_1", idA)
	hub.Subscribe("room_1", idB)
	hub.Subscribe("room_1", idA) // duplicate subscribe is a no-op
	assert.Equal(t, 2, hub.Subscribers("room_1"))

	hub.Publish("room_1", NewMessage("question", nil))
	assert.Len(t, connA.sendCh, 1)
	assert.Len(t, connB.sendCh, 1)

	hub.PublishExcept("room_1", idA, NewMessage("opponent_running", nil))
	assert.Len(t, connA.sendCh, 1, "excluded connection must not receive peer events")
	assert.Len(t, connB.sendCh, 2)
}

// A removed room must release its topic entry entirely, not just the
// individual subscriptions.
func TestDropRoomClearsTopic(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	sock, cleanup := pipePair(t)
	defer cleanup()
	connID := hub.Register(NewConnection(sock, zerolog.Nop()))
	hub.Subscribe("room_1", connID)
	require.Equal(t, 1, hub.Subscribers("room_1"))

	hub.DropRoom("room_1")

	assert.Equal(t, 0, hub.Subscribers("room_1"))
	hub.mu.RLock()
	_, exists := hub.rooms["room_1"]
	hub.mu.RUnlock()
	assert.False(t, exists, "topic key must be deleted, not left empty")
}

// pipePair returns the server half of a real upgraded WebSocket and a
// cleanup func. The client half is drained and discarded.
func pipePair(t *testing.T) (*websocket.Conn, func()) {
	t.Helper()
	serverSide := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sock, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		serverSide <- sock
	}))

	wsURL := strings.Replace(srv.URL, "http", "ws", 1)
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	sock := <-serverSide
	return sock, func() {
		client.Close()
		sock.Close()
		srv.Close()
	}
}
