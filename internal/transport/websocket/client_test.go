package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rocketscienceinc/connectfour-client/internal/apperror"
	"github.com/rocketscienceinc/connectfour-client/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 2 * time.Second

// fakeServer accepts websocket clients, records what they send and lets tests push messages.
type fakeServer struct {
	t        *testing.T
	server   *httptest.Server
	upgrader websocket.Upgrader

	received chan Message
	accepted chan *websocket.Conn

	mu    sync.Mutex
	conns []*websocket.Conn
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	fs := &fakeServer{
		t:        t,
		received: make(chan Message, 32),
		accepted: make(chan *websocket.Conn, 4),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := fs.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		fs.mu.Lock()
		fs.conns = append(fs.conns, conn)
		fs.mu.Unlock()
		fs.accepted <- conn

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}

			var msg Message
			if err = json.Unmarshal(data, &msg); err == nil {
				fs.received <- msg
			}
		}
	})

	fs.server = httptest.NewServer(mux)
	t.Cleanup(func() {
		fs.mu.Lock()
		for _, conn := range fs.conns {
			_ = conn.Close()
		}
		fs.mu.Unlock()
		fs.server.Close()
	})

	return fs
}

func (that *fakeServer) url() string {
	return "ws" + strings.TrimPrefix(that.server.URL, "http") + "/ws"
}

func (that *fakeServer) nextConn() *websocket.Conn {
	that.t.Helper()

	select {
	case conn := <-that.accepted:
		return conn
	case <-time.After(waitFor):
		that.t.Fatalf("timed out waiting for client connection")
		return nil
	}
}

func (that *fakeServer) nextMessage() Message {
	that.t.Helper()

	select {
	case msg := <-that.received:
		return msg
	case <-time.After(waitFor):
		that.t.Fatalf("timed out waiting for client message")
		return Message{}
	}
}

func push(t *testing.T, conn *websocket.Conn, action, payload string) {
	t.Helper()

	data, err := json.Marshal(Message{Action: action, Payload: json.RawMessage(payload)})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()

	client := New(slog.New(slog.NewTextHandler(io.Discard, nil)), url)
	t.Cleanup(client.Disconnect)

	return client
}

type statusRecorder struct {
	mu       sync.Mutex
	statuses []entity.ConnectionStatus
}

func (that *statusRecorder) record(status entity.ConnectionStatus) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.statuses = append(that.statuses, status)
}

func (that *statusRecorder) get() []entity.ConnectionStatus {
	that.mu.Lock()
	defer that.mu.Unlock()
	return append([]entity.ConnectionStatus(nil), that.statuses...)
}

func TestClient_Connect(t *testing.T) {
	t.Run("Connect transitions through connecting and sends join", func(t *testing.T) {
		// Given: a server and a client with a status recorder
		fs := newFakeServer(t)
		client := newTestClient(t, fs.url())
		recorder := &statusRecorder{}
		client.OnStatus(recorder.record)

		// When: the client connects as alice
		err := client.Connect(context.Background(), Identity{Username: "alice"})

		// Then: it is connected and the server received the join action
		require.NoError(t, err)
		assert.Equal(t, entity.ConnectionConnected, client.Status())
		assert.Equal(t, []entity.ConnectionStatus{entity.ConnectionConnecting, entity.ConnectionConnected}, recorder.get())

		msg := fs.nextMessage()
		assert.Equal(t, ActionJoinGame, msg.Action)
		assert.JSONEq(t, `{"username":"alice"}`, string(msg.Payload))
	})

	t.Run("Second connect is refused without opening a socket", func(t *testing.T) {
		// Given: a connected client
		fs := newFakeServer(t)
		client := newTestClient(t, fs.url())
		require.NoError(t, client.Connect(context.Background(), Identity{Username: "alice"}))
		fs.nextConn()

		// When: connect is called again
		err := client.Connect(context.Background(), Identity{Username: "alice"})

		// Then: it fails with ErrAlreadyConnected and no new socket appears
		require.ErrorIs(t, err, apperror.ErrAlreadyConnected)
		select {
		case <-fs.accepted:
			t.Fatal("a second connection was opened")
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("Dial failure goes back to disconnected", func(t *testing.T) {
		// Given: a client pointed at a closed server
		fs := newFakeServer(t)
		url := fs.url()
		fs.server.Close()

		client := newTestClient(t, url)
		recorder := &statusRecorder{}
		client.OnStatus(recorder.record)

		// When: it connects
		err := client.Connect(context.Background(), Identity{Username: "alice"})

		// Then: the error is returned and the status is disconnected again
		require.Error(t, err)
		assert.Equal(t, entity.ConnectionDisconnected, client.Status())
		assert.Equal(t, []entity.ConnectionStatus{entity.ConnectionConnecting, entity.ConnectionDisconnected}, recorder.get())
	})
}

func TestClient_Dispatch(t *testing.T) {
	t.Run("Re-registration replaces the handler", func(t *testing.T) {
		// Given: two handlers registered for the same action
		fs := newFakeServer(t)
		client := newTestClient(t, fs.url())

		first := make(chan string, 4)
		second := make(chan string, 4)
		client.On("game_update", func(payload json.RawMessage) { first <- string(payload) })
		client.On("game_update", func(payload json.RawMessage) { second <- string(payload) })

		require.NoError(t, client.Connect(context.Background(), Identity{Username: "alice"}))
		conn := fs.nextConn()

		// When: the server pushes one update
		push(t, conn, "game_update", `{"turn":"bob"}`)

		// Then: only the last handler receives it, exactly once
		select {
		case payload := <-second:
			assert.JSONEq(t, `{"turn":"bob"}`, payload)
		case <-time.After(waitFor):
			t.Fatal("handler not called")
		}
		assert.Empty(t, first)
	})

	t.Run("Messages are delivered in order and unknown actions are skipped", func(t *testing.T) {
		fs := newFakeServer(t)
		client := newTestClient(t, fs.url())

		got := make(chan string, 8)
		client.On("game_update", func(payload json.RawMessage) { got <- string(payload) })

		require.NoError(t, client.Connect(context.Background(), Identity{Username: "alice"}))
		conn := fs.nextConn()

		push(t, conn, "game_update", `{"n":1}`)
		push(t, conn, "chat", `{"text":"hi"}`)
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
		push(t, conn, "game_update", `{"n":2}`)

		for _, want := range []string{`{"n":1}`, `{"n":2}`} {
			select {
			case payload := <-got:
				assert.JSONEq(t, want, payload)
			case <-time.After(waitFor):
				t.Fatal("handler not called")
			}
		}
	})
}

func TestClient_Termination(t *testing.T) {
	t.Run("Remote drop disconnects and makes handlers inert", func(t *testing.T) {
		// Given: a connected client with a status recorder
		fs := newFakeServer(t)
		client := newTestClient(t, fs.url())
		recorder := &statusRecorder{}
		client.OnStatus(recorder.record)

		calls := make(chan struct{}, 4)
		client.On("game_update", func(json.RawMessage) { calls <- struct{}{} })

		require.NoError(t, client.Connect(context.Background(), Identity{Username: "alice"}))
		conn := fs.nextConn()

		// When: the server drops the connection
		require.NoError(t, conn.Close())

		// Then: the client ends up disconnected
		require.Eventually(t, func() bool {
			return client.Status() == entity.ConnectionDisconnected
		}, waitFor, 10*time.Millisecond)

		// And: a new connection does not inherit the old handlers
		require.NoError(t, client.Connect(context.Background(), Identity{Username: "alice"}))
		fresh := fs.nextConn()
		push(t, fresh, "game_update", `{}`)

		select {
		case <-calls:
			t.Fatal("handler from the dropped connection was called")
		case <-time.After(150 * time.Millisecond):
		}
	})

	t.Run("Disconnect is idempotent and allows a fresh connect", func(t *testing.T) {
		// Given: a connected client
		fs := newFakeServer(t)
		client := newTestClient(t, fs.url())
		require.NoError(t, client.Connect(context.Background(), Identity{Username: "alice"}))
		fs.nextConn()

		// When: disconnecting twice
		client.Disconnect()
		client.Disconnect()

		// Then: it is disconnected and can connect again
		assert.Equal(t, entity.ConnectionDisconnected, client.Status())
		require.NoError(t, client.Connect(context.Background(), Identity{Username: "bob"}))
		assert.Equal(t, entity.ConnectionConnected, client.Status())
	})

	t.Run("Disconnect on a never connected client is a no-op", func(t *testing.T) {
		client := newTestClient(t, "ws://127.0.0.1:1/ws")
		recorder := &statusRecorder{}
		client.OnStatus(recorder.record)

		client.Disconnect()

		assert.Equal(t, entity.ConnectionDisconnected, client.Status())
		assert.Empty(t, recorder.get())
	})
}

func TestClient_Send(t *testing.T) {
	t.Run("Send while disconnected is dropped", func(t *testing.T) {
		client := newTestClient(t, "ws://127.0.0.1:1/ws")

		err := client.Send(context.Background(), ActionMakeMove, MovePayload{ColumnIndex: 3})

		assert.ErrorIs(t, err, apperror.ErrNotConnected)
	})

	t.Run("Send while connected reaches the server", func(t *testing.T) {
		// Given: a connected client whose join was consumed
		fs := newFakeServer(t)
		client := newTestClient(t, fs.url())
		require.NoError(t, client.Connect(context.Background(), Identity{Username: "alice"}))
		fs.nextMessage()

		// When: a move is sent, without range checking
		err := client.Send(context.Background(), ActionMakeMove, MovePayload{ColumnIndex: 42})

		// Then: the server receives it verbatim
		require.NoError(t, err)
		msg := fs.nextMessage()
		assert.Equal(t, ActionMakeMove, msg.Action)
		assert.JSONEq(t, `{"columnIndex":42}`, string(msg.Payload))
	})
}
