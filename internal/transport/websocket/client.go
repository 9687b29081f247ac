package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/connectfour-client/internal/apperror"
	"github.com/rocketscienceinc/connectfour-client/internal/entity"
)

const (
	closeWriteTimeout = time.Second
	pingInterval      = 30 * time.Second
)

// Handler receives the raw payload of one inbound message.
type Handler func(payload json.RawMessage)

type StatusHandler func(status entity.ConnectionStatus)

// subscriptions belong to exactly one connection; they go inert when it terminates.
type subscriptions struct {
	handlers map[string]Handler
}

func newSubscriptions() *subscriptions {
	return &subscriptions{handlers: make(map[string]Handler)}
}

type connection struct {
	id     string
	ws     *websocket.Conn
	subs   *subscriptions
	cancel context.CancelFunc

	writeMu sync.Mutex
}

func (that *connection) write(ctx context.Context, messageType int, data []byte) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	deadline, _ := ctx.Deadline()
	if err := that.ws.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := that.ws.WriteMessage(messageType, data); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *connection) writeClose() error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")

	return that.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteTimeout))
}

func (that *connection) ping() error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	return that.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(closeWriteTimeout))
}

// Client owns at most one connection to the game server at a time.
type Client struct {
	logger *slog.Logger
	url    string
	dialer *websocket.Dialer

	mu       sync.Mutex
	status   entity.ConnectionStatus
	conn     *connection
	subs     *subscriptions
	onStatus StatusHandler
}

func New(logger *slog.Logger, url string) *Client {
	return &Client{
		logger: logger.With("component", "websocket"),
		url:    url,
		dialer: websocket.DefaultDialer,
		status: entity.ConnectionDisconnected,
		subs:   newSubscriptions(),
	}
}

func (that *Client) Status() entity.ConnectionStatus {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.status
}

// On registers the handler for action, replacing any previous one.
func (that *Client) On(action string, handler Handler) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.subs.handlers[action] = handler
}

// OnStatus registers the connection status handler, replacing any previous one.
func (that *Client) OnStatus(handler StatusHandler) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.onStatus = handler
}

// Connect - dials the server and announces the player. It refuses to open a second connection.
func (that *Client) Connect(ctx context.Context, identity Identity) error {
	log := that.logger.With("method", "Connect", "username", identity.Username)

	that.mu.Lock()
	if that.status != entity.ConnectionDisconnected {
		status := that.status
		that.mu.Unlock()
		log.Warn("connection already exists", "status", status)
		return apperror.ErrAlreadyConnected
	}

	conn := &connection{id: uuid.NewString(), subs: that.subs}
	that.conn = conn
	notify := that.setStatusLocked(entity.ConnectionConnecting)
	that.mu.Unlock()

	notify()

	log = log.With("connectionID", conn.id)

	ws, _, err := that.dialer.DialContext(ctx, that.url, nil)
	if err != nil {
		that.mu.Lock()
		notify = func() {}
		if that.conn == conn {
			that.conn = nil
			notify = that.setStatusLocked(entity.ConnectionDisconnected)
		}
		that.mu.Unlock()

		notify()
		log.Error("failed to dial", "url", that.url, "error", err)

		return fmt.Errorf("failed to dial %s: %w", that.url, err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())

	that.mu.Lock()
	if that.conn != conn {
		that.mu.Unlock()
		cancel()
		_ = ws.Close()
		log.Info("connection abandoned while dialing")
		return fmt.Errorf("connection closed while dialing: %w", apperror.ErrNotConnected)
	}
	conn.ws = ws
	conn.cancel = cancel
	notify = that.setStatusLocked(entity.ConnectionConnected)
	that.mu.Unlock()

	notify()
	log.Info("WebSocket connection established")

	go that.run(loopCtx, conn)

	if err = that.Send(ctx, ActionJoinGame, identity); err != nil {
		log.Error("failed to send join", "error", err)
	}

	return nil
}

// Disconnect - closes the current connection if any. Safe to call repeatedly.
func (that *Client) Disconnect() {
	log := that.logger.With("method", "Disconnect")

	that.mu.Lock()
	conn := that.conn
	that.conn = nil

	var ws *websocket.Conn
	if conn != nil {
		ws = conn.ws
		if that.subs == conn.subs {
			that.subs = newSubscriptions()
		}
	}

	notify := that.setStatusLocked(entity.ConnectionDisconnected)
	that.mu.Unlock()

	if ws != nil {
		if err := conn.writeClose(); err != nil {
			log.Debug("failed to write close frame", "error", err)
		}
		conn.cancel()
		log.Info("connection closed", "connectionID", conn.id)
	}

	notify()
}

// Send - best effort. Messages sent while not connected are logged and dropped.
func (that *Client) Send(ctx context.Context, action string, payload any) error {
	log := that.logger.With("method", "Send", "action", action)

	that.mu.Lock()
	conn := that.conn
	status := that.status
	that.mu.Unlock()

	if status != entity.ConnectionConnected || conn == nil || conn.ws == nil {
		log.Warn("dropping message, connection is not established", "status", status)
		return apperror.ErrNotConnected
	}

	data, err := encodeMessage(action, payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err = conn.write(ctx, websocket.TextMessage, data); err != nil {
		log.Error("failed to send message", "error", err)
		return err
	}

	return nil
}

// run owns the connection's goroutines until it terminates for any reason.
func (that *Client) run(ctx context.Context, conn *connection) {
	log := that.logger.With("method", "run", "connectionID", conn.id)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		defer conn.cancel()
		return that.readMessages(conn)
	})

	group.Go(func() error {
		return keepAlive(groupCtx, conn)
	})

	group.Go(func() error {
		<-groupCtx.Done()
		_ = conn.ws.Close()
		return nil
	})

	if err := group.Wait(); err != nil {
		log.Error("connection terminated", "error", err)
	}

	that.terminate(conn)
}

// readMessages - dispatches inbound messages one at a time until the socket fails or closes.
func (that *Client) readMessages(conn *connection) error {
	log := that.logger.With("method", "readMessages", "connectionID", conn.id)

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && that.isCurrent(conn) {
				return fmt.Errorf("failed to read message: %w", err)
			}
			log.Info("connection closed", "reason", err)
			return nil
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			continue
		}

		handler, ok := that.handlerFor(conn, message.Action)
		if !ok {
			log.Debug("no handler for message", "action", message.Action)
			continue
		}

		handler(message.Payload)
	}
}

// keepAlive pings the server until ctx ends; a failed ping terminates the connection.
func keepAlive(ctx context.Context, conn *connection) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return fmt.Errorf("failed to ping: %w", err)
			}
		}
	}
}

func (that *Client) handlerFor(conn *connection, action string) (Handler, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.conn != conn {
		return nil, false
	}

	handler, ok := conn.subs.handlers[action]

	return handler, ok
}

func (that *Client) isCurrent(conn *connection) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.conn == conn
}

// terminate - releases conn if it is still the current one; a stale connection changes nothing.
func (that *Client) terminate(conn *connection) {
	that.mu.Lock()
	if that.conn != conn {
		that.mu.Unlock()
		return
	}

	that.conn = nil
	if that.subs == conn.subs {
		that.subs = newSubscriptions()
	}
	notify := that.setStatusLocked(entity.ConnectionDisconnected)
	that.mu.Unlock()

	that.logger.Info("connection dropped", "connectionID", conn.id)

	notify()
}

// setStatusLocked returns the notification to run once the lock is released.
func (that *Client) setStatusLocked(status entity.ConnectionStatus) func() {
	if that.status == status {
		return func() {}
	}

	that.status = status
	handler := that.onStatus

	if handler == nil {
		return func() {}
	}

	return func() { handler(status) }
}
