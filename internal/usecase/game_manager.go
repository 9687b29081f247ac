package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/rocketscienceinc/connectfour-client/internal/apperror"
	"github.com/rocketscienceinc/connectfour-client/internal/entity"
	"github.com/rocketscienceinc/connectfour-client/internal/normalizer"
	"github.com/rocketscienceinc/connectfour-client/internal/session"
	"github.com/rocketscienceinc/connectfour-client/internal/transport/websocket"
)

type connection interface {
	Connect(ctx context.Context, identity websocket.Identity) error
	Disconnect()
	Send(ctx context.Context, action string, payload any) error
	On(action string, handler websocket.Handler)
	OnStatus(handler websocket.StatusHandler)
	Status() entity.ConnectionStatus
}

type leaderboardRefresher interface {
	session.Notifier
	Refresh(ctx context.Context)
}

type BoardSize struct {
	Rows    int
	Columns int
}

// GameManager drives one player's session: join, moves and play-again.
type GameManager struct {
	logger      *slog.Logger
	conn        connection
	leaderboard leaderboardRefresher
	size        BoardSize

	mu        sync.Mutex
	store     *session.Store
	observers []session.Observer
}

func NewGameManager(logger *slog.Logger, conn connection, leaderboard leaderboardRefresher, size BoardSize) *GameManager {
	return &GameManager{
		logger:      logger.With("component", "game_manager"),
		conn:        conn,
		leaderboard: leaderboard,
		size:        size,
	}
}

// Subscribe adds an observer to the current session and every later one.
func (that *GameManager) Subscribe(observer session.Observer) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.observers = append(that.observers, observer)
	if that.store != nil {
		that.store.Subscribe(observer)
	}
}

// Join - starts a new session for username and connects to the game server.
func (that *GameManager) Join(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	log := that.logger.With("method", "Join", "username", username)

	if username == "" {
		return apperror.ErrEmptyUsername
	}

	if status := that.conn.Status(); status != entity.ConnectionDisconnected {
		log.Warn("join refused, connection is not closed", "status", status)
		return apperror.ErrAlreadyConnected
	}

	store := session.New(that.logger, session.Options{
		Rows:     that.size.Rows,
		Columns:  that.size.Columns,
		Username: username,
		Notifier: that.leaderboard,
	})

	that.mu.Lock()
	previous := that.store
	that.store = store
	for _, observer := range that.observers {
		store.Subscribe(observer)
	}
	that.mu.Unlock()

	if previous != nil {
		previous.Close()
	}

	that.conn.OnStatus(store.SetConnectionStatus)
	for _, kind := range []normalizer.Kind{
		normalizer.KindSessionStarted,
		normalizer.KindStateUpdate,
		normalizer.KindSessionEnded,
	} {
		that.conn.On(string(kind), applyTo(store, kind))
	}

	that.leaderboard.Refresh(ctx)

	if err := that.conn.Connect(ctx, websocket.Identity{Username: username}); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	log.Info("joined")

	return nil
}

// SelectColumn - submits a move when it is the player's turn. The column is sent as is.
func (that *GameManager) SelectColumn(ctx context.Context, column int) error {
	log := that.logger.With("method", "SelectColumn", "column", column)

	store := that.currentStore()
	if store == nil {
		return apperror.ErrSessionClosed
	}

	if !store.Snapshot().YourTurn {
		log.Debug("move refused, not your turn")
		return apperror.ErrNotYourTurn
	}

	if err := that.conn.Send(ctx, websocket.ActionMakeMove, websocket.MovePayload{ColumnIndex: column}); err != nil {
		return fmt.Errorf("failed to send move: %w", err)
	}

	return nil
}

// PlayAgain - drops the connection and the session; a new Join is required.
func (that *GameManager) PlayAgain() {
	that.conn.Disconnect()

	that.mu.Lock()
	store := that.store
	that.store = nil
	that.mu.Unlock()

	if store != nil {
		store.Close()
	}

	that.logger.Info("session reset", "method", "PlayAgain")
}

// Snapshot returns the current session state, false when no session exists.
func (that *GameManager) Snapshot() (entity.Snapshot, bool) {
	store := that.currentStore()
	if store == nil {
		return entity.Snapshot{}, false
	}

	return store.Snapshot(), true
}

func (that *GameManager) currentStore() *session.Store {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.store
}

func applyTo(store *session.Store, kind normalizer.Kind) websocket.Handler {
	return func(payload json.RawMessage) {
		store.Apply(normalizer.Normalize(kind, payload))
	}
}
