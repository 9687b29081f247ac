package session

import (
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/connectfour-client/internal/entity"
	"github.com/rocketscienceinc/connectfour-client/internal/normalizer"
	"github.com/rocketscienceinc/connectfour-client/internal/turn"
)

// Notifier is told once per game-ended message that a new result exists.
type Notifier interface {
	GameEnded(snapshot entity.Snapshot)
}

// Observer receives every published snapshot, in publication order.
type Observer func(snapshot entity.Snapshot)

type Options struct {
	Rows     int
	Columns  int
	Username string
	Notifier Notifier
}

// Store is the single source of truth for one joined session.
// Apply is expected to be called from one goroutine at a time; Snapshot is safe from anywhere.
type Store struct {
	logger   *slog.Logger
	notifier Notifier

	mu            sync.RWMutex
	game          entity.GameState
	identity      entity.SessionIdentity
	connection    entity.ConnectionStatus
	yourTurn      bool
	version       uint64
	boardObserved bool
	closed        bool
	observers     []Observer
}

func New(logger *slog.Logger, opts Options) *Store {
	rows, columns := opts.Rows, opts.Columns
	if rows <= 0 || columns <= 0 {
		rows, columns = entity.DefaultRows, entity.DefaultColumns
	}

	return &Store{
		logger:     logger.With("component", "session", "username", opts.Username),
		notifier:   opts.Notifier,
		game:       entity.NewGameState(rows, columns),
		identity:   entity.SessionIdentity{Username: opts.Username},
		connection: entity.ConnectionDisconnected,
	}
}

func (that *Store) Subscribe(observer Observer) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	that.observers = append(that.observers, observer)
}

// Apply merges one delta into the canonical state and publishes the resulting snapshot.
func (that *Store) Apply(delta normalizer.Delta) entity.Snapshot {
	log := that.logger.With("method", "Apply", "kind", delta.Kind)

	that.mu.Lock()

	if that.closed {
		snapshot := that.snapshotLocked()
		that.mu.Unlock()
		log.Debug("store is closed, delta dropped")
		return snapshot
	}

	switch delta.Kind {
	case normalizer.KindSessionStarted:
		if that.game.IsEnded() {
			snapshot := that.snapshotLocked()
			that.mu.Unlock()
			log.Warn("game already ended, start message dropped")
			return snapshot
		}

		that.game.Status = entity.StatusActive
		that.game.Winner = entity.None[string]()
		that.game.ResultReason = entity.None[string]()
		that.mergeLocked(delta, log)

	case normalizer.KindSessionEnded:
		that.game.Status = entity.StatusEnded
		that.mergeLocked(delta, log)
		that.identity.TurnHint = entity.Some(false)

	default:
		that.mergeLocked(delta, log)
	}

	snapshot := that.publishLocked()
	observers := that.observers
	that.mu.Unlock()

	notify(observers, snapshot)

	if delta.Kind == normalizer.KindSessionEnded && that.notifier != nil {
		that.notifier.GameEnded(snapshot.Clone())
	}

	return snapshot
}

func (that *Store) SetConnectionStatus(status entity.ConnectionStatus) {
	that.mu.Lock()

	if that.closed || that.connection == status {
		that.mu.Unlock()
		return
	}

	that.connection = status
	snapshot := that.publishLocked()
	observers := that.observers
	that.mu.Unlock()

	that.logger.Info("connection status changed", "status", status)

	notify(observers, snapshot)
}

func (that *Store) Snapshot() entity.Snapshot {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.snapshotLocked()
}

// Close makes the store inert: later deltas and status changes are ignored.
func (that *Store) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closed = true
	that.observers = nil
}

func (that *Store) mergeLocked(delta normalizer.Delta, log *slog.Logger) {
	if board, ok := delta.Board.Get(); ok {
		switch {
		case !that.boardObserved || board.SameShape(that.game.Board):
			that.game.Board = board.Clone()
			that.boardObserved = true
		default:
			log.Warn("board dimensions changed, board ignored",
				"rows", board.Rows(), "columns", board.Columns(),
				"expectedRows", that.game.Board.Rows(), "expectedColumns", that.game.Board.Columns())
		}
	}

	if current, ok := delta.CurrentTurn.Get(); ok {
		that.game.CurrentTurn = entity.Some(current)
	}

	if status, ok := delta.Status.Get(); ok {
		if that.game.Status.CanAdvanceTo(status) {
			that.game.Status = status
		} else {
			log.Warn("status regression ignored", "from", that.game.Status, "to", status)
		}
	}

	if winner, ok := delta.Winner.Get(); ok {
		that.game.Winner = entity.Some(winner)
	}

	if reason, ok := delta.ResultReason.Get(); ok {
		that.game.ResultReason = entity.Some(reason)
	}

	if hint, ok := delta.TurnHint.Get(); ok {
		that.identity.TurnHint = entity.Some(hint)
	}

	if token, ok := delta.PlayerToken.Get(); ok {
		if !that.identity.AcceptToken(token) && that.identity.PlayerToken.OrElse("") != token {
			log.Debug("player token already assigned, candidate ignored", "candidate", token)
		}
	}
}

func (that *Store) publishLocked() entity.Snapshot {
	that.yourTurn = turn.Resolve(turn.FromSnapshot(that.game, that.identity))
	that.version++

	return that.snapshotLocked()
}

func (that *Store) snapshotLocked() entity.Snapshot {
	return entity.Snapshot{
		Version:    that.version,
		Game:       that.game.Clone(),
		Identity:   that.identity,
		Connection: that.connection,
		YourTurn:   that.yourTurn,
	}
}

func notify(observers []Observer, snapshot entity.Snapshot) {
	for _, observer := range observers {
		observer(snapshot.Clone())
	}
}
