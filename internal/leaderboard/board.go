package leaderboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rocketscienceinc/connectfour-client/internal/entity"
)

const (
	ErrorMessage = "Unable to load leaderboard"
	EmptyMessage = "No games yet."
)

type fetcher interface {
	Fetch(ctx context.Context) ([]entity.LeaderboardEntry, error)
}

type View struct {
	Entries []entity.LeaderboardEntry
	Loading bool
	Error   string
}

// EmptyMessage returns the empty-state text when there is nothing else to show.
func (that View) EmptyMessage() string {
	if that.Loading || that.Error != "" || len(that.Entries) > 0 {
		return ""
	}
	return EmptyMessage
}

// Board keeps the displayed leaderboard. Only the latest refresh may update it.
type Board struct {
	logger  *slog.Logger
	fetcher fetcher
	timeout time.Duration

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	view       View
	onChange   func(View)
	closed     bool

	wg sync.WaitGroup
}

func NewBoard(logger *slog.Logger, fetcher fetcher, timeout time.Duration) *Board {
	return &Board{
		logger:  logger.With("component", "leaderboard"),
		fetcher: fetcher,
		timeout: timeout,
	}
}

// OnChange registers the view listener, replacing any previous one.
func (that *Board) OnChange(listener func(View)) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.onChange = listener
}

func (that *Board) View() View {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.copyViewLocked()
}

// Refresh - supersedes any in-flight request and starts a new one in the background.
func (that *Board) Refresh(ctx context.Context) {
	var (
		reqCtx context.Context
		cancel context.CancelFunc
	)

	if that.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, that.timeout)
	} else {
		reqCtx, cancel = context.WithCancel(ctx)
	}

	that.mu.Lock()
	if that.closed {
		that.mu.Unlock()
		cancel()
		that.logger.Debug("board is closed, refresh skipped", "method", "Refresh")
		return
	}

	if that.cancel != nil {
		that.cancel()
	}
	that.generation++
	generation := that.generation
	that.cancel = cancel
	that.view.Loading = true
	that.view.Error = ""
	view, listener := that.copyViewLocked(), that.onChange
	that.wg.Add(1)
	that.mu.Unlock()

	publish(listener, view)

	go func() {
		defer that.wg.Done()
		defer cancel()

		entries, err := that.fetcher.Fetch(reqCtx)
		that.finish(generation, entries, err)
	}()
}

// GameEnded refreshes the board after every finished game.
func (that *Board) GameEnded(entity.Snapshot) {
	that.Refresh(context.Background())
}

// Close cancels the in-flight request and waits for it to settle. Later refreshes are ignored.
func (that *Board) Close() {
	that.mu.Lock()
	that.closed = true
	if that.cancel != nil {
		that.cancel()
	}
	that.mu.Unlock()

	that.wg.Wait()
}

func (that *Board) finish(generation uint64, entries []entity.LeaderboardEntry, err error) {
	log := that.logger.With("method", "finish", "generation", generation)

	that.mu.Lock()

	if generation != that.generation {
		that.mu.Unlock()
		log.Debug("stale leaderboard response discarded")
		return
	}

	that.cancel = nil
	that.view.Loading = false

	switch {
	case errors.Is(err, context.Canceled):
		log.Debug("leaderboard request cancelled")
	case err != nil:
		log.Error("failed to load leaderboard", "error", err)
		that.view.Error = ErrorMessage
	default:
		that.view.Entries = entries
	}

	view, listener := that.copyViewLocked(), that.onChange
	that.mu.Unlock()

	publish(listener, view)
}

func (that *Board) copyViewLocked() View {
	view := that.view
	view.Entries = append([]entity.LeaderboardEntry(nil), that.view.Entries...)
	return view
}

func publish(listener func(View), view View) {
	if listener != nil {
		listener(view)
	}
}
