package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/rocketscienceinc/connectfour-client/internal/apperror"
	"github.com/rocketscienceinc/connectfour-client/internal/entity"
	"github.com/rocketscienceinc/connectfour-client/internal/leaderboard"
	"github.com/rocketscienceinc/connectfour-client/internal/session"
	"github.com/rocketscienceinc/connectfour-client/internal/usecase"
)

const (
	commandAgain = "again"
	commandQuit  = "quit"
)

var cellSymbols = map[entity.Cell]string{
	entity.CellEmpty:   ".",
	entity.CellPlayerA: "X",
	entity.CellPlayerB: "O",
}

type gameManager interface {
	Join(ctx context.Context, username string) error
	SelectColumn(ctx context.Context, column int) error
	PlayAgain()
	Subscribe(observer session.Observer)
	Snapshot() (entity.Snapshot, bool)
}

type leaderboardView interface {
	OnChange(listener func(leaderboard.View))
	View() leaderboard.View
}

// Console is a line-oriented terminal front end: it renders every snapshot and reads column numbers.
type Console struct {
	logger      *slog.Logger
	manager     gameManager
	leaderboard leaderboardView

	in  io.Reader
	out io.Writer

	mu sync.Mutex
}

func New(logger *slog.Logger, manager gameManager, board leaderboardView, in io.Reader, out io.Writer) *Console {
	return &Console{
		logger:      logger.With("component", "console"),
		manager:     manager,
		leaderboard: board,
		in:          in,
		out:         out,
	}
}

// Run - joins as username, prompting for one when empty, and serves input until quit, EOF or ctx ends.
func (that *Console) Run(ctx context.Context, username string) error {
	log := that.logger.With("method", "Run")

	lines := readLines(that.in)

	that.manager.Subscribe(func(snapshot entity.Snapshot) {
		that.render(snapshot, that.leaderboard.View())
	})
	that.leaderboard.OnChange(func(view leaderboard.View) {
		if snapshot, ok := that.manager.Snapshot(); ok {
			that.render(snapshot, view)
		}
	})

	joined, err := that.join(ctx, lines, username)
	if err != nil || !joined {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("console stopped", "reason", ctx.Err())
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}

			done, err := that.handle(ctx, lines, strings.TrimSpace(line))
			if err != nil || done {
				return err
			}
		}
	}
}

func (that *Console) handle(ctx context.Context, lines <-chan string, line string) (bool, error) {
	switch strings.ToLower(line) {
	case "":
		return false, nil
	case commandQuit:
		return true, nil
	case commandAgain:
		snapshot, ok := that.manager.Snapshot()
		if ok && !usecase.CanPlayAgain(snapshot) && snapshot.Connection != entity.ConnectionDisconnected {
			that.printf("The game is not over yet\n")
			return false, nil
		}

		that.manager.PlayAgain()

		joined, err := that.join(ctx, lines, "")
		return !joined, err
	}

	column, err := strconv.Atoi(line)
	if err != nil {
		that.printf("Type a column number, %q or %q\n", commandAgain, commandQuit)
		return false, nil
	}

	// columns are shown starting from 1
	err = that.manager.SelectColumn(ctx, column-1)
	switch {
	case errors.Is(err, apperror.ErrNotYourTurn):
		that.printf("Wait for your turn\n")
	case errors.Is(err, apperror.ErrSessionClosed):
		that.printf("No game in progress\n")
	case err != nil:
		that.logger.Error("failed to select column", "method", "handle", "column", column, "error", err)
		that.printf("Move was not sent\n")
	}

	return false, nil
}

// join returns false when input ended before a session could be joined.
func (that *Console) join(ctx context.Context, lines <-chan string, username string) (bool, error) {
	for {
		if strings.TrimSpace(username) == "" {
			that.printf("Enter your username: ")

			select {
			case <-ctx.Done():
				return false, nil
			case line, ok := <-lines:
				if !ok {
					return false, nil
				}
				username = line
			}
		}

		err := that.manager.Join(ctx, username)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, apperror.ErrEmptyUsername):
			username = ""
		case errors.Is(err, apperror.ErrAlreadyConnected):
			return true, nil
		default:
			that.printf("Could not connect: %v\n", err)
			username = ""
		}
	}
}

func (that *Console) render(snapshot entity.Snapshot, board leaderboard.View) {
	var b strings.Builder

	view := usecase.NewBoardView(snapshot)

	fmt.Fprintf(&b, "\n[%s] %s\n\n", snapshot.Connection, usecase.StatusLine(snapshot))

	for column := range view.Grid.Columns() {
		fmt.Fprintf(&b, " %d", column+1)
	}
	b.WriteString("\n")

	for _, row := range view.Grid {
		for _, cell := range row {
			fmt.Fprintf(&b, " %s", cellSymbols[cell])
		}
		b.WriteString("\n")
	}

	b.WriteString("\nLeaderboard\n")
	switch {
	case board.Loading:
		b.WriteString("  loading...\n")
	case board.Error != "":
		fmt.Fprintf(&b, "  %s\n", board.Error)
	case board.EmptyMessage() != "":
		fmt.Fprintf(&b, "  %s\n", board.EmptyMessage())
	}
	for i, entry := range board.Entries {
		fmt.Fprintf(&b, "  %d. %s %d\n", i+1, entry.Username, entry.Wins)
	}

	switch {
	case usecase.CanPlayAgain(snapshot):
		fmt.Fprintf(&b, "\nType %q to play again or %q to exit\n", commandAgain, commandQuit)
	case !view.Disabled:
		fmt.Fprintf(&b, "\nYour move (1-%d): ", view.Grid.Columns())
	}

	that.printf("%s", b.String())
}

func (that *Console) printf(format string, args ...any) {
	that.mu.Lock()
	defer that.mu.Unlock()

	_, _ = fmt.Fprintf(that.out, format, args...)
}

func readLines(in io.Reader) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	return lines
}
