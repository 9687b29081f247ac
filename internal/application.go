package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/connectfour-client/internal/config"
	"github.com/rocketscienceinc/connectfour-client/internal/console"
	"github.com/rocketscienceinc/connectfour-client/internal/entity"
	"github.com/rocketscienceinc/connectfour-client/internal/leaderboard"
	"github.com/rocketscienceinc/connectfour-client/internal/repository"
	"github.com/rocketscienceinc/connectfour-client/internal/repository/storage"
	"github.com/rocketscienceinc/connectfour-client/internal/transport/websocket"
	"github.com/rocketscienceinc/connectfour-client/internal/usecase"
)

type Options struct {
	Username string
	In       io.Reader
	Out      io.Writer
}

// RunApp - runs the client until the player quits or a signal arrives.
func RunApp(logger *slog.Logger, conf *config.Config, opts Options) error {
	log := logger.With("component", "app")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher := leaderboard.NewFetcher(logger, &http.Client{}, conf.APIURL)
	board := leaderboard.NewBoard(logger, fetcher, conf.LeaderboardTimeout)
	defer board.Close()

	client := websocket.New(logger, conf.ServerURL)
	defer client.Disconnect()

	manager := usecase.NewGameManager(logger, client, board, usecase.BoardSize{
		Rows:    conf.Board.Rows,
		Columns: conf.Board.Columns,
	})

	if conf.Redis.Enabled {
		redisClient, err := storage.NewRedisClient(ctx, conf.Redis.GetRedisAddr())
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisClient.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		snapshots := repository.NewSnapshotRepository(redisClient, conf.Redis.SnapshotTTL)
		manager.Subscribe(saveSnapshot(ctx, log, snapshots))
	}

	log.Info("Starting client", "server", conf.ServerURL, "api", conf.APIURL)

	if err := console.New(logger, manager, board, opts.In, opts.Out).Run(ctx, opts.Username); err != nil {
		return fmt.Errorf("console error: %w", err)
	}

	log.Info("Client stopped")

	return nil
}

// saveSnapshot mirrors every published snapshot into redis; failures are logged and never reach the session.
func saveSnapshot(ctx context.Context, log *slog.Logger, snapshots repository.SnapshotRepository) func(entity.Snapshot) {
	return func(snapshot entity.Snapshot) {
		if err := snapshots.Save(ctx, snapshot.Identity.Username, snapshot); err != nil {
			log.Error("could not save snapshot", "username", snapshot.Identity.Username, "error", err)
		}
	}
}
