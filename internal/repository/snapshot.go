package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/connectfour-client/internal/apperror"
	"github.com/rocketscienceinc/connectfour-client/internal/entity"
)

const snapshotKeyPrefix = "snapshot:"

type SnapshotRepository interface {
	Save(ctx context.Context, username string, snapshot entity.Snapshot) error
	GetByUsername(ctx context.Context, username string) (entity.Snapshot, error)
	DeleteByUsername(ctx context.Context, username string) error
}

type dbSnapshot struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotRepository - a ttl of zero keeps snapshots until they are deleted.
func NewSnapshotRepository(client *redis.Client, ttl time.Duration) SnapshotRepository {
	return &dbSnapshot{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbSnapshot) Save(ctx context.Context, username string, snapshot entity.Snapshot) error {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("could not marshal snapshot: %w", err)
	}

	if err = that.client.Set(ctx, snapshotKeyPrefix+username, snapshotJSON, that.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set snapshot: %w", err)
	}

	return nil
}

func (that *dbSnapshot) GetByUsername(ctx context.Context, username string) (entity.Snapshot, error) {
	response, err := that.client.Get(ctx, snapshotKeyPrefix+username).Result()

	if errors.Is(err, redis.Nil) {
		return entity.Snapshot{}, apperror.ErrSnapshotNotFound
	}

	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("%w by username", err)
	}

	var snapshot entity.Snapshot
	if err = json.Unmarshal([]byte(response), &snapshot); err != nil {
		return entity.Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	return snapshot, nil
}

func (that *dbSnapshot) DeleteByUsername(ctx context.Context, username string) error {
	if err := that.client.Del(ctx, snapshotKeyPrefix+username).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot by username: %w", err)
	}

	return nil
}
