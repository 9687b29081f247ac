package leaderboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/rocketscienceinc/connectfour-client/internal/apperror"
	"github.com/rocketscienceinc/connectfour-client/internal/entity"
)

const (
	leaderboardPath  = "/leaderboard"
	leaderboardField = "leaderboard"
)

var ErrInvalidBody = errors.New("leaderboard body is not valid JSON")

type Fetcher struct {
	logger *slog.Logger
	client *http.Client
	url    string
}

func NewFetcher(logger *slog.Logger, client *http.Client, apiBase string) *Fetcher {
	return &Fetcher{
		logger: logger.With("component", "leaderboard"),
		client: client,
		url:    strings.TrimSuffix(apiBase, "/") + leaderboardPath,
	}
}

// Fetch - loads the full ranked list.
func (that *Fetcher) Fetch(ctx context.Context) ([]entity.LeaderboardEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, that.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := that.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %d", apperror.ErrLeaderboardStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	return Normalize(body)
}

// Normalize accepts a bare list or a list wrapped under "leaderboard". Anything else is an empty list.
func Normalize(body []byte) ([]entity.LeaderboardEntry, error) {
	if !gjson.ValidBytes(body) {
		return nil, ErrInvalidBody
	}

	root := gjson.ParseBytes(body)

	list := root
	if !list.IsArray() {
		list = root.Get(leaderboardField)
	}

	entries := []entity.LeaderboardEntry{}
	if !list.IsArray() {
		return entries, nil
	}

	for _, item := range list.Array() {
		if !item.IsObject() {
			continue
		}

		entries = append(entries, entity.LeaderboardEntry{
			Username: item.Get("username").String(),
			Wins:     int(item.Get("wins").Int()),
		})
	}

	return entries, nil
}
