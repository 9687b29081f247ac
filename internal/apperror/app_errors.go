package apperror

import "errors"

var (
	ErrAlreadyConnected  = errors.New("connection is already open or connecting")
	ErrNotConnected      = errors.New("connection is not established")
	ErrEmptyUsername     = errors.New("username is empty")
	ErrNotYourTurn       = errors.New("it's not your turn")
	ErrSessionClosed     = errors.New("session is closed")
	ErrSnapshotNotFound  = errors.New("snapshot not found")
	ErrLeaderboardStatus = errors.New("unexpected leaderboard response status")
)
