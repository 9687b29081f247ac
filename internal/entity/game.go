package entity

import "strings"

type Status string

const (
	StatusWaiting Status = "WAITING"
	StatusActive  Status = "ACTIVE"
	StatusEnded   Status = "ENDED"
)

// statusAliases maps every accepted spelling onto the canonical status.
var statusAliases = map[string]Status{
	"waiting":  StatusWaiting,
	"active":   StatusActive,
	"ongoing":  StatusActive,
	"ended":    StatusEnded,
	"finished": StatusEnded,
}

func ParseStatus(raw string) (Status, bool) {
	status, ok := statusAliases[strings.ToLower(strings.TrimSpace(raw))]
	return status, ok
}

func (that Status) rank() int {
	switch that {
	case StatusWaiting:
		return 0
	case StatusActive:
		return 1
	case StatusEnded:
		return 2
	default:
		return -1
	}
}

// CanAdvanceTo reports whether moving to next keeps the lifecycle forward-only.
func (that Status) CanAdvanceTo(next Status) bool {
	return next.rank() >= 0 && next.rank() >= that.rank()
}

type GameState struct {
	Board        Board            `json:"board"`
	CurrentTurn  Optional[string] `json:"currentTurn"`
	Status       Status           `json:"gameStatus"`
	Winner       Optional[string] `json:"winner"`
	ResultReason Optional[string] `json:"resultReason"`
}

func NewGameState(rows, columns int) GameState {
	return GameState{
		Board:  NewBoard(rows, columns),
		Status: StatusWaiting,
	}
}

func (that GameState) Clone() GameState {
	clone := that
	clone.Board = that.Board.Clone()
	return clone
}

func (that GameState) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that GameState) IsActive() bool {
	return that.Status == StatusActive
}

func (that GameState) IsEnded() bool {
	return that.Status == StatusEnded
}
