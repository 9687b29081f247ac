// Package normalizer maps loosely shaped server payloads onto canonical game state deltas.
//
// Every canonical field has an ordered list of candidate paths. The first candidate
// carrying a usable value wins; when none does the field is absent from the delta,
// which the session store treats as "no change".
package normalizer

import (
	"github.com/tidwall/gjson"

	"github.com/rocketscienceinc/connectfour-client/internal/entity"
)

type Kind string

const (
	KindSessionStarted Kind = "game_started"
	KindStateUpdate    Kind = "game_update"
	KindSessionEnded   Kind = "game_over"
)

func (that Kind) IsValid() bool {
	switch that {
	case KindSessionStarted, KindStateUpdate, KindSessionEnded:
		return true
	default:
		return false
	}
}

var (
	boardPaths        = []string{"board", "game.board"}
	currentTurnPaths  = []string{"currentTurn", "turn"}
	statusPaths       = []string{"gameStatus", "status"}
	winnerPaths       = []string{"winner", "result.winner"}
	resultReasonPaths = []string{"resultReason", "reason", "outcome"}
	turnHintPath      = "yourTurn"
	playerTokenPaths  = []string{"playerToken", "playerSymbol", "playerId", "you"}
)

// Delta is a partial game state derived from one inbound message.
type Delta struct {
	Kind         Kind
	Board        entity.Optional[entity.Board]
	CurrentTurn  entity.Optional[string]
	Status       entity.Optional[entity.Status]
	Winner       entity.Optional[string]
	ResultReason entity.Optional[string]
	TurnHint     entity.Optional[bool]
	PlayerToken  entity.Optional[string]
}

func (that Delta) IsEmpty() bool {
	return !that.Board.IsSet() &&
		!that.CurrentTurn.IsSet() &&
		!that.Status.IsSet() &&
		!that.Winner.IsSet() &&
		!that.ResultReason.IsSet() &&
		!that.TurnHint.IsSet() &&
		!that.PlayerToken.IsSet()
}

// Normalize never fails: anything that is not a JSON object yields an empty delta.
func Normalize(kind Kind, payload []byte) Delta {
	delta := Delta{Kind: kind}

	if !gjson.ValidBytes(payload) {
		return delta
	}

	root := gjson.ParseBytes(payload)
	if !root.IsObject() {
		return delta
	}

	delta.Board = firstBoard(root, boardPaths)
	delta.CurrentTurn = firstString(root, currentTurnPaths)
	delta.Status = firstStatus(root, statusPaths)
	delta.Winner = firstString(root, winnerPaths)
	delta.ResultReason = firstString(root, resultReasonPaths)
	delta.TurnHint = boolAt(root, turnHintPath)
	delta.PlayerToken = firstString(root, playerTokenPaths)

	return delta
}

// firstString treats empty strings and zero numbers as missing.
func firstString(root gjson.Result, paths []string) entity.Optional[string] {
	for _, path := range paths {
		value := root.Get(path)

		switch value.Type {
		case gjson.String:
			if value.Str != "" {
				return entity.Some(value.Str)
			}
		case gjson.Number:
			if value.Num != 0 {
				return entity.Some(value.Raw)
			}
		}
	}

	return entity.None[string]()
}

func firstStatus(root gjson.Result, paths []string) entity.Optional[entity.Status] {
	for _, path := range paths {
		value := root.Get(path)
		if value.Type != gjson.String {
			continue
		}

		if status, ok := entity.ParseStatus(value.Str); ok {
			return entity.Some(status)
		}
	}

	return entity.None[entity.Status]()
}

func firstBoard(root gjson.Result, paths []string) entity.Optional[entity.Board] {
	for _, path := range paths {
		value := root.Get(path)
		if !value.IsArray() {
			continue
		}

		if board, ok := parseBoard(value); ok {
			return entity.Some(board)
		}
	}

	return entity.None[entity.Board]()
}

func parseBoard(value gjson.Result) (entity.Board, bool) {
	rows := value.Array()
	board := make(entity.Board, 0, len(rows))

	for _, row := range rows {
		if !row.IsArray() {
			return nil, false
		}

		cells := row.Array()
		parsed := make([]entity.Cell, 0, len(cells))

		for _, cell := range cells {
			if cell.Type != gjson.Number || cell.Num != float64(int(cell.Num)) {
				return nil, false
			}

			c := entity.Cell(cell.Int())
			if !c.IsValid() {
				return nil, false
			}

			parsed = append(parsed, c)
		}

		board = append(board, parsed)
	}

	if !board.IsRectangular() {
		return nil, false
	}

	return board, true
}

// boolAt only accepts a real JSON boolean.
func boolAt(root gjson.Result, path string) entity.Optional[bool] {
	value := root.Get(path)

	switch value.Type {
	case gjson.True:
		return entity.Some(true)
	case gjson.False:
		return entity.Some(false)
	default:
		return entity.None[bool]()
	}
}
