package usecase

import (
	"fmt"

	"github.com/rocketscienceinc/connectfour-client/internal/entity"
)

const (
	statusWaiting      = "Waiting for opponent..."
	statusYourTurn     = "Your turn"
	statusOpponentTurn = "Opponent's turn"
	statusGameEnded    = "Game ended"
)

type BoardView struct {
	Grid     entity.Board
	Disabled bool
}

// NewBoardView - the board accepts input only during an active game on the player's turn.
func NewBoardView(snapshot entity.Snapshot) BoardView {
	return BoardView{
		Grid:     snapshot.Game.Board.Clone(),
		Disabled: !snapshot.Game.IsActive() || !snapshot.YourTurn,
	}
}

func StatusLine(snapshot entity.Snapshot) string {
	game := snapshot.Game

	switch {
	case game.IsWaiting():
		return statusWaiting
	case game.IsActive() && snapshot.YourTurn:
		return statusYourTurn
	case game.IsActive():
		return statusOpponentTurn
	}

	winner, hasWinner := game.Winner.Get()
	reason, hasReason := game.ResultReason.Get()

	switch {
	case hasWinner && hasReason:
		return fmt.Sprintf("%s wins (%s)", winner, reason)
	case hasWinner:
		return winner + " wins"
	case hasReason:
		return reason
	default:
		return statusGameEnded
	}
}

func CanPlayAgain(snapshot entity.Snapshot) bool {
	return snapshot.Game.IsEnded()
}
