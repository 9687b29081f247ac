// Package turn decides whether the local player may act.
package turn

import "github.com/rocketscienceinc/connectfour-client/internal/entity"

type Input struct {
	Status      entity.Status
	Hint        entity.Optional[bool]
	CurrentTurn entity.Optional[string]
	PlayerToken entity.Optional[string]
	Username    string
}

// Resolve - an explicit hint from the server always wins over identifier matching.
func Resolve(in Input) bool {
	if in.Status != entity.StatusActive {
		return false
	}

	if hint, ok := in.Hint.Get(); ok {
		return hint
	}

	current, ok := in.CurrentTurn.Get()
	if !ok || current == "" {
		return false
	}

	if token, ok := in.PlayerToken.Get(); ok && token != "" && current == token {
		return true
	}

	return in.Username != "" && current == in.Username
}

// FromSnapshot builds the resolver input from a game state and the local identity.
func FromSnapshot(game entity.GameState, identity entity.SessionIdentity) Input {
	return Input{
		Status:      game.Status,
		Hint:        identity.TurnHint,
		CurrentTurn: game.CurrentTurn,
		PlayerToken: identity.PlayerToken,
		Username:    identity.Username,
	}
}
