package entity

// SessionIdentity is the local player's credentials as understood by the client.
type SessionIdentity struct {
	Username    string           `json:"username"`
	PlayerToken Optional[string] `json:"playerToken"`
	TurnHint    Optional[bool]   `json:"yourTurn"`
}

// AcceptToken stores token unless one is already set. It reports whether the token was taken.
func (that *SessionIdentity) AcceptToken(token string) bool {
	if token == "" || that.PlayerToken.IsSet() {
		return false
	}

	that.PlayerToken = Some(token)

	return true
}

type LeaderboardEntry struct {
	Username string `json:"username"`
	Wins     int    `json:"wins"`
}
