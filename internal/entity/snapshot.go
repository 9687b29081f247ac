package entity

type ConnectionStatus string

const (
	ConnectionDisconnected ConnectionStatus = "disconnected"
	ConnectionConnecting   ConnectionStatus = "connecting"
	ConnectionConnected    ConnectionStatus = "connected"
)

// Snapshot is a read-only view of a session published after every change.
type Snapshot struct {
	Version    uint64           `json:"version"`
	Game       GameState        `json:"game"`
	Identity   SessionIdentity  `json:"identity"`
	Connection ConnectionStatus `json:"connection"`
	YourTurn   bool             `json:"yourTurn"`
}

func (that Snapshot) Clone() Snapshot {
	clone := that
	clone.Game = that.Game.Clone()
	return clone
}
