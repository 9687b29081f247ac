package websocket

import "encoding/json"

const (
	ActionJoinGame = "join_game"
	ActionMakeMove = "make_move"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Identity struct {
	Username string `json:"username"`
}

type MovePayload struct {
	ColumnIndex int `json:"columnIndex"`
}

func encodeMessage(action string, payload any) ([]byte, error) {
	var body json.RawMessage

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = raw
	}

	return json.Marshal(Message{Action: action, Payload: body})
}
