package normalizer

import (
	"testing"

	"github.com/rocketscienceinc/connectfour-client/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_FieldCandidates(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		check   func(t *testing.T, delta Delta)
	}{
		{
			name:    "currentTurn wins over turn",
			payload: `{"currentTurn":"alice","turn":"bob"}`,
			check: func(t *testing.T, delta Delta) {
				assert.Equal(t, entity.Some("alice"), delta.CurrentTurn)
			},
		},
		{
			name:    "turn is used when currentTurn is empty",
			payload: `{"currentTurn":"","turn":"bob"}`,
			check: func(t *testing.T, delta Delta) {
				assert.Equal(t, entity.Some("bob"), delta.CurrentTurn)
			},
		},
		{
			name:    "gameStatus wins over status",
			payload: `{"gameStatus":"ACTIVE","status":"ENDED"}`,
			check: func(t *testing.T, delta Delta) {
				assert.Equal(t, entity.Some(entity.StatusActive), delta.Status)
			},
		},
		{
			name:    "unknown status falls through to the next candidate",
			payload: `{"gameStatus":"PAUSED","status":"ended"}`,
			check: func(t *testing.T, delta Delta) {
				assert.Equal(t, entity.Some(entity.StatusEnded), delta.Status)
			},
		},
		{
			name:    "nested result.winner",
			payload: `{"result":{"winner":"alice"}}`,
			check: func(t *testing.T, delta Delta) {
				assert.Equal(t, entity.Some("alice"), delta.Winner)
			},
		},
		{
			name:    "explicit winner wins over result.winner",
			payload: `{"winner":"bob","result":{"winner":"alice"}}`,
			check: func(t *testing.T, delta Delta) {
				assert.Equal(t, entity.Some("bob"), delta.Winner)
			},
		},
		{
			name:    "result reason candidates in order",
			payload: `{"reason":"draw","outcome":"disconnect"}`,
			check: func(t *testing.T, delta Delta) {
				assert.Equal(t, entity.Some("draw"), delta.ResultReason)
			},
		},
		{
			name:    "outcome is the last resort",
			payload: `{"outcome":"disconnect"}`,
			check: func(t *testing.T, delta Delta) {
				assert.Equal(t, entity.Some("disconnect"), delta.ResultReason)
			},
		},
		{
			name:    "nested game.board",
			payload: `{"game":{"board":[[0,1],[2,0]]}}`,
			check: func(t *testing.T, delta Delta) {
				board, ok := delta.Board.Get()
				require.True(t, ok)
				assert.Equal(t, entity.Board{{0, 1}, {2, 0}}, board)
			},
		},
		{
			name:    "malformed board falls back to nested board",
			payload: `{"board":[[0,3]],"game":{"board":[[1]]}}`,
			check: func(t *testing.T, delta Delta) {
				assert.Equal(t, entity.Some(entity.Board{{1}}), delta.Board)
			},
		},
		{
			name:    "ragged board is ignored",
			payload: `{"board":[[0,0],[0]]}`,
			check: func(t *testing.T, delta Delta) {
				assert.False(t, delta.Board.IsSet())
			},
		},
		{
			name:    "turn hint must be a boolean",
			payload: `{"yourTurn":"true"}`,
			check: func(t *testing.T, delta Delta) {
				assert.False(t, delta.TurnHint.IsSet())
			},
		},
		{
			name:    "false turn hint is present",
			payload: `{"yourTurn":false}`,
			check: func(t *testing.T, delta Delta) {
				assert.Equal(t, entity.Some(false), delta.TurnHint)
			},
		},
		{
			name:    "token candidates in order",
			payload: `{"playerSymbol":"X","playerId":"id-1","you":"me"}`,
			check: func(t *testing.T, delta Delta) {
				assert.Equal(t, entity.Some("X"), delta.PlayerToken)
			},
		},
		{
			name:    "numeric token is stringified",
			payload: `{"playerId":7}`,
			check: func(t *testing.T, delta Delta) {
				assert.Equal(t, entity.Some("7"), delta.PlayerToken)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delta := Normalize(KindStateUpdate, []byte(tt.payload))
			tt.check(t, delta)
		})
	}
}

func TestNormalize_Tolerance(t *testing.T) {
	t.Run("Missing fields are absent, not reset", func(t *testing.T) {
		// Given: a payload that only carries the turn
		payload := []byte(`{"turn":"bob"}`)

		// When: it is normalized
		delta := Normalize(KindStateUpdate, payload)

		// Then: every other field is absent
		assert.Equal(t, KindStateUpdate, delta.Kind)
		assert.False(t, delta.Board.IsSet())
		assert.False(t, delta.Status.IsSet())
		assert.False(t, delta.Winner.IsSet())
		assert.False(t, delta.ResultReason.IsSet())
		assert.False(t, delta.TurnHint.IsSet())
		assert.False(t, delta.PlayerToken.IsSet())
	})

	t.Run("Garbage payloads produce an empty delta", func(t *testing.T) {
		for _, payload := range []string{``, `null`, `42`, `"text"`, `[1,2]`, `{not json`} {
			delta := Normalize(KindSessionEnded, []byte(payload))
			assert.True(t, delta.IsEmpty(), payload)
			assert.Equal(t, KindSessionEnded, delta.Kind)
		}
	})

	t.Run("Null values are treated as missing", func(t *testing.T) {
		delta := Normalize(KindStateUpdate, []byte(`{"winner":null,"currentTurn":null,"turn":"bob","playerToken":null}`))

		assert.False(t, delta.Winner.IsSet())
		assert.False(t, delta.PlayerToken.IsSet())
		assert.Equal(t, entity.Some("bob"), delta.CurrentTurn)
	})
}

func TestKind_IsValid(t *testing.T) {
	assert.True(t, KindSessionStarted.IsValid())
	assert.True(t, KindStateUpdate.IsValid())
	assert.True(t, KindSessionEnded.IsValid())
	assert.False(t, Kind("join_game").IsValid())
}
