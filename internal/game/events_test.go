// internal/game/events_test.go
package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClientEvent(t *testing.T) {
	ev, err := DecodeClientEvent([]byte(`{"type":"kick_player","playerId":"guest-ABC123"}`))
	require.NoError(t, err)
	kick, ok := ev.(KickPlayerCommand)
	require.True(t, ok)
	assert.Equal(t, "guest-ABC123", kick.PlayerID)

	ev, err = DecodeClientEvent([]byte(`{"type":"start_game"}`))
	require.NoError(t, err)
	_, ok = ev.(StartGameCommand)
	assert.True(t, ok)
}

func TestDecodeClientEventRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"malformed json":  `{"type":`,
		"unknown type":    `{"type":"dance"}`,
		"empty type":      `{}`,
		"kick without id": `{"type":"kick_player"}`,
		"non-object":      `"start_game"`,
	}
	for name, payload := range cases {
		_, err := DecodeClientEvent([]byte(payload))
		assert.Error(t, err, name)
	}
}

func TestErrorEventShape(t *testing.T) {
	data := EncodeEvent(NewErrorEvent("Game is full"))

	var frame map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, "error", frame["type"])
	assert.Equal(t, "Game is full", frame["message"])
}
