// internal/game/events.go
package game

import (
	"encoding/json"
	"fmt"
	"time"
)

// Server -> client event types.
const (
	EventGameInfo           = "game_info"
	EventPlayerJoined       = "player_joined"
	EventPlayerDisconnected = "player_disconnected"
	EventPlayerKicked       = "player_kicked"
	EventGameStarted        = "game_started"
	EventError              = "error"
)

// Client -> server command types.
const (
	CommandKickPlayer = "kick_player"
	CommandStartGame  = "start_game"
)

// RoomInfo is the full room snapshot carried by a game_info event and by the
// room creation response.
type RoomInfo struct {
	ID          string       `json:"id"`
	Owner       string       `json:"owner"`
	MaxPlayers  int          `json:"maxPlayers"`
	NumRounds   int          `json:"numRounds"`
	Collections []string     `json:"collections"`
	CreatedAt   time.Time    `json:"createdAt"`
	Players     []PlayerInfo `json:"players"`
	Status      Status       `json:"status"`
}

// GameInfoEvent is sent only to a newly joined connection.
type GameInfoEvent struct {
	Type string   `json:"type"`
	Data RoomInfo `json:"data"`
}

// PlayerJoinedEvent is broadcast to everyone except the joiner.
type PlayerJoinedEvent struct {
	Type string     `json:"type"`
	Data PlayerInfo `json:"data"`
}

// PlayerRefEvent carries only a player id; used for player_disconnected and
// player_kicked.
type PlayerRefEvent struct {
	Type string `json:"type"`
	Data struct {
		PlayerID string `json:"playerId"`
	} `json:"data"`
}

// GameStartedEvent has no payload.
type GameStartedEvent struct {
	Type string `json:"type"`
}

// ErrorEvent relays a rejection or malformed-input message to one connection.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func newGameInfoEvent(info RoomInfo) GameInfoEvent {
	return GameInfoEvent{Type: EventGameInfo, Data: info}
}

func newPlayerJoinedEvent(p PlayerInfo) PlayerJoinedEvent {
	return PlayerJoinedEvent{Type: EventPlayerJoined, Data: p}
}

func newPlayerRefEvent(typ, playerID string) PlayerRefEvent {
	ev := PlayerRefEvent{Type: typ}
	ev.Data.PlayerID = playerID
	return ev
}

// NewErrorEvent builds an error frame for a single connection.
func NewErrorEvent(msg string) ErrorEvent {
	return ErrorEvent{Type: EventError, Message: msg}
}

// EncodeEvent marshals a server event once, for fan-out.
func EncodeEvent(ev interface{}) []byte {
	data, err := json.Marshal(ev)
	if err != nil {
		// All event types above marshal unconditionally; this is programmer error.
		panic(fmt.Sprintf("game: unmarshalable event %T: %v", ev, err))
	}
	return data
}

// ClientEvent is a decoded client command. The set is closed: the dispatch
// switch in the gateway handles every concrete type.
type ClientEvent interface {
	clientEvent()
}

// KickPlayerCommand asks the room to kick a player. Owner only.
type KickPlayerCommand struct {
	PlayerID string
}

// StartGameCommand asks the room to leave the lobby. Owner only.
type StartGameCommand struct{}

func (KickPlayerCommand) clientEvent() {}
func (StartGameCommand) clientEvent()  {}

// DecodeClientEvent parses an inbound frame into one of the known commands.
// Unknown or malformed payloads return an error; the connection is answered
// with an error frame and stays open.
func DecodeClientEvent(data []byte) (ClientEvent, error) {
	var raw struct {
		Type     string `json:"type"`
		PlayerID string `json:"playerId"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid message format: %w", err)
	}

	switch raw.Type {
	case CommandKickPlayer:
		if raw.PlayerID == "" {
			return nil, fmt.Errorf("kick_player requires playerId")
		}
		return KickPlayerCommand{PlayerID: raw.PlayerID}, nil
	case CommandStartGame:
		return StartGameCommand{}, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", raw.Type)
	}
}
