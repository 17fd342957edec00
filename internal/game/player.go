// internal/game/player.go
package game

// Identity is a resolved participant: either a registered user (id from the
// users table) or a guest (id prefixed "guest-"). Immutable for the life of a
// connection; name and avatar are refreshed on reconnect.
type Identity struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Player is one identity's record inside a Room. Records are created on first
// join and survive disconnects (Connected flips to false, the conn reference
// is cleared); only a kick deletes the record.
//
// Invariant: Connected == true iff conn != nil.
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	Connected bool   `json:"connected"`

	conn Conn
}

// Public returns the wire-safe view of the player.
func (p *Player) Public() PlayerInfo {
	return PlayerInfo{
		ID:        p.ID,
		Name:      p.Name,
		Avatar:    p.Avatar,
		Connected: p.Connected,
	}
}

// PlayerInfo is the player shape sent to clients.
type PlayerInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	Connected bool   `json:"connected"`
}
