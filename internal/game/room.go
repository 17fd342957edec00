// internal/game/room.go
package game

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Status is the room lifecycle state. Only lobby -> playing is reachable
// here; finished is left to round logic.
type Status string

const (
	StatusLobby    Status = "lobby"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// DefaultCleanupDelay is how long a fully disconnected room survives before
// its deletion callback fires.
const DefaultCleanupDelay = 5 * time.Minute

// JoinResult reports the outcome of a room mutation. Business-rule failures
// are values, never errors, so the gateway can relay them uniformly.
type JoinResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Room is the single source of truth for one game's membership and broadcast
// semantics. All exported methods lock the room; ...Unsafe variants assume
// the caller holds the lock. The owner need not be present in the players
// map, and a disconnected owner still reserves a capacity slot.
type Room struct {
	ID          string
	Owner       string
	MaxPlayers  int
	NumRounds   int
	Collections []string
	CreatedAt   time.Time

	// CleanupDelay defaults to DefaultCleanupDelay; tests shorten it.
	CleanupDelay time.Duration

	// OnDelete removes this room from its registry. Assigned by the code
	// that creates and stores the room, e.g. Registry.Create.
	OnDelete func()

	mu           sync.Mutex
	status       Status
	players      map[string]*Player
	cleanupTimer *time.Timer
}

// NewRoom builds a room in the lobby state. The room starts empty with its
// cleanup timer already armed, so a room nobody ever connects to is
// reclaimed like any abandoned one.
func NewRoom(id, owner string, maxPlayers, numRounds int, collections []string, onDelete func()) *Room {
	r := &Room{
		ID:           id,
		Owner:        owner,
		MaxPlayers:   maxPlayers,
		NumRounds:    numRounds,
		Collections:  collections,
		CreatedAt:    time.Now(),
		CleanupDelay: DefaultCleanupDelay,
		OnDelete:     onDelete,
		status:       StatusLobby,
		players:      make(map[string]*Player),
	}

	r.mu.Lock()
	r.scheduleCleanupUnsafe()
	r.mu.Unlock()

	return r
}

// CanJoin reports whether the identity may join right now. Pure decision, no
// mutation.
func (r *Room) CanJoin(playerID string) (bool, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.canJoinUnsafe(playerID)
}

// canJoinUnsafe implements the capacity arbitration. The owner is privileged:
// after the already-connected check they are always allowed, and while absent
// they reserve one slot (effectiveMax = MaxPlayers-1 for everyone else).
func (r *Room) canJoinUnsafe(playerID string) (bool, string) {
	if p, ok := r.players[playerID]; ok && p.Connected {
		return false, "Player already in game"
	}

	if playerID == r.Owner {
		return true, ""
	}

	connected := r.connectedCountUnsafe()

	effectiveMax := r.MaxPlayers
	if owner, ok := r.players[r.Owner]; !ok || !owner.Connected {
		effectiveMax = r.MaxPlayers - 1
	}

	if connected < effectiveMax {
		return true, ""
	}
	return false, "Game is full"
}

// AddPlayer registers a connection for the identity. On a reconnect the
// existing record is refreshed (name/avatar may have changed); otherwise a
// new record is created. The joiner alone receives a game_info snapshot, and
// everyone else gets player_joined. Cannot fail after validation passes.
func (r *Room) AddPlayer(conn Conn, user Identity) JoinResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ok, reason := r.canJoinUnsafe(user.ID); !ok {
		return JoinResult{Success: false, Error: reason}
	}

	r.cancelCleanupUnsafe()

	if p, ok := r.players[user.ID]; ok {
		p.Name = user.Name
		p.Avatar = user.Avatar
		p.Connected = true
		p.conn = conn
	} else {
		r.players[user.ID] = &Player{
			ID:        user.ID,
			Name:      user.Name,
			Avatar:    user.Avatar,
			Connected: true,
			conn:      conn,
		}
	}

	conn.Send(EncodeEvent(newGameInfoEvent(r.infoUnsafe())))
	r.broadcastUnsafe(EncodeEvent(newPlayerJoinedEvent(r.players[user.ID].Public())), user.ID)

	log.Infof("Room %s: player %s (%s) joined", r.ID, user.ID, user.Name)
	return JoinResult{Success: true}
}

// RemovePlayer marks the identity disconnected. This is the ordinary
// disconnect path: the record stays so the player can reconnect. Idempotent;
// unknown or already-disconnected identities are a no-op and nothing is
// re-broadcast.
func (r *Room) RemovePlayer(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok || !p.Connected {
		return
	}

	p.Connected = false
	p.conn = nil

	r.broadcastUnsafe(EncodeEvent(newPlayerRefEvent(EventPlayerDisconnected, playerID)), "")
	r.scheduleCleanupUnsafe()

	log.Infof("Room %s: player %s disconnected", r.ID, playerID)
}

// KickPlayer removes the identity's record entirely. Owner only. The kicked
// connection is closed server-side. Kick is not a ban: the same identity may
// later rejoin as a brand-new join.
func (r *Room) KickPlayer(playerID, requesterID string) JoinResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requesterID != r.Owner {
		return JoinResult{Success: false, Error: "Only the owner can kick players"}
	}

	p, ok := r.players[playerID]
	if !ok {
		return JoinResult{Success: false, Error: "Player not found"}
	}

	if p.conn != nil {
		p.conn.Close()
	}
	delete(r.players, playerID)

	r.broadcastUnsafe(EncodeEvent(newPlayerRefEvent(EventPlayerKicked, playerID)), "")
	r.scheduleCleanupUnsafe()

	log.Infof("Room %s: player %s kicked by %s", r.ID, playerID, requesterID)
	return JoinResult{Success: true}
}

// StartGame transitions lobby -> playing. Owner only, and at least three
// connected players are required.
func (r *Room) StartGame(requesterID string) JoinResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	if requesterID != r.Owner {
		return JoinResult{Success: false, Error: "Only the owner can start the game"}
	}
	if r.connectedCountUnsafe() < 3 {
		return JoinResult{Success: false, Error: "Need at least 3 players to start the game"}
	}

	r.status = StatusPlaying
	r.broadcastUnsafe(EncodeEvent(GameStartedEvent{Type: EventGameStarted}), "")

	log.Infof("Room %s: game started by %s", r.ID, requesterID)
	return JoinResult{Success: true}
}

// Broadcast serializes the event once and fans it out to every connected
// member except excludePlayerID (empty excludes nobody).
func (r *Room) Broadcast(ev interface{}, excludePlayerID string) {
	data := EncodeEvent(ev)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastUnsafe(data, excludePlayerID)
}

// broadcastUnsafe sends pre-encoded bytes. Send failures on individual
// connections neither retry nor abort the loop; a dead connection cleans
// itself up through its own close event. Conn.Send never blocks, so holding
// the lock here is safe.
func (r *Room) broadcastUnsafe(data []byte, excludePlayerID string) {
	for id, p := range r.players {
		if p.Connected && p.conn != nil && id != excludePlayerID {
			p.conn.Send(data)
		}
	}
}

// scheduleCleanupUnsafe arms the deferred deletion if no one is connected.
// Debounced: any existing timer is cancelled first, so each disconnect
// resets the countdown rather than stacking timers.
func (r *Room) scheduleCleanupUnsafe() {
	r.cancelCleanupUnsafe()

	for _, p := range r.players {
		if p.Connected {
			return
		}
	}

	var timer *time.Timer
	timer = time.AfterFunc(r.CleanupDelay, func() {
		r.mu.Lock()
		// A join may have cancelled and outraced us; only the current timer
		// may delete the room.
		if r.cleanupTimer != timer {
			r.mu.Unlock()
			return
		}
		r.cleanupTimer = nil
		onDelete := r.OnDelete
		r.mu.Unlock()

		log.Infof("Room %s: deleting inactive room", r.ID)
		if onDelete != nil {
			onDelete()
		}
	})
	r.cleanupTimer = timer
}

// cancelCleanupUnsafe stops any pending deletion.
func (r *Room) cancelCleanupUnsafe() {
	if r.cleanupTimer != nil {
		r.cleanupTimer.Stop()
		r.cleanupTimer = nil
	}
}

func (r *Room) connectedCountUnsafe() int {
	n := 0
	for _, p := range r.players {
		if p.Connected {
			n++
		}
	}
	return n
}

// ConnectedCount returns how many records are currently connected.
func (r *Room) ConnectedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connectedCountUnsafe()
}

// GetPlayer returns the record for an identity, if present.
func (r *Room) GetPlayer(playerID string) (*Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[playerID]
	return p, ok
}

// Status returns the current lifecycle state.
func (r *Room) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Info returns the full snapshot sent in game_info and creation responses.
func (r *Room) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.infoUnsafe()
}

func (r *Room) infoUnsafe() RoomInfo {
	players := make([]PlayerInfo, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p.Public())
	}
	return RoomInfo{
		ID:          r.ID,
		Owner:       r.Owner,
		MaxPlayers:  r.MaxPlayers,
		NumRounds:   r.NumRounds,
		Collections: r.Collections,
		CreatedAt:   r.CreatedAt,
		Players:     players,
		Status:      r.status,
	}
}
