// internal/game/room_test.go
package game

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn records frames instead of sending them over a websocket.
type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (c *fakeConn) Send(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, data)
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// eventTypes decodes every recorded frame's type tag, in order.
func (c *fakeConn) eventTypes(t *testing.T) []string {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	types := make([]string, 0, len(c.frames))
	for _, frame := range c.frames {
		var ev struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(frame, &ev))
		types = append(types, ev.Type)
	}
	return types
}

func (c *fakeConn) countType(t *testing.T, typ string) int {
	t.Helper()
	n := 0
	for _, got := range c.eventTypes(t) {
		if got == typ {
			n++
		}
	}
	return n
}

func newTestRoom(maxPlayers int) *Room {
	return NewRoom("ABC123", "owner", maxPlayers, 3, []string{"col-1"}, nil)
}

func ident(id string) Identity {
	return Identity{ID: id, Name: "name-" + id, Avatar: "avatar-" + id}
}

func TestOwnerReservesSlotWhileAbsent(t *testing.T) {
	r := newTestRoom(4)

	// Owner never connects: effectiveMax is 3 for everyone else.
	require.True(t, r.AddPlayer(&fakeConn{}, ident("B")).Success)
	require.True(t, r.AddPlayer(&fakeConn{}, ident("C")).Success)

	ok, _ := r.CanJoin("D")
	assert.True(t, ok)
	require.True(t, r.AddPlayer(&fakeConn{}, ident("D")).Success)

	ok, reason := r.CanJoin("E")
	assert.False(t, ok)
	assert.Equal(t, "Game is full", reason)

	res := r.AddPlayer(&fakeConn{}, ident("E"))
	assert.False(t, res.Success)
	assert.Equal(t, "Game is full", res.Error)

	// The owner is never capacity-checked and reclaims the reserved slot.
	ok, _ = r.CanJoin("owner")
	assert.True(t, ok)
	require.True(t, r.AddPlayer(&fakeConn{}, ident("owner")).Success)
	assert.Equal(t, 4, r.ConnectedCount())

	// Room is now truly full; the reserved slot is occupied by the owner.
	ok, reason = r.CanJoin("E")
	assert.False(t, ok)
	assert.Equal(t, "Game is full", reason)
}

func TestAlreadyConnectedRejected(t *testing.T) {
	r := newTestRoom(4)
	require.True(t, r.AddPlayer(&fakeConn{}, ident("B")).Success)

	res := r.AddPlayer(&fakeConn{}, ident("B"))
	assert.False(t, res.Success)
	assert.Equal(t, "Player already in game", res.Error)

	// Same rule applies to the owner.
	require.True(t, r.AddPlayer(&fakeConn{}, ident("owner")).Success)
	res = r.AddPlayer(&fakeConn{}, ident("owner"))
	assert.False(t, res.Success)
}

func TestJoinSnapshotAndBroadcast(t *testing.T) {
	r := newTestRoom(4)

	connB := &fakeConn{}
	require.True(t, r.AddPlayer(connB, ident("B")).Success)

	// Joiner gets the snapshot only, no echo of its own join.
	assert.Equal(t, []string{EventGameInfo}, connB.eventTypes(t))

	connC := &fakeConn{}
	require.True(t, r.AddPlayer(connC, ident("C")).Success)

	assert.Equal(t, []string{EventGameInfo}, connC.eventTypes(t))
	assert.Equal(t, []string{EventGameInfo, EventPlayerJoined}, connB.eventTypes(t))

	// Snapshot carries both records with connected flags.
	var snap GameInfoEvent
	connC.mu.Lock()
	require.NoError(t, json.Unmarshal(connC.frames[0], &snap))
	connC.mu.Unlock()
	assert.Equal(t, "ABC123", snap.Data.ID)
	assert.Equal(t, "owner", snap.Data.Owner)
	assert.Equal(t, StatusLobby, snap.Data.Status)
	assert.Len(t, snap.Data.Players, 2)
}

func TestReconnectRefreshesNameAndAvatar(t *testing.T) {
	r := newTestRoom(4)
	require.True(t, r.AddPlayer(&fakeConn{}, ident("B")).Success)
	r.RemovePlayer("B")

	updated := Identity{ID: "B", Name: "renamed", Avatar: "new-avatar"}
	require.True(t, r.AddPlayer(&fakeConn{}, updated).Success)

	p, ok := r.GetPlayer("B")
	require.True(t, ok)
	assert.Equal(t, "renamed", p.Name)
	assert.Equal(t, "new-avatar", p.Avatar)
	assert.True(t, p.Connected)
}

func TestRemovePlayerIdempotent(t *testing.T) {
	r := newTestRoom(4)
	connB := &fakeConn{}
	require.True(t, r.AddPlayer(connB, ident("B")).Success)
	require.True(t, r.AddPlayer(&fakeConn{}, ident("C")).Success)

	r.RemovePlayer("C")
	r.RemovePlayer("C")
	r.RemovePlayer("never-joined")

	// Exactly one disconnect broadcast despite the repeats.
	assert.Equal(t, 1, connB.countType(t, EventPlayerDisconnected))

	// Disconnect keeps the record, marked disconnected with no handle.
	p, ok := r.GetPlayer("C")
	require.True(t, ok)
	assert.False(t, p.Connected)
	assert.Nil(t, p.conn)
}

func TestJoinThenImmediateDisconnect(t *testing.T) {
	r := newTestRoom(4)
	require.True(t, r.AddPlayer(&fakeConn{}, ident("B")).Success)
	r.RemovePlayer("B")

	assert.Equal(t, 0, r.ConnectedCount())
	p, ok := r.GetPlayer("B")
	require.True(t, ok)
	assert.False(t, p.Connected)
	assert.Nil(t, p.conn)

	// Rejoining reuses the single record.
	require.True(t, r.AddPlayer(&fakeConn{}, ident("B")).Success)
	assert.Len(t, r.Info().Players, 1)
}

func TestKickRemovesRecordEntirely(t *testing.T) {
	r := newTestRoom(4)
	connB := &fakeConn{}
	connC := &fakeConn{}
	require.True(t, r.AddPlayer(connB, ident("B")).Success)
	require.True(t, r.AddPlayer(connC, ident("C")).Success)

	// Non-owner cannot kick; B unaffected.
	res := r.KickPlayer("B", "C")
	assert.False(t, res.Success)
	assert.Equal(t, "Only the owner can kick players", res.Error)
	_, ok := r.GetPlayer("B")
	assert.True(t, ok)

	res = r.KickPlayer("B", "owner")
	require.True(t, res.Success)
	assert.True(t, connB.isClosed())
	_, ok = r.GetPlayer("B")
	assert.False(t, ok)
	assert.Equal(t, 1, connC.countType(t, EventPlayerKicked))

	// Kick is not a ban: the same identity rejoins as a fresh join.
	require.True(t, r.AddPlayer(&fakeConn{}, ident("B")).Success)
	p, ok := r.GetPlayer("B")
	require.True(t, ok)
	assert.True(t, p.Connected)
}

func TestKickUnknownPlayer(t *testing.T) {
	r := newTestRoom(4)
	res := r.KickPlayer("ghost", "owner")
	assert.False(t, res.Success)
	assert.Equal(t, "Player not found", res.Error)
}

func TestStartGameRules(t *testing.T) {
	r := newTestRoom(4)
	connB := &fakeConn{}
	require.True(t, r.AddPlayer(connB, ident("B")).Success)
	require.True(t, r.AddPlayer(&fakeConn{}, ident("C")).Success)

	// Non-owner cannot start; room stays in lobby.
	res := r.StartGame("B")
	assert.False(t, res.Success)
	assert.Equal(t, "Only the owner can start the game", res.Error)
	assert.Equal(t, StatusLobby, r.Status())

	// Two connected players is not enough.
	res = r.StartGame("owner")
	assert.False(t, res.Success)
	assert.Equal(t, "Need at least 3 players to start the game", res.Error)
	assert.Equal(t, StatusLobby, r.Status())

	// Exactly three suffices.
	require.True(t, r.AddPlayer(&fakeConn{}, ident("D")).Success)
	res = r.StartGame("owner")
	require.True(t, res.Success)
	assert.Equal(t, StatusPlaying, r.Status())
	assert.Equal(t, 1, connB.countType(t, EventGameStarted))
}

func TestBroadcastExcludesAndSkipsDisconnected(t *testing.T) {
	r := newTestRoom(4)
	connB := &fakeConn{}
	connC := &fakeConn{}
	connD := &fakeConn{}
	require.True(t, r.AddPlayer(connB, ident("B")).Success)
	require.True(t, r.AddPlayer(connC, ident("C")).Success)
	require.True(t, r.AddPlayer(connD, ident("D")).Success)

	r.RemovePlayer("D")
	framesBeforeD := len(connD.eventTypes(t))

	r.Broadcast(NewErrorEvent("ping"), "B")

	assert.Equal(t, 0, connB.countType(t, EventError))
	assert.Equal(t, 1, connC.countType(t, EventError))
	// Disconnected member got nothing new.
	assert.Len(t, connD.eventTypes(t), framesBeforeD)
}

func TestCleanupFiresAfterLastDisconnect(t *testing.T) {
	deleted := make(chan struct{})
	r := NewRoom("CLN001", "owner", 4, 3, nil, func() { close(deleted) })
	r.CleanupDelay = 20 * time.Millisecond

	// Joining cancels the creation-time timer; the disconnect re-arms it
	// with the short test delay.
	require.True(t, r.AddPlayer(&fakeConn{}, ident("B")).Success)
	r.RemovePlayer("B")

	select {
	case <-deleted:
	case <-time.After(time.Second):
		t.Fatal("cleanup did not fire after last disconnect")
	}
}

func TestCleanupCancelledByRejoin(t *testing.T) {
	deleted := make(chan struct{})
	r := NewRoom("CLN002", "owner", 4, 3, nil, func() { close(deleted) })
	r.CleanupDelay = 50 * time.Millisecond

	require.True(t, r.AddPlayer(&fakeConn{}, ident("B")).Success)
	r.RemovePlayer("B")

	// Rejoin inside the delay window cancels deletion deterministically.
	time.Sleep(10 * time.Millisecond)
	require.True(t, r.AddPlayer(&fakeConn{}, ident("B")).Success)

	select {
	case <-deleted:
		t.Fatal("cleanup fired despite rejoin")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestCleanupNotArmedWhileAnyoneConnected(t *testing.T) {
	deleted := make(chan struct{})
	r := NewRoom("CLN003", "owner", 4, 3, nil, func() { close(deleted) })
	r.CleanupDelay = 20 * time.Millisecond

	require.True(t, r.AddPlayer(&fakeConn{}, ident("B")).Success)
	require.True(t, r.AddPlayer(&fakeConn{}, ident("C")).Success)
	r.RemovePlayer("B")

	select {
	case <-deleted:
		t.Fatal("cleanup fired while a player was still connected")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestKickLastPlayerArmsCleanup(t *testing.T) {
	deleted := make(chan struct{})
	r := NewRoom("CLN004", "owner", 4, 3, nil, func() { close(deleted) })
	r.CleanupDelay = 20 * time.Millisecond

	require.True(t, r.AddPlayer(&fakeConn{}, ident("B")).Success)
	require.True(t, r.KickPlayer("B", "owner").Success)

	select {
	case <-deleted:
	case <-time.After(time.Second):
		t.Fatal("cleanup did not fire after kicking the last player")
	}
}

func TestConnectedCountNeverExceedsMax(t *testing.T) {
	r := newTestRoom(4)
	require.True(t, r.AddPlayer(&fakeConn{}, ident("owner")).Success)
	for _, id := range []string{"B", "C", "D", "E", "F"} {
		r.AddPlayer(&fakeConn{}, ident(id))
		assert.LessOrEqual(t, r.ConnectedCount(), r.MaxPlayers)
	}
	assert.Equal(t, 4, r.ConnectedCount())
}
